package exposure

import (
	"livelens/internal/sheet"
)

// PostFilter applies the final confidence and duration gates after
// transcript fusion. Audio confirmed segments pass at 0.40 confidence and
// 5s; vision-only segments need 0.45 and 8s. The second return is the number
// of segments dropped.
func PostFilter(segments []Segment) ([]Segment, int) {
	var kept []Segment
	dropped := 0
	for _, seg := range segments {
		duration := seg.Duration()
		pass := false
		if seg.AudioConfirmed {
			pass = seg.Confidence >= 0.40 && duration >= 5.0
		} else {
			pass = seg.Confidence >= 0.45 && duration >= 8.0
		}
		if pass {
			kept = append(kept, seg)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// FillBrandInfo copies brand names and image URLs from the catalogue onto
// segments by exact product name. Unknown products get empty fields.
func FillBrandInfo(segments []Segment, products []sheet.Product) []Segment {
	type info struct {
		brand string
		image string
	}
	byName := make(map[string]info, len(products))
	for _, p := range products {
		if p.Name == "" {
			continue
		}
		byName[p.Name] = info{brand: p.Brand, image: p.ImageURL}
	}

	filled := make([]Segment, len(segments))
	copy(filled, segments)
	for i := range filled {
		meta := byName[filled[i].ProductName]
		filled[i].BrandName = meta.brand
		filled[i].ImageURL = meta.image
	}
	return filled
}
