package sheet

import (
	"strings"

	"livelens/internal/trends"
)

// Product is one catalogue entry from the product workbook. Raw keeps every
// original column for prompt building.
type Product struct {
	Name     string
	Brand    string
	ImageURL string
	Price    string
	Category string
	Raw      trends.Row
}

var (
	brandAliases = []string{
		"ブランド名", "ブランド", "品牌", "品牌名称",
		"Brand", "brand", "Brand Name", "brand_name",
		"브랜드", "Thương hiệu", "แบรนด์", "Merek",
	}
	imageAliases = []string{
		"画像URL", "商品画像", "图片链接", "图片", "圖片",
		"Image URL", "image_url", "Image", "image", "Thumbnail", "thumbnail",
		"이미지", "Hình ảnh", "รูปภาพ", "Gambar",
	}
	priceAliases = []string{
		"価格", "价格", "價格", "販売価格",
		"Price", "price", "Unit Price", "unit_price",
		"가격", "Giá", "ราคา", "Harga",
	}
	categoryAliases = []string{
		"カテゴリ", "カテゴリー", "分类", "分類",
		"Category", "category",
		"카테고리", "Danh mục", "หมวดหมู่", "Kategori",
	}
)

// Products resolves catalogue rows into structured products. Rows without a
// resolvable product name are dropped.
func Products(rows []trends.Row) []Product {
	if len(rows) == 0 {
		return nil
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		name := lookup(row, trends.Aliases(trends.KPIProductName))
		if name == "" {
			continue
		}
		products = append(products, Product{
			Name:     name,
			Brand:    lookup(row, brandAliases),
			ImageURL: lookup(row, imageAliases),
			Price:    lookup(row, priceAliases),
			Category: lookup(row, categoryAliases),
			Raw:      row,
		})
	}
	return products
}

func lookup(row trends.Row, candidates []string) string {
	key, ok := trends.ResolveKey(row, candidates)
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[key])
}
