package trends

import (
	"strconv"
	"strings"
)

// ParseTimeToSeconds converts a slot timestamp to seconds. Plain numbers are
// taken as seconds directly. Colon-separated values accept "H:M:S" as
// hours+minutes+seconds; two-part values are ambiguous between "HH:MM" and
// "MM:SS" and are read as hours+minutes when the first component is below
// 24, minutes+seconds otherwise. The heuristic cannot distinguish the two
// forms when both components are under 24; that limitation is inherited from
// the analytics exports this feeds on.
func ParseTimeToSeconds(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if sec, err := strconv.ParseFloat(value, 64); err == nil {
		return sec, true
	}

	parts := strings.Split(value, ":")
	switch len(parts) {
	case 2:
		first, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		second, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return 0, false
		}
		if first < 24 {
			return float64(first)*3600 + float64(second)*60, true
		}
		return float64(first)*60 + float64(second), true
	case 3:
		h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		s, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, false
		}
		return float64(h)*3600 + float64(m)*60 + float64(s), true
	}
	return 0, false
}

// parseNumeric reads a scalar cell value, tolerating surrounding whitespace
// and thousands separators.
func parseNumeric(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	value = strings.ReplaceAll(value, ",", "")
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
