// Package trends scores time slots of livestream sales telemetry and derives
// the importance ranges that decide which video phases receive deep analysis.
//
// Spreadsheets exported from livestream analytics tools carry localized
// headers; the KPI alias table maps them onto a closed canonical enum so the
// scoring rules never touch raw header strings. Slot scoring is rule driven:
// each rule resolves one KPI column, evaluates gt_zero or above_mean per row,
// and contributes its weight to the slot score. Scored slots expand into
// margin-padded ranges merged through the timeline package.
//
// Absence of signal is deliberately permissive: when no time column resolves
// or no slot reaches the minimum score, the empty result means "analyze
// everything", never "analyze nothing".
package trends
