// Package sheet ingests trend and product spreadsheets. Livestream
// analytics exports arrive as CSV or XLSX with localized headers; rows are
// surfaced as raw header-keyed maps and resolved downstream through the
// trends alias table.
package sheet
