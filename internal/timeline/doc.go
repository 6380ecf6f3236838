// Package timeline provides the interval primitives shared by the slot
// scorer and the exposure segmenter.
//
// Merge is the single authority for collapsing overlapping or touching
// time ranges; both importance filtering and exposure grouping build on
// its output invariants (sorted, pairwise non-adjacent, reasons unioned).
package timeline
