// Package exposure turns per-frame product detections into a product
// exposure timeline. Frame detections are segmented per product, cross
// checked against the speech transcript, post filtered, and enriched with
// catalogue metadata.
package exposure
