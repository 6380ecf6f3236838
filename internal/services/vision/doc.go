// Package vision detects actively presented products in video frames using
// a multimodal chat model. One request per sampled frame; responses are
// parsed tolerantly since providers sometimes wrap JSON in code fences.
package vision
