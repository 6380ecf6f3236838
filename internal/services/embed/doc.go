// Package embed turns phase descriptions into embedding vectors for
// cross-video grouping. Vectors are returned as the API produced them;
// the clustering engine normalizes before comparing.
package embed
