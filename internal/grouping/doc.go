// Package grouping clusters phase embeddings across videos. Clustering is
// strictly online: each vector either joins its most similar existing group
// or founds a new one, and group centroids stay unit length. Group state is
// shared between concurrent workers through a file-locked JSON store.
package grouping
