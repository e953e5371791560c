// Package category interprets category-score feature vectors, such as the
// per-class scores produced by an instance-segmentation model, as a sparse
// label -> score mapping.
package category
