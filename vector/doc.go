// Package vector defines the feature-vector model shared by this module. It
// includes:
//   - Vector: an owner (image) name plus its fixed-length feature values
//   - Kind: the capability flag describing what a vector's positions mean
//   - Metric: Euclidean (default) and cosine distance functions
//   - Embedding encoding (BLOB) used by the persisted caches
//   - The error taxonomy returned by stores, indexes and interpreters
package vector
