// Package extract defines the FeatureExtractor capability consumed by the
// feature store, together with the image-file filter used when scanning a
// source directory and a few concrete extractors:
//   - Func: adapts any function (e.g. a model client) into an Extractor
//   - Segmentation: turns detector output into per-category score vectors
//   - Histogram: a pure-Go colour histogram embedding
//   - Remote: posts images to a model-serving HTTP endpoint
package extract
