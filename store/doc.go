// Package store owns the vectors of one named dataset.
//
// A Store starts Empty and is populated lazily on first read: from its cache
// backend when one holds the dataset, otherwise by running the extractor over
// every image of the source directory and persisting the result. Population
// and writes for the same dataset name are serialized process-wide.
package store
