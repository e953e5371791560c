// Package cache persists the feature vectors of a named dataset so a store
// can be repopulated without reprocessing images. Every backend stores two
// parallel artifacts per dataset, the vectors and the matching owner names,
// and round-trips them exactly (order and bit-identical float32 values).
//
// Backends:
//   - File: zstd-compressed vectors plus msgpack names on local disk
//   - SQL: one row per image in sqlite, postgres or mysql
//   - Badger: embedded key-value store
//   - Minio: S3-compatible object storage
//   - Memory: process-local, for tests and ephemeral datasets
//
// Shards additionally checkpoints one vector per image so an interrupted
// extraction batch can resume.
package cache
