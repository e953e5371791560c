// Package bruteforce provides the exact vector index: every query scans all
// vectors of the snapshot (O(N·D)) and keeps the k closest under the
// configured metric, Euclidean by default.
package bruteforce
