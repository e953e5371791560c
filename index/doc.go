// Package index defines the similarity-index abstraction: an immutable
// snapshot of (owner, vector) pairs answering k-nearest-neighbour queries
// under a distance metric. Implementations in this module are an exact
// brute-force baseline (bruteforce) and a cover-tree variant (cover) that
// honours the same contract.
package index
