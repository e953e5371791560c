// Package cover provides a cover-tree backed index. It answers the same
// queries as the brute-force index while pruning subtrees whose radius puts
// them out of reach, which pays off on large, dense corpora.
package cover
