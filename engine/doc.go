// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and registering the vec_l2 and
// vec_cosine SQL scalar functions used by the relational feature cache.
package engine
