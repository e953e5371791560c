// Package search answers similarity and category queries over a store. It
// keeps one index per store generation and rebuilds it when vectors change.
package search
