// Package textutil holds small string helpers for building filesystem paths
// from track metadata.
package textutil
