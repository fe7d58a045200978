// Package cache supplies normalized grids to the comparison. The ephemeral
// provider normalizes on every request; the persistent provider keys grids
// by a hash of the source path and keeps them in a directory or a sqlite
// file so later runs skip decoding.
//
// Persistent entries are never invalidated. An edited source file keeps
// its old grid until the cache is cleared.
package cache
