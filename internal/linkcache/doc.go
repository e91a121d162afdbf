// Package linkcache maps republished pack names to their shareable deep
// links so a pack is never uploaded to the destination platform twice.
//
// The cache is a human-readable JSON file (default
// ~/.cache/packmule/links.json). A malformed file is deliberately treated as
// an empty cache rather than an error: entries are regenerable at the cost
// of one redundant upload.
package linkcache
