// Package assemble orchestrates the per-pack pipeline: resolve a sticker
// set into the internal pack model, fetch the assets that are not already
// on disk, write the metadata descriptor, and bundle everything into an
// archive. Runs are idempotent per pack identity; repeat requests reuse the
// existing directory and only fill gaps.
package assemble
