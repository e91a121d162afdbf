// Package preflight validates the environment before a pack pipeline runs:
// download directory accessibility and free disk space.
package preflight
