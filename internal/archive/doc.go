// Package archive turns a pack directory into a zip file under a bounded
// compression worker pool.
package archive
