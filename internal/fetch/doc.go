// Package fetch downloads pack assets in two concurrent phases: resolve all
// missing items' transient URLs, then download them over one shared HTTP
// client. Existence checks make re-runs cheap; only gaps are fetched.
package fetch
