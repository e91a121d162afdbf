// Package services holds cross-cutting contracts shared by pipeline
// components: the sentinel error taxonomy with its user-facing message
// policy, and context annotation helpers for correlation.
package services
