// Package bot routes inbound chat updates to the pack pipeline: stickers
// start an assembly run, text messages resume a pending awaiting-author
// republish, and commands manage the per-user republish preference. Every
// update runs on its own goroutine with panic isolation; failures surface
// to the requester as one short notice while full detail goes to the log.
package bot
