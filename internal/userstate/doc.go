// Package userstate holds per-user conversation state for the bot: the
// download-only vs. download-and-republish preference, and the
// awaiting-author continuation of a suspended republish flow.
//
// State is deliberately ephemeral. An abandoned continuation persists until
// the process restarts or a fresh pipeline run replaces it; there is no
// expiry timer.
package userstate
