// Package telegram adapts the Bot API to the narrow surface the rest of the
// pipeline consumes: long-poll updates, sticker set resolution into the
// internal pack model, file reference resolution for the fetcher, and
// outbound text and document replies.
package telegram
