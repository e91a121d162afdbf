// Package catalog records which sticker packs this bot has processed: title,
// sticker count, archive location, republish link, and processing counters.
//
// The catalog is pure history. Nothing schedules work off it, and losing it
// loses only the `packmule history` view; pack directories on disk remain
// the idempotency source of truth.
package catalog
