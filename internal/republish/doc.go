// Package republish converts an on-disk sticker pack into the destination
// platform's pack representation, uploads it, and caches the shareable
// deep link.
//
// The pipeline consults the link cache before touching the network: a pack
// that has already been republished resolves from the cache alone. Packs
// whose descriptor lacks an author suspend instead of uploading; the
// awaiting-author continuation is resumed by a later text message from the
// same user, and is cleared before the resumed upload so a failure cannot
// replay it.
package republish
