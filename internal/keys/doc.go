// Package keys derives the deterministic cache keys used by the latin cache.
//
// Track keys hash the artist, title, and album together; album keys hash the
// album alone so every track of an album resolves to one shared album entry.
// Inputs are normalized to Unicode NFC before hashing so the same metadata
// read through different decoders maps to the same key. Keys are the only
// lookup handle into the persisted cache file, so the composition and hash
// must stay stable across releases.
package keys
