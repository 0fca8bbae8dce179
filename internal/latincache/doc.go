// Package latincache is the persistent store of latinized track and album
// names.
//
// Track entries are keyed by the artist/title/album hash and hold both
// latinized fields; album entries are keyed by the album hash and hold the
// album value shared by every track of that album. The store loads lazily,
// suppresses writes that would not change anything, and saves atomically to a
// little-endian binary file:
//
//	u32 magic "FBLT" | u32 version 1 | u32 tracks | u32 albums
//	tracks × (u64 key, u32 len title, u32 len album)
//	albums × (u64 key, u32 len album)
//
// Load problems never reach callers; a damaged file is logged and the store
// starts empty. Save problems keep the dirty flag set so the next save retries.
package latincache
