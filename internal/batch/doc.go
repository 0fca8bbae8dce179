// Package batch runs the per-item latinize and clear operations over an
// ordered list of tracks.
//
// Processor executes one batch synchronously: items are handled in list
// order, cancellation is checked before each item, progress is reported after
// each item, and the store is saved once at the end whether the batch
// finished or was cancelled. Changes made before a cancellation are kept.
//
// For latinize, a track whose record already has a title (and an album either
// in the record or in the shared album cache) is skipped without a request.
// A fetched album is replaced by any album value already cached for that
// album key, so every track of an album ends up with the first value written.
//
// Worker wraps a Processor in a single goroutine that consumes submitted jobs
// and reports progress over a channel.
package batch
