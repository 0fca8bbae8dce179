package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"latinize/internal/keys"
	"latinize/internal/latincache"
	"latinize/internal/logging"
	"latinize/internal/services"
	"latinize/internal/services/llm"
)

const component = "batch"

// Operation names one of the per-item effects a batch can apply.
type Operation string

const (
	OpLatinize   Operation = "latinize"
	OpClearAll   Operation = "clear_all"
	OpClearTitle Operation = "clear_title"
	OpClearAlbum Operation = "clear_album"
)

// Item status values recorded in Outcome.Status.
const (
	StatusSkipped   = "skipped"
	StatusUpdated   = "updated"
	StatusCleared   = "cleared"
	StatusUnchanged = "unchanged"
	StatusFailed    = services.OutcomeFetchFailed
)

// Latinizer produces latinized names for one track.
type Latinizer interface {
	Latinize(ctx context.Context, title, album string) (llm.Result, error)
}

// ProgressFunc receives the 1-based count of finished items and the total.
type ProgressFunc func(done, total int)

// Outcome records what happened to one item.
type Outcome struct {
	Index  int
	Track  keys.Track
	Status string
	Err    error
}

// Result summarizes a finished or cancelled batch. It is owned by the caller
// once returned.
type Result struct {
	JobID     string
	Operation Operation
	Total     int
	Processed int
	Changed   []keys.Track
	Failed    int
	Outcomes  []Outcome
}

// Processor runs batches sequentially against one store.
type Processor struct {
	store     *latincache.Store
	latinizer Latinizer
	logger    *slog.Logger
}

// NewProcessor wires a processor. latinizer may be nil when only the clear
// operations are used.
func NewProcessor(store *latincache.Store, latinizer Latinizer, logger *slog.Logger) *Processor {
	return &Processor{
		store:     store,
		latinizer: latinizer,
		logger:    logging.NewComponentLogger(logger, component),
	}
}

// Run dispatches to the operation's per-item effect.
func (p *Processor) Run(ctx context.Context, op Operation, items []keys.Track, progress ProgressFunc) (Result, error) {
	switch op {
	case OpLatinize:
		return p.Latinize(ctx, items, progress)
	case OpClearAll:
		return p.ClearAll(ctx, items, progress)
	case OpClearTitle:
		return p.ClearTitle(ctx, items, progress)
	case OpClearAlbum:
		return p.ClearAlbum(ctx, items, progress)
	default:
		return Result{Operation: op, Total: len(items)}, fmt.Errorf("unknown batch operation %q", op)
	}
}

// Latinize fills the cache for every item that is not already cached,
// issuing one request per missing item. A failed item is recorded and the
// batch moves on; cancellation stops the batch and keeps prior changes.
func (p *Processor) Latinize(ctx context.Context, items []keys.Track, progress ProgressFunc) (Result, error) {
	if p.latinizer == nil {
		return Result{Operation: OpLatinize, Total: len(items)},
			services.Wrap(services.ErrConfiguration, component, string(OpLatinize), "no latinizer configured", nil)
	}
	return p.run(ctx, OpLatinize, items, progress, p.latinizeItem)
}

// ClearAll removes the track entry and the shared album entry of each item.
func (p *Processor) ClearAll(ctx context.Context, items []keys.Track, progress ProgressFunc) (Result, error) {
	return p.run(ctx, OpClearAll, items, progress, p.clearAllItem)
}

// ClearTitle blanks the cached title of each item, keeping its album.
func (p *Processor) ClearTitle(ctx context.Context, items []keys.Track, progress ProgressFunc) (Result, error) {
	return p.run(ctx, OpClearTitle, items, progress, p.clearTitleItem)
}

// ClearAlbum blanks the cached album of each item and removes the shared
// album entry.
func (p *Processor) ClearAlbum(ctx context.Context, items []keys.Track, progress ProgressFunc) (Result, error) {
	return p.run(ctx, OpClearAlbum, items, progress, p.clearAlbumItem)
}

type itemFunc func(ctx context.Context, track keys.Track) Outcome

func (p *Processor) run(ctx context.Context, op Operation, items []keys.Track, progress ProgressFunc, step itemFunc) (Result, error) {
	jobID, ok := services.JobIDFromContext(ctx)
	if !ok {
		jobID = uuid.NewString()
		ctx = services.WithJobID(ctx, jobID)
	}
	ctx = services.WithOperation(ctx, string(op))
	logger := logging.WithContext(ctx, p.logger)
	sampler := logging.NewProgressSampler(10)

	result := Result{JobID: jobID, Operation: op, Total: len(items)}
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("items", len(items)))

	var runErr error
	for i, track := range items {
		if err := ctx.Err(); err != nil {
			runErr = services.Wrap(services.ErrCancelled, component, string(op), "batch cancelled", err)
			break
		}
		outcome := step(services.WithItemIndex(ctx, i+1), track)
		outcome.Index = i
		outcome.Track = track
		if services.IsCancelled(outcome.Err) {
			runErr = outcome.Err
			break
		}
		result.Processed++
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Status {
		case StatusUpdated, StatusCleared:
			result.Changed = append(result.Changed, track)
		case StatusFailed:
			result.Failed++
		}
		if progress != nil {
			progress(i+1, len(items))
		}
		if sampler.ShouldLog(i+1, len(items), string(op)) {
			logger.Debug("batch progress", logging.Int("done", i+1), logging.Int("total", len(items)))
		}
	}

	// Save failures are logged by the store and retried on the next save.
	_ = p.store.SaveIfDirty()

	attrs := []logging.Attr{
		logging.Int("processed", result.Processed),
		logging.Int("changed", len(result.Changed)),
		logging.Int("failed", result.Failed),
	}
	if runErr != nil {
		logger.Info("batch cancelled", logging.Args(append(attrs, logging.String(logging.FieldEventType, "batch_cancelled"))...)...)
	} else {
		logger.Info("batch finished", logging.Args(append(attrs, logging.String(logging.FieldEventType, "batch_finished"))...)...)
	}
	return result, runErr
}

func (p *Processor) latinizeItem(ctx context.Context, track keys.Track) Outcome {
	trackKey, albumKey := keys.Pair(track)
	rec, hasRecord := p.store.Track(trackKey)
	cachedAlbum, _ := p.store.Album(albumKey)
	if hasRecord && rec.Title != "" && (rec.Album != "" || cachedAlbum != "") {
		p.store.SeedAlbum(albumKey, rec.Album)
		return Outcome{Status: StatusSkipped}
	}

	res, err := p.latinizer.Latinize(ctx, track.Title, track.Album)
	if err == nil && res.Title == "" && res.Album == "" {
		err = services.Wrap(services.ErrParse, component, string(OpLatinize), "empty latinization", nil)
	}
	if err != nil {
		status := services.Classify(err)
		if status == services.OutcomeCancelled {
			return Outcome{Status: status, Err: err}
		}
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "latinization failed for item", "latinize_item_failed",
			logging.Error(err),
			logging.String("location", track.Location),
			logging.String(logging.FieldImpact, "item keeps its original names"),
			logging.String(logging.FieldErrorHint, "run 'latinize test' with this title to inspect the exchange"))
		return Outcome{Status: status, Err: err}
	}

	album := res.Album
	if existing, _ := p.store.Album(albumKey); existing != "" {
		album = existing
	}
	p.store.SetTrack(trackKey, latincache.Record{Title: res.Title, Album: album})
	p.store.SeedAlbum(albumKey, album)
	return Outcome{Status: StatusUpdated}
}

func (p *Processor) clearAllItem(_ context.Context, track keys.Track) Outcome {
	trackKey, albumKey := keys.Pair(track)
	changed := p.store.DeleteTrack(trackKey)
	if p.store.DeleteAlbum(albumKey) {
		changed = true
	}
	return clearedOutcome(changed)
}

func (p *Processor) clearTitleItem(_ context.Context, track keys.Track) Outcome {
	trackKey := keys.TrackKey(track)
	rec, ok := p.store.Track(trackKey)
	if !ok || rec.Title == "" {
		return clearedOutcome(false)
	}
	rec.Title = ""
	return clearedOutcome(p.store.SetTrack(trackKey, rec))
}

func (p *Processor) clearAlbumItem(_ context.Context, track keys.Track) Outcome {
	trackKey, albumKey := keys.Pair(track)
	changed := false
	if rec, ok := p.store.Track(trackKey); ok && rec.Album != "" {
		rec.Album = ""
		changed = p.store.SetTrack(trackKey, rec)
	}
	if p.store.DeleteAlbum(albumKey) {
		changed = true
	}
	return clearedOutcome(changed)
}

func clearedOutcome(changed bool) Outcome {
	if changed {
		return Outcome{Status: StatusCleared}
	}
	return Outcome{Status: StatusUnchanged}
}
