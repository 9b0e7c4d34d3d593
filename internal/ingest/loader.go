package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/fetcher"
	"github.com/sells-group/reliance-cli/internal/model"
)

type cacheEntry struct {
	modTime time.Time
	size    int64
	trials  []model.Trial
}

// Loader reads and decodes trial files, memoizing decoded tables per path.
// An entry is reused only while the file's modification time and size are
// unchanged. Callers always receive their own copy of the trials.
type Loader struct {
	dec  *Decoder
	opts fetcher.Options

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewLoader returns a Loader that reads files with opts and decodes them
// with dec.
func NewLoader(dec *Decoder, opts fetcher.Options) *Loader {
	return &Loader{dec: dec, opts: opts, cache: make(map[string]cacheEntry)}
}

// Load returns the decoded trials of the file at path.
func (l *Loader) Load(ctx context.Context, path string) ([]model.Trial, error) {
	key := filepath.Clean(path)
	info, err := os.Stat(key)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: stat %s", key)
	}
	if info.IsDir() {
		return nil, eris.Errorf("ingest: %s is a directory", key)
	}

	l.mu.Lock()
	entry, ok := l.cache[key]
	l.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		zap.L().Debug("ingest: cache hit", zap.String("path", key))
		return model.CloneTrials(entry.trials), nil
	}

	reader, err := fetcher.NewRowReader(key, l.opts)
	if err != nil {
		return nil, err
	}
	rows, err := reader.ReadRows(ctx, key)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read rows")
	}
	trials, err := l.dec.Decode(rows)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: decode %s", key)
	}

	l.mu.Lock()
	l.cache[key] = cacheEntry{modTime: info.ModTime(), size: info.Size(), trials: trials}
	l.mu.Unlock()

	zap.L().Info("ingest: loaded trial table",
		zap.String("path", key),
		zap.Int("trials", len(trials)),
	)
	return model.CloneTrials(trials), nil
}

// Invalidate drops the cached table for path, if any.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, filepath.Clean(path))
}

// Reset drops every cached table.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]cacheEntry)
}

// Cached reports how many tables are held.
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// FilterPhase returns the trials whose phase is one of phases. An empty
// phases list returns a copy of all trials. Trials without a phase are kept
// only when phases is empty.
func FilterPhase(trials []model.Trial, phases ...model.Phase) []model.Trial {
	if len(phases) == 0 {
		return model.CloneTrials(trials)
	}
	want := make(map[model.Phase]bool, len(phases))
	for _, p := range phases {
		want[p] = true
	}
	out := make([]model.Trial, 0, len(trials))
	for _, t := range trials {
		if want[t.Phase] {
			out = append(out, t.Clone())
		}
	}
	return out
}
