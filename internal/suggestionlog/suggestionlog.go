// Package suggestionlog persists every Suggestion's lifecycle to an
// append-only, tamper-evident JSONL file. It is write-only from the
// engine's point of view — nothing in the core reads it back.
package suggestionlog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pulsewatch/agent/internal/config"
	"github.com/pulsewatch/agent/internal/logging"
	"github.com/pulsewatch/agent/internal/pulse"
)

var log = logging.L("suggestionlog")

// terminalStates are fsync'd immediately so a crash can't lose the final
// disposition of a suggestion that already acted (or was acted upon).
var terminalStates = map[pulse.SuggestionState]bool{
	pulse.Executed:  true,
	pulse.Dismissed: true,
	pulse.Failed:    true,
}

// Record is a single suggestion-log entry.
type Record struct {
	Timestamp   string  `json:"timestamp"`
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	State       string  `json:"state"`
	CreatedAt   string  `json:"createdAt"`
	ActionCount int     `json:"actionCount"`
	PrevHash    string  `json:"prevHash"`
	EntryHash   string `json:"entryHash"`
}

// Logger writes hash-chained JSONL suggestion records, rotating the
// underlying file by size.
type Logger struct {
	mu       sync.Mutex
	writer   *logging.RotatingWriter
	prevHash string
	dropped  atomic.Int64
}

// NewLogger creates a suggestion logger writing to
// {dataDir}/suggestions.jsonl. Returns (nil, nil) if suggestion logging is
// disabled in cfg — callers may call methods on a nil *Logger freely.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return newLoggerAt(config.GetDataDir(), cfg)
}

func newLoggerAt(dataDir string, cfg *config.Config) (*Logger, error) {
	if !cfg.SuggestionLogEnabled {
		return nil, nil
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create suggestion log data dir: %w", err)
	}

	path := filepath.Join(dataDir, "suggestions.jsonl")
	w, err := logging.NewRotatingWriter(path, cfg.SuggestionLogMaxSizeMB, cfg.SuggestionLogMaxBackups)
	if err != nil {
		return nil, fmt.Errorf("open suggestion log: %w", err)
	}

	log.Info("suggestion log started", "path", path)
	return &Logger{writer: w, prevHash: "genesis"}, nil
}

// Log appends a record capturing s's current state. Safe to call on a nil
// receiver (no-op) so callers don't need to guard every call site when
// suggestion logging is disabled.
func (l *Logger) Log(s pulse.Suggestion) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := Record{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		ID:          s.ID,
		Description: s.Description,
		Confidence:  s.Confidence,
		State:       s.State.String(),
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339Nano),
		ActionCount: len(s.Plan),
		PrevHash:    l.prevHash,
	}

	entryHash, err := computeHash(rec)
	if err != nil {
		log.Error("failed to compute suggestion log entry hash", "error", err, "id", s.ID)
		l.dropped.Add(1)
		return
	}
	rec.EntryHash = entryHash

	data, err := json.Marshal(rec)
	if err != nil {
		log.Error("failed to marshal suggestion log entry", "error", err, "id", s.ID)
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	if _, err := l.writer.Write(data); err != nil {
		log.Error("failed to write suggestion log entry", "error", err, "id", s.ID)
		l.dropped.Add(1)
		return
	}

	// Only advance the hash chain after a successful write, so a failed
	// write re-links the next entry to the same prevHash instead of
	// leaving a gap.
	l.prevHash = rec.EntryHash

	if terminalStates[s.State] {
		if err := l.writer.Sync(); err != nil {
			log.Error("failed to fsync terminal suggestion entry — durability not guaranteed", "error", err, "id", s.ID)
		}
	}
}

// Close flushes and closes the underlying file. Safe to call on a nil
// receiver (no-op).
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}

// DroppedCount returns the number of entries that failed to write. Returns
// -1 if the logger is nil (not initialized).
func (l *Logger) DroppedCount() int64 {
	if l == nil {
		return -1
	}
	return l.dropped.Load()
}

// computeHash produces the SHA-256 hash for a record. Fields are
// length-prefixed to prevent delimiter injection across fields.
func computeHash(rec Record) (string, error) {
	h := sha256.New()
	for _, field := range []string{rec.Timestamp, rec.ID, rec.Description, rec.State, rec.CreatedAt, rec.PrevHash} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	fmt.Fprintf(h, "%v:%d", rec.Confidence, rec.ActionCount)
	return hex.EncodeToString(h.Sum(nil)), nil
}
