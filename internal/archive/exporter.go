// Package archive exports finished-book history to object storage.
//
// Each run takes a lease (r2client.Lock) so one instance exports at a time,
// then writes one zstd-compressed JSON Lines object per guild whose history
// changed since the previous run:
//
//	{prefix}/{guild_id}/{20060102T150405Z}.jsonl.zst
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/FlockCS/BookClub/internal/logger"
	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/r2client"
	"github.com/FlockCS/BookClub/internal/storage"
)

const objectTimeLayout = "20060102T150405Z"

// Config configures an Exporter.
type Config struct {
	History storage.HistoryRepository
	Objects r2client.Store
	Prefix  string        // default "history"
	LockKey string        // default "{prefix}/.lock"
	LockTTL time.Duration // default 10m
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	Now     func() time.Time
}

// Result summarizes one run.
type Result struct {
	Skipped bool // another instance held the lock
	Guilds  int  // guilds with history
	Objects int  // objects written
	Keys    []string
}

// Exporter writes history archives.
type Exporter struct {
	history storage.HistoryRepository
	objects r2client.Store
	state   *StateStore
	prefix  string
	lockKey string
	lockTTL time.Duration
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewExporter creates an Exporter.
func NewExporter(cfg Config) (*Exporter, error) {
	if cfg.History == nil {
		return nil, errors.New("archive: history repository is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "history"
	}
	if cfg.LockKey == "" {
		cfg.LockKey = path.Join(cfg.Prefix, ".lock")
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New("error")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	state, err := NewStateStore(cfg.Objects, path.Join(cfg.Prefix, ".state.json"))
	if err != nil {
		return nil, err
	}
	state.now = cfg.Now

	return &Exporter{
		history: cfg.History,
		objects: cfg.Objects,
		state:   state,
		prefix:  cfg.Prefix,
		lockKey: cfg.LockKey,
		lockTTL: cfg.LockTTL,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.WithModule("archive"),
		now:     cfg.Now,
	}, nil
}

// ObjectKey returns the archive key of guildID for a run at t.
func ObjectKey(prefix, guildID string, t time.Time) string {
	return path.Join(prefix, guildID, t.UTC().Format(objectTimeLayout)+".jsonl.zst")
}

// Run exports every guild whose history grew since the last run.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	lock := r2client.NewLock(e.objects, e.lockKey, e.lockTTL)
	lock.SetClock(e.now)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("archive: %w", err)
	}
	if !acquired {
		e.logger.DebugContext(ctx, "History export skipped: lock held by another instance")
		return Result{Skipped: true}, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			e.logger.WithError(err).Warn("Failed to release history export lock")
		}
	}()

	state, _, _, err := e.state.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	guilds, err := e.history.ListHistoryGuilds(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("archive: list guilds: %w", err)
	}

	runAt := e.now()
	res := Result{Guilds: len(guilds)}
	exported := make(map[string]int, len(guilds))
	for _, guildID := range guilds {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		entries, err := e.history.ListHistory(ctx, guildID, 0)
		if err != nil {
			return res, fmt.Errorf("archive: list history for %s: %w", guildID, err)
		}
		if len(entries) == 0 || state.Exported[guildID] == len(entries) {
			continue
		}

		key := ObjectKey(e.prefix, guildID, runAt)
		if err := e.writeGuild(ctx, key, entries); err != nil {
			return res, err
		}
		exported[guildID] = len(entries)
		res.Objects++
		res.Keys = append(res.Keys, key)
		e.metrics.RecordHistoryExport()

		if ok, err := lock.Renew(ctx); err != nil || !ok {
			return res, fmt.Errorf("archive: lost export lock after %s: %w", guildID, errors.Join(err, errLockLost))
		}
	}

	if err := e.state.Update(ctx, func(s *State) {
		s.LastExport = runAt.Unix()
		for g, n := range exported {
			s.Exported[g] = n
		}
	}); err != nil {
		return res, err
	}

	e.logger.WithFields(map[string]any{
		"guilds":  res.Guilds,
		"objects": res.Objects,
	}).InfoContext(ctx, "History export completed")
	return res, nil
}

var errLockLost = errors.New("lock lost")

func (e *Exporter) writeGuild(ctx context.Context, key string, entries []storage.HistoryEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("archive: encode %s: %w", key, err)
		}
	}

	compressed, err := r2client.Compress(buf.Bytes())
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if _, err := e.objects.Put(ctx, key, compressed, r2client.ZstdContentType); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}

// ReadObject decodes an archive object written by Run.
func ReadObject(data []byte) ([]storage.HistoryEntry, error) {
	raw, err := r2client.Decompress(data)
	if err != nil {
		return nil, err
	}
	var entries []storage.HistoryEntry
	dec := json.NewDecoder(bytes.NewReader(raw))
	for dec.More() {
		var entry storage.HistoryEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("archive: decode entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
