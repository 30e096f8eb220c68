package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/targets"
	"go.uber.org/zap"
)

// DefaultMaxHistory bounds every target's history. A configured bound may
// be lower, never higher.
const DefaultMaxHistory = 30

var ErrDuplicateTarget = errors.New("target already tracked")

// Store owns targets, their snapshot histories and the settings document.
//
// It is a best-effort cache, not a system of record: backend failures are
// logged and swallowed, reads fall back to empty values and writes become
// no-ops. Only validation errors reach the caller.
type Store struct {
	backend    Backend
	validator  *targets.Validator
	logger     *zap.Logger
	maxHistory int
	now        func() time.Time

	// serializes read-modify-write cycles on a single blob
	mu sync.Mutex
}

func NewStore(backend Backend, validator *targets.Validator, logger *zap.Logger, maxHistory int) *Store {
	if maxHistory <= 0 || maxHistory > DefaultMaxHistory {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		backend:    backend,
		validator:  validator,
		logger:     logger.With(zap.String("component", "store")),
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Targets operations

func (s *Store) Targets(ctx context.Context) []core.Target {
	var list []core.Target
	s.readJSON(ctx, keyTargets, &list)
	if list == nil {
		list = []core.Target{}
	}
	return list
}

func (s *Store) Target(ctx context.Context, id string) (*core.Target, error) {
	for _, t := range s.Targets(ctx) {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

// AddTarget validates rawURL and starts tracking it. When the normalized URL
// is already tracked the existing target is returned with ErrDuplicateTarget.
func (s *Store) AddTarget(ctx context.Context, rawURL, displayName string) (*core.Target, error) {
	normalized, err := s.validator.Validate(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.Targets(ctx)
	for _, t := range list {
		if t.URL == normalized {
			return &t, ErrDuplicateTarget
		}
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = targets.Hostname(normalized)
	}

	target := core.Target{
		ID:          uuid.New().String(),
		URL:         normalized,
		DisplayName: name,
		AddedAt:     s.now().UTC(),
	}
	list = append(list, target)
	s.writeJSON(ctx, keyTargets, list)

	s.logger.Info("Target added",
		zap.String("target_id", target.ID),
		zap.String("url", target.URL),
	)
	return &target, nil
}

func (s *Store) UpdateTarget(ctx context.Context, id, displayName string) (*core.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.Targets(ctx)
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if name := strings.TrimSpace(displayName); name != "" {
			list[i].DisplayName = name
		}
		s.writeJSON(ctx, keyTargets, list)
		t := list[i]
		return &t, nil
	}
	return nil, ErrNotFound
}

// RemoveTarget stops tracking a target and deletes its history.
func (s *Store) RemoveTarget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.Targets(ctx)
	kept := list[:0]
	found := false
	for _, t := range list {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrNotFound
	}

	s.writeJSON(ctx, keyTargets, kept)
	s.deleteKey(ctx, historyKey(id))

	s.logger.Info("Target removed", zap.String("target_id", id))
	return nil
}

// History operations

// Append pushes snap onto the target's history, evicting the oldest entries
// beyond the bound, and stamps the target's LastCheckedAt. Snapshots for a
// target that is no longer tracked are dropped so a refresh racing
// RemoveTarget cannot leave an orphaned history behind.
func (s *Store) Append(ctx context.Context, targetID string, snap core.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.Targets(ctx)
	idx := -1
	for i := range list {
		if list[i].ID == targetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Warn("Dropping snapshot for untracked target", zap.String("target_id", targetID))
		return
	}

	history := s.All(ctx, targetID)
	history = append(history, snap)
	if over := len(history) - s.maxHistory; over > 0 {
		history = history[over:]
	}
	s.writeJSON(ctx, historyKey(targetID), history)

	ts := snap.Timestamp
	list[idx].LastCheckedAt = &ts
	s.writeJSON(ctx, keyTargets, list)
}

// Latest returns the newest snapshot or nil.
func (s *Store) Latest(ctx context.Context, targetID string) *core.Snapshot {
	history := s.All(ctx, targetID)
	if len(history) == 0 {
		return nil
	}
	latest := history[len(history)-1]
	return &latest
}

// All returns the retained history, oldest first.
func (s *Store) All(ctx context.Context, targetID string) []core.Snapshot {
	var history []core.Snapshot
	s.readJSON(ctx, historyKey(targetID), &history)
	if history == nil {
		history = []core.Snapshot{}
	}
	return history
}

func (s *Store) DeleteHistory(ctx context.Context, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteKey(ctx, historyKey(targetID))
}

// LatestByTarget maps each target id to its newest snapshot (nil if none).
func (s *Store) LatestByTarget(ctx context.Context, list []core.Target) map[string]*core.Snapshot {
	out := make(map[string]*core.Snapshot, len(list))
	for _, t := range list {
		out[t.ID] = s.Latest(ctx, t.ID)
	}
	return out
}

// Settings operations

func (s *Store) Settings(ctx context.Context) core.Settings {
	settings := core.DefaultSettings()
	s.readJSON(ctx, keySettings, &settings)
	return settings
}

func (s *Store) SaveSettings(ctx context.Context, settings core.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeJSON(ctx, keySettings, settings)
}

// blob helpers

func (s *Store) readJSON(ctx context.Context, key string, dest interface{}) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Failed to read blob", zap.String("key", key), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Error("Failed to decode blob", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) writeJSON(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode blob", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.backend.Set(ctx, key, data); err != nil {
		s.logger.Error("Failed to write blob", zap.String("key", key), zap.Error(fmt.Errorf("set %s: %w", key, err)))
	}
}

func (s *Store) deleteKey(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("Failed to delete blob", zap.String("key", key), zap.Error(err))
	}
}
