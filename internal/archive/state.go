package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/FlockCS/BookClub/internal/r2client"
)

// State records what earlier runs exported, shared by every instance.
type State struct {
	LastExport int64          `json:"last_export"`
	Exported   map[string]int `json:"exported"` // history entry count per guild at last export
	UpdatedAt  int64          `json:"updated_at"`
}

// StateStore keeps State in object storage with ETag compare-and-swap.
type StateStore struct {
	objects r2client.Store
	key     string
	now     func() time.Time
}

// NewStateStore creates a StateStore on key.
func NewStateStore(objects r2client.Store, key string) (*StateStore, error) {
	if objects == nil {
		return nil, errors.New("archive: object store is required")
	}
	if key == "" {
		return nil, errors.New("archive: state key is required")
	}
	return &StateStore{objects: objects, key: key, now: time.Now}, nil
}

// Load returns the state and its ETag. exists is false when no run has
// recorded state yet.
func (s *StateStore) Load(ctx context.Context) (state State, etag string, exists bool, err error) {
	body, etag, err := s.objects.Get(ctx, s.key)
	if errors.Is(err, r2client.ErrNotFound) {
		return State{Exported: map[string]int{}}, "", false, nil
	}
	if err != nil {
		return State{}, "", false, fmt.Errorf("archive: load state: %w", err)
	}
	if err := json.Unmarshal(body, &state); err != nil {
		return State{}, "", false, fmt.Errorf("archive: decode state: %w", err)
	}
	if state.Exported == nil {
		state.Exported = map[string]int{}
	}
	return state, etag, true, nil
}

// Update applies fn and writes the result, retrying when another instance
// wrote in between.
func (s *StateStore) Update(ctx context.Context, fn func(*State)) error {
	for range 3 {
		state, etag, exists, err := s.Load(ctx)
		if err != nil {
			return err
		}

		fn(&state)
		state.UpdatedAt = s.now().UTC().Unix()
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("archive: marshal state: %w", err)
		}

		var written bool
		if exists {
			written, _, err = s.objects.PutIfMatch(ctx, s.key, data, etag, "application/json")
		} else {
			written, _, err = s.objects.PutIfAbsent(ctx, s.key, data, "application/json")
		}
		if err != nil {
			return fmt.Errorf("archive: write state: %w", err)
		}
		if written {
			return nil
		}
	}
	return errors.New("archive: state changed concurrently, giving up after retries")
}
