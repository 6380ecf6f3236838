package grouping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// BestPhase records the highest scoring phase seen for a group across all
// analyzed videos.
type BestPhase struct {
	VideoID    string  `json:"video_id"`
	PhaseIndex int     `json:"phase_index"`
	Score      float64 `json:"score"`
}

// BestPhases maps group ID to its best phase.
type BestPhases map[int]BestPhase

// Update installs candidate as the group's best phase when it beats the
// stored score, and reports whether it did. An unseen group always wins.
func (b BestPhases) Update(groupID int, candidate BestPhase) bool {
	current, ok := b[groupID]
	if ok && candidate.Score <= current.Score {
		return false
	}
	b[groupID] = candidate
	return true
}

// BestPhaseStore persists the best-phase table next to the group store,
// under its own file lock.
type BestPhaseStore struct {
	path string
	lock *flock.Flock
}

func NewBestPhaseStore(path string) *BestPhaseStore {
	return &BestPhaseStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *BestPhaseStore) Load(ctx context.Context) (BestPhases, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.read()
}

// Update runs fn against the stored table under an exclusive lock and
// persists the result.
func (s *BestPhaseStore) Update(ctx context.Context, fn func(best BestPhases) error) (BestPhases, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	best, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := fn(best); err != nil {
		return nil, err
	}
	if err := s.write(best); err != nil {
		return nil, err
	}
	return best, nil
}

func (s *BestPhaseStore) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create group directory: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire best-phase lock: %w", err)
	}
	if !ok {
		return errors.New("best-phase lock unavailable")
	}
	return nil
}

func (s *BestPhaseStore) release() {
	_ = s.lock.Unlock()
}

func (s *BestPhaseStore) read() (BestPhases, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return BestPhases{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read best phases %s: %w", s.path, err)
	}
	// JSON object keys are strings; group IDs are ints.
	var raw map[string]BestPhase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse best phases %s: %w", s.path, err)
	}
	best := make(BestPhases, len(raw))
	for key, phase := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parse best phases %s: group id %q: %w", s.path, key, err)
		}
		best[id] = phase
	}
	return best, nil
}

func (s *BestPhaseStore) write(best BestPhases) error {
	raw := make(map[string]BestPhase, len(best))
	for id, phase := range best {
		raw[strconv.Itoa(id)] = phase
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode best phases: %w", err)
	}
	return atomicWrite(s.path, data)
}
