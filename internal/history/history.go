package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/spigell/assessment-recommender/internal/ranker"
)

const lockRetryDelay = 50 * time.Millisecond

// Record is one served recommendation.
type Record struct {
	JobRole         string    `json:"job_role"`
	Recommended     []string  `json:"recommended_tests"`
	ConfidenceScore float64   `json:"confidence_score"`
	Fallback        bool      `json:"fallback,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewRecord captures rec for jobRole. An empty recommendation is a valid record.
func NewRecord(jobRole string, rec *ranker.Recommendation, at time.Time) Record {
	names := rec.Names()
	if names == nil {
		names = []string{}
	}
	return Record{
		JobRole:         jobRole,
		Recommended:     names,
		ConfidenceScore: rec.TopConfidence(),
		Fallback:        rec != nil && rec.Fallback,
		Timestamp:       at.UTC(),
	}
}

// Stats summarizes the history file.
type Stats struct {
	Total int `json:"total_recommendations"`
	Empty int `json:"empty_recommendations"`
}

// Store appends records to a JSON lines file guarded by a sibling lock file,
// so several processes can share one history.
type Store struct {
	path string
	lock *flock.Flock
}

func NewStore(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

func (s *Store) Path() string { return s.path }

// Append writes r as one line.
func (s *Store) Append(ctx context.Context, r Record) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock history: %s is busy", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()

	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write history: %w", err)
	}
	return f.Close()
}

// List returns all records, oldest first. A missing file is an empty history.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock history: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock history: %s is busy", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("history line %d: %w", lineNo, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return records, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	records, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(records)}
	for _, r := range records {
		if len(r.Recommended) == 0 {
			st.Empty++
		}
	}
	return st, nil
}
