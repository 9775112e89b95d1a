// internal/store/trialstore.go
// Package store persists raw trial records and cached embeddings. Trial
// records are the source of truth for every later analysis, so the log
// is append-only and records are never rewritten.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hdanan/sycobench/internal/experiment"
	"github.com/hdanan/sycobench/internal/trial"
)

// TrialStore appends trial records to a JSONL file, one record per
// line. It is safe for concurrent use by the executor's workers.
type TrialStore struct {
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	path    string
	keys    map[string]bool
}

// OpenTrialStore opens (or creates) the JSONL log at path. Existing
// records are scanned so their keys can be skipped on resume.
func OpenTrialStore(path string) (*TrialStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trial store directory: %w", err)
		}
	}

	keys := make(map[string]bool)
	if existing, err := ReadTrialLog(path); err == nil {
		for _, rec := range existing {
			keys[rec.Spec.Key()] = true
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trial store %q: %w", path, err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	return &TrialStore{
		file:    file,
		writer:  writer,
		encoder: encoder,
		path:    path,
		keys:    keys,
	}, nil
}

// Path returns the log file path.
func (s *TrialStore) Path() string { return s.path }

// Has reports whether a record with the given natural key is already
// persisted. The executor uses this to skip completed specifications on
// resume.
func (s *TrialStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key]
}

// Count returns the number of persisted records.
func (s *TrialStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Append writes one record and flushes it to disk. Records are
// write-once: appending a key that already exists is an error.
func (s *TrialStore) Append(rec trial.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Spec.Key()
	if s.keys[key] {
		return fmt.Errorf("trial %s already persisted; records are write-once", key)
	}
	if err := s.encoder.Encode(rec); err != nil {
		return fmt.Errorf("write trial record: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush trial record: %w", err)
	}
	s.keys[key] = true
	return nil
}

// Close flushes and closes the underlying file.
func (s *TrialStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		_ = s.file.Close()
		return err
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ReadTrialLog loads every record from a JSONL trial log and rederives
// the computed scores from the stored raw similarities, so re-analysis
// never trusts derived values it did not recompute.
func ReadTrialLog(path string) ([]trial.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []trial.Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec trial.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse trial log %s line %d: %w", path, line, err)
		}
		// A record with a condition outside the design would silently
		// fall out of every analysis arm; reject it at the source.
		if _, err := experiment.ParseCondition(string(rec.Spec.Condition)); err != nil {
			return nil, fmt.Errorf("parse trial log %s line %d: %w", path, line, err)
		}
		if err := rec.Rederive(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trial log %s: %w", path, err)
	}
	return records, nil
}
