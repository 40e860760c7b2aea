// Package persistence stores pipeline run output. The file store keeps one
// JSON document per run plus an always-consistent latest.json; the Postgres
// store offers the same contract on a shared database.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/pkg/logger"
)

const (
	runsDirName    = "runs"
	latestFileName = "latest.json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// runDocument is the persisted shape of one pipeline run.
type runDocument struct {
	RunID      string            `json:"run_id"`
	SavedAt    time.Time         `json:"saved_at"`
	Signals    []model.Signal    `json:"signals,omitempty"`
	Candidates []model.Candidate `json:"candidates,omitempty"`
}

// FileStore persists runs as JSON files under a data directory. latest.json
// is replaced with an atomic rename so a concurrent reader always sees a
// complete document.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger logger.Logger
	now    func() time.Time
}

// FileOption applies a configuration option to the FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets a custom logger for the file store.
func WithFileLogger(l logger.Logger) FileOption {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) FileOption {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFileStore creates the data directory layout and returns a store rooted
// at dir.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	s := &FileStore{
		dir:    dir,
		logger: logger.Get().Named("filestore"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Join(dir, runsDirName), dirPerm); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return s, nil
}

// SaveSignals records the retained signals of a run.
func (s *FileStore) SaveSignals(ctx context.Context, runID string, signals []model.Signal) error {
	return s.update(ctx, runID, func(doc *runDocument) {
		doc.Signals = signals
	})
}

// Save records the ranked candidates of a run.
func (s *FileStore) Save(ctx context.Context, runID string, candidates []model.Candidate) error {
	return s.update(ctx, runID, func(doc *runDocument) {
		doc.Candidates = candidates
	})
}

// LoadLatestSignals returns the signals of the most recently saved run.
func (s *FileStore) LoadLatestSignals(ctx context.Context) ([]model.Signal, error) {
	doc, err := s.loadLatest(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Signals, nil
}

// LoadLatest returns the ranked candidates of the most recently saved run.
func (s *FileStore) LoadLatest(ctx context.Context) ([]model.Candidate, error) {
	doc, err := s.loadLatest(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Candidates, nil
}

// LoadRun returns one persisted run by id.
func (s *FileStore) LoadRun(_ context.Context, runID string) (model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument(s.runPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Run{}, fmt.Errorf("run %s: %w", runID, ErrNoRuns)
		}
		return model.Run{}, err
	}
	return model.Run{
		ID:         doc.RunID,
		SavedAt:    doc.SavedAt,
		Signals:    doc.Signals,
		Candidates: doc.Candidates,
	}, nil
}

func (s *FileStore) update(ctx context.Context, runID string, mutate func(*runDocument)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.runPath(runID)

	doc, err := s.readDocument(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading run %s: %w", runID, err)
		}
		doc = &runDocument{RunID: runID}
	}
	doc.SavedAt = s.now()
	mutate(doc)

	if err := s.writeAtomic(path, doc); err != nil {
		return fmt.Errorf("writing run %s: %w", runID, err)
	}
	if err := s.writeAtomic(filepath.Join(s.dir, latestFileName), doc); err != nil {
		return fmt.Errorf("updating latest run: %w", err)
	}

	s.logger.Debug(ctx, "persisted run",
		logger.String("run_id", runID),
		logger.Int("signals", len(doc.Signals)),
		logger.Int("candidates", len(doc.Candidates)),
	)

	return nil
}

func (s *FileStore) loadLatest(_ context.Context) (*runDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument(filepath.Join(s.dir, latestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("reading latest run: %w", err)
	}
	return doc, nil
}

func (s *FileStore) runPath(runID string) string {
	return filepath.Join(s.dir, runsDirName, runID+".json")
}

func (s *FileStore) readDocument(path string) (*runDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc runDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// writeAtomic writes to a sibling temp file and renames it into place. The
// rename is atomic on POSIX filesystems, so readers never observe a partial
// document.
func (s *FileStore) writeAtomic(path string, doc *runDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
