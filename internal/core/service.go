package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/logging"
)

// DefaultMaxFilesPerBatch caps how many files one upload may carry.
const DefaultMaxFilesPerBatch = 20

var (
	// ErrNoFiles is returned for an upload with no file parts.
	ErrNoFiles = errors.New("no file provided")
	// ErrTooManyFiles is returned when an upload exceeds MaxFilesPerBatch.
	ErrTooManyFiles = errors.New("too many files in batch")
)

// ServiceConfig sizes the service. Zero fields take the package defaults.
type ServiceConfig struct {
	PreviewRows          int
	ChartSeries          int
	MaxFilesPerBatch     int
	MaxConcurrentBatches int
	MaxWait              time.Duration
	SessionTTL           time.Duration
	Observer             Observer
}

// Service ties the pipeline to the upload session: it parses uploads once,
// keeps them in a Store and serves actions and downloads from it.
type Service struct {
	pipeline *Pipeline
	store    *Store
	limiter  *BatchLimiter
	maxFiles int
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	p := NewPipeline()
	if cfg.PreviewRows > 0 {
		p.PreviewRows = cfg.PreviewRows
	}
	if cfg.ChartSeries > 0 {
		p.ChartSeries = cfg.ChartSeries
	}
	if cfg.Observer != nil {
		p.Observer = cfg.Observer
	}

	maxFiles := cfg.MaxFilesPerBatch
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFilesPerBatch
	}

	return &Service{
		pipeline: p,
		store:    NewStore(cfg.SessionTTL),
		limiter:  NewBatchLimiter(cfg.MaxConcurrentBatches, cfg.MaxWait),
		maxFiles: maxFiles,
	}
}

// Upload parses and stores every file, then applies each file's action.
// A file that fails to parse is reported in the batch and never stored.
func (s *Service) Upload(ctx context.Context, reqs []FileRequest) (BatchResult, error) {
	switch {
	case len(reqs) == 0:
		return BatchResult{}, ErrNoFiles
	case len(reqs) > s.maxFiles:
		return BatchResult{}, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(reqs), s.maxFiles)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return BatchResult{}, err
	}
	defer s.limiter.Release()

	return runBatch(ctx, reqs, s.ingest)
}

func (s *Service) ingest(ctx context.Context, req FileRequest) FileResult {
	t, format, err := Parse(ctx, req.Name, req.Data)
	if err != nil {
		return s.pipeline.fail(ctx, FileResult{Name: req.Name, Format: format}, "parse", err)
	}
	s.pipeline.observer().FileParsed(format, t.NumRows())

	f := s.store.Put(req.Name, format, len(req.Data), t)
	logging.FromContext(ctx).Debug("file stored",
		"file_id", f.ID,
		"file", f.Name,
		"rows", t.NumRows(),
		"columns", t.NumColumns(),
	)
	return s.apply(ctx, f, req.Action)
}

// Process applies act to a stored file. Only a missing file is an error;
// pipeline failures are reported in the result.
func (s *Service) Process(ctx context.Context, id string, act Action) (FileResult, error) {
	f, err := s.store.Get(id)
	if err != nil {
		return FileResult{}, fmt.Errorf("process %s: %w", id, err)
	}
	return s.apply(ctx, f, act), nil
}

// Download converts the file as shaped by its latest action.
func (s *Service) Download(ctx context.Context, id string, format Format) (*ConversionResult, error) {
	act, err := s.store.LastAction(id)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	act.Convert = format
	act.Chart = false

	res, err := s.Process(ctx, id, act)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Conversion, nil
}

func (s *Service) apply(ctx context.Context, f *StoredFile, act Action) FileResult {
	if res, ok := s.store.Cached(f.ID, act); ok {
		logging.FromContext(ctx).Debug("action served from cache", "file_id", f.ID)
		s.store.Remember(f.ID, act, res)
		return res
	}

	res := s.pipeline.Apply(ctx, f.Base, f.Name, act)
	res.ID = f.ID
	res.Format = f.Format
	s.store.Remember(f.ID, act, res)
	return res
}

// Files lists the stored uploads.
func (s *Service) Files() []FileInfo {
	return s.store.List()
}

// File returns one stored upload.
func (s *Service) File(id string) (FileInfo, error) {
	f, err := s.store.Get(id)
	if err != nil {
		return FileInfo{}, err
	}
	return f.Info(), nil
}

// Remove drops a stored upload.
func (s *Service) Remove(id string) error {
	if err := s.store.Remove(id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// StartJanitor evicts idle uploads until ctx ends.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	s.store.StartJanitor(ctx, interval)
}

// WaitForBatches blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ServiceStatus is reported by the health endpoint.
type ServiceStatus struct {
	Files   int           `json:"files"`
	Batches LimiterStatus `json:"batches"`
}

func (s *Service) Status() ServiceStatus {
	return ServiceStatus{
		Files:   s.store.Len(),
		Batches: s.limiter.Status(),
	}
}
