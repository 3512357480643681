package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"pmopulse/internal/config"
	"pmopulse/internal/dataprocessing"
	"pmopulse/internal/exporter"
	"pmopulse/internal/infrastructure"
	"pmopulse/internal/validation"
	"pmopulse/pkg/contracts/domain"
)

// OverdueScope selects which rows an overdue export covers.
const (
	ScopeAll      = "all"
	ScopeFiltered = "filtered"
)

// DashboardService owns the in-memory project register and answers all
// dashboard queries against it. A register is swapped in wholesale on
// every successful load; readers always see a complete table.
type DashboardService struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *infrastructure.Metrics
	validator *validation.UploadValidator

	// now is swappable for tests
	now func() time.Time

	mu     sync.RWMutex
	table  domain.Table
	status domain.DatasetStatus
}

// NewDashboardService creates a dashboard service with an empty register
func NewDashboardService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.Metrics) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "dashboard_service")),
		metrics:   metrics,
		validator: validation.NewUploadValidator(logger, cfg.Dataset.MaxUploadBytes),
		now:       time.Now,
	}
}

// LoadFromUpload validates and ingests an uploaded register, replacing
// the current table on success. Returns the number of rows loaded.
func (s *DashboardService) LoadFromUpload(ctx context.Context, filename string, data []byte) (int, error) {
	workbook, err := s.validator.ValidateName(filename)
	if err != nil {
		s.countLoadFailure("bad_name")
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.validator.ValidateSize(int64(len(data))); err != nil {
		s.countLoadFailure("too_large")
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	today := s.now()

	var table domain.Table
	if workbook {
		table, err = dataprocessing.LoadWorkbook(bytes.NewReader(data), today)
	} else {
		if err := s.validator.ValidateCSVPayload(data); err != nil {
			s.countLoadFailure("bad_encoding")
			return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		table, err = dataprocessing.Load(bytes.NewReader(data), today)
	}
	if err != nil {
		s.countLoadFailure("parse")
		return 0, fmt.Errorf("load %s: %w", filename, err)
	}

	s.install(table, filename)

	s.logger.InfoContext(ctx, "register loaded from upload",
		slog.String("filename", filename),
		slog.Int("rows", len(table)))
	return len(table), nil
}

// LoadFallback loads the register shipped in the data directory. Called
// once at startup so the dashboard is usable before the first upload.
// A missing fallback file is not an error.
func (s *DashboardService) LoadFallback(ctx context.Context) error {
	path := s.cfg.FallbackPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.InfoContext(ctx, "no fallback register present",
				slog.String("path", path))
			return nil
		}
		return fmt.Errorf("read fallback register: %w", err)
	}

	table, err := dataprocessing.Load(bytes.NewReader(data), s.now())
	if err != nil {
		s.countLoadFailure("parse")
		return fmt.Errorf("load fallback register %s: %w", path, err)
	}

	s.install(table, path)

	s.logger.InfoContext(ctx, "fallback register loaded",
		slog.String("path", path),
		slog.Int("rows", len(table)))
	return nil
}

// install swaps in a freshly loaded table
func (s *DashboardService) install(table domain.Table, source string) {
	s.mu.Lock()
	s.table = table
	s.status = domain.DatasetStatus{
		Loaded:   true,
		Rows:     len(table),
		Source:   source,
		LoadedAt: s.now().UTC(),
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DatasetsLoaded.Inc()
		s.metrics.RowsIngested.Add(float64(len(table)))
		s.metrics.DatasetRows.Set(float64(len(table)))
	}
}

func (s *DashboardService) countLoadFailure(reason string) {
	if s.metrics != nil {
		s.metrics.LoadFailures.WithLabelValues(reason).Inc()
	}
}

// snapshot returns the current table, or ErrNoDataset when nothing is
// loaded. The returned slice must not be mutated.
func (s *DashboardService) snapshot() (domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.status.Loaded {
		return nil, ErrNoDataset
	}
	return s.table, nil
}

// Status reports whether a register is loaded and where it came from
func (s *DashboardService) Status(ctx context.Context) domain.DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Filtered returns the rows matching the selection, in register order
func (s *DashboardService) Filtered(ctx context.Context, sel domain.Selections) (domain.Table, error) {
	table, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return dataprocessing.Apply(table, sel), nil
}

// Summary computes the KPI counters over the filtered view
func (s *DashboardService) Summary(ctx context.Context, sel domain.Selections) (dataprocessing.KPISummary, error) {
	table, err := s.snapshot()
	if err != nil {
		return dataprocessing.KPISummary{}, err
	}
	return dataprocessing.Summarize(dataprocessing.Apply(table, sel)), nil
}

// Distribution returns value counts for one filterable field over the
// filtered view. top > 0 truncates to the leading entries.
func (s *DashboardService) Distribution(ctx context.Context, field domain.Field, sel domain.Selections, top int) ([]domain.ValueCount, error) {
	if _, ok := domain.ParseField(string(field)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	table, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	filtered := dataprocessing.Apply(table, sel)
	if top > 0 {
		return dataprocessing.TopN(filtered, field, top), nil
	}
	return dataprocessing.CountBy(filtered, field), nil
}

// OverdueRows returns overdue projects, optionally narrowed to one
// business owner and one manager. Empty or "All" means no restriction.
func (s *DashboardService) OverdueRows(ctx context.Context, owner, manager string) (domain.Table, error) {
	table, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	overdue := dataprocessing.OverdueSubset(table)
	overdue = dataprocessing.NarrowBy(overdue, domain.FieldOwner, owner)
	overdue = dataprocessing.NarrowBy(overdue, domain.FieldManager, manager)
	return overdue, nil
}

// Timeline returns the earliest-initiated projects that carry both an
// initiation date and a planned end, over the filtered view.
func (s *DashboardService) Timeline(ctx context.Context, sel domain.Selections, limit int) (domain.Table, error) {
	table, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = dataprocessing.TimelineCap
	}
	return dataprocessing.TimelineSlice(dataprocessing.Apply(table, sel), limit), nil
}

// ExportProjects renders the filtered view back to canonical CSV
func (s *DashboardService) ExportProjects(ctx context.Context, sel domain.Selections) ([]byte, error) {
	table, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	data, err := exporter.ProjectsCSV(dataprocessing.Apply(table, sel), exporter.Options{BOMPrefix: true})
	if err != nil {
		return nil, fmt.Errorf("export projects: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ExportsServed.WithLabelValues("projects").Inc()
	}
	return data, nil
}

// ExportOverdue renders the overdue view to CSV. Scope "filtered"
// applies the selection before taking the overdue subset; "all" ignores
// the selection.
func (s *DashboardService) ExportOverdue(ctx context.Context, scope string, sel domain.Selections) ([]byte, error) {
	table, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	switch scope {
	case "", ScopeAll:
	case ScopeFiltered:
		table = dataprocessing.Apply(table, sel)
	default:
		return nil, fmt.Errorf("%w: scope %q", ErrInvalidInput, scope)
	}

	data, err := exporter.OverdueCSV(dataprocessing.OverdueSubset(table), exporter.Options{BOMPrefix: true})
	if err != nil {
		return nil, fmt.Errorf("export overdue: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ExportsServed.WithLabelValues("overdue").Inc()
	}
	return data, nil
}
