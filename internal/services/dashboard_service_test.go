package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmopulse/internal/config"
	"pmopulse/pkg/contracts/domain"
)

var serviceToday = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

const registerCSV = `ID,Name,Project Vendor,Project Priority,Business Owner,Project Initiation Date,Target Completion Date,Revised Timeline,Objective,Project Current Status,Project Category,Project Manager,Project Custodian
1,Alpha,Acme,High,Finance,05-Jan-2024,01-Mar-2024,01-Sep-2024,Modernize billing,In Progress,Infrastructure,Zara,Ops
2,Beta,,Low,IT,01-Feb-2024,01-Jan-2030,,,Live,Apps,Omar,
3,Gamma,Initech,Medium,HR,10-Feb-2023,01-Jan-2024,,Automate onboarding,On Hold,Apps,Zara,Ops
4,Delta,Acme,High,Finance,,01-Jan-2020,,,Withdraw,Infrastructure,Omar,
`

func newTestService(t *testing.T) *DashboardService {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset.DataDir = t.TempDir()

	svc := NewDashboardService(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)
	svc.now = func() time.Time { return serviceToday }
	return svc
}

func newLoadedService(t *testing.T) *DashboardService {
	t.Helper()
	svc := newTestService(t)
	rows, err := svc.LoadFromUpload(context.Background(), "register.csv", []byte(registerCSV))
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	return svc
}

func TestDashboardService_NoDataset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	status := svc.Status(ctx)
	assert.False(t, status.Loaded)

	_, err := svc.Filtered(ctx, nil)
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = svc.Summary(ctx, nil)
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = svc.Distribution(ctx, domain.FieldStatus, nil, 0)
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = svc.ExportProjects(ctx, nil)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestLoadFromUpload(t *testing.T) {
	svc := newLoadedService(t)

	status := svc.Status(context.Background())
	assert.True(t, status.Loaded)
	assert.Equal(t, 4, status.Rows)
	assert.Equal(t, "register.csv", status.Source)
	assert.Equal(t, serviceToday.UTC(), status.LoadedAt)
}

func TestLoadFromUpload_Rejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := svc.LoadFromUpload(ctx, "register.xls", []byte(registerCSV))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("oversized", func(t *testing.T) {
		cfg := config.Default()
		cfg.Dataset.DataDir = t.TempDir()
		cfg.Dataset.MaxUploadBytes = 10

		tiny := NewDashboardService(cfg, nil, nil)
		tiny.now = func() time.Time { return serviceToday }

		_, err := tiny.LoadFromUpload(ctx, "register.csv", []byte(registerCSV))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("schema violation keeps old table", func(t *testing.T) {
		svc := newLoadedService(t)
		_, err := svc.LoadFromUpload(ctx, "broken.csv", []byte("ID,Name\n1,Alpha\n"))
		require.Error(t, err)

		// Previous register remains queryable.
		status := svc.Status(ctx)
		assert.True(t, status.Loaded)
		assert.Equal(t, 4, status.Rows)
	})
}

func TestLoadFallback(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Missing fallback is fine.
	require.NoError(t, svc.LoadFallback(ctx))
	assert.False(t, svc.Status(ctx).Loaded)

	// With the file in place it loads.
	path := filepath.Join(svc.cfg.Dataset.DataDir, svc.cfg.Dataset.FallbackFile)
	require.NoError(t, os.WriteFile(path, []byte(registerCSV), 0o644))
	require.NoError(t, svc.LoadFallback(ctx))

	status := svc.Status(ctx)
	assert.True(t, status.Loaded)
	assert.Equal(t, 4, status.Rows)
	assert.Equal(t, path, status.Source)
}

func TestFilteredAndSummary(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	all, err := svc.Filtered(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	finance, err := svc.Filtered(ctx, domain.Selections{domain.FieldOwner: {"Finance"}})
	require.NoError(t, err)
	require.Len(t, finance, 2)
	assert.Equal(t, "Alpha", finance[0].Name)
	assert.Equal(t, "Delta", finance[1].Name)

	summary, err := svc.Summary(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Live)
	assert.Equal(t, 1, summary.OnHold)
	assert.Equal(t, 1, summary.Withdrawn)
	// Alpha (revised Sep-2024) and Gamma (target Jan-2024); Delta is Withdraw.
	assert.Equal(t, 2, summary.Overdue)
}

func TestDistribution(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	counts, err := svc.Distribution(ctx, domain.FieldManager, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.ValueCount{
		{Value: "Zara", Count: 2},
		{Value: "Omar", Count: 2},
	}, counts)

	top, err := svc.Distribution(ctx, domain.FieldManager, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.ValueCount{{Value: "Zara", Count: 2}}, top)

	_, err = svc.Distribution(ctx, domain.Field("salary"), nil, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestOverdueRows(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	all, err := svc.OverdueRows(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Name)
	assert.Equal(t, "Gamma", all[1].Name)

	hr, err := svc.OverdueRows(ctx, "HR", "All")
	require.NoError(t, err)
	require.Len(t, hr, 1)
	assert.Equal(t, "Gamma", hr[0].Name)

	none, err := svc.OverdueRows(ctx, "HR", "Omar")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTimeline(t *testing.T) {
	svc := newLoadedService(t)

	// Alpha, Beta, and Gamma have both dates; Delta has no initiation date.
	rows, err := svc.Timeline(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Gamma", rows[0].Name)
	assert.Equal(t, "Alpha", rows[1].Name)
	assert.Equal(t, "Beta", rows[2].Name)

	one, err := svc.Timeline(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Gamma", one[0].Name)
}

func TestExportProjects(t *testing.T) {
	svc := newLoadedService(t)

	data, err := svc.ExportProjects(context.Background(), domain.Selections{
		domain.FieldManager: {"Zara"},
	})
	require.NoError(t, err)
	assert.True(t, len(data) > 3 && data[0] == 0xEF)

	records, err := csv.NewReader(bomTrimmed(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.CanonicalColumns, records[0])
}

func TestExportOverdue(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	all, err := svc.ExportOverdue(ctx, ScopeAll, nil)
	require.NoError(t, err)
	records, err := csv.NewReader(bomTrimmed(all)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	filtered, err := svc.ExportOverdue(ctx, ScopeFiltered, domain.Selections{
		domain.FieldOwner: {"HR"},
	})
	require.NoError(t, err)
	records, err = csv.NewReader(bomTrimmed(filtered)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = svc.ExportOverdue(ctx, "everything", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func bomTrimmed(data []byte) io.Reader {
	return bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}
