package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/di"
	"FinCast/internal/domain/models"
	"FinCast/internal/service/cache"
	"FinCast/internal/services/dates"
	"FinCast/internal/services/providers"
	"FinCast/internal/usecase"
	"FinCast/pkg/config"
	"FinCast/pkg/logger"
)

func offlineToolkit(*config.Config) (*di.Toolkit, error) {
	cascade := usecase.NewCascade(nil, providers.NewSynthetic(), cache.New(8), usecase.NewMaterializer(dates.New()))
	return &di.Toolkit{
		Log:     logger.NewNop(),
		Cascade: cascade,
		Runner:  usecase.NewRunner(usecase.DefaultProfiles(), nil),
		Symbols: usecase.NewSymbolCatalog([]string{"AAPL.US", "MSFT.US"}),
	}, nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := newToolkit
	newToolkit = offlineToolkit
	t.Cleanup(func() {
		newToolkit = prev
		startDate, endDate, outputFormat = "", "", "json"
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", ""}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheck_SupportedAndUnsupported(t *testing.T) {
	out, err := execute(t, "check", "AAPL.US")
	require.NoError(t, err)
	var resp models.CheckTickerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Exists)
	assert.Equal(t, "AAPL.US", resp.CompanyName)

	out, err = execute(t, "check", "ZZZZ")
	require.NoError(t, err)
	resp = models.CheckTickerResponse{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Exists)
	assert.Contains(t, resp.Message, "ZZZZ")
}

func TestSymbols_ListsCatalogInOrder(t *testing.T) {
	out, err := execute(t, "symbols")
	require.NoError(t, err)
	var got []string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"AAPL.US", "MSFT.US"}, got)
}

func TestFetch_CSVFromSyntheticStage(t *testing.T) {
	out, err := execute(t, "fetch", "AAPL.US", "--start", "2024-01-01", "--end", "2024-03-01", "-o", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)
	assert.Equal(t, models.ColDate, rows[0][0])
	assert.Contains(t, rows[0], models.ColClose)
	assert.Equal(t, "2024-01-01", rows[1][0])
}

func TestFetch_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "fetch", "AAPL.US", "--start", "2024-01-01", "--end", "2024-02-01", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestDateRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

	s, e, err := dateRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", e.Format(models.DateLayout))
	assert.Equal(t, "2023-06-16", s.Format(models.DateLayout))

	s, e, err = dateRange("2024-01-01", "2024-01-31", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", s.Format(models.DateLayout))
	assert.Equal(t, "2024-01-31", e.Format(models.DateLayout))

	_, _, err = dateRange("2024-02-01", "2024-01-01", now)
	assert.Error(t, err)

	_, _, err = dateRange("01/02/2024", "", now)
	assert.ErrorContains(t, err, "--start")
}
