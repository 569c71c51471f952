package fixture_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terra-climate-extremes/internal/adapter/fixture"
	"github.com/couchcryptid/terra-climate-extremes/internal/pipeline"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

var testGrid = raster.Grid{MinLon: 20.0, MinLat: 44.0, CellSize: 0.5, Width: 2, Height: 2}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T, dir, variable, name string, f fixture.File) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, variable), 0o755))
	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, variable, name), data, 0o600))
}

func date(year, doy int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
}

func TestStore_LoadDecodesVariable(t *testing.T) {
	dir := t.TempDir()

	// Raw packed LST: fill, 300 K, 280 K, below valid range.
	writeFixture(t, dir, "LST_Day", "A2024200.json", fixture.File{
		Grid:   testGrid,
		Values: []float64{0, 15000, 14000, 5000},
	})

	store := fixture.NewStore(dir, fixture.DefaultVariables(), testLogger())
	r, err := store.Load(context.Background(), "LST_Day", date(2024, 200))
	require.NoError(t, err)

	assert.Equal(t, testGrid, r.Grid())
	assert.Equal(t, 2, r.ValidCount())

	v, ok := r.At(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 300.0, v, 1e-9)
}

func TestStore_LoadUnknownVariablePassesThrough(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "custom", "A2024200.json", fixture.File{
		Grid:   testGrid,
		Values: []float64{1.5, 2.5, 3.5, 4.5},
	})

	store := fixture.NewStore(dir, fixture.DefaultVariables(), testLogger())
	r, err := store.Load(context.Background(), "custom", date(2024, 200))
	require.NoError(t, err)

	assert.Equal(t, 4, r.ValidCount())
	v, ok := r.At(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-9)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := fixture.NewStore(t.TempDir(), fixture.DefaultVariables(), testLogger())
	_, err := store.Load(context.Background(), "LST_Day", date(2024, 200))
	require.Error(t, err)
	assert.ErrorIs(t, err, raster.ErrDataUnavailable)
}

func TestStore_LoadMalformedFixture(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "LST_Day"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "LST_Day", "A2024200.json"), []byte("not-json{{{"), 0o600))

	store := fixture.NewStore(dir, fixture.DefaultVariables(), testLogger())
	_, err := store.Load(context.Background(), "LST_Day", date(2024, 200))
	require.Error(t, err)
	assert.NotErrorIs(t, err, raster.ErrDataUnavailable)
}

func TestStore_LoadLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "LST_Day", "A2024200.json", fixture.File{
		Grid:   testGrid,
		Values: []float64{1, 2},
	})

	store := fixture.NewStore(dir, fixture.DefaultVariables(), testLogger())
	_, err := store.Load(context.Background(), "LST_Day", date(2024, 200))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match grid cell count")
}

func TestStore_Available(t *testing.T) {
	dir := t.TempDir()
	f := fixture.File{Grid: testGrid, Values: []float64{1, 1, 1, 1}}
	writeFixture(t, dir, "LST_Day", "A2024201.json", f)
	writeFixture(t, dir, "LST_Day", "A2024200.json", f)
	writeFixture(t, dir, "LST_Day", "A2023244.json", f)
	writeFixture(t, dir, "LST_Day", "notes.txt", f) // ignored

	store := fixture.NewStore(dir, fixture.DefaultVariables(), testLogger())
	dates, err := store.Available("LST_Day")
	require.NoError(t, err)

	require.Len(t, dates, 3)
	assert.True(t, dates[0].Equal(date(2023, 244)))
	assert.True(t, dates[1].Equal(date(2024, 200)))
	assert.True(t, dates[2].Equal(date(2024, 201)))

	_, err = store.Available("nothere")
	assert.ErrorIs(t, err, raster.ErrDataUnavailable)
}

func TestSink_PublishWritesReport(t *testing.T) {
	dir := t.TempDir()
	sink := fixture.NewSink(dir, testLogger())

	report := pipeline.RegionReport{
		Region:    "ukraine",
		Variable:  "LST_Day",
		EventYear: 2024,
	}
	require.NoError(t, sink.Publish(context.Background(), report))

	data, err := os.ReadFile(filepath.Join(dir, "ukraine_2024.json"))
	require.NoError(t, err)

	var got pipeline.RegionReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ukraine", got.Region)
	assert.Equal(t, 2024, got.EventYear)
}
