package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadEmbedded(t *testing.T) {
	src, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, OriginEmbedded, src.Origin)
	assert.Contains(t, src.Table, "时崎狂三")
	require.NotEmpty(t, src.Schema.Numeric)
	assert.Equal(t, "身高", src.Schema.Numeric[0].Category)
}

func TestOpenEmbedded(t *testing.T) {
	cat, err := Open("", 5)
	require.NoError(t, err)
	assert.Greater(t, cat.Len(), 5)

	a := cat.Attribute("身高161cm")
	assert.True(t, a.Numeric())
	assert.Equal(t, 161.0, a.Value)
	assert.Equal(t, 3.0, a.Tolerance)
}

func TestLoadJSONDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogJSON, `{"Alice": ["red_hair", "tall"], "Bob": ["red_hair"]}`)

	src, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CatalogJSON), src.Origin)
	assert.Equal(t, catalog.Table{"Alice": {"red_hair", "tall"}, "Bob": {"red_hair"}}, src.Table)
	assert.Equal(t, catalog.DefaultSchema(), src.Schema)

	cat, err := Open(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, cat.Names())
}

func TestLoadYAMLWithSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogYAML, "Alice: [lv30, red_hair]\nBob:\n  - lv10\n  - short\n")
	writeFile(t, dir, SchemaFile, "numeric:\n  - category: level\n    prefixes: [lv]\n    tolerance: 2\n")

	src, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, src.Schema.Numeric, 1)
	assert.Equal(t, catalog.NumericRule{Category: "level", Prefixes: []string{"lv"}, Tolerance: 2}, src.Schema.Numeric[0])

	cat, err := Open(dir, 1)
	require.NoError(t, err)
	assert.True(t, cat.Attribute("lv30").Numeric())
	assert.False(t, cat.Attribute("red_hair").Numeric())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrNoCatalogFile)

	writeFile(t, dir, CatalogJSON, `{"Alice": `)
	_, err = Load(dir)
	assert.Error(t, err)

	writeFile(t, dir, CatalogJSON, `{"Alice": ["a"]}`)
	writeFile(t, dir, SchemaFile, "numeric:\n  - prefixes: [x]\n")
	_, err = Load(dir)
	assert.ErrorContains(t, err, "no category")

	writeFile(t, dir, SchemaFile, "numeric: []\n")
	_, err = Open(dir, 5)
	assert.ErrorIs(t, err, catalog.ErrEmptyCatalog)
}

func TestWatcherReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogJSON, `{"Alice": ["a"], "Bob": ["b"]}`)
	first, err := Open(dir, 1)
	require.NoError(t, err)
	holder := catalog.NewHolder(first)

	reloads := 0
	w := NewWatcher(dir, 1, holder, WithOnReload(func(*catalog.Catalog) { reloads++ }))

	writeFile(t, dir, CatalogJSON, `{"Alice": ["a"], "Bob": ["b"], "Carol": ["c"]}`)
	require.NoError(t, w.Reload())
	assert.Equal(t, 3, holder.Load().Len())
	assert.Equal(t, 1, reloads)

	writeFile(t, dir, CatalogJSON, `not json`)
	assert.Error(t, w.Reload())
	assert.Equal(t, 3, holder.Load().Len())
	assert.Equal(t, 1, reloads)
}

func TestWatcherRunReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogJSON, `{"Alice": ["a"]}`)
	first, err := Open(dir, 1)
	require.NoError(t, err)
	holder := catalog.NewHolder(first)

	w := NewWatcher(dir, 1, holder, WithInterval(0), WithDebounce(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Keep rewriting until the watcher has picked the change up; the first
	// write can race with the watch being registered.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, CatalogJSON), []byte(`{"Alice": ["a"], "Bob": ["b"]}`), 0o644)
		return holder.Load().Len() == 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcherRunIntervalOnly(t *testing.T) {
	holder := catalog.NewHolder(nil)
	w := NewWatcher("", 5, holder, WithInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool { return holder.Load() != nil }, 5*time.Second, 10*time.Millisecond)
}
