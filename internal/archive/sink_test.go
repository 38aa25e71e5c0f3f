package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

func TestSavePage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir, 1<<20, zap.NewNop())
	require.NoError(t, err)

	snap := grant.PageSnapshot{
		URL:        "https://grants.example.org/funding/open-calls",
		Title:      "Open Calls",
		StatusCode: 200,
		RawHTML:    "<html><body>grant funding</body></html>",
		Links:      []grant.Link{{Text: "apply", URL: "https://grants.example.org/apply"}},
	}
	require.NoError(t, sink.SavePage(context.Background(), snap))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlPath, metaPath string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlPath = filepath.Join(dir, e.Name())
		case ".json":
			metaPath = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, htmlPath)
	require.NotEmpty(t, metaPath)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, snap.RawHTML, string(html))

	raw, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	var meta pageMeta
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, snap.URL, meta.URL)
	assert.Equal(t, "Open Calls", meta.Title)
	assert.Equal(t, 200, meta.StatusCode)
	assert.Equal(t, 1, meta.LinkCount)
}

func TestSavePageRejectsOversized(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSink(t.TempDir(), 10, zap.NewNop())
	require.NoError(t, err)

	err = sink.SavePage(context.Background(), grant.PageSnapshot{
		URL:     "https://example.org",
		RawHTML: "<html>this is longer than ten bytes</html>",
	})
	assert.Error(t, err)
}

func TestSavePageRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSink(t.TempDir(), 1<<20, zap.NewNop())
	require.NoError(t, err)

	err = sink.SavePage(context.Background(), grant.PageSnapshot{URL: "https://example.org"})
	assert.Error(t, err)
}

func TestSavePageHonorsCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir, 1<<20, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.SavePage(ctx, grant.PageSnapshot{URL: "https://example.org", RawHTML: "<html></html>"})
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
