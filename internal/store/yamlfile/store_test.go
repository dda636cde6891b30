package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfeld/newsvault/internal/news"
)

func sampleArticles() []news.Article {
	return []news.Article{
		{
			Title:       "Deep Learning advances",
			Description: "A description.",
			URL:         "https://example.com/1",
			Date:        "2025-01-14",
			Source:      "Example Times",
		},
		{
			Title:       "More Deep Learning",
			Description: news.DefaultDescription,
			URL:         "https://example.com/2",
			Date:        "2025-01-13",
			Source:      news.DefaultSource,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(t.TempDir(), nil)
	want := sampleArticles()

	require.NoError(t, store.Save(ctx, "deep-learning", want))
	assert.Equal(t, want, store.Load(ctx, "deep-learning"))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir(), nil)
	assert.Empty(t, store.Load(context.Background(), "never-saved"))
}

func TestLoadMalformedFileIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("news_items: {not a list"), 0o644))

	store := New(dir, nil)
	assert.Empty(t, store.Load(context.Background(), "bad"))
}

func TestSaveNilWritesEmptyList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := New(dir, nil)

	require.NoError(t, store.Save(ctx, "empty", nil))

	data, err := os.ReadFile(filepath.Join(dir, "empty.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "news_items: []")
	assert.Empty(t, store.Load(ctx, "empty"))
}

func TestSaveCreatesDataDir(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store := New(dir, nil)

	require.NoError(t, store.Save(ctx, "deep-learning", sampleArticles()))
	assert.Len(t, store.Load(ctx, "deep-learning"), 2)
}

func TestSaveIsByteIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := New(dir, nil)
	items := sampleArticles()

	require.NoError(t, store.Save(ctx, "deep-learning", items))
	first, err := os.ReadFile(filepath.Join(dir, "deep-learning.yaml"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "deep-learning", items))
	second, err := os.ReadFile(filepath.Join(dir, "deep-learning.yaml"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestInvalidTopicID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(t.TempDir(), nil)

	assert.Error(t, store.Save(ctx, "../escape", sampleArticles()))
	assert.Empty(t, store.Load(ctx, "../escape"))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := New(dir, nil)
	require.NoError(t, store.Save(context.Background(), "deep-learning", sampleArticles()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "deep-learning.yaml", entries[0].Name())
}
