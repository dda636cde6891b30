// Package yamlfile persists per-topic article snapshots as YAML files,
// one file per topic, written atomically.
package yamlfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jfeld/newsvault/internal/news"
)

// Topic IDs become file names, so they are restricted to a safe charset.
var validTopicID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// snapshot is the on-disk document shape.
type snapshot struct {
	NewsItems []news.Article `yaml:"news_items"`
}

// Store reads and writes one YAML snapshot file per topic under a data
// directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New constructs a Store rooted at dir. The directory is created on the
// first Save.
func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(topicID string) string {
	return filepath.Join(s.dir, topicID+".yaml")
}

// Load returns the cached articles for a topic. A missing, unreadable or
// malformed file yields an empty slice: the pipeline treats every load
// problem as an empty cache and rebuilds the snapshot on the next save.
func (s *Store) Load(_ context.Context, topicID string) []news.Article {
	if !validTopicID.MatchString(topicID) {
		s.logger.Warn("invalid topic id, treating cache as empty", zap.String("topic", topicID))
		return nil
	}

	data, err := os.ReadFile(s.path(topicID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read snapshot failed, treating cache as empty",
				zap.String("topic", topicID), zap.Error(err))
		}
		return nil
	}

	var doc snapshot
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("malformed snapshot, treating cache as empty",
			zap.String("topic", topicID), zap.Error(err))
		return nil
	}
	return doc.NewsItems
}

// Save writes the topic's snapshot atomically: the document is written to a
// temp file in the same directory and renamed over the target, so readers
// never observe a partial file. A nil slice is stored as an empty list.
func (s *Store) Save(_ context.Context, topicID string, items []news.Article) error {
	if !validTopicID.MatchString(topicID) {
		return fmt.Errorf("invalid topic id %q", topicID)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if items == nil {
		items = []news.Article{}
	}

	data, err := yaml.Marshal(snapshot{NewsItems: items})
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", topicID, err)
	}

	tmp, err := os.CreateTemp(s.dir, topicID+".yaml.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot for %s: %w", topicID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot for %s: %w", topicID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot for %s: %w", topicID, err)
	}
	if err := os.Rename(tmpName, s.path(topicID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot for %s: %w", topicID, err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("topic", topicID),
		zap.Int("articles", len(items)),
	)
	return nil
}
