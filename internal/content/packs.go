package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is a question bank file: shared grade/term metadata plus items.
type Pack struct {
	Grade string `yaml:"grade"`
	Term  string `yaml:"term"`
	Items []Item `yaml:"items"`
}

// LoadPacks walks rootDir, parses every .yaml/.yml pack file and upserts
// its items into store. Items inherit the pack's grade and term when
// they don't set their own. Invalid files are skipped with a warning.
func LoadPacks(ctx context.Context, rootDir string, store Store) (int, error) {
	loaded := 0
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		n, err := loadPack(ctx, path, store)
		if err != nil {
			return err
		}
		loaded += n
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("loading packs: %w", err)
	}

	return loaded, nil
}

func loadPack(ctx context.Context, path string, store Store) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		slog.Warn("skipping invalid pack YAML", "path", path, "error", err)
		return 0, nil
	}
	if len(pack.Items) == 0 {
		return 0, nil
	}

	count := 0
	for _, item := range pack.Items {
		if item.Grade == "" {
			item.Grade = pack.Grade
		}
		if item.Term == "" {
			item.Term = pack.Term
		}
		if item.QuestionText == "" || item.AnswerText == "" {
			slog.Warn("skipping incomplete pack item", "path", path, "id", item.ID)
			continue
		}
		if _, err := store.Upsert(ctx, item); err != nil {
			return count, fmt.Errorf("upserting pack item from %s: %w", path, err)
		}
		count++
	}
	return count, nil
}
