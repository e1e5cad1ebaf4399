package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// categorySeed is the YAML document read from CATEGORY_SEED_PATH.
//
//	categories:
//	  - name: Technology
//	  - name: Travel
//	    active: false
type categorySeed struct {
	Categories []struct {
		Name   string `yaml:"name"`
		Active *bool  `yaml:"active"`
	} `yaml:"categories"`
}

// ParseCategorySeed decodes a seed document. Entries default to active.
func ParseCategorySeed(b []byte) ([]Category, error) {
	var doc categorySeed
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("category seed: %w", err)
	}
	out := make([]Category, 0, len(doc.Categories))
	seen := map[string]struct{}{}
	for i, c := range doc.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category seed: entry %d has no name", i+1)
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		active := true
		if c.Active != nil {
			active = *c.Active
		}
		out = append(out, Category{Name: name, Active: active})
	}
	return out, nil
}

// SeedCategories applies the seed file at cfg.CategorySeedPath, if configured.
func SeedCategories(ctx context.Context, repo CategoryRepository, cfg Config) error {
	if cfg.CategorySeedPath == "" {
		return nil
	}
	b, err := os.ReadFile(cfg.CategorySeedPath)
	if err != nil {
		return err
	}
	cats, err := ParseCategorySeed(b)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if _, err := repo.Upsert(ctx, c.Name, c.Active); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	log.Printf("seeded %d categories from %s", len(cats), cfg.CategorySeedPath)
	return nil
}
