// Package rules loads YAML rule packs that extend the Zod-to-TypeScript type map.
package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tsfix/internal/domain"

	"gopkg.in/yaml.v3"
)

// LoadFromDirectory loads rule packs from YAML files in a directory, in file name order.
// Files must have .yaml or .yml extension. Unreadable or malformed packs are skipped.
func LoadFromDirectory(dir string, logger *slog.Logger) ([]domain.RulePack, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("rules directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var packs []domain.RulePack
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read rule pack", "path", path, "err", err)
			continue
		}

		pack, err := Parse(data)
		if err != nil {
			logger.Warn("cannot parse rule pack", "path", path, "err", err)
			continue
		}
		if pack.Name == "" {
			pack.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		pack.Source = path

		logger.Debug("loaded rule pack", "name", pack.Name, "types", len(pack.Types), "path", path)
		packs = append(packs, pack)
	}

	return packs, nil
}

// Parse decodes a single rule pack.
func Parse(data []byte) (domain.RulePack, error) {
	var pack domain.RulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return domain.RulePack{}, err
	}
	for ctor, ts := range pack.Types {
		if strings.TrimSpace(ctor) == "" || strings.TrimSpace(ts) == "" {
			return domain.RulePack{}, fmt.Errorf("empty mapping %q: %q", ctor, ts)
		}
	}
	return pack, nil
}

// Merge returns a new type map: base overlaid with each pack in order.
func Merge(base map[string]string, packs ...domain.RulePack) map[string]string {
	merged := make(map[string]string, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for _, p := range packs {
		for k, v := range p.Types {
			merged[k] = v
		}
	}
	return merged
}
