// Package importer seeds the record store from YAML content files. Each
// file holds a map of record key to record body; bodies are converted to
// JSON, validated against the domain parsers, and written to the store.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/duskforge/arena/internal/game/item"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/rank"
	"github.com/duskforge/arena/internal/storage"
)

// contentFiles maps the expected file names to their record kinds. A
// missing file is skipped.
var contentFiles = []struct {
	name string
	kind storage.Kind
}{
	{"ranks.yaml", storage.KindRankTable},
	{"monsters.yaml", storage.KindMonsterTemplate},
	{"items.yaml", storage.KindItem},
	{"equipment.yaml", storage.KindEquipment},
	{"spells.yaml", storage.KindSpell},
}

// Importer loads YAML content into a record store.
type Importer struct {
	store  storage.RecordStore
	logger *zap.Logger
}

// New creates an Importer.
//
// Precondition: store and logger must be non-nil.
func New(store storage.RecordStore, logger *zap.Logger) *Importer {
	return &Importer{store: store, logger: logger}
}

// Run imports every content file found under dir. Records are validated
// before anything is written; a validation failure aborts the whole run.
//
// Postcondition: on success every parsed record is in the store.
func (i *Importer) Run(ctx context.Context, dir string) error {
	for _, f := range contentFiles {
		path := filepath.Join(dir, f.name)
		records, err := loadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := validate(f.kind, records); err != nil {
			return fmt.Errorf("importer: %s: %w", f.name, err)
		}
		if err := i.store.PutAll(ctx, f.kind, records); err != nil {
			return fmt.Errorf("importer: storing %s: %w", f.name, err)
		}
		i.logger.Info("content imported",
			zap.String("file", f.name),
			zap.String("kind", string(f.kind)),
			zap.Int("records", len(records)),
		)
	}
	return nil
}

// loadFile reads one YAML content file into per-key JSON record bodies.
func loadFile(path string) (map[string][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("importer: parsing %s: %w", filepath.Base(path), err)
	}
	records := make(map[string][]byte, len(raw))
	for key, body := range raw {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("importer: encoding %s record %q: %w", filepath.Base(path), key, err)
		}
		records[key] = encoded
	}
	return records, nil
}

// validate runs each record through its domain parser so malformed content
// fails at import time rather than at first use.
func validate(kind storage.Kind, records map[string][]byte) error {
	switch kind {
	case storage.KindRankTable:
		for key, data := range records {
			if _, err := rank.ParseLevels(data); err != nil {
				return fmt.Errorf("rank %q: %w", key, err)
			}
		}
	case storage.KindMonsterTemplate:
		for key, data := range records {
			if _, err := monster.ParseTemplate(key, data); err != nil {
				return err
			}
		}
	case storage.KindItem, storage.KindEquipment:
		reg := item.NewRegistry()
		items := map[string][]byte{}
		equipment := map[string][]byte{}
		if kind == storage.KindItem {
			items = records
		} else {
			equipment = records
		}
		if err := reg.LoadRecords(items, equipment); err != nil {
			return err
		}
	}
	return nil
}
