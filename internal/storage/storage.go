// Package storage defines the record store contract: flat key-value
// persistence of JSON documents partitioned by kind. The engine treats every
// record as an opaque document; shape knowledge lives in the game packages.
package storage

import (
	"context"
	"errors"
)

// Kind partitions the record space.
type Kind string

// Record kinds recognised by the store.
const (
	KindPlayer          Kind = "player"
	KindMonsterTemplate Kind = "monster_template"
	KindItem            Kind = "item"
	KindEquipment       Kind = "equipment"
	KindSpell           Kind = "spell"
	KindRankTable       Kind = "rank_table"
)

// ErrNotFound is returned when a record lookup yields no results.
var ErrNotFound = errors.New("storage: record not found")

// RecordStore provides flat key-value persistence per kind. Writes follow
// read-modify-write with last-writer-wins; callers serialise access per
// arena.
type RecordStore interface {
	// Get returns the record for (kind, key), or ErrNotFound.
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)
	// Put stores the record, replacing any previous value.
	Put(ctx context.Context, kind Kind, key string, data []byte) error
	// PutAll stores every record in one batch. Either all records are
	// written or an error is returned; partially applied batches are
	// possible only on storage failure mid-write.
	PutAll(ctx context.Context, kind Kind, records map[string][]byte) error
	// GetAll returns every record of the kind, keyed by record key.
	GetAll(ctx context.Context, kind Kind) (map[string][]byte, error)
	// Delete removes the record; deleting a missing record is a no-op.
	Delete(ctx context.Context, kind Kind, key string) error
}
