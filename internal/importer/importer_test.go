package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/rank"
	"github.com/duskforge/arena/internal/importer"
	"github.com/duskforge/arena/internal/storage"
)

func writeContent(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestImporter_Run(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "ranks.yaml", `
bronze:
  "1": {hp: 30, qi: 10, ca: 12, dano: 1d6, bba: 1, qi_xp: 30}
  "2": {hp: 40, qi: 15, ca: 13, dano: 1d6, bba: 2, qi_xp: 45}
`)
	writeContent(t, dir, "monsters.yaml", `
lobo:
  nome: Lobo Cinzento
  init_bonus: 2
  drops:
    - {item: presa, q: 1d2, chance: 0.5}
`)
	writeContent(t, dir, "items.yaml", `
presa:
  nome: Presa de Lobo
  tipo: craft
  valor: 5
  sell: 4
`)

	store := storage.NewMemStore()
	imp := importer.New(store, zap.NewNop())
	require.NoError(t, imp.Run(context.Background(), dir))

	ctx := context.Background()
	data, err := store.Get(ctx, storage.KindRankTable, "bronze")
	require.NoError(t, err)
	levels, err := rank.ParseLevels(data)
	require.NoError(t, err)
	assert.Equal(t, 40, levels[2].HP)

	data, err = store.Get(ctx, storage.KindMonsterTemplate, "lobo")
	require.NoError(t, err)
	tmpl, err := monster.ParseTemplate("lobo", data)
	require.NoError(t, err)
	assert.Equal(t, "Lobo Cinzento", tmpl.Name)
	require.Len(t, tmpl.Drops, 1)
	assert.Equal(t, "1d2", tmpl.Drops[0].Quantity)
	assert.InDelta(t, 0.5, tmpl.Drops[0].Chance, 1e-9)
}

func TestImporter_Run_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "items.yaml", `
pocao:
  nome: Poção Menor
  tipo: hp
  valor: 20
  buy: 25
  sell: 10
`)
	store := storage.NewMemStore()
	require.NoError(t, importer.New(store, zap.NewNop()).Run(context.Background(), dir))

	_, err := store.Get(context.Background(), storage.KindItem, "pocao")
	require.NoError(t, err)
	_, err = store.Get(context.Background(), storage.KindRankTable, "bronze")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImporter_Run_RejectsInvalidContent(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "ranks.yaml", `
bronze:
  "zero": {hp: 30}
`)
	store := storage.NewMemStore()
	err := importer.New(store, zap.NewNop()).Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ranks.yaml")

	// Nothing was written.
	all, err := store.GetAll(context.Background(), storage.KindRankTable)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImporter_Run_RejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "monsters.yaml", "nome: [unclosed")
	err := importer.New(storage.NewMemStore(), zap.NewNop()).Run(context.Background(), dir)
	require.Error(t, err)
}
