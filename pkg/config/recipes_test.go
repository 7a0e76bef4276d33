package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRecipesBuiltinsOnly(t *testing.T) {
	recipes, err := LoadRecipes("")
	require.NoError(t, err)
	assert.Contains(t, recipes, "balanced")
	assert.Contains(t, recipes, "high_recall")
	assert.Contains(t, recipes, "low_latency")
	assert.Equal(t, 2, recipes["balanced"].TraversalDepth)
}

func TestLoadRecipesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	content := `recipes:
  - name: custom
    limit: 7
    vector_k: 15
    graph_limit: 12
    traversal_depth: 1
  - name: balanced
    limit: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	recipes, err := LoadRecipes(path)
	require.NoError(t, err)

	custom, ok := recipes["custom"]
	require.True(t, ok)
	assert.Equal(t, 7, custom.Limit)
	assert.Equal(t, 15, custom.VectorK)

	// File entries win over built-ins.
	assert.Equal(t, 25, recipes["balanced"].Limit)
}

func TestLoadRecipesRejectsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recipes:\n  - limit: 3\n"), 0644))

	_, err := LoadRecipes(path)
	assert.Error(t, err)
}

func TestFusionConfigApply(t *testing.T) {
	cfg := FusionConfig{Limit: 10, VectorK: 20, GraphLimit: 20, TraversalDepth: 2}
	cfg.Apply(Recipe{Name: "partial", Limit: 3})

	assert.Equal(t, 3, cfg.Limit)
	// Zero-valued recipe fields leave the config untouched.
	assert.Equal(t, 20, cfg.VectorK)
	assert.Equal(t, 2, cfg.TraversalDepth)
}
