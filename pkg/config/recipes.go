package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Recipe is a named set of fusion parameters. Operators tune recall versus
// latency per deployment by switching recipes instead of editing code.
type Recipe struct {
	Name           string `yaml:"name"`
	Limit          int    `yaml:"limit"`
	VectorK        int    `yaml:"vector_k"`
	GraphLimit     int    `yaml:"graph_limit"`
	TraversalDepth int    `yaml:"traversal_depth"`
}

// Built-in recipes.
var (
	// BalancedRecipe is the default: moderate candidate pools from both
	// sources with the standard 2-hop neighborhood.
	BalancedRecipe = Recipe{
		Name:           "balanced",
		Limit:          10,
		VectorK:        20,
		GraphLimit:     20,
		TraversalDepth: 2,
	}

	// HighRecallRecipe widens both candidate pools for callers that rerank
	// downstream.
	HighRecallRecipe = Recipe{
		Name:           "high_recall",
		Limit:          50,
		VectorK:        100,
		GraphLimit:     100,
		TraversalDepth: 2,
	}

	// LowLatencyRecipe narrows the pools and skips the neighborhood walk
	// beyond direct matches.
	LowLatencyRecipe = Recipe{
		Name:           "low_latency",
		Limit:          5,
		VectorK:        10,
		GraphLimit:     10,
		TraversalDepth: 1,
	}
)

// BuiltinRecipes returns the recipes shipped with the engine, keyed by name.
func BuiltinRecipes() map[string]Recipe {
	return map[string]Recipe{
		BalancedRecipe.Name:   BalancedRecipe,
		HighRecallRecipe.Name: HighRecallRecipe,
		LowLatencyRecipe.Name: LowLatencyRecipe,
	}
}

// LoadRecipes reads named recipes from a YAML file and merges them over
// the built-ins. File entries win on name collisions.
func LoadRecipes(path string) (map[string]Recipe, error) {
	recipes := BuiltinRecipes()
	if path == "" {
		return recipes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipes file: %w", err)
	}

	var file struct {
		Recipes []Recipe `yaml:"recipes"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recipes file: %w", err)
	}

	for _, r := range file.Recipes {
		if r.Name == "" {
			return nil, fmt.Errorf("recipe without a name in %s", path)
		}
		recipes[r.Name] = r
	}
	return recipes, nil
}

// Apply overlays a recipe onto the fusion config.
func (c *FusionConfig) Apply(r Recipe) {
	if r.Limit > 0 {
		c.Limit = r.Limit
	}
	if r.VectorK > 0 {
		c.VectorK = r.VectorK
	}
	if r.GraphLimit > 0 {
		c.GraphLimit = r.GraphLimit
	}
	if r.TraversalDepth > 0 {
		c.TraversalDepth = r.TraversalDepth
	}
}
