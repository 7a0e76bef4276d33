package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// DefaultTraversalDepth bounds the co-occurrence walk. Two hops surfaces
// semantically related but not lexically identical entities (synonyms
// linked by prior co-occurrence) without unbounded graph walks.
const DefaultTraversalDepth = 2

// DefaultLimit bounds each of the three graph lookups when the caller does
// not configure one.
const DefaultLimit = 20

// Adapter runs the three graph lookups — entity-anchored, relation-anchored,
// and direct passage match — and shapes their union into fusion candidates.
type Adapter struct {
	driver Driver
	depth  int
	limit  int
}

// NewAdapter creates a graph search adapter. The traversal depth is an
// explicit parameter so the walk is testable against a fake driver.
func NewAdapter(driver Driver, depth, limit int) *Adapter {
	if depth <= 0 {
		depth = DefaultTraversalDepth
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Adapter{driver: driver, depth: depth, limit: limit}
}

// Search performs the three lookups, concatenates their outputs, and sorts
// descending by native score. Any driver failure fails the whole adapter;
// the engine degrades to the surviving source.
func (a *Adapter) Search(ctx context.Context, query, tenantID string) ([]types.Candidate, error) {
	matches, err := a.driver.SearchEntities(ctx, query, tenantID, a.limit)
	if err != nil {
		return nil, fmt.Errorf("graph entity search failed: %w", err)
	}

	var candidates []types.Candidate

	if len(matches) > 0 {
		scoreByUUID := make(map[string]float64, len(matches))
		anchorUUIDs := make([]string, 0, len(matches))
		anchorTotal := 0.0
		for _, m := range matches {
			scoreByUUID[m.UUID] = m.Score
			anchorUUIDs = append(anchorUUIDs, m.UUID)
			anchorTotal += m.Score
		}
		anchorMean := anchorTotal / float64(len(matches))

		entityCands, err := a.entityLookup(ctx, anchorUUIDs, tenantID, scoreByUUID, anchorMean)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entityCands...)

		relationCands, err := a.relationLookup(ctx, anchorUUIDs, tenantID, scoreByUUID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, relationCands...)
	}

	chunkCands, err := a.passageLookup(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, chunkCands...)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].NativeScore > candidates[j].NativeScore
	})

	return candidates, nil
}

// entityLookup expands the matched entities into their co-occurrence
// neighborhood and emits one candidate per passage mentioning any entity
// in it. The native score is the average full-text match score of the
// matched entities found in the passage.
func (a *Adapter) entityLookup(ctx context.Context, anchorUUIDs []string, tenantID string, scoreByUUID map[string]float64, anchorMean float64) ([]types.Candidate, error) {
	neighbors, err := a.driver.Neighborhood(ctx, anchorUUIDs, tenantID, a.depth)
	if err != nil {
		return nil, fmt.Errorf("graph neighborhood traversal failed: %w", err)
	}

	uuids := make([]string, 0, len(anchorUUIDs)+len(neighbors))
	uuids = append(uuids, anchorUUIDs...)
	for _, n := range neighbors {
		uuids = append(uuids, n.UUID)
	}

	passages, err := a.driver.PassagesByEntities(ctx, uuids, tenantID, a.limit)
	if err != nil {
		return nil, fmt.Errorf("graph passage lookup failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(passages))
	for _, p := range passages {
		score := 0.0
		scored := 0
		refs := make([]types.EntityRef, 0, len(p.Entities))
		for _, e := range p.Entities {
			refs = append(refs, types.EntityRef{Name: e.Name, EntityType: e.EntityType})
			if s, ok := scoreByUUID[e.UUID]; ok {
				score += s
				scored++
			}
		}
		if scored > 0 {
			score /= float64(scored)
		} else {
			// Passage reached only through traversal; score it by the
			// anchors that led here.
			score = anchorMean
		}

		candidates = append(candidates, types.Candidate{
			Content: p.Content,
			Metadata: map[string]any{
				types.MetadataTenantID:    tenantID,
				types.MetadataPassageUUID: p.UUID,
				types.MetadataEntities:    refs,
			},
			Source:      types.SourceGraphEntity,
			NativeScore: score,
		})
	}
	return candidates, nil
}

// relationLookup finds matched entity pairs connected by a co-occurrence
// edge that appear together in a passage, emitting one candidate per
// passage with a human-readable relation list.
func (a *Adapter) relationLookup(ctx context.Context, anchorUUIDs []string, tenantID string, scoreByUUID map[string]float64) ([]types.Candidate, error) {
	pairs, err := a.driver.CooccurringPairs(ctx, anchorUUIDs, tenantID, a.limit)
	if err != nil {
		return nil, fmt.Errorf("graph relation lookup failed: %w", err)
	}

	type group struct {
		content   string
		relations []string
		total     float64
		count     int
	}
	order := make([]string, 0, len(pairs))
	groups := make(map[string]*group, len(pairs))

	for _, pair := range pairs {
		g, ok := groups[pair.PassageUUID]
		if !ok {
			g = &group{content: pair.Content}
			groups[pair.PassageUUID] = g
			order = append(order, pair.PassageUUID)
		}
		g.relations = append(g.relations, fmt.Sprintf("%s -> %s", pair.SourceName, pair.TargetName))
		g.total += scoreByUUID[pair.SourceUUID] + scoreByUUID[pair.TargetUUID]
		g.count += 2
	}

	candidates := make([]types.Candidate, 0, len(order))
	for _, uuid := range order {
		g := groups[uuid]
		candidates = append(candidates, types.Candidate{
			Content: g.content,
			Metadata: map[string]any{
				types.MetadataTenantID:    tenantID,
				types.MetadataPassageUUID: uuid,
				types.MetadataRelations:   g.relations,
			},
			Source:      types.SourceGraphRelation,
			NativeScore: g.total / float64(g.count),
		})
	}
	return candidates, nil
}

// passageLookup full-text matches the query directly against passage text.
func (a *Adapter) passageLookup(ctx context.Context, query, tenantID string) ([]types.Candidate, error) {
	passages, err := a.driver.SearchPassages(ctx, query, tenantID, a.limit)
	if err != nil {
		return nil, fmt.Errorf("graph passage search failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(passages))
	for _, p := range passages {
		candidates = append(candidates, types.Candidate{
			Content: p.Content,
			Metadata: map[string]any{
				types.MetadataTenantID:    tenantID,
				types.MetadataPassageUUID: p.UUID,
			},
			Source:      types.SourceChunkText,
			NativeScore: p.Score,
		})
	}
	return candidates, nil
}
