// Package traversal implements the bounded-depth recursive graph
// walk served by GET /traversal/{id}: starting at a node, follow
// edges in one direction (optionally filtered by relation type) up
// to max_depth levels, expanding every level concurrently.
package traversal

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"graphingest/internal/graphmodel"
	"graphingest/internal/storage"
	"graphingest/internal/tracing"
)

// Reader is the read-side seam the engine depends on; storage.Service
// satisfies it directly, tests substitute a fake.
type Reader interface {
	GetNodeTraversal(id, direction string, relationType *string) ([]storage.TraversalRow, error)
}

// Walk starts at id and returns the traversal tree up to maxDepth
// levels deep. It returns nil if the root read fails or finds
// nothing; a failed read at any deeper node simply omits that
// subtree rather than failing the whole walk. There is no cycle
// detection — a relation cycle within maxDepth will be re-expanded
// each time it is encountered.
func Walk(r Reader, id, direction string, relationType *string, maxDepth int) *graphmodel.TraversalNode {
	_, span := tracing.Start(context.Background(), "traversal.Walk")
	defer span.End()
	return walk(r, id, direction, relationType, 0, maxDepth)
}

func walk(r Reader, id, direction string, relationType *string, depth, maxDepth int) *graphmodel.TraversalNode {
	rows, err := r.GetNodeTraversal(id, direction, relationType)
	if err != nil || len(rows) == 0 {
		return nil
	}

	entity := rows[0]
	node := &graphmodel.TraversalNode{
		UUID:      uuid.UUID(entity.ID),
		Depth:     depth,
		Name:      entity.Name,
		Type:      entity.Type,
		Relations: []graphmodel.TraversalNode{},
	}

	relationIDs := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		relationIDs = append(relationIDs, row.RelatesTo)
	}
	node.RelationIDs = relationIDs

	if depth < maxDepth && len(relationIDs) > 0 {
		children := make([]*graphmodel.TraversalNode, len(relationIDs))
		var wg sync.WaitGroup
		for i, childID := range relationIDs {
			wg.Add(1)
			go func(i int, childID string) {
				defer wg.Done()
				children[i] = walk(r, childID, direction, relationType, depth+1, maxDepth)
			}(i, childID)
		}
		wg.Wait()

		for _, child := range children {
			if child != nil {
				node.Relations = append(node.Relations, *child)
			}
		}
	}

	return node
}
