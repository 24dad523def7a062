// Package flatten turns a hierarchical sourcemodel.File into the flat
// list of graphmodel.Row entries the storage layer persists, and
// pre-processes the file's declared cross-tree relations into the
// per-url edge lists the flattener consumes.
package flatten

import (
	"strings"

	"github.com/google/uuid"

	"graphingest/internal/graphmodel"
	"graphingest/internal/identity"
	"graphingest/internal/sourcemodel"
)

// PreprocessRelations expands each declared Relation into two entries
// in the returned map — one on the source url (outbound) and one on
// the target url (inbound) — so the flattener never needs to look
// anything up while walking the tree.
func PreprocessRelations(ingestionID string, relations []sourcemodel.Relation) map[string][]graphmodel.Relation {
	out := make(map[string][]graphmodel.Relation)
	for _, r := range relations {
		source := joinPath(r.Source)
		target := joinPath(r.Target)
		if source == "" || target == "" {
			// a declared relation with an empty path can't be
			// identified; skip it rather than crash the ingestion.
			continue
		}
		out[source] = append(out[source], graphmodel.NewRelation(ingestionID, r.Type, target, true))
		out[target] = append(out[target], graphmodel.NewRelation(ingestionID, r.Type, source, false))
	}
	return out
}

func joinPath(segments []string) string {
	return strings.Join(segments, "/")
}

// Nodes walks the hierarchy depth-first and appends one entity row
// per node plus its implicit ISPARENT/ISCHILD edge rows and any
// user-declared relation rows found in relations. Order of the
// returned rows follows node/children encounter order; duplicate
// rows (e.g. the same relation declared twice) are not deduplicated
// here, storage folds them on write.
func Nodes(ingestionID string, nodes []sourcemodel.Node, relations map[string][]graphmodel.Relation) []graphmodel.Row {
	var rows []graphmodel.Row
	flattenLevel(ingestionID, nodes, "", nil, relations, &rows)
	return rows
}

type parentRef struct {
	id   uuid.UUID
	name string
}

func flattenLevel(ingestionID string, nodes []sourcemodel.Node, path string, parent *parentRef, relations map[string][]graphmodel.Relation, rows *[]graphmodel.Row) {
	for _, node := range nodes {
		url := path + node.Name
		id := identity.Of(ingestionID, url)

		*rows = append(*rows, graphmodel.Row{
			ID:          id,
			Name:        node.Name,
			IngestionID: ingestionID,
			URL:         url,
			Type:        node.Type,
			Tags:        tagsOf(node.Tags),
		})

		if parent != nil {
			*rows = append(*rows, graphmodel.Row{
				ID:          id,
				Direction:   graphmodel.DirectionIn,
				Relation:    graphmodel.RelationIsParent,
				RelatesTo:   parent.id.String(),
				Name:        parent.name,
				IngestionID: ingestionID,
			})
		}

		for _, r := range relations[url] {
			direction := graphmodel.DirectionOut
			if !r.Outbound {
				direction = graphmodel.DirectionIn
			}
			*rows = append(*rows, graphmodel.Row{
				ID:          id,
				Direction:   direction,
				Relation:    r.Type,
				RelatesTo:   r.RelatesTo,
				Name:        r.TargetName,
				IngestionID: ingestionID,
			})
		}

		for _, child := range node.Children {
			childURL := url + "/" + child.Name
			childID := identity.Of(ingestionID, childURL)
			*rows = append(*rows, graphmodel.Row{
				ID:          id,
				Direction:   graphmodel.DirectionOut,
				Relation:    graphmodel.RelationIsChild,
				RelatesTo:   childID.String(),
				Name:        child.Name,
				IngestionID: ingestionID,
			})
		}

		if len(node.Children) > 0 {
			self := &parentRef{id: id, name: node.Name}
			flattenLevel(ingestionID, node.Children, url+"/", self, relations, rows)
		}
	}
}

func tagsOf(src []sourcemodel.Tag) []graphmodel.Tag {
	if src == nil {
		return nil
	}
	out := make([]graphmodel.Tag, len(src))
	for i, t := range src {
		out[i] = graphmodel.Tag{Type: t.Type, Value: t.Value}
	}
	return out
}
