package traversal

import (
	"fmt"
	"testing"

	"graphingest/internal/storage"
)

// fakeReader serves a fixed chain of nodes keyed by id; used to drive
// the traversal engine without a live store. Like the storage query,
// it keeps only edge rows of the requested relation type when one is
// given.
type fakeReader struct {
	// rows[id] is the row set GetNodeTraversal would return for id:
	// index 0 is always the entity row, the rest are edge rows.
	rows map[string][]storage.TraversalRow
}

func (f *fakeReader) GetNodeTraversal(id, direction string, relationType *string) ([]storage.TraversalRow, error) {
	rows, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("no such node: %s", id)
	}
	if relationType == nil {
		return rows, nil
	}
	out := []storage.TraversalRow{rows[0]}
	for _, row := range rows[1:] {
		if row.Relation == *relationType {
			out = append(out, row)
		}
	}
	return out, nil
}

func entityRow(id, name, typ string) storage.TraversalRow {
	return storage.TraversalRow{ID: idBytes(id), Name: name, Type: typ}
}

func edgeRow(relatesTo string) storage.TraversalRow {
	return storage.TraversalRow{RelatesTo: relatesTo}
}

func idBytes(s string) [16]byte {
	var out [16]byte
	copy(out[:], s)
	return out
}

// a 4-node chain (a -> b -> c -> d) traversed with max_depth=2
// must return a, b, c but never reach d, and every returned node's
// depth must be <= max_depth.
func TestWalk_RespectsMaxDepth(t *testing.T) {
	r := &fakeReader{rows: map[string][]storage.TraversalRow{
		"a": {entityRow("a", "a", "t"), edgeRow("b")},
		"b": {entityRow("b", "b", "t"), edgeRow("c")},
		"c": {entityRow("c", "c", "t"), edgeRow("d")},
		"d": {entityRow("d", "d", "t")},
	}}

	root := Walk(r, "a", "OUT", nil, 2)
	if root == nil {
		t.Fatal("expected a root node")
	}
	if root.Depth != 0 || root.Name != "a" {
		t.Fatalf("unexpected root: %+v", root)
	}
	if len(root.Relations) != 1 || root.Relations[0].Name != "b" {
		t.Fatalf("expected child b, got %+v", root.Relations)
	}
	child := root.Relations[0]
	if child.Depth != 1 {
		t.Fatalf("expected depth 1 for b, got %d", child.Depth)
	}
	if len(child.Relations) != 1 || child.Relations[0].Name != "c" {
		t.Fatalf("expected grandchild c, got %+v", child.Relations)
	}
	grandchild := child.Relations[0]
	if grandchild.Depth != 2 {
		t.Fatalf("expected depth 2 for c, got %d", grandchild.Depth)
	}
	if len(grandchild.Relations) != 0 {
		t.Fatalf("expected traversal to stop at max_depth, but reached: %+v", grandchild.Relations)
	}
}

// a relation-type filter excludes an edge of a different type.
func TestWalk_RelationTypeFilterExcludesUnrelatedEdge(t *testing.T) {
	filtered := "CALLS"
	r := &fakeReader{rows: map[string][]storage.TraversalRow{
		"a": {
			entityRow("a", "a", "t"),
			{RelatesTo: "b", Relation: "CALLS"},
			{RelatesTo: "x", Relation: "KNOWS"},
		},
		"b": {entityRow("b", "b", "t")},
		"x": {entityRow("x", "x", "t")},
	}}

	root := Walk(r, "a", "OUT", &filtered, 5)
	if root == nil {
		t.Fatal("expected root")
	}
	// the fake reader enforces the filter contract (it is the storage
	// layer's job to apply relation IN ('', ?)), so the KNOWS edge is
	// dropped only if the engine forwards relationType to the reader.
	if len(root.RelationIDs) != 1 || root.RelationIDs[0] != "b" {
		t.Fatalf("unexpected relation ids: %+v", root.RelationIDs)
	}
	if len(root.Relations) != 1 || root.Relations[0].Name != "b" {
		t.Fatalf("expected only child b, got %+v", root.Relations)
	}
}

func TestWalk_ChildOrderMatchesRelationIDsOrder(t *testing.T) {
	r := &fakeReader{rows: map[string][]storage.TraversalRow{
		"root": {
			entityRow("root", "root", "t"),
			edgeRow("x"), edgeRow("y"), edgeRow("z"),
		},
		"x": {entityRow("x", "x", "t")},
		"y": {entityRow("y", "y", "t")},
		"z": {entityRow("z", "z", "t")},
	}}

	root := Walk(r, "root", "OUT", nil, 1)
	if len(root.Relations) != 3 {
		t.Fatalf("expected 3 children, got %d", len(root.Relations))
	}
	names := []string{root.Relations[0].Name, root.Relations[1].Name, root.Relations[2].Name}
	if names[0] != "x" || names[1] != "y" || names[2] != "z" {
		t.Fatalf("expected order x,y,z regardless of goroutine completion order, got %v", names)
	}
}

func TestWalk_FailedRootReadReturnsNil(t *testing.T) {
	r := &fakeReader{rows: map[string][]storage.TraversalRow{}}
	if got := Walk(r, "missing", "OUT", nil, 3); got != nil {
		t.Fatalf("expected nil for failed root read, got %+v", got)
	}
}

func TestWalk_FailedChildReadOmitsSubtree(t *testing.T) {
	r := &fakeReader{rows: map[string][]storage.TraversalRow{
		"root": {entityRow("root", "root", "t"), edgeRow("missing")},
	}}
	root := Walk(r, "root", "OUT", nil, 2)
	if root == nil {
		t.Fatal("expected root")
	}
	if len(root.Relations) != 0 {
		t.Fatalf("expected failed child read to be omitted, got %+v", root.Relations)
	}
}
