package flatten

import (
	"testing"

	"graphingest/internal/graphmodel"
	"graphingest/internal/identity"
	"graphingest/internal/sourcemodel"
)

// a single node with no children and no relations produces
// exactly one entity row, with name equal to the last segment of url.
func TestNodes_SingleNode(t *testing.T) {
	nodes := []sourcemodel.Node{{Name: "root", Type: "service"}}
	rows := Nodes("ing-1", nodes, nil)

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Direction != "" || r.Relation != "" || r.RelatesTo != "" {
		t.Fatalf("entity row must have empty clustering columns, got %+v", r)
	}
	if r.Name != "root" || r.URL != "root" {
		t.Fatalf("unexpected name/url: %+v", r)
	}
	want := identity.Of("ing-1", "root")
	if r.ID != want {
		t.Fatalf("id mismatch: got %s want %s", r.ID, want)
	}
}

// a parent with one child produces the entity row pair plus the
// implicit ISCHILD (on the parent) and ISPARENT (on the child) edges.
func TestNodes_ParentChild(t *testing.T) {
	nodes := []sourcemodel.Node{
		{
			Name: "root",
			Type: "service",
			Children: []sourcemodel.Node{
				{Name: "handler", Type: "function"},
			},
		},
	}
	rows := Nodes("ing-1", nodes, nil)

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows (parent entity, parent ISCHILD, child entity, child ISPARENT), got %d", len(rows))
	}

	parentID := identity.Of("ing-1", "root")
	childID := identity.Of("ing-1", "root/handler")

	var sawISChild, sawISParent bool
	for _, r := range rows {
		switch {
		case r.ID == parentID && r.Relation == graphmodel.RelationIsChild:
			sawISChild = true
			if r.Direction != graphmodel.DirectionOut || r.RelatesTo != childID.String() {
				t.Fatalf("bad ISCHILD row: %+v", r)
			}
		case r.ID == childID && r.Relation == graphmodel.RelationIsParent:
			sawISParent = true
			if r.Direction != graphmodel.DirectionIn || r.RelatesTo != parentID.String() {
				t.Fatalf("bad ISPARENT row: %+v", r)
			}
		}
	}
	if !sawISChild || !sawISParent {
		t.Fatalf("missing implicit edge rows: %+v", rows)
	}

	// round-trip name invariant
	for _, r := range rows {
		if r.Direction == "" && r.Relation == "" {
			lastSeg := r.URL[strLastSlash(r.URL)+1:]
			if lastSeg != r.Name {
				t.Fatalf("round-trip name invariant violated: url=%s name=%s", r.URL, r.Name)
			}
		}
	}
}

// a bidirectional user relation produces one outbound row on the
// source and one inbound row on the target, with relates_to resolved
// purely from path (no lookup).
func TestNodes_BidirectionalRelation(t *testing.T) {
	nodes := []sourcemodel.Node{
		{Name: "a", Type: "service"},
		{Name: "b", Type: "service"},
	}
	relations := PreprocessRelations("ing-1", []sourcemodel.Relation{
		{Type: "CALLS", Source: []string{"a"}, Target: []string{"b"}},
	})
	rows := Nodes("ing-1", nodes, relations)

	idA := identity.Of("ing-1", "a")
	idB := identity.Of("ing-1", "b")

	var outOnA, inOnB bool
	for _, r := range rows {
		if r.ID == idA && r.Relation == "CALLS" && r.Direction == graphmodel.DirectionOut {
			outOnA = true
			if r.RelatesTo != idB.String() {
				t.Fatalf("outbound relates_to mismatch: %s", r.RelatesTo)
			}
		}
		if r.ID == idB && r.Relation == "CALLS" && r.Direction == graphmodel.DirectionIn {
			inOnB = true
			if r.RelatesTo != idA.String() {
				t.Fatalf("inbound relates_to mismatch: %s", r.RelatesTo)
			}
		}
	}
	if !outOnA || !inOnB {
		t.Fatalf("expected both sides of the relation, rows=%+v", rows)
	}
}

func TestPreprocessRelations_SkipsEmptyPaths(t *testing.T) {
	relations := PreprocessRelations("ing-1", []sourcemodel.Relation{
		{Type: "CALLS", Source: nil, Target: []string{"b"}},
	})
	if len(relations) != 0 {
		t.Fatalf("expected malformed relation to be dropped, got %+v", relations)
	}
}

func strLastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
