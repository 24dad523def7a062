// Package graphmodel holds the domain types shared between the
// flattener, the storage layer, and the HTTP surface: the logical
// Node/Relation pair returned to callers, and the Row shape actually
// persisted in the wide-column store.
package graphmodel

import (
	"github.com/google/uuid"

	"graphingest/internal/identity"
)

// Direction values used on edge rows.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Implicit relation classes emitted by the flattener alongside any
// user-declared relation types.
const (
	RelationIsParent = "ISPARENT"
	RelationIsChild  = "ISCHILD"
)

// Tag is a (type, value) annotation carried on the entity row only.
type Tag struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Relation is one edge of a Node as returned to API callers: the far
// end is identified by name and id, never by a live reference.
type Relation struct {
	Type       string `json:"type"`
	Outbound   bool   `json:"outbound"`
	TargetName string `json:"target_name"`
	RelatesTo  string `json:"relates_to"`
}

// NewRelation derives a Relation from a declared url (source or
// target path segments already joined with "/"); RelatesTo is
// computed purely from ingestionID+url, no storage lookup required.
func NewRelation(ingestionID, relType, url string, outbound bool) Relation {
	return Relation{
		Type:       relType,
		Outbound:   outbound,
		TargetName: lastSegment(url),
		RelatesTo:  identity.Of(ingestionID, url).String(),
	}
}

// Node is the logical entity returned by the node-lookup endpoint.
type Node struct {
	UUID         uuid.UUID  `json:"uuid"`
	IngestionID  string     `json:"ingestion_id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Type         string     `json:"type"`
	Tags         []Tag      `json:"tags"`
	Relations    []Relation `json:"relations"`
}

// TraversalNode is one node in a traversal result tree: Relations
// holds the expanded children (bounded by max_depth), RelationIDs
// holds the raw ids discovered at this node before expansion.
type TraversalNode struct {
	UUID        uuid.UUID       `json:"uuid"`
	Depth       int             `json:"depth"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Relations   []TraversalNode `json:"relations"`
	RelationIDs []string        `json:"relation_ids"`
}

// Row is the physical shape of a single partition row: an entity row
// has Direction/Relation/RelatesTo all empty; an edge row has all
// three set and leaves URL/Type/Tags empty.
type Row struct {
	ID          uuid.UUID
	Direction   string
	Relation    string
	RelatesTo   string
	Name        string
	IngestionID string
	URL         string
	Type        string
	Tags        []Tag
}

func lastSegment(url string) string {
	i := len(url) - 1
	for i >= 0 && url[i] != '/' {
		i--
	}
	return url[i+1:]
}
