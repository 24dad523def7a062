// Package identity derives the stable node identity used throughout
// the rest of the system: every row, relation, and traversal result
// refers to a node by this id and nothing else.
package identity

import "github.com/google/uuid"

// namespace is the fixed UUIDv5 namespace: high 64 bits all-ones, low
// 64 bits all-zero. It never changes across ingestions or deployments,
// which is what makes the derived ids stable.
var namespace = uuid.UUID{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Of derives the deterministic id for a node given its ingestion id
// and its path from the ingestion root. Two calls with the same
// ingestionID and url always produce the same id, and different urls
// (or different ingestions) practically never collide.
func Of(ingestionID, url string) uuid.UUID {
	name := ingestionID + "/" + url
	return uuid.NewSHA1(namespace, []byte(name))
}
