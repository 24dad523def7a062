package storage

const (
	queryInsert = `INSERT INTO graph.nodes
		(id, direction, relation, relates_to, name, ingestion_id, url, item_type, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetOne = `SELECT id, name, item_type, url, ingestion_id FROM graph.nodes
		WHERE id = ? AND direction = '' AND relation = ''`

	queryGetOneTags = `SELECT id, direction, relation, relates_to, name, ingestion_id, url, item_type, tags
		FROM graph.nodes WHERE id = ? AND direction = '' AND relation = ''`

	queryGetOneRelations = `SELECT id, direction, relation, relates_to, name, ingestion_id, url, item_type, tags
		FROM graph.nodes WHERE id = ?`

	queryTraversalByDirection = `SELECT id, direction, relation, relates_to, name, item_type
		FROM graph.nodes WHERE id = ? AND direction IN ('', ?)`

	queryTraversalByDirectionAndRelation = `SELECT id, direction, relation, relates_to, name, item_type
		FROM graph.nodes WHERE id = ? AND direction IN ('', ?) AND relation IN ('', ?)`
)
