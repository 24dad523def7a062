// Package storage is the wide-column store service: it owns the
// gocql session, runs schema bootstrap at startup, and implements the
// three operations the rest of the system needs — SaveNodes, GetNode,
// GetNodeTraversal.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"graphingest/internal/graphmodel"
)

// State is the storage service lifecycle. It only ever moves forward;
// any failure before Ready is fatal to the process.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateSchemaBootstrap
	StateAwaitingAgreement
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateConnecting:
		return "CONNECTING"
	case StateSchemaBootstrap:
		return "SCHEMA_BOOTSTRAP"
	case StateAwaitingAgreement:
		return "AWAITING_AGREEMENT"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// BootstrapError wraps any failure that occurs before the service
// reaches StateReady. Callers should treat it as fatal.
type BootstrapError struct {
	State State
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("storage bootstrap failed in state %s: %v", e.State, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// WriteError wraps one row's failed insert inside SaveNodes; it is
// logged and counted, never propagated to the caller.
type WriteError struct {
	RowID string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed for row %s: %v", e.RowID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError is returned from GetNode/GetNodeTraversal on any
// underlying query failure; the HTTP layer maps it to a 500.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("storage read failed: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// BadRequestError signals a malformed identifier in the read path;
// the HTTP layer maps it to a 400.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %v", e.Err) }
func (e *BadRequestError) Unwrap() error { return e.Err }

// Config carries everything the service needs to connect and
// bootstrap; it is a narrow copy of internal/config's fields so this
// package never depends on the config package directly.
type Config struct {
	Host        string
	DC          string
	Parallelism int
	SchemaFile  string
}

// Service is the storage layer. Once New returns, it is safe for
// concurrent use by any number of goroutines and exposes no mutable
// state beyond the session and logger it was built with.
type Service struct {
	session     cqlSession
	parallelism int
	logger      *zap.Logger
}

// New connects to the cluster, runs schema bootstrap, waits for
// schema agreement, and returns a ready Service. Any failure before
// the service is ready is returned wrapped in a *BootstrapError.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Service, error) {
	state := StateConnecting
	logger.Info("storage: connecting", zap.String("host", cfg.Host), zap.String("dc", cfg.DC))

	cluster := gocql.NewCluster(cfg.Host)
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.DCAwareRoundRobinPolicy(cfg.DC))
	cluster.Compressor = gocql.SnappyCompression{}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, &BootstrapError{State: state, Err: err}
	}
	logger.Info("storage: connected", zap.String("host", cfg.Host))

	svc := &Service{
		session:     &sessionAdapter{session: session},
		parallelism: cfg.Parallelism,
		logger:      logger,
	}

	state = StateSchemaBootstrap
	if err := svc.bootstrapSchema(cfg.SchemaFile); err != nil {
		session.Close()
		return nil, &BootstrapError{State: state, Err: err}
	}

	state = StateAwaitingAgreement
	if err := svc.awaitSchemaAgreement(ctx, session); err != nil {
		session.Close()
		return nil, &BootstrapError{State: state, Err: err}
	}

	logger.Info("storage: ready")
	return svc, nil
}

func (s *Service) bootstrapSchema(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading schema file %s: %w", path, err)
	}
	schema := strings.ReplaceAll(strings.TrimSpace(string(raw)), "\n", "")
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		s.logger.Info("storage: running schema statement", zap.String("statement", stmt))
		if err := s.session.query(stmt, gocql.Any).Exec(); err != nil {
			return fmt.Errorf("executing schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

// awaitSchemaAgreement polls system peer/local schema versions for
// up to 10s. gocql does not expose the Scylla driver's
// await_timed_schema_agreement, so this performs the equivalent poll
// directly against system tables.
func (s *Service) awaitSchemaAgreement(ctx context.Context, session *gocql.Session) error {
	deadline := time.Now().Add(10 * time.Second)
	for {
		versions := map[string]struct{}{}
		var local string
		if err := session.Query(`SELECT schema_version FROM system.local`).Scan(&local); err == nil {
			versions[local] = struct{}{}
		}
		iter := session.Query(`SELECT schema_version FROM system.peers`).Iter()
		var peer string
		for iter.Scan(&peer) {
			versions[peer] = struct{}{}
		}
		if err := iter.Close(); err != nil {
			return fmt.Errorf("reading peer schema versions: %w", err)
		}
		if len(versions) <= 1 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for schema agreement")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// SaveNodes persists every row with up to Parallelism writes in
// flight at once. Per-row failures are logged and counted but never
// abort the batch; the call always returns nil.
func (s *Service) SaveNodes(ctx context.Context, rows []graphmodel.Row) error {
	start := time.Now()
	s.logger.Info("storage: save_nodes: saving nodes", zap.Int("count", len(rows)))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	var errCount atomic.Int32
	for _, row := range rows {
		row := row
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return nil
			}
			tags := encodeTags(row.Tags)
			err := s.session.query(queryInsert, gocql.Any,
				row.ID, row.Direction, row.Relation, row.RelatesTo,
				row.Name, row.IngestionID, row.URL, row.Type, tags,
			).Exec()
			if err != nil {
				errCount.Add(1)
				werr := &WriteError{RowID: row.ID.String(), Err: err}
				s.logger.Error("storage: save_nodes: row failed",
					zap.String("row_id", werr.RowID), zap.Error(werr))
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("storage: save_nodes: completed",
		zap.Int("count", len(rows)), zap.Int32("errors", errCount.Load()), zap.Duration("took", time.Since(start)))
	return nil
}

// GetNode reads the partition for id and reconstructs the logical
// Node: relations implies the full scan, tags implies the
// entity row with tags, and the default reads a narrower projection
// with Tags left empty.
func (s *Service) GetNode(id string, tags, relations bool) (*graphmodel.Node, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, &BadRequestError{Err: err}
	}

	var rows []graphmodel.Row
	switch {
	case relations:
		rows, err = s.scanFullRows(queryGetOneRelations, uid)
	case tags:
		rows, err = s.scanFullRows(queryGetOneTags, uid)
	default:
		rows, err = s.scanSimpleRows(queryGetOne, uid)
	}
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	entity := rows[0]
	node := &graphmodel.Node{
		UUID:        entity.ID,
		IngestionID: entity.IngestionID,
		Name:        entity.Name,
		URL:         entity.URL,
		Type:        entity.Type,
		Tags:        entity.Tags,
		Relations:   []graphmodel.Relation{},
	}
	if node.Tags == nil {
		node.Tags = []graphmodel.Tag{}
	}
	for _, r := range rows[1:] {
		node.Relations = append(node.Relations, graphmodel.Relation{
			Type:       r.Relation,
			Outbound:   r.Direction == graphmodel.DirectionOut,
			TargetName: r.Name,
			RelatesTo:  r.RelatesTo,
		})
	}
	return node, nil
}

// TraversalRow is one row returned by a traversal-scoped partition
// read: only the columns the traversal engine needs.
type TraversalRow struct {
	ID        [16]byte
	Direction string
	Relation  string
	RelatesTo string
	Name      string
	Type      string
}

// GetNodeTraversal reads the partition for id filtered by direction
// (and optionally relation type), returning the entity row plus every
// matching edge row. Used by the traversal engine at every depth.
func (s *Service) GetNodeTraversal(id, direction string, relationType *string) ([]TraversalRow, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, &BadRequestError{Err: err}
	}

	var iter cqlIter
	if relationType != nil {
		iter = s.session.query(queryTraversalByDirectionAndRelation, gocql.One, uid, direction, *relationType).Iter()
	} else {
		iter = s.session.query(queryTraversalByDirection, gocql.One, uid, direction).Iter()
	}

	var out []TraversalRow
	var row TraversalRow
	var rowUID gocql.UUID
	for iter.Scan(&rowUID, &row.Direction, &row.Relation, &row.RelatesTo, &row.Name, &row.Type) {
		row.ID = [16]byte(rowUID)
		out = append(out, row)
	}
	if err := iter.Close(); err != nil {
		return nil, &ReadError{Err: err}
	}
	return out, nil
}

func (s *Service) scanFullRows(query string, uid gocql.UUID) ([]graphmodel.Row, error) {
	iter := s.session.query(query, gocql.One, uid).Iter()
	var out []graphmodel.Row
	for {
		var rowUID gocql.UUID
		var row graphmodel.Row
		var tags []graphmodel.Tag
		if !iter.Scan(&rowUID, &row.Direction, &row.Relation, &row.RelatesTo, &row.Name, &row.IngestionID, &row.URL, &row.Type, &tags) {
			break
		}
		row.ID = uuidFromGocql(rowUID)
		row.Tags = tags
		out = append(out, row)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) scanSimpleRows(query string, uid gocql.UUID) ([]graphmodel.Row, error) {
	iter := s.session.query(query, gocql.One, uid).Iter()
	var out []graphmodel.Row
	for {
		var rowUID gocql.UUID
		var row graphmodel.Row
		if !iter.Scan(&rowUID, &row.Name, &row.Type, &row.URL, &row.IngestionID) {
			break
		}
		row.ID = uuidFromGocql(rowUID)
		out = append(out, row)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeTags(tags []graphmodel.Tag) [][2]string {
	if tags == nil {
		return nil
	}
	out := make([][2]string, len(tags))
	for i, t := range tags {
		out[i] = [2]string{t.Type, t.Value}
	}
	return out
}

func uuidFromGocql(u gocql.UUID) uuid.UUID {
	var out uuid.UUID
	copy(out[:], u[:])
	return out
}
