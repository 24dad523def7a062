package storage

import "github.com/gocql/gocql"

// cqlSession is the subset of *gocql.Session this package depends on.
// Tests substitute a fake implementation; production code uses
// sessionAdapter, which wraps a real *gocql.Session.
type cqlSession interface {
	query(stmt string, consistency gocql.Consistency, values ...any) cqlQuery
	Close()
}

// cqlQuery is the subset of *gocql.Query this package depends on.
type cqlQuery interface {
	Exec() error
	Iter() cqlIter
}

// cqlIter is the subset of *gocql.Iter this package depends on.
type cqlIter interface {
	Scan(dest ...any) bool
	Close() error
}

type sessionAdapter struct {
	session *gocql.Session
}

func (a *sessionAdapter) query(stmt string, consistency gocql.Consistency, values ...any) cqlQuery {
	q := a.session.Query(stmt, values...).Consistency(consistency)
	return &queryAdapter{query: q}
}

func (a *sessionAdapter) Close() {
	a.session.Close()
}

type queryAdapter struct {
	query *gocql.Query
}

func (a *queryAdapter) Exec() error {
	return a.query.Exec()
}

func (a *queryAdapter) Iter() cqlIter {
	return a.query.Iter()
}
