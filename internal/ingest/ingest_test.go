package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"graphingest/internal/graphmodel"
	"graphingest/internal/sourcemodel"
)

type fakeFetcher struct {
	files map[string]*sourcemodel.File
	fail  map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURI string) (*sourcemodel.File, error) {
	if err, ok := f.fail[rawURI]; ok {
		return nil, err
	}
	doc, ok := f.files[rawURI]
	if !ok {
		return nil, errors.New("no such file")
	}
	return doc, nil
}

type fakeStorage struct {
	savedRows int32
}

func (s *fakeStorage) SaveNodes(ctx context.Context, rows []graphmodel.Row) error {
	atomic.AddInt32(&s.savedRows, int32(len(rows)))
	return nil
}

func TestIngest_ProcessesAllFiles(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]*sourcemodel.File{
		"s3://bucket/a.json": {Nodes: []sourcemodel.Node{{Name: "a", Type: "t"}}},
		"s3://bucket/b.json": {Nodes: []sourcemodel.Node{{Name: "b", Type: "t"}}},
	}}
	storage := &fakeStorage{}
	o := New(fetcher, storage, 2, zap.NewNop())

	err := o.Ingest(context.Background(), "ing-1", []string{"s3://bucket/a.json", "s3://bucket/b.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storage.savedRows != 2 {
		t.Fatalf("expected 2 rows saved (one per file), got %d", storage.savedRows)
	}
}

func TestIngest_FailsWholeRequestOnOneFileError(t *testing.T) {
	fetcher := &fakeFetcher{
		files: map[string]*sourcemodel.File{
			"s3://bucket/a.json": {Nodes: []sourcemodel.Node{{Name: "a", Type: "t"}}},
		},
		fail: map[string]error{"s3://bucket/bad.json": errors.New("not found")},
	}
	storage := &fakeStorage{}
	o := New(fetcher, storage, 2, zap.NewNop())

	err := o.Ingest(context.Background(), "ing-1", []string{"s3://bucket/a.json", "s3://bucket/bad.json"})
	if err == nil {
		t.Fatal("expected an error when one file fails")
	}
}
