package services

import (
	"context"
	"time"

	"listing-service/internal/utils"
)

// InstrumentedObjectStore wraps an ObjectStore with latency and error metrics.
type InstrumentedObjectStore struct {
	ObjectStore
	metrics *utils.Metrics
}

// NewInstrumentedObjectStore creates a new instrumented object store
func NewInstrumentedObjectStore(store ObjectStore, metrics *utils.Metrics) *InstrumentedObjectStore {
	return &InstrumentedObjectStore{ObjectStore: store, metrics: metrics}
}

func (s *InstrumentedObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	start := time.Now()
	location, err := s.ObjectStore.Put(ctx, key, data, contentType)
	s.metrics.RecordObjectOp("put", time.Since(start).Milliseconds(), len(data), err)
	return location, err
}

func (s *InstrumentedObjectStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.ObjectStore.Delete(ctx, key)
	s.metrics.RecordObjectOp("delete", time.Since(start).Milliseconds(), 0, err)
	return err
}

func (s *InstrumentedObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.ObjectStore.Exists(ctx, key)
	s.metrics.RecordObjectOp("stat", time.Since(start).Milliseconds(), 0, err)
	return ok, err
}
