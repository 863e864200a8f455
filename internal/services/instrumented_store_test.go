package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"listing-service/internal/utils"
)

func TestInstrumentedObjectStoreRecordsOps(t *testing.T) {
	reg := prometheus.NewRegistry()
	inner := newFakeObjectStore()
	store := NewInstrumentedObjectStore(inner, utils.NewMetrics(reg))
	ctx := context.Background()

	if _, err := store.Put(ctx, "a.jpg", []byte("12345"), "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}
	inner.failDel = true
	if err := store.Delete(ctx, "a.jpg"); err == nil {
		t.Fatal("expected delete error to pass through")
	}

	if n, err := testutil.GatherAndCount(reg, "object_store_latency_ms"); err != nil || n != 2 {
		t.Fatalf("expected latency series for put and delete, got %d, %v", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "object_store_errors_total"); err != nil || n != 1 {
		t.Fatalf("expected one error series, got %d, %v", n, err)
	}
	written, err := testutil.GatherAndCount(reg, "object_store_bytes_written_total")
	if err != nil || written != 1 {
		t.Fatalf("expected bytes counter, got %d, %v", written, err)
	}
}
