package services

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"listing-service/internal/apperr"
	"listing-service/internal/imageproc"
	"listing-service/internal/models"
	"listing-service/internal/utils"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func newTestImageService() (*ImageService, *fakeObjectStore, *memImageRepo) {
	store := newFakeObjectStore()
	repo := newMemImageRepo()
	return NewImageService(store, repo, imageproc.NewResizer(1600, 900), utils.NewMetrics(nil)), store, repo
}

func TestIngestRequiresFiles(t *testing.T) {
	svc, store, _ := newTestImageService()
	if _, err := svc.Ingest(context.Background(), nil, "u1"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.putCalled != 0 {
		t.Fatal("store touched before validation")
	}
}

func TestIngestStoresEveryFileInOrder(t *testing.T) {
	svc, store, repo := newTestImageService()
	files := []models.UploadFile{
		{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t, 3200, 1800)},
		{Filename: "b.png", MimeType: "image/png", Data: pngBytes(t, 10, 10)},
		{Filename: "c.png", MimeType: "", Data: pngBytes(t, 20, 40)},
	}
	images, err := svc.Ingest(context.Background(), files, "u1")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	seen := map[string]bool{}
	for _, img := range images {
		if seen[img.Key] {
			t.Fatalf("duplicate key %s", img.Key)
		}
		seen[img.Key] = true
		if !strings.HasSuffix(img.Key, ".png") || img.UploadedBy != "u1" {
			t.Fatalf("unexpected image %+v", img)
		}
		if !strings.HasSuffix(img.Location, img.Key) {
			t.Fatalf("location %s does not point at %s", img.Location, img.Key)
		}
	}
	if images[0].Size == images[1].Size {
		t.Fatal("expected results in input order")
	}
	if store.count() != 3 || len(repo.images) != 3 {
		t.Fatalf("expected 3 stored objects, got %d objects and %d rows", store.count(), len(repo.images))
	}
	if store.types[images[0].Key] != "image/png" || store.types[images[2].Key] != "image/png" {
		t.Fatalf("unexpected content types %v", store.types)
	}

	resized, _, err := image.DecodeConfig(bytes.NewReader(store.objects[images[0].Key]))
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	if resized.Width != 1600 || resized.Height != 900 {
		t.Fatalf("expected 1600x900, got %dx%d", resized.Width, resized.Height)
	}
}

func TestIngestRollsBackOnResizeFailure(t *testing.T) {
	svc, store, repo := newTestImageService()
	files := []models.UploadFile{
		{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t, 30, 30)},
		{Filename: "broken.jpg", MimeType: "image/jpeg", Data: []byte("not really a jpeg")},
		{Filename: "c.png", MimeType: "image/png", Data: pngBytes(t, 30, 30)},
	}
	images, err := svc.Ingest(context.Background(), files, "u1")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if images != nil {
		t.Fatalf("expected no partial result, got %+v", images)
	}
	if store.count() != 0 || len(repo.images) != 0 {
		t.Fatalf("expected rollback, got %d objects and %d rows", store.count(), len(repo.images))
	}
}

func TestIngestStoreFailure(t *testing.T) {
	svc, store, repo := newTestImageService()
	store.failPut = true
	_, err := svc.Ingest(context.Background(), []models.UploadFile{
		{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t, 30, 30)},
	}, "u1")
	if apperr.KindOf(err) != apperr.KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(repo.images) != 0 {
		t.Fatal("metadata written for a failed upload")
	}
}

func TestRemove(t *testing.T) {
	svc, store, repo := newTestImageService()
	ctx := context.Background()
	images, err := svc.Ingest(ctx, []models.UploadFile{{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t, 5, 5)}}, "u1")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	key := images[0].Key

	if err := svc.Remove(ctx, key, "u2", "u1"); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := svc.Remove(ctx, key, "u2", "u2"); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for a non-uploader, got %v", err)
	}
	if ok, _ := store.Exists(ctx, key); !ok {
		t.Fatal("object removed by unauthorized call")
	}

	if err := svc.Remove(ctx, key, "u1", "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := store.Exists(ctx, key); ok {
		t.Fatal("object still stored after remove")
	}
	if _, err := repo.Get(ctx, key); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected metadata miss, got %v", err)
	}
}

func TestRemoveStorageFailure(t *testing.T) {
	svc, store, _ := newTestImageService()
	store.failDel = true
	if err := svc.Remove(context.Background(), "k.jpg", "u1", "u1"); apperr.KindOf(err) != apperr.KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestIngestArchive(t *testing.T) {
	svc, store, _ := newTestImageService()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"one.png", "two.png"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(pngBytes(t, 8, 8)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	images, err := svc.IngestArchive(context.Background(), &buf, "u1")
	if err != nil {
		t.Fatalf("ingest archive: %v", err)
	}
	if len(images) != 2 || store.count() != 2 {
		t.Fatalf("expected 2 images, got %d (%d stored)", len(images), store.count())
	}
}
