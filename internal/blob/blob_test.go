package blob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yurrJC/mercania-wms-sub000/internal/blob"
)

func TestFSStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Options{Driver: "fs", FSDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	if err := store.Put(ctx, "covers/42.jpg", payload, "image/jpeg"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, contentType, err := store.Get(ctx, "covers/42.jpg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("Expected payload to round-trip, got %v", data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", contentType)
	}

	// Overwrite is allowed: a re-uploaded cover replaces the old one.
	if err := store.Put(ctx, "covers/42.jpg", []byte{0x01}, "image/png"); err != nil {
		t.Fatalf("Second Put failed: %v", err)
	}
	data, contentType, err = store.Get(ctx, "covers/42.jpg")
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if len(data) != 1 || contentType != "image/png" {
		t.Errorf("Expected the overwritten blob, got %d bytes of %q", len(data), contentType)
	}
}

func TestFSStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Options{FSDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, _, err := store.Get(ctx, "covers/none.jpg"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	// Deleting a missing key is a no-op.
	if err := store.Delete(ctx, "covers/none.jpg"); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
}

func TestFSStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Options{FSDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Put(ctx, "covers/9.png", []byte{0x89, 0x50}, "image/png"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "covers/9.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, _, err := store.Get(ctx, "covers/9.png"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Options{FSDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, key := range []string{"", "/etc/passwd", "../outside", "covers/../../escape"} {
		if err := store.Put(ctx, key, []byte("x"), ""); err == nil {
			t.Errorf("Expected key %q to be rejected", key)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := blob.Open(context.Background(), blob.Options{Driver: "ftp"}); err == nil {
		t.Error("Expected an error for an unknown driver")
	}
}
