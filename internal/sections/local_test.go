package sections

import (
	"context"
	goerrors "errors"
	"reflect"
	"testing"

	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
)

func TestLocalStoreSaveGet(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	key := "proj-dc140a89-ifu-chunk1-section1.txt"
	if err := store.Save(ctx, key, "section content"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "section content" {
		t.Fatalf("content = %q", got)
	}
}

func TestLocalStoreGetMissingKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Get(context.Background(), "nope.txt"); !goerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreListFiltersAndSorts(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{
		"proj-b.txt",
		"proj-a.txt",
		"other-c.txt",
	} {
		if err := store.Save(ctx, key, "x"); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}

	keys, err := store.List(ctx, "proj-")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"proj-a.txt", "proj-b.txt"}) {
		t.Fatalf("keys = %v", keys)
	}
}

func TestLocalStoreRejectsPathEscapes(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"", "../escape.txt", "nested/file.txt", `win\path.txt`} {
		if err := store.Save(ctx, key, "x"); !goerrors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("key %q: err = %v, want ErrInvalidArgument", key, err)
		}
	}
}

func TestNewLocalStoreRequiresDirectory(t *testing.T) {
	if _, err := NewLocalStore("  "); !goerrors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}
