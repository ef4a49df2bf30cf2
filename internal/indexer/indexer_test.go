package indexer

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
	"github.com/yungbote/dossier-backend/internal/types"
)

type memStore struct {
	saved map[string]string
}

func (s *memStore) Save(_ context.Context, key, content string) error {
	s.saved[key] = content
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	if content, ok := s.saved[key]; ok {
		return content, nil
	}
	return "", fmt.Errorf("section %q: %w", key, pkgerrors.ErrNotFound)
}

func (s *memStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range s.saved {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type fakeAI struct {
	failStores map[string]bool
	created    []string
	uploads    map[string][]string
}

func (f *fakeAI) GenerateText(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeAI) CreateVectorStore(_ context.Context, name string) (string, error) {
	if f.failStores[name] {
		return "", fmt.Errorf("vector store creation refused")
	}
	f.created = append(f.created, name)
	return "vs_" + name, nil
}

func (f *fakeAI) UploadFileToVectorStore(_ context.Context, vectorStoreID, filename string, _ []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = map[string][]string{}
	}
	f.uploads[vectorStoreID] = append(f.uploads[vectorStoreID], filename)
	return "file_" + filename, nil
}

type fakeRegistry struct {
	namesByID map[string]string
}

func (f *fakeRegistry) Put(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeRegistry) GetByName(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeRegistry) GetByID(_ context.Context, project, stableID string) (string, error) {
	if name, ok := f.namesByID[project+"/"+stableID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("doc %s/%s: %w", project, stableID, pkgerrors.ErrNotFound)
}

type fakeVSRepo struct {
	rows map[string]*types.VectorStoreRecord
}

func (f *fakeVSRepo) CreateIfAbsent(_ context.Context, _ *gorm.DB, rec *types.VectorStoreRecord) (*types.VectorStoreRecord, error) {
	k := rec.Project + "/" + rec.VectorStoreName
	if existing, ok := f.rows[k]; ok {
		return existing, nil
	}
	stored := *rec
	f.rows[k] = &stored
	return &stored, nil
}

func (f *fakeVSRepo) GetByName(_ context.Context, _ *gorm.DB, project, name string) (*types.VectorStoreRecord, error) {
	if rec, ok := f.rows[project+"/"+name]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("vstore_map row %s/%s: %w", project, name, pkgerrors.ErrNotFound)
}

func (f *fakeVSRepo) ListByProject(_ context.Context, _ *gorm.DB, project string) ([]*types.VectorStoreRecord, error) {
	var out []*types.VectorStoreRecord
	for _, rec := range f.rows {
		if rec.Project == project {
			out = append(out, rec)
		}
	}
	return out, nil
}

func indexerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestIndexProject(t *testing.T) {
	store := &memStore{saved: map[string]string{
		"proj-bd3df339-lr-chunk1-section1.txt":  "manual section",
		"proj-dc140a89-ifu-chunk1-section1.txt": "ifu section one",
		"proj-dc140a89-ifu-chunk1-section2.txt": "ifu section two",
		"proj-bad.txt":                          "missing parts",
		"proj-notes.md":                         "not a section",
		"other-dc140a89-ifu-chunk1-section1.txt": "different project",
	}}
	ai := &fakeAI{}
	reg := &fakeRegistry{namesByID: map[string]string{
		"proj/dc140a89": "annex_a",
		"proj/bd3df339": "user_manual",
	}}
	vsRepo := &fakeVSRepo{rows: map[string]*types.VectorStoreRecord{}}

	ix := New(indexerLogger(t), store, ai, reg, vsRepo)
	stats, err := ix.IndexProject(context.Background(), "proj")
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	if stats.Successful != 3 || stats.Failed != 0 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if !reflect.DeepEqual(ai.created, []string{"bd3df339-lr", "dc140a89-ifu"}) {
		t.Fatalf("created stores = %v", ai.created)
	}
	if got := ai.uploads["vs_dc140a89-ifu"]; len(got) != 2 {
		t.Fatalf("ifu uploads = %v", got)
	}

	rec, err := vsRepo.GetByName(context.Background(), nil, "proj", "dc140a89-ifu")
	if err != nil {
		t.Fatalf("mapping missing: %v", err)
	}
	if rec.CanonicalName != "annex_a" {
		t.Fatalf("mapping canonical name = %q", rec.CanonicalName)
	}
}

func TestIndexProjectStoreCreationFailureIsIsolated(t *testing.T) {
	store := &memStore{saved: map[string]string{
		"proj-bd3df339-lr-chunk1-section1.txt":  "manual section",
		"proj-dc140a89-ifu-chunk1-section1.txt": "ifu section",
	}}
	ai := &fakeAI{failStores: map[string]bool{"bd3df339-lr": true}}
	reg := &fakeRegistry{namesByID: map[string]string{
		"proj/dc140a89": "annex_a",
		"proj/bd3df339": "user_manual",
	}}
	vsRepo := &fakeVSRepo{rows: map[string]*types.VectorStoreRecord{}}

	ix := New(indexerLogger(t), store, ai, reg, vsRepo)
	stats, err := ix.IndexProject(context.Background(), "proj")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if stats.Successful != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestVectorStoreNameForKey(t *testing.T) {
	cases := []struct {
		key  string
		want string
		ok   bool
	}{
		{"proj-dc140a89-ifu-chunk1-section1.txt", "dc140a89-ifu", true},
		{"proj-bd3df339-lr-chunk12-section3.txt", "bd3df339-lr", true},
		{"proj-short.txt", "", false},
		{"otherproject-dc140a89-ifu-chunk1-section1.txt", "", false},
	}
	for _, tc := range cases {
		got, ok := vectorStoreNameForKey("proj", tc.key)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("vectorStoreNameForKey(%q) = %q, %v; want %q, %v", tc.key, got, ok, tc.want, tc.ok)
		}
	}
}
