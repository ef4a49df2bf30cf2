package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/dossier-backend/internal/chunking"
	"github.com/yungbote/dossier-backend/internal/logger"
	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
	"github.com/yungbote/dossier-backend/internal/refiner"
)

type fakeRegistry struct {
	mu        sync.Mutex
	idsByName map[string]string
	failNames map[string]bool
	puts      int
}

func (f *fakeRegistry) Put(_ context.Context, project, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failNames[name] {
		return "", fmt.Errorf("stable id taken: %w", pkgerrors.ErrHashCollision)
	}
	id := f.idsByName[project+"/"+strings.ToLower(name)]
	return id, nil
}

func (f *fakeRegistry) GetByID(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeRegistry) GetByName(_ context.Context, project, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.idsByName[project+"/"+strings.ToLower(name)]; ok {
		return id, nil
	}
	return "", fmt.Errorf("doc %s/%s: %w", project, name, pkgerrors.ErrNotFound)
}

// echoRefiner wraps the whole chunk in a single section.
type echoRefiner struct{}

func (echoRefiner) RefineChunk(_ context.Context, chunk string, _ int) (string, error) {
	return "[SECTION_START]\n" + chunk + "\n[SECTION_END]", nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type memStore struct {
	mu    sync.Mutex
	saved map[string]string
}

func newMemStore() *memStore { return &memStore{saved: map[string]string{}} }

func (s *memStore) Save(_ context.Context, key, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[key] = content
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content, ok := s.saved[key]; ok {
		return content, nil
	}
	return "", fmt.Errorf("section %q: %w", key, pkgerrors.ErrNotFound)
}

func (s *memStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.saved {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func pipelineLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func narrative(words int) string {
	return strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", words/5+1))
}

func testPipeline(t *testing.T, reg *fakeRegistry, store *memStore, workers int) *Pipeline {
	t.Helper()
	log := pipelineLogger(t)
	grouper := chunking.NewTitleGrouper()
	analyser := chunking.NewAnalyser(log, grouper)
	engine := refiner.NewEngine(log, reg, echoRefiner{}, wordCounter{}, store, refiner.Options{
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		MaxTokensPerSection: 800,
		MinTokensPerSection: 1,
	})
	return New(log, reg, analyser, grouper, engine, DefaultMaxCharsOptions(), workers)
}

func TestRegisterCountsFailuresAndContinues(t *testing.T) {
	reg := &fakeRegistry{
		idsByName: map[string]string{
			"proj/annex_a": "dc140a89",
			"proj/other":   "9ffea458",
		},
		failNames: map[string]bool{"colliding": true},
	}
	p := testPipeline(t, reg, newMemStore(), 1)

	stats := p.Register(context.Background(), []Document{
		{Project: "proj", Name: "annex_a"},
		{Project: "proj", Name: "colliding"},
		{Project: "proj", Name: "other"},
	})
	if stats.Registered != 2 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if reg.puts != 3 {
		t.Fatalf("puts = %d, want 3", reg.puts)
	}
}

func TestProcessRefinesAndPersistsSections(t *testing.T) {
	reg := &fakeRegistry{idsByName: map[string]string{"proj/annex_a": "dc140a89"}}
	store := newMemStore()
	p := testPipeline(t, reg, store, 1)

	docs := []Document{{
		Project:       "proj",
		Name:          "annex_a",
		SubfolderType: "ifu",
		Elements: []chunking.Element{
			{Category: chunking.CategoryTitle, Text: "Device Description"},
			{Category: chunking.CategoryNarrativeText, Text: narrative(400)},
			{Category: chunking.CategoryTitle, Text: "Clinical Data"},
			{Category: chunking.CategoryNarrativeText, Text: narrative(400)},
		},
	}}

	stats := p.Process(context.Background(), docs)
	if stats.Processed != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Sections == 0 {
		t.Fatal("no sections produced")
	}
	for key := range store.saved {
		if !strings.HasPrefix(key, "proj-dc140a89-ifu-chunk") || !strings.HasSuffix(key, ".txt") {
			t.Fatalf("unexpected section key %q", key)
		}
	}
}

func TestProcessIsolatesFailingDocuments(t *testing.T) {
	// Second document is unregistered, so refinement cannot resolve it.
	reg := &fakeRegistry{idsByName: map[string]string{"proj/good_doc": "9ffea458"}}
	store := newMemStore()
	p := testPipeline(t, reg, store, 1)

	docs := []Document{
		{
			Project:       "proj",
			Name:          "good_doc",
			SubfolderType: "others",
			Elements: []chunking.Element{
				{Category: chunking.CategoryNarrativeText, Text: narrative(200)},
			},
		},
		{
			Project:       "proj",
			Name:          "never_registered",
			SubfolderType: "others",
			Elements: []chunking.Element{
				{Category: chunking.CategoryNarrativeText, Text: narrative(200)},
			},
		},
		{
			// No usable elements: every candidate yields zero chunks.
			Project:       "proj",
			Name:          "good_doc",
			SubfolderType: "others",
			Elements:      nil,
		},
	}

	stats := p.Process(context.Background(), docs)
	if stats.Processed != 1 {
		t.Fatalf("processed = %d, want 1", stats.Processed)
	}
	if stats.Failed != 2 {
		t.Fatalf("failed = %d, want 2", stats.Failed)
	}
}

func TestProcessWithMultipleWorkers(t *testing.T) {
	reg := &fakeRegistry{idsByName: map[string]string{
		"proj/doc_one": "9ffea458",
		"proj/doc_two": "2db65458",
	}}
	store := newMemStore()
	p := testPipeline(t, reg, store, 4)

	docs := []Document{
		{Project: "proj", Name: "doc_one", SubfolderType: "lr", Elements: []chunking.Element{
			{Category: chunking.CategoryNarrativeText, Text: narrative(200)},
		}},
		{Project: "proj", Name: "doc_two", SubfolderType: "lr", Elements: []chunking.Element{
			{Category: chunking.CategoryNarrativeText, Text: narrative(200)},
		}},
	}

	stats := p.Process(context.Background(), docs)
	if stats.Processed != 2 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestClassifySubfolder(t *testing.T) {
	cases := map[string]string{
		"Clinical Literature":  "lr",
		"literature_review":    "lr",
		"User Manual":          "ifu",
		"instructions_for_use": "ifu",
		"IFU Documents":        "ifu",
		"Risk Analysis":        "others",
		"":                     "others",
	}
	for in, want := range cases {
		if got := ClassifySubfolder(in); got != want {
			t.Fatalf("ClassifySubfolder(%q) = %q, want %q", in, got, want)
		}
	}
}
