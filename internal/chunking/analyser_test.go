package chunking

import (
	goerrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/yungbote/dossier-backend/internal/logger"
	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
)

// scriptedGrouper returns canned chunks per character budget so scoring can
// be exercised without real grouping.
type scriptedGrouper struct {
	chunksByMax map[int][]string
}

func (g *scriptedGrouper) Group(_ []Element, settings ChunkSettings) []string {
	return g.chunksByMax[settings.MaxCharacters]
}

func analyserLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func chunksOfLength(lengths ...int) []string {
	out := make([]string, len(lengths))
	for i, n := range lengths {
		out[i] = strings.Repeat("x", n)
	}
	return out
}

func TestScoreArithmetic(t *testing.T) {
	a := NewAnalyser(analyserLogger(t), &scriptedGrouper{})

	// Perfect configuration: every term saturates.
	perfect := a.Score(ConfigStats{MinLength: 2000, NumChunks: 8, LengthRatio: 1.0})
	if math.Abs(perfect-1.0) > 1e-9 {
		t.Fatalf("perfect score = %v, want 1.0", perfect)
	}

	// 0.3*0.5 + 0.4*(1/3) + 0.3*0.5
	got := a.Score(ConfigStats{MinLength: 1000, NumChunks: 6, LengthRatio: 0.5})
	want := 0.3*0.5 + 0.4/3.0 + 0.3*0.5
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}

	// Min-chunk term caps at 1 even far above target.
	capped := a.Score(ConfigStats{MinLength: 10000, NumChunks: 8, LengthRatio: 1.0})
	if math.Abs(capped-1.0) > 1e-9 {
		t.Fatalf("capped score = %v, want 1.0", capped)
	}
}

func TestAnalysePicksHighestScoringCandidate(t *testing.T) {
	grouper := &scriptedGrouper{chunksByMax: map[int][]string{
		// Uneven, too few chunks.
		2400: chunksOfLength(100, 4000),
		// Even, ideal count, healthy minimum.
		3200: chunksOfLength(2000, 2000, 2000, 2000, 2000, 2000, 2000, 2000),
		// Even but far from the ideal count.
		4000: chunksOfLength(2000, 2000),
	}}
	a := NewAnalyser(analyserLogger(t), grouper)

	settings, err := a.Analyse(nil, []int{2400, 3200, 4000})
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if settings.MaxCharacters != 3200 {
		t.Fatalf("winner = %d, want 3200", settings.MaxCharacters)
	}
	if settings.CombineUnderChars != 3200 || settings.Overlap != 1600 {
		t.Fatalf("derived settings = %+v", settings)
	}
}

func TestAnalyseIsDeterministic(t *testing.T) {
	grouper := &scriptedGrouper{chunksByMax: map[int][]string{
		2400: chunksOfLength(1500, 1500, 1500),
		3200: chunksOfLength(1500, 1500, 1500),
	}}
	a := NewAnalyser(analyserLogger(t), grouper)

	// Identical scores: the earliest candidate must win, every time.
	for i := 0; i < 5; i++ {
		settings, err := a.Analyse(nil, []int{2400, 3200})
		if err != nil {
			t.Fatalf("analyse: %v", err)
		}
		if settings.MaxCharacters != 2400 {
			t.Fatalf("run %d: winner = %d, want 2400", i, settings.MaxCharacters)
		}
	}
}

func TestAnalyseExcludesZeroChunkCandidates(t *testing.T) {
	grouper := &scriptedGrouper{chunksByMax: map[int][]string{
		2400: nil,
		3200: chunksOfLength(500),
	}}
	a := NewAnalyser(analyserLogger(t), grouper)

	settings, err := a.Analyse(nil, []int{2400, 3200})
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if settings.MaxCharacters != 3200 {
		t.Fatalf("winner = %d, want 3200", settings.MaxCharacters)
	}
}

func TestAnalyseFailsWhenNothingScores(t *testing.T) {
	a := NewAnalyser(analyserLogger(t), &scriptedGrouper{})

	if _, err := a.Analyse(nil, []int{2400, 3200}); !goerrors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("all-zero candidates = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.Analyse(nil, nil); !goerrors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("no candidates = %v, want ErrInvalidArgument", err)
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize(chunksOfLength(8, 4, 6))
	if stats.NumChunks != 3 {
		t.Fatalf("num chunks = %d", stats.NumChunks)
	}
	if stats.MinLength != 4 || stats.MaxLength != 8 {
		t.Fatalf("min/max = %d/%d", stats.MinLength, stats.MaxLength)
	}
	if math.Abs(stats.LengthRatio-0.5) > 1e-9 {
		t.Fatalf("ratio = %v", stats.LengthRatio)
	}
	if math.Abs(stats.AvgLength-6.0) > 1e-9 {
		t.Fatalf("avg = %v", stats.AvgLength)
	}
	if math.Abs(stats.MedianLength-6.0) > 1e-9 {
		t.Fatalf("median = %v", stats.MedianLength)
	}
}
