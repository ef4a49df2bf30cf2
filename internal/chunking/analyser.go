package chunking

import (
	"fmt"
	"sort"

	"github.com/yungbote/dossier-backend/internal/logger"
	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
)

// ConfigStats summarizes the chunks produced by one candidate configuration.
type ConfigStats struct {
	NumChunks    int
	AvgLength    float64
	MedianLength float64
	MaxLength    int
	MinLength    int
	// LengthRatio is min/max chunk length; 1.0 means perfectly even chunks.
	LengthRatio float64
}

// Weights are the relative importance of the three scoring terms.
type Weights struct {
	MinChunk    float64
	NumChunks   float64
	Consistency float64
}

func DefaultWeights() Weights {
	return Weights{MinChunk: 0.3, NumChunks: 0.4, Consistency: 0.3}
}

// Analyser scores candidate chunk-size configurations and picks the best one
// for a document. Scoring is a pure function of the element sequence, the
// candidate list, and the weights.
type Analyser struct {
	log            *logger.Logger
	grouper        Grouper
	targetMinChunk int
	idealNumChunks int
	weights        Weights
}

func NewAnalyser(baseLog *logger.Logger, grouper Grouper) *Analyser {
	return &Analyser{
		log:            baseLog.With("service", "ChunkAnalyser"),
		grouper:        grouper,
		targetMinChunk: 2000,
		idealNumChunks: 8,
		weights:        DefaultWeights(),
	}
}

func (a *Analyser) WithTargets(targetMinChunk, idealNumChunks int) *Analyser {
	if targetMinChunk > 0 {
		a.targetMinChunk = targetMinChunk
	}
	if idealNumChunks > 0 {
		a.idealNumChunks = idealNumChunks
	}
	return a
}

func (a *Analyser) WithWeights(w Weights) *Analyser {
	a.weights = w
	return a
}

// Analyse evaluates every candidate max-characters value and returns the
// winning configuration. Candidates that produce no chunks are excluded from
// scoring. Ties keep the earliest candidate, so identical inputs always
// yield the identical winner.
func (a *Analyser) Analyse(elements []Element, maxCharsOptions []int) (ChunkSettings, error) {
	if len(maxCharsOptions) == 0 {
		return ChunkSettings{}, fmt.Errorf("no candidate chunk sizes: %w", pkgerrors.ErrInvalidArgument)
	}

	best := 0
	bestScore := -1.0
	scored := 0

	for _, maxChars := range maxCharsOptions {
		chunks := a.grouper.Group(elements, candidateSettings(maxChars))
		if len(chunks) == 0 {
			a.log.Warn("Candidate produced no chunks, excluding from scoring", "max_chars", maxChars)
			continue
		}
		stats := Summarize(chunks)
		score := a.Score(stats)
		a.log.Info("Chunking candidate evaluated",
			"max_chars", maxChars,
			"num_chunks", stats.NumChunks,
			"min_length", stats.MinLength,
			"max_length", stats.MaxLength,
			"length_ratio", stats.LengthRatio,
			"score", score,
		)
		scored++
		if score > bestScore {
			bestScore = score
			best = maxChars
		}
	}

	if scored == 0 {
		return ChunkSettings{}, fmt.Errorf("no candidate produced chunks: %w", pkgerrors.ErrInvalidArgument)
	}

	a.log.Info("Recommended chunking configuration", "max_characters", best, "score", bestScore)
	return candidateSettings(best), nil
}

// Score combines the minimum-chunk, chunk-count, and consistency terms.
func (a *Analyser) Score(stats ConfigStats) float64 {
	minChunkScore := float64(stats.MinLength) / float64(a.targetMinChunk)
	if minChunkScore > 1.0 {
		minChunkScore = 1.0
	}
	diff := stats.NumChunks - a.idealNumChunks
	if diff < 0 {
		diff = -diff
	}
	numChunksScore := 1.0 / (1.0 + float64(diff))
	return a.weights.MinChunk*minChunkScore +
		a.weights.NumChunks*numChunksScore +
		a.weights.Consistency*stats.LengthRatio
}

// Summarize computes per-candidate chunk statistics. Callers must not pass
// an empty slice.
func Summarize(chunks []string) ConfigStats {
	lengths := make([]int, len(chunks))
	total := 0
	minLen, maxLen := len(chunks[0]), len(chunks[0])
	for i, c := range chunks {
		lengths[i] = len(c)
		total += len(c)
		if len(c) < minLen {
			minLen = len(c)
		}
		if len(c) > maxLen {
			maxLen = len(c)
		}
	}
	sort.Ints(lengths)
	median := float64(lengths[len(lengths)/2])
	if len(lengths)%2 == 0 {
		median = float64(lengths[len(lengths)/2-1]+lengths[len(lengths)/2]) / 2.0
	}
	ratio := 0.0
	if maxLen > 0 {
		ratio = float64(minLen) / float64(maxLen)
	}
	return ConfigStats{
		NumChunks:    len(chunks),
		AvgLength:    float64(total) / float64(len(chunks)),
		MedianLength: median,
		MaxLength:    maxLen,
		MinLength:    minLen,
		LengthRatio:  ratio,
	}
}

func candidateSettings(maxChars int) ChunkSettings {
	return ChunkSettings{
		MaxCharacters:     maxChars,
		CombineUnderChars: maxChars,
		Overlap:           maxChars / 2,
	}
}
