package citations

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/registry"
)

// Annotation is one literal citation span located in an answer text, with
// the stable-id-based filename the QA stage attached to it.
type Annotation struct {
	Text     string
	Filename string
}

// CanonicalCitation is a deduplicated, display-ready citation. HashedName
// keeps the storage form so content retrieval still works; CanonicalName is
// the human-readable form.
type CanonicalCitation struct {
	Index         int
	HashedName    string
	CanonicalName string
}

var (
	indexPrefixRe = regexp.MustCompile(`^(\[\d+\])\s+(.*)$`)
	stableIDRe    = regexp.MustCompile(`^([a-f0-9]{8})-(.+)$`)
)

type Resolver struct {
	log      *logger.Logger
	registry registry.Service
}

func NewResolver(baseLog *logger.Logger, reg registry.Service) *Resolver {
	return &Resolver{
		log:      baseLog.With("service", "CitationResolver"),
		registry: reg,
	}
}

// AssignIndexes walks annotation spans in their original order, gives each
// distinct literal span the next sequential index starting at 0, replaces
// every occurrence of the span in the answer text with "[index]", and emits
// one "[index] filename" raw citation per distinct span.
func (r *Resolver) AssignIndexes(answer string, annotations []Annotation) (string, []string) {
	spanIndex := map[string]int{}
	next := 0
	var rawCitations []string

	for _, ann := range annotations {
		if ann.Text == "" {
			continue
		}
		idx, seen := spanIndex[ann.Text]
		if !seen {
			idx = next
			next++
			spanIndex[ann.Text] = idx
			if ann.Filename != "" {
				rawCitations = append(rawCitations, fmt.Sprintf("[%d] %s", idx, ann.Filename))
			}
		}
		answer = strings.ReplaceAll(answer, ann.Text, fmt.Sprintf("[%d]", idx))
	}
	return answer, rawCitations
}

// Dehash rewrites "[n] {stable_id}-{rest}" to "[n] {canonical_name}-{rest}".
// A registry miss keeps the hashed form unchanged; citation display never
// fails the report. A "{project}-" prefix on the filename is tolerated.
func (r *Resolver) Dehash(ctx context.Context, project, citation string) string {
	m := indexPrefixRe.FindStringSubmatch(citation)
	if m == nil {
		return citation
	}
	indexMarker, filename := m[1], m[2]

	rest := strings.TrimPrefix(filename, project+"-")
	hm := stableIDRe.FindStringSubmatch(rest)
	if hm == nil {
		return citation
	}
	stableID, remainder := hm[1], hm[2]

	canonicalName, err := r.registry.GetByID(ctx, project, stableID)
	if err != nil {
		r.log.Warn("Could not dehash citation, keeping hashed form",
			"project", project,
			"stable_id", stableID,
			"error", err,
		)
		return citation
	}
	return fmt.Sprintf("%s %s-%s", indexMarker, canonicalName, remainder)
}

// Deduplicate groups raw citations by their dehashed filename and keeps the
// first-seen (hashed, canonical) pair per distinct source, so each source is
// fetched exactly once at report time.
func (r *Resolver) Deduplicate(ctx context.Context, project string, rawCitations []string) []CanonicalCitation {
	seen := map[string]bool{}
	var out []CanonicalCitation

	for _, raw := range rawCitations {
		m := indexPrefixRe.FindStringSubmatch(raw)
		if m == nil {
			r.log.Warn("Citation missing index prefix, skipping", "citation", raw)
			continue
		}
		hashedName := m[2]

		dehashed := r.Dehash(ctx, project, raw)
		canonicalName := hashedName
		if dm := indexPrefixRe.FindStringSubmatch(dehashed); dm != nil {
			canonicalName = dm[2]
		}

		if seen[canonicalName] {
			continue
		}
		seen[canonicalName] = true

		idx := 0
		fmt.Sscanf(m[1], "[%d]", &idx)
		out = append(out, CanonicalCitation{
			Index:         idx,
			HashedName:    hashedName,
			CanonicalName: canonicalName,
		})
	}
	return out
}
