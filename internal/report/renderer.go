package report

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/yungbote/dossier-backend/internal/citations"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/sections"
)

// Answer is one criterion's QA output: the assessment text with inline
// [n] markers plus the raw stable-id citations behind them.
type Answer struct {
	Criterion string
	Title     string
	Text      string
	Citations []string
}

// Renderer turns answers into a human-readable report: citations are
// dehashed and deduplicated, each distinct source is fetched exactly once,
// and everything is laid out as tables.
type Renderer struct {
	log      *logger.Logger
	resolver *citations.Resolver
	store    sections.Store
}

func NewRenderer(baseLog *logger.Logger, resolver *citations.Resolver, store sections.Store) *Renderer {
	return &Renderer{
		log:      baseLog.With("service", "ReportRenderer"),
		resolver: resolver,
		store:    store,
	}
}

func (r *Renderer) Render(ctx context.Context, project string, answers []Answer, w io.Writer) error {
	log := r.log.With("project", project)

	overview := table.NewWriter()
	overview.SetStyle(table.StyleRounded)
	overview.AppendHeader(table.Row{"SN", "Item", "Assessment"})
	overview.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 50, Align: text.AlignLeft},
		{Number: 3, WidthMax: 120, Align: text.AlignLeft},
	})

	var detailBlocks []string

	for i, ans := range answers {
		dehashed := make([]string, 0, len(ans.Citations))
		for _, c := range ans.Citations {
			dehashed = append(dehashed, r.resolver.Dehash(ctx, project, c))
		}
		assessment := ans.Text
		if len(dehashed) > 0 {
			assessment += "\n" + strings.Join(dehashed, "\n")
		}
		overview.AppendRow(table.Row{i + 1, ans.Title, assessment})

		deduped := r.resolver.Deduplicate(ctx, project, ans.Citations)
		if len(deduped) == 0 {
			continue
		}

		detail := table.NewWriter()
		detail.SetStyle(table.StyleRounded)
		detail.AppendHeader(table.Row{"Citation", "Source"})
		detail.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: 60, Align: text.AlignLeft},
			{Number: 2, WidthMax: 120, Align: text.AlignLeft},
		})
		for _, cite := range deduped {
			detail.AppendRow(table.Row{cite.CanonicalName, r.fetchSource(ctx, project, cite)})
		}
		detailBlocks = append(detailBlocks, fmt.Sprintf("%s citations\n%s", ans.Criterion, detail.Render()))
	}

	if _, err := fmt.Fprintln(w, overview.Render()); err != nil {
		return fmt.Errorf("write report overview: %w", err)
	}
	for _, block := range detailBlocks {
		if _, err := fmt.Fprintln(w, "\n"+block); err != nil {
			return fmt.Errorf("write report detail: %w", err)
		}
	}

	log.Info("Report rendered", "criteria", len(answers))
	return nil
}

// fetchSource retrieves the cited section content by its hashed storage key.
// Retrieval failures degrade to a placeholder, never fail the report.
func (r *Renderer) fetchSource(ctx context.Context, project string, cite citations.CanonicalCitation) string {
	key := cite.HashedName
	if !strings.HasSuffix(key, ".txt") {
		key += ".txt"
	}
	if !strings.HasPrefix(key, project+"-") {
		key = project + "-" + key
	}
	content, err := r.store.Get(ctx, key)
	if err != nil {
		if !goerrors.Is(err, context.Canceled) {
			r.log.Warn("Could not retrieve cited section", "key", key, "error", err)
		}
		return "could not retrieve from storage"
	}
	return content
}
