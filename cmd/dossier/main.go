package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/yungbote/dossier-backend/internal/app"
	"github.com/yungbote/dossier-backend/internal/chunking"
	"github.com/yungbote/dossier-backend/internal/citations"
	"github.com/yungbote/dossier-backend/internal/clients/gcp"
	"github.com/yungbote/dossier-backend/internal/clients/openai"
	"github.com/yungbote/dossier-backend/internal/db"
	"github.com/yungbote/dossier-backend/internal/indexer"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/pipeline"
	"github.com/yungbote/dossier-backend/internal/refiner"
	"github.com/yungbote/dossier-backend/internal/registry"
	"github.com/yungbote/dossier-backend/internal/report"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/sections"
	"github.com/yungbote/dossier-backend/internal/tokenizer"
	"github.com/yungbote/dossier-backend/internal/utils"
)

// documentInput is the on-disk form of one pre-extracted document.
type documentInput struct {
	Name     string             `json:"name"`
	Folder   string             `json:"folder"`
	Elements []chunking.Element `json:"elements"`
}

// answerInput is the on-disk form of one QA answer awaiting report rendering.
type answerInput struct {
	Criterion string   `json:"criterion"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Citations []string `json:"citations"`
}

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	cfg := app.LoadConfig(log)
	documentsPath := utils.GetEnv("DOCUMENTS_PATH", "", log)
	answersPath := utils.GetEnv("ANSWERS_PATH", "", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	docMapRepo := repos.NewDocMapRepo(thePG, log)
	vstoreMapRepo := repos.NewVStoreMapRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	registryService := registry.NewService(log, docMapRepo)

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}

	var sectionStore sections.Store
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, falling back to local section store", "error", err)
		sectionStore, err = sections.NewLocalStore(cfg.SectionDir)
		if err != nil {
			log.Error("Could not init local section store", "error", err)
			os.Exit(1)
		}
	} else {
		sectionStore = sections.NewBucketStore(bucketService)
	}

	tokenCounter, err := tokenizer.New(utils.GetEnv("TOKENIZER_ENCODING", "", log))
	if err != nil {
		log.Error("Could not init tokenizer", "error", err)
		os.Exit(1)
	}

	grouper := chunking.NewTitleGrouper()
	analyser := chunking.NewAnalyser(log, grouper).
		WithTargets(cfg.TargetMinChunk, cfg.IdealNumChunks)

	engine := refiner.NewEngine(log, registryService, refiner.NewLLMRefiner(openaiClient), tokenCounter, sectionStore, cfg.Refine)
	pipe := pipeline.New(log, registryService, analyser, grouper, engine, cfg.MaxCharsOptions, cfg.Workers)
	ix := indexer.New(log, sectionStore, openaiClient, registryService, vstoreMapRepo)

	ctx := context.Background()

	if documentsPath != "" {
		docs, err := loadDocuments(documentsPath, cfg.Project)
		if err != nil {
			log.Error("Could not load documents", "path", documentsPath, "error", err)
			os.Exit(1)
		}

		regStats := pipe.Register(ctx, docs)
		log.Info("Registration complete", "registered", regStats.Registered, "failed", regStats.Failed)

		procStats := pipe.Process(ctx, docs)
		log.Info("Processing complete",
			"processed", procStats.Processed,
			"failed", procStats.Failed,
			"sections", procStats.Sections,
		)

		if _, err := ix.IndexProject(ctx, cfg.Project); err != nil {
			log.Error("Indexing failed", "project", cfg.Project, "error", err)
			os.Exit(1)
		}
	}

	if answersPath != "" {
		answers, err := loadAnswers(answersPath)
		if err != nil {
			log.Error("Could not load answers", "path", answersPath, "error", err)
			os.Exit(1)
		}
		if qs, err := app.LoadQuestionSet(cfg.QuestionsPath); err != nil {
			log.Warn("Could not load question set, keeping answer titles as-is", "path", cfg.QuestionsPath, "error", err)
		} else {
			applyTitles(answers, qs)
		}
		resolver := citations.NewResolver(log, registryService)
		renderer := report.NewRenderer(log, resolver, sectionStore)
		if err := renderer.Render(ctx, cfg.Project, answers, os.Stdout); err != nil {
			log.Error("Report rendering failed", "error", err)
			os.Exit(1)
		}
	}

	if documentsPath == "" && answersPath == "" {
		log.Warn("Nothing to do: set DOCUMENTS_PATH and/or ANSWERS_PATH")
	}
}

func loadDocuments(path, project string) ([]pipeline.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents file: %w", err)
	}
	var inputs []documentInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("parse documents file: %w", err)
	}
	docs := make([]pipeline.Document, 0, len(inputs))
	for _, in := range inputs {
		docs = append(docs, pipeline.Document{
			Project:       project,
			Name:          in.Name,
			SubfolderType: pipeline.ClassifySubfolder(in.Folder),
			Elements:      in.Elements,
		})
	}
	return docs, nil
}

// applyTitles fills each answer's display title from the question set entry
// matching its criterion key.
func applyTitles(answers []report.Answer, qs *app.QuestionSet) {
	titles := make(map[string]string, len(qs.Criteria))
	for _, c := range qs.Criteria {
		titles[c.Key] = c.Title
	}
	for i := range answers {
		if t, ok := titles[answers[i].Criterion]; ok && answers[i].Title == "" {
			answers[i].Title = t
		}
	}
}

func loadAnswers(path string) ([]report.Answer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers file: %w", err)
	}
	var inputs []answerInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("parse answers file: %w", err)
	}
	answers := make([]report.Answer, 0, len(inputs))
	for _, in := range inputs {
		answers = append(answers, report.Answer{
			Criterion: in.Criterion,
			Title:     in.Title,
			Text:      in.Text,
			Citations: in.Citations,
		})
	}
	return answers, nil
}
