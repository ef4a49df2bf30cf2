package app

import (
	"time"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/refiner"
	"github.com/yungbote/dossier-backend/internal/utils"
)

// Config is the environment-driven runtime configuration. Every knob has a
// working default so a bare environment still runs.
type Config struct {
	Project       string
	SectionDir    string
	QuestionsPath string

	MaxCharsOptions []int
	TargetMinChunk  int
	IdealNumChunks  int

	Workers int

	Refine refiner.Options
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Project:       utils.GetEnv("PROJECT_NAME", "default", log),
		SectionDir:    utils.GetEnv("SECTION_DIR", "sections", log),
		QuestionsPath: utils.GetEnv("QUESTIONS_PATH", "questions.yaml", log),

		MaxCharsOptions: utils.GetEnvAsIntSlice("CHUNK_MAX_CHARS_OPTIONS", []int{2400, 3200, 4000, 4800, 5600, 6400, 7200}, log),
		TargetMinChunk:  utils.GetEnvAsInt("CHUNK_TARGET_MIN_LENGTH", 2000, log),
		IdealNumChunks:  utils.GetEnvAsInt("CHUNK_IDEAL_COUNT", 8, log),

		Workers: utils.GetEnvAsInt("PIPELINE_WORKERS", 1, log),

		Refine: refiner.Options{
			MaxRetries:          utils.GetEnvAsInt("REFINE_MAX_RETRIES", 3, log),
			RetryDelay:          time.Duration(utils.GetEnvAsInt("REFINE_RETRY_DELAY_SECONDS", 2, log)) * time.Second,
			MaxTokensPerSection: utils.GetEnvAsInt("REFINE_MAX_TOKENS_PER_SECTION", 800, log),
			MinTokensPerSection: utils.GetEnvAsInt("REFINE_MIN_TOKENS_PER_SECTION", 50, log),
		},
	}
}
