package main

import (
	"fmt"
	"os"

	"github.com/bdobrica/hibiki/common/environment"
	"github.com/bdobrica/hibiki/common/version"
	"github.com/bdobrica/hibiki/internal/hibiki/app"
	"github.com/bdobrica/hibiki/internal/hibiki/config"
	"github.com/bdobrica/hibiki/internal/hibiki/matrix"
)

func main() {
	fmt.Printf("Hibiki Conversational Relay\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Validate required configuration
	if cfg.Matrix.Homeserver == "" {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_HOMESERVER is required\n")
		os.Exit(1)
	}
	if cfg.Matrix.UserID == "" {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_USER_ID is required\n")
		os.Exit(1)
	}
	if cfg.Matrix.AccessToken == "" {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_ACCESS_TOKEN is required\n")
		os.Exit(1)
	}
	if len(cfg.Matrix.Rooms) == 0 {
		fmt.Fprintf(os.Stderr, "Error: MATRIX_ROOMS is required\n")
		os.Exit(1)
	}

	if cfg.Engine.APIKey == "" {
		fmt.Println("Tip: set OPENAI_API_KEY for AI-powered replies; running with keyword heuristics only.")
	}

	hibiki, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Hibiki: %v\n", err)
		os.Exit(1)
	}
	defer hibiki.Stop()

	if err := hibiki.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Hibiki: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig assembles the application configuration.  An optional YAML file
// (HIBIKI_CONFIG) provides the base values; environment variables override.
func loadConfig() (*app.Config, error) {
	var file config.File
	if path := environment.StringOr("HIBIKI_CONFIG", ""); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		file = *loaded
	}

	cfg := &app.Config{
		DatabasePath: environment.StringOr("DATABASE_PATH", "./hibiki.db"),
		Matrix: matrix.Config{
			Homeserver:  environment.StringOr("MATRIX_HOMESERVER", file.Matrix.Homeserver),
			UserID:      environment.StringOr("MATRIX_USER_ID", file.Matrix.UserID),
			AccessToken: environment.StringOr("MATRIX_ACCESS_TOKEN", ""),
			Rooms:       environment.StringSliceOr("MATRIX_ROOMS", file.Matrix.Rooms),
		},
		HistoryMaxTurns:    environment.IntOr("HIBIKI_HISTORY_MAX_TURNS", file.History.MaxTurns),
		PersistHistory:     environment.BoolOr("HIBIKI_PERSIST_HISTORY", false),
		RateLimitPerMinute: environment.IntOr("HIBIKI_RATE_LIMIT", file.RateLimit.PerMinute),
		HTTPAddr:           environment.StringOr("HIBIKI_HTTP_ADDR", ""),
	}

	cfg.Engine.APIKey = environment.StringOr("OPENAI_API_KEY", "")
	cfg.Engine.BaseURL = environment.StringOr("HIBIKI_MODEL_BASE_URL", file.Model.BaseURL)
	cfg.Engine.Model = environment.StringOr("HIBIKI_MODEL", file.Model.Name)
	cfg.Engine.ClassifyTimeout = environment.DurationOr("HIBIKI_CLASSIFY_TIMEOUT", file.GetClassifyTimeout())
	cfg.Engine.RespondTimeout = environment.DurationOr("HIBIKI_RESPOND_TIMEOUT", file.GetRespondTimeout())

	return cfg, nil
}
