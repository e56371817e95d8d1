// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	civicconnect "github.com/utkarshchauhan26/CivicConnect"
	"github.com/utkarshchauhan26/CivicConnect/ai"
	"github.com/utkarshchauhan26/CivicConnect/ai/openai"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/dataset"
	"github.com/utkarshchauhan26/CivicConnect/eligibility"
	"github.com/utkarshchauhan26/CivicConnect/metadata"
	"github.com/utkarshchauhan26/CivicConnect/recommend"
)

// newProvider builds the text encoder; tests replace it.
var newProvider = openai.NewProvider

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "civicconnect",
		Usage: "Recommend government welfare schemes for a citizen profile",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"CIVIC_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "recommend",
				Usage:     "Read a profile as JSON from stdin and print recommended schemes",
				UsageText: `echo '{"age":23,"category":"OBC","annualIncome":60000,"state":"Bihar"}' | civicconnect recommend --dataset schemes.csv`,
				Action:    recommendCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of schemes to return",
						Value:   15,
						EnvVars: []string{"CIVIC_TOP_K"},
					},
					&cli.IntFlag{
						Name:    "pool-size",
						Usage:   "Number of ranked candidates passed to the eligibility filter",
						Value:   recommend.DefaultPoolSize,
						EnvVars: []string{"CIVIC_POOL_SIZE"},
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "Read the profile from this file instead of stdin",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Log every ranking and eligibility decision to stderr",
					},
				),
			},
			{
				Name:   "build-metadata",
				Usage:  "Aggregate per-scheme eligibility metadata from the dataset",
				Action: buildMetadataCommand,
				Flags: []cli.Flag{
					datasetFlag(),
					metadataFlag(),
				},
			},
			{
				Name:   "build-cache",
				Usage:  "Encode every scheme name and write the embedding cache",
				Action: buildCacheCommand,
				Flags: append(engineFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-encode every scheme even when the cache is valid",
					},
				),
			},
		},
	}
}

func datasetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "dataset",
		Aliases:  []string{"d"},
		Usage:    "Path to the beneficiary dataset CSV",
		Required: true,
		EnvVars:  []string{"CIVIC_DATASET"},
	}
}

func metadataFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "metadata",
		Usage:   "Path to the metadata artifact (default: next to the dataset)",
		EnvVars: []string{"CIVIC_METADATA"},
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		datasetFlag(),
		metadataFlag(),
		&cli.StringFlag{
			Name:    "cache-dir",
			Usage:   "Embedding cache directory (default: next to the dataset)",
			EnvVars: []string{"CIVIC_CACHE_DIR"},
		},
		&cli.StringFlag{
			Name:    "cache-backend",
			Usage:   "Embedding cache backend (file, badger)",
			Value:   civicconnect.CacheBackendFile,
			EnvVars: []string{"CIVIC_CACHE_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"CIVIC_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "all-minilm",
			EnvVars: []string{"CIVIC_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"CIVIC_EMBEDDING_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "filter-config",
			Usage:   "YAML file with eligibility thresholds",
			EnvVars: []string{"CIVIC_FILTER_CONFIG"},
		},
		&cli.IntFlag{
			Name:  "embed-workers",
			Usage: "Concurrent encoder calls while building the cache (default: half the CPUs)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Scheme names per encoder call while building the cache",
			Value: 64,
		},
		&cli.Float64Flag{
			Name:    "embed-rate",
			Usage:   "Maximum encoder calls per second while building the cache (0 = unlimited)",
			EnvVars: []string{"CIVIC_EMBED_RATE"},
		},
	}
}

func openEngine(c *cli.Context, logger *slog.Logger) (*civicconnect.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingToken(c.String("embedding-token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	filterConfig, err := eligibility.LoadConfig(c.String("filter-config"))
	if err != nil {
		provider.Close()
		return nil, err
	}

	if c.Int("batch-size") <= 0 {
		provider.Close()
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}

	opts := []civicconnect.EngineOption{
		civicconnect.WithProvider(provider),
		civicconnect.WithMetadataPath(c.String("metadata")),
		civicconnect.WithCacheDir(c.String("cache-dir")),
		civicconnect.WithCacheBackend(c.String("cache-backend")),
		civicconnect.WithFilterConfig(filterConfig),
		civicconnect.WithLogger(logger),
		civicconnect.WithProgress(c.App.ErrWriter),
		civicconnect.WithEmbedWorkers(c.Int("embed-workers")),
		civicconnect.WithBatchSize(c.Int("batch-size")),
		civicconnect.WithEmbedRateLimit(c.Float64("embed-rate")),
		civicconnect.WithPoolSize(c.Int("pool-size")),
	}

	engine, err := civicconnect.NewEngine(c.Context, c.String("dataset"), opts...)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return engine, nil
}

func recommendCommand(c *cli.Context) error {
	logger := slog.Default().With("request_id", uuid.NewString())

	input, err := readInput(c)
	if err != nil {
		return err
	}
	profile, err := core.ParseUserProfile(input)
	if err != nil {
		return err
	}

	topK := c.Int("top-k")
	if topK <= 0 {
		return fmt.Errorf("%w: %w, got %d", core.ErrInvalidInput, core.ErrInvalidTopK, topK)
	}
	if c.Int("pool-size") <= 0 {
		return fmt.Errorf("pool-size must be greater than 0")
	}

	engine, err := openEngine(c, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	var monitor recommend.Monitor
	if c.Bool("explain") {
		monitor = recommend.NewLogMonitor(logger)
	}

	result, err := engine.RecommendWithMonitor(c.Context, profile, topK, monitor)
	if err != nil {
		return err
	}
	logger.Debug("recommendation served", "results", len(result.Schemes))

	return json.NewEncoder(c.App.Writer).Encode(result)
}

func readInput(c *cli.Context) ([]byte, error) {
	if path := c.String("input"); path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func buildMetadataCommand(c *cli.Context) error {
	ds, err := dataset.Load(c.String("dataset"))
	if err != nil {
		return err
	}

	path := c.String("metadata")
	if path == "" {
		path = defaultMetadataPath(ds.Path)
	}

	catalog, rebuilt, err := metadata.LoadOrBuild(path, ds, slog.Default())
	if err != nil {
		return err
	}

	out := c.App.ErrWriter
	fmt.Fprintf(out, "Dataset: %s (%d records)\n", ds.Path, len(ds.Records))
	fmt.Fprintf(out, "Metadata: %s\n", path)
	fmt.Fprintf(out, "Schemes: %d\n", len(catalog))
	if rebuilt {
		fmt.Fprintln(out, "Artifact rebuilt")
	} else {
		fmt.Fprintln(out, "Artifact up to date")
	}
	return nil
}

func buildCacheCommand(c *cli.Context) error {
	engine, err := openEngine(c, slog.Default())
	if err != nil {
		return err
	}
	defer engine.Close()

	if c.Bool("force") && engine.Embeddings().CacheHit() {
		if err := engine.RebuildCache(c.Context); err != nil {
			return err
		}
	}

	embeddings := engine.Embeddings()
	out := c.App.ErrWriter
	fmt.Fprintf(out, "Schemes: %d\n", embeddings.Len())
	fmt.Fprintf(out, "Dimension: %d\n", embeddings.Dimension())
	fmt.Fprintf(out, "Digest: %s\n", embeddings.Digest())
	if embeddings.CacheHit() {
		fmt.Fprintln(out, "Cache up to date")
	} else {
		fmt.Fprintln(out, "Cache rebuilt")
	}
	return nil
}

func defaultMetadataPath(datasetPath string) string {
	return filepath.Join(filepath.Dir(datasetPath), civicconnect.DefaultMetadataFile)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// stdout carries the JSON result; logs go to stderr
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
