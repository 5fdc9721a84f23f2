package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/models"
	"github.com/eidolon-chat/eidolon/internal/services/embeddings"
	"github.com/eidolon-chat/eidolon/internal/services/ingest"
	"github.com/eidolon-chat/eidolon/internal/services/pdf"
	badgerstorage "github.com/eidolon-chat/eidolon/internal/storage/badger"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	personaName = flag.String("persona", "", "Persona name (required)")
	sourceType  = flag.String("type", models.SourceTypeBook, "Source type: book, transcript, or bio")
	bioFacts    = flag.Bool("bio-facts", false, "Extract biographical facts after ingestion")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Eidolon ingest version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if *personaName == "" {
		fmt.Fprintln(os.Stderr, "error: -persona is required")
		flag.Usage()
		os.Exit(2)
	}

	switch *sourceType {
	case models.SourceTypeBook, models.SourceTypeTranscript, models.SourceTypeBio:
	default:
		fmt.Fprintf(os.Stderr, "error: invalid -type %q (book, transcript, or bio)\n", *sourceType)
		os.Exit(2)
	}

	files := flag.Args()
	if len(files) == 0 && !*bioFacts {
		fmt.Fprintln(os.Stderr, "error: no input files given")
		flag.Usage()
		os.Exit(2)
	}

	path := *configFile
	if path == "" {
		if _, err := os.Stat("eidolon.toml"); err == nil {
			path = "eidolon.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger, config.Embedding.Dimension)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer storageManager.Close()

	embedder, err := embeddings.NewService(&config.Embedding, config.Gemini.APIKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize embedding service")
	}

	extractor := pdf.NewExtractor(logger)
	service := ingest.NewService(storageManager, embedder, extractor, &config.Ingest, logger)

	ctx := context.Background()

	if _, err := service.EnsurePersona(*personaName); err != nil {
		logger.Fatal().Err(err).Str("persona", *personaName).Msg("Failed to ensure persona")
	}

	ingested, skipped := 0, 0
	for _, file := range files {
		result, err := service.IngestFile(ctx, *personaName, file, *sourceType)
		if err != nil {
			logger.Fatal().Err(err).Str("file", file).Msg("Ingestion failed")
			}
		if result.Skipped {
			skipped++
		} else {
			ingested++
		}
	}

	if *bioFacts {
		added, err := service.ExtractBioFacts(ctx, *personaName)
		if err != nil {
			logger.Fatal().Err(err).Msg("Bio fact extraction failed")
			}
		logger.Info().Int("facts_added", added).Msg("Bio facts extracted")
	}

	logger.Info().
		Str("persona", *personaName).
		Int("ingested", ingested).
		Int("skipped", skipped).
		Msg("Ingestion run completed")
}
