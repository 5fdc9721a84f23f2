package app

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/handlers"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/services/chat"
	"github.com/eidolon-chat/eidolon/internal/services/embeddings"
	"github.com/eidolon-chat/eidolon/internal/services/llm"
	"github.com/eidolon-chat/eidolon/internal/services/scheduler"
	badgerstorage "github.com/eidolon-chat/eidolon/internal/storage/badger"
	"github.com/eidolon-chat/eidolon/internal/storage/vector"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Retrieval
	SimilarityIndex  *vector.Index
	EmbeddingService interfaces.EmbeddingService

	// Generation
	LLMService interfaces.LLMService

	// Chat pipeline
	ChatService interfaces.ChatService

	// Maintenance
	Scheduler *scheduler.Scheduler

	// HTTP handlers
	APIHandler          *handlers.APIHandler
	ChatHandler         *handlers.ChatHandler
	PersonaHandler      *handlers.PersonaHandler
	ConversationHandler *handlers.ConversationHandler
}

// New creates and wires all application components
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger, config.Embedding.Dimension)
	if err != nil {
		return nil, err
	}

	embeddingService, err := embeddings.NewService(&config.Embedding, config.Gemini.APIKey, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	llmService, err := llm.NewLLMService(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	index := vector.NewIndex(
		storageManager.PersonaStorage(),
		storageManager.ChunkStorage(),
		storageManager.BioFactStorage(),
		config.Embedding.Dimension,
		logger,
	)
	if err := index.Refresh(ctx); err != nil {
		storageManager.Close()
		return nil, err
	}

	retriever := chat.NewRetriever(index, embeddingService, logger)
	chatService := chat.NewService(storageManager, retriever, llmService, embeddingService, &config.Retrieval, logger)

	var maintenance *scheduler.Scheduler
	if gc, ok := storageManager.(scheduler.GCRunner); ok {
		maintenance = scheduler.NewScheduler(&config.Maintenance, gc, index, logger)
	}

	app := &App{
		Config:           config,
		Logger:           logger,
		StorageManager:   storageManager,
		SimilarityIndex:  index,
		EmbeddingService: embeddingService,
		LLMService:       llmService,
		ChatService:      chatService,
		Scheduler:        maintenance,

		APIHandler:          handlers.NewAPIHandler(storageManager, logger),
		ChatHandler:         handlers.NewChatHandler(chatService, logger),
		PersonaHandler:      handlers.NewPersonaHandler(storageManager, logger),
		ConversationHandler: handlers.NewConversationHandler(storageManager, logger),
	}

	logger.Info().Msg("Application components initialized")
	return app, nil
}

// Start launches background components
func (a *App) Start() error {
	if a.Scheduler != nil {
		return a.Scheduler.Start()
	}
	return nil
}

// Close shuts down all components in reverse dependency order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
