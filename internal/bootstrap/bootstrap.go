package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/eaegeea/rag-chatbot/internal/config"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
	"github.com/eaegeea/rag-chatbot/internal/core/usecase"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/authz/oso"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/chunking"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/llm/openai"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/queue/nats"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/repository/postgres"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/resilience"
	"github.com/eaegeea/rag-chatbot/internal/infrastructure/vector/pinecone"
	"github.com/eaegeea/rag-chatbot/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	DB    *sql.DB
	Queue ports.MessageQueue
	Oso   *oso.Client

	Users   ports.UserRepository
	Clients ports.ClientRepository
	Notes   ports.NoteRepository

	ChatUC    ports.ChatService
	RosterUC  ports.RosterService
	Reindexer ports.ConsistencyService

	closeFn func()
}

// New wires the full dependency graph. serverMetrics is only set by the api
// binary; worker and seed pass nil and run without the retrieval audit
// counter.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, serverMetrics *metrics.HTTPServerMetrics) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	users := postgres.NewUserRepository(db)
	clients := postgres.NewClientRepository(db)
	notes := postgres.NewNoteRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.QueueConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	osoClient := oso.New(cfg.OsoURL, cfg.OsoAPIKey, oso.Options{
		BatchSize:          cfg.AuthzBatchSize,
		ResilienceExecutor: resilience.NewExecutor(resilience.OracleConfig()),
		Logger:             logger,
	})

	openaiClient := openai.New(cfg.OpenAIURL, cfg.OpenAIAPIKey, openai.Options{
		EmbedModel:         cfg.OpenAIEmbedModel,
		ChatModel:          cfg.OpenAIChatModel,
		EmbedRatePerSecond: cfg.OpenAIEmbedRPS,
		ResilienceExecutor: resilience.NewExecutor(resilience.LLMConfig()),
	})
	embedder := openai.NewEmbedder(openaiClient)
	generator := openai.NewGenerator(openaiClient)

	index := pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey, cfg.PineconeNamespace)
	splitter := chunking.NewSplitter(cfg.MaxNoteBlockSize)

	var audit usecase.RetrievalAuditor
	if serverMetrics != nil {
		audit = serverMetrics
	}

	resolver := usecase.NewResolver(osoClient, clients, notes, logger)
	retriever := usecase.NewRetriever(embedder, index, resolver, audit, logger)
	chatUC := usecase.NewChatUseCase(users, resolver, retriever, generator, cfg.SimilarityThreshold, logger)
	rosterUC := usecase.NewRosterUseCase(users, resolver)
	reindexer := usecase.NewReindexer(notes, clients, embedder, index, splitter, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		DB:    db,
		Queue: queue,
		Oso:   osoClient,

		Users:   users,
		Clients: clients,
		Notes:   notes,

		ChatUC:    chatUC,
		RosterUC:  rosterUC,
		Reindexer: reindexer,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
