package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/medibot/backend/internal/config"
	"github.com/zhouzirui/medibot/backend/internal/database"
	"github.com/zhouzirui/medibot/backend/internal/handler"
	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/service/account"
	"github.com/zhouzirui/medibot/backend/internal/service/ai"
	"github.com/zhouzirui/medibot/backend/internal/service/assistant"
	"github.com/zhouzirui/medibot/backend/internal/service/care"
	emotionservice "github.com/zhouzirui/medibot/backend/internal/service/emotion"
	"github.com/zhouzirui/medibot/backend/internal/service/report"
	"github.com/zhouzirui/medibot/backend/internal/service/retrieval"
	"github.com/zhouzirui/medibot/backend/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}
	if envErr != nil {
		log.Warn().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	// Relational storage
	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = database.Open(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate postgres schema")
		}
		log.Info().Msg("using postgres stores")
	} else {
		log.Warn().Msg("DATABASE_URL not set, accounts and care records are kept in memory")
	}

	var accountStore account.Store = account.NewMemoryStore()
	var careStore care.Store = care.NewMemoryStore()
	if db != nil {
		accountStore = account.NewPostgresStore(db)
		careStore = care.NewPostgresStore(db)
	}

	// Sessions
	var sessions session.Store = session.NewMemoryStore(cfg.Session.TTL)
	if cfg.Session.RedisURL != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		sessions = redisStore
		log.Info().Msg("using redis sessions")
	}

	// Chat model shared by the generator, the summarizer and the llm emotion classifier
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize chat model, continuing without AI functionality")
		} else {
			log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("chat model initialized")
		}
	} else {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("LLM credentials not configured, chat answers and summaries are disabled")
	}

	var generator assistant.Generator = ai.Unavailable{}
	var summarizer report.Summarizer
	if chatModel != nil {
		aiService, err := ai.NewService(ctx, chatModel)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build answer chain")
		}
		generator = aiService

		llmSummarizer, err := report.NewLLMSummarizer(ctx, chatModel)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build summary chain")
		}
		summarizer = llmSummarizer
	}

	emotionSvc := emotionservice.NewService(newClassifier(ctx, cfg.Emotion, chatModel), emotionservice.Config{Timeout: cfg.Emotion.Timeout})

	retriever, closeRetriever, err := newRetriever(ctx, cfg.Retrieval, db)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Retrieval.Backend).Msg("failed to initialize retrieval")
	}
	defer closeRetriever()

	composer := assistant.NewComposer(emotionSvc, retriever, generator, assistant.Config{Timeout: cfg.Chat.Timeout})

	router := handler.NewRouter(handler.Dependencies{
		Accounts:       account.NewService(accountStore),
		Sessions:       sessions,
		Composer:       composer,
		Reports:        report.NewService(nil, summarizer, report.Config{Timeout: cfg.Report.Timeout}),
		Planner:        care.NewService(careStore),
		CookieSecure:   cfg.Server.CookieSecure,
		SessionTTL:     cfg.Session.TTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Report.MaxUploadBytes,
	})

	startServer(ctx, cfg.Server, router)
}

// newClassifier picks the emotion backend. A nil result means the keyword heuristic.
func newClassifier(ctx context.Context, cfg config.EmotionConfig, chatModel model.ChatModel) emotionservice.Classifier {
	switch cfg.Backend {
	case config.EmotionHugot:
		classifier, err := emotionservice.NewHugotClassifier(cfg.ModelPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.ModelPath).Msg("failed to load emotion model, falling back to keywords")
			return nil
		}
		log.Info().Msg("emotion classifier: hugot")
		return classifier
	case config.EmotionLLM:
		if chatModel == nil {
			log.Warn().Msg("llm emotion classifier requested but chat model unavailable, falling back to keywords")
			return nil
		}
		classifier, err := emotionservice.NewLLMClassifier(ctx, chatModel)
		if err != nil {
			log.Warn().Err(err).Msg("failed to build llm emotion classifier, falling back to keywords")
			return nil
		}
		log.Info().Msg("emotion classifier: llm")
		return classifier
	default:
		log.Info().Msg("emotion classifier: keywords")
		return nil
	}
}

// newRetriever connects the configured vector index. Only the memory backend reads the corpus at startup.
func newRetriever(ctx context.Context, cfg config.RetrievalConfig, db *sql.DB) (*retrieval.Service, func(), error) {
	embedder, closeEmbedder, err := retrieval.NewEmbedderFromConfig(cfg)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { _ = closeEmbedder() }

	var searcher retrieval.Searcher
	switch cfg.Backend {
	case config.RetrievalQdrant:
		index, err := retrieval.NewQdrantIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection)
		if err != nil {
			return nil, cleanup, err
		}
		if err := index.Verify(ctx); err != nil {
			index.Close()
			return nil, cleanup, err
		}
		searcher = index
		cleanup = func() { index.Close(); _ = closeEmbedder() }
	case config.RetrievalPGVector:
		if db == nil {
			return nil, cleanup, errors.New("pgvector retrieval requires DATABASE_URL")
		}
		searcher = retrieval.NewPGVectorIndex(db)
	default:
		entries, err := retrieval.LoadCorpus(cfg.CorpusPath)
		if err != nil {
			return nil, cleanup, err
		}
		index, err := retrieval.BuildMemoryIndex(ctx, embedder, entries)
		if err != nil {
			return nil, cleanup, err
		}
		log.Info().Int("passages", index.Len()).Str("corpus", cfg.CorpusPath).Msg("in-memory knowledge index built")
		searcher = index
	}

	return retrieval.NewService(embedder, searcher, cfg.TopK), cleanup, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("medibot backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
