package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	openaief "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nkosuri/docqa/cache"
	"github.com/nkosuri/docqa/chunker"
	"github.com/nkosuri/docqa/docstore"
	"github.com/nkosuri/docqa/llm"
	"github.com/nkosuri/docqa/readers"
)

func initChromaStore(cfg *Config) (*docstore.ChromaStore, error) {
	ef, err := openaief.NewOpenAIEmbeddingFunction(
		cfg.OpenAI.ApiKey,
		openaief.WithModel(openaief.EmbeddingModel(cfg.OpenAI.EmbeddingModel)))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding function: %w", err)
	}

	store, err := docstore.NewChromaStore(docstore.ChromaStoreConfig{
		BaseURL:       cfg.ChromaAddr,
		EmbeddingFunc: ef,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chroma store: %w", err)
	}

	return store, nil
}

func initLogger(cfg *Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil)), func() {}, nil
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return slog.New(slog.NewJSONHandler(logFile, nil)), func() { logFile.Close() }, nil
}

func main() {
	cfgPath := flag.String("config", "cfg/config.yaml", "Configuration file for the server")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := readConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.OpenAI.ApiKey == "" {
		log.Fatal("missing OpenAI API key: set open_ai.api_key or OPENAI_API_KEY")
	}

	logger, closeLog, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	clientOpts := []llm.ClientOption{}
	if cfg.OpenAI.ChatModel != "" {
		clientOpts = append(clientOpts, llm.WithChatModel(cfg.OpenAI.ChatModel))
	}
	if cfg.OpenAI.EmbeddingModel != "" {
		clientOpts = append(clientOpts, llm.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel))
	}
	if cfg.AnswerMaxTokens > 0 {
		clientOpts = append(clientOpts, llm.WithMaxTokens(cfg.AnswerMaxTokens))
	}
	client := llm.NewClient(cfg.OpenAI.ApiKey, clientOpts...)

	var chromaStore *docstore.ChromaStore
	if cfg.ChromaAddr != "" {
		chromaStore, err = initChromaStore(cfg)
		if err != nil {
			log.Fatal(err)
		}
	}

	retry := llm.Policy{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: time.Duration(cfg.RetryBaseMs) * time.Millisecond,
		MaxDelay:  10 * time.Second,
	}

	fetchOpts := []readers.FetcherOption{}
	if cfg.MaxFetchBytes > 0 {
		fetchOpts = append(fetchOpts, readers.WithMaxBytes(cfg.MaxFetchBytes))
	}

	engine := NewEngine(EngineConfig{
		Log:       logger,
		Fetcher:   readers.NewFetcher(fetchOpts...),
		Extractor: readers.NewUniversalReader(),
		Chunker: chunker.New(chunker.Config{
			ChunkSize:     cfg.ChunkSize,
			Overlap:       cfg.ChunkOverlap,
			MaxChunkBytes: cfg.MaxChunkBytes,
			LargeDocBytes: cfg.LargeDocBytes,
		}),
		Cache:       cache.New(cfg.cacheTTL()),
		Embedder:    client,
		Chroma:      chromaStore,
		Coordinator: NewCoordinator(logger, cfg.TopK, cfg.SmallDocChunks, cfg.ContextBudget),
		Synthesizer: NewSynthesizer(logger, client, retry, cfg.FallbackPerSec),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DocRoot != "" {
		watcher := NewWatcher(logger, cfg.DocRoot, time.Duration(cfg.MergeEventsMs)*time.Millisecond, engine)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("document watcher stopped", "error", err)
			}
		}()
	}

	if cfg.MCPAddr != "" {
		srv := NewMCPServer(engine)
		sse := server.NewSSEServer(srv, server.WithBaseURL(fmt.Sprintf("http://%s", cfg.MCPAddr)))
		go func() {
			if err := sse.Start(cfg.MCPAddr); err != nil {
				logger.Error("mcp server stopped", "error", err)
			}
		}()
	}

	api := NewAPIServer(logger, engine, cfg.AuthToken)
	logger.Info("starting api server", "addr", cfg.ServerAddr)
	log.Println(http.ListenAndServe(cfg.ServerAddr, api.Handler()))
}
