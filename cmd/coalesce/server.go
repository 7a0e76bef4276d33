package coalesce

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coalesce-search/coalesce"
	"github.com/coalesce-search/coalesce/pkg/config"
	"github.com/coalesce-search/coalesce/pkg/embedder"
	"github.com/coalesce-search/coalesce/pkg/graph"
	"github.com/coalesce-search/coalesce/pkg/logger"
	"github.com/coalesce-search/coalesce/pkg/server"
	"github.com/coalesce-search/coalesce/pkg/telemetry"
	"github.com/coalesce-search/coalesce/pkg/vector"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Coalesce HTTP server",
	Long: `Start the Coalesce HTTP server to provide REST API access to the fusion engine.

The server provides endpoints for:
- Fused passage search across vector, graph, and lexical sources
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
	recipeName string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")

	// Graph store flags
	serverCmd.Flags().String("graph-uri", "", "Neo4j bolt URI")
	serverCmd.Flags().String("graph-username", "", "Neo4j username")
	serverCmd.Flags().String("graph-password", "", "Neo4j password")
	serverCmd.Flags().String("graph-database", "", "Neo4j database name")

	// Vector store flags
	serverCmd.Flags().String("vector-dsn", "", "Postgres DSN for the pgvector store")
	serverCmd.Flags().String("vector-table", "", "Table holding passage embeddings")

	// Embedding flags
	serverCmd.Flags().String("embedding-provider", "", "Embedding provider (openai, embedeverything)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Fusion flags
	serverCmd.Flags().StringVar(&recipeName, "recipe", "", "Named fusion recipe (balanced, high_recall, low_latency)")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for error telemetry in Parquet format")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideConfigWithFlags(cmd, cfg)

	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if recipeName != "" {
		recipes, err := config.LoadRecipes(cfg.Fusion.RecipesPath)
		if err != nil {
			return fmt.Errorf("failed to load recipes: %w", err)
		}
		recipe, ok := recipes[recipeName]
		if !ok {
			return fmt.Errorf("unknown recipe: %s", recipeName)
		}
		cfg.Fusion.Apply(recipe)
	}

	client, cleanup, err := initializeClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize fusion client: %w", err)
	}
	defer cleanup()

	srv := server.New(cfg, client)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		slog.Info("server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("graph-uri") {
		cfg.Graph.URI, _ = cmd.Flags().GetString("graph-uri")
	}
	if cmd.Flags().Changed("graph-username") {
		cfg.Graph.Username, _ = cmd.Flags().GetString("graph-username")
	}
	if cmd.Flags().Changed("graph-password") {
		cfg.Graph.Password, _ = cmd.Flags().GetString("graph-password")
	}
	if cmd.Flags().Changed("graph-database") {
		cfg.Graph.Database, _ = cmd.Flags().GetString("graph-database")
	}

	if cmd.Flags().Changed("vector-dsn") {
		cfg.Vector.DSN, _ = cmd.Flags().GetString("vector-dsn")
	}
	if cmd.Flags().Changed("vector-table") {
		cfg.Vector.Table, _ = cmd.Flags().GetString("vector-table")
	}

	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Graph.URI == "" {
		return fmt.Errorf("graph URI is required")
	}
	if cfg.Vector.DSN == "" {
		return fmt.Errorf("vector DSN is required")
	}
	return nil
}

// initializeClient builds the fusion client and its stores. The returned
// cleanup closes everything that was opened, in reverse order.
func initializeClient(cfg *config.Config) (*coalesce.Client, func(), error) {
	log := logger.NewDefaultLogger(slog.LevelInfo)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Error telemetry in Parquet
	if cfg.Telemetry.ParquetPath != "" {
		if err := os.MkdirAll(cfg.Telemetry.ParquetPath, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create telemetry directory: %w", err)
		}
		colorHandler := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
		parquetHandler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath)
		if err != nil {
			slog.Warn("failed to initialize error telemetry", "error", err)
		} else {
			log = slog.New(parquetHandler)
			closers = append(closers, func() { parquetHandler.Close() })
		}
	}
	slog.SetDefault(log)

	// Graph store
	graphDriver, err := graph.NewNeo4jDriver(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create graph driver: %w", err)
	}
	closers = append(closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		graphDriver.Close(ctx)
	})

	var driver graph.Driver = graphDriver
	if cfg.CircuitBreaker.Enabled {
		driver = graph.NewCircuitBreakerDriver(driver, cfg.CircuitBreaker, "graph-store")
	}
	graphAdapter := graph.NewAdapter(driver, cfg.Fusion.TraversalDepth, cfg.Fusion.GraphLimit)

	// Vector store
	pgStore, err := vector.NewPostgresStore(cfg.Vector.DSN, cfg.Vector.Table)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	closers = append(closers, func() { pgStore.Close() })

	var store vector.Store = pgStore
	if cfg.CircuitBreaker.Enabled {
		store = vector.NewCircuitBreakerStore(store, cfg.CircuitBreaker, "vector-store")
	}
	vectorAdapter := vector.NewAdapter(store, cfg.Fusion.VectorK)

	// Embedder
	embedderClient, err := buildEmbedder(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, func() { embedderClient.Close() })

	client := coalesce.New(vectorAdapter, graphAdapter, embedderClient,
		coalesce.WithLogger(log),
		coalesce.WithDefaultLimit(cfg.Fusion.Limit),
	)

	slog.Info("fusion client initialized",
		"graph_uri", cfg.Graph.URI,
		"vector_table", cfg.Vector.Table,
		"embedding_provider", cfg.Embedding.Provider,
		"embedding_model", cfg.Embedding.Model)

	return client, cleanup, nil
}

func buildEmbedder(cfg *config.Config) (embedder.Client, error) {
	embedderConfig := &embedder.Config{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	}

	var (
		client embedder.Client
		err    error
	)
	switch cfg.Embedding.Provider {
	case "openai":
		client, err = embedder.NewOpenAIClient(embedderConfig)
	case "embedeverything":
		client, err = embedder.NewEmbedEverythingClient(embedderConfig)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.Embedding.CachePath != "" {
		cached, err := embedder.NewCachingClient(client, cfg.Embedding.Model, cfg.Embedding.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		return cached, nil
	}
	return client, nil
}
