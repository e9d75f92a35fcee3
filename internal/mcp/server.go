// Package mcp exposes the health analytics engine as Model Context Protocol
// tools over stdio. It needs no external services: history lives in SQLite
// under the data directory and explanations are cached in memory.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/health-analytics-server/internal/config"
	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/history"
	"github.com/health-analytics-server/internal/service"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "health-analytics-mcp-server"

// Server is the stdio MCP server.
type Server struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	service   *service.AnalyticsService
	store     history.Store
	explainer explain.Explainer
	logger    *logrus.Logger
}

// Option is a functional option for Server.
type Option func(*Server) error

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store history.Store) Option {
	return func(s *Server) error {
		if store == nil {
			return fmt.Errorf("history store cannot be nil")
		}
		s.store = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithExplainer sets the explanation provider, replacing the one built from
// the Anthropic API key.
func WithExplainer(explainer explain.Explainer) Option {
	return func(s *Server) error {
		s.explainer = explainer
		return nil
	}
}

// NewServer creates a new MCP server instance.
func NewServer(cfg *config.LiteConfig, opts ...Option) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: config.LiteLogger(cfg),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.store == nil {
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		server.store = store
	}

	if server.explainer == nil && cfg.AIEnabled() {
		explainer, err := newCachedAnthropic(cfg, server.logger)
		if err != nil {
			return nil, err
		}
		server.explainer = explainer
	}

	guard := explain.NewGuard(server.explainer, cfg.AITimeout, server.logger)
	server.service = service.NewAnalyticsService(server.logger, guard, server.store)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: service.AlgorithmVersion,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"data_dir":   cfg.DataDir,
		"ai_enabled": server.explainer != nil,
	}).Info("MCP server initialized successfully")
	return server, nil
}

func newCachedAnthropic(cfg *config.LiteConfig, logger *logrus.Logger) (explain.Explainer, error) {
	anthropic, err := explain.NewAnthropicExplainer(domain.AIConfig{
		Enabled: true,
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create explainer: %w", err)
	}

	cache, err := explain.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create explanation cache: %w", err)
	}
	return explain.NewCachedExplainer(anthropic, cache, logger), nil
}

// Run serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting health analytics MCP server on stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close releases the history store.
func (s *Server) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
			return err
		}
	}
	return nil
}
