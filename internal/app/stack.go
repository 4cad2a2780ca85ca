// Package app wires the query engine from configuration. The worker manager and
// the operator CLI build the same stack.
package app

import (
	"context"
	"fmt"
	"time"

	"library-ai-workers/internal/aiquery"
	"library-ai-workers/internal/cache"
	"library-ai-workers/internal/common/config"
	"library-ai-workers/internal/common/database"
	httpclient "library-ai-workers/internal/common/http"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/llm"
	"library-ai-workers/internal/repository"
)

// Options controls how hard Build tries to reach each backend.
type Options struct {
	ConnectAttempts int
	RetryDelay      time.Duration
}

// Stack is the assembled query engine and the connections behind it.
type Stack struct {
	Config    *config.Config
	Postgres  *database.PostgresClient
	Elastic   *database.ElasticsearchClient
	Redis     *database.RedisClient
	Cache     *cache.QueryCache
	Processor aiquery.Processor

	logger logger.Logger
}

// Build connects every configured backend and returns the processor: the
// orchestrator, wrapped by the answer cache when it is enabled.
func Build(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*Stack, error) {
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = 1
	}
	s := &Stack{Config: cfg, logger: log}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	s.Postgres = pg
	if err := retryWithBackoff(ctx, func() error { return pg.Ping(ctx) },
		opts.ConnectAttempts, opts.RetryDelay, log, "PostgreSQL connection"); err != nil {
		s.Close()
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	outbound := httpclient.NewClient(config.GetDuration(cfg.LLM.Timeout))

	if cfg.BookStore.Backend == config.BookStoreBackendElasticsearch {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, outbound.StdClient().Transport)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := retryWithBackoff(ctx, func() error { return es.Ping(ctx) },
			opts.ConnectAttempts, opts.RetryDelay, log, "Elasticsearch connection"); err != nil {
			s.Close()
			return nil, err
		}
		s.Elastic = es
		log.Info("Elasticsearch connected successfully", nil)
	}

	books, err := s.bookStore(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	model := llm.NewOpenAIClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Timeout:     config.GetDuration(cfg.LLM.Timeout),
		MaxRetries:  cfg.LLM.MaxRetries,
		Temperature: cfg.LLM.Temperature,
	}, outbound.StdClient(), log)

	var processor aiquery.Processor = aiquery.NewOrchestrator(
		model, books, repository.NewPostgresUserLookup(pg.DB), log,
	)

	if cfg.QueryCache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		s.Redis = rdb
		if err := retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) },
			opts.ConnectAttempts, opts.RetryDelay, log, "Redis connection"); err != nil {
			s.Close()
			return nil, err
		}
		log.Info("Redis connected successfully", nil)

		s.Cache = cache.NewQueryCache(rdb.Client, cfg.QueryCache.KeyPrefix, config.GetDuration(cfg.QueryCache.TTL), log)
		processor = cache.NewCachedProcessor(processor, s.Cache, log)
	}

	s.Processor = processor
	return s, nil
}

func (s *Stack) bookStore(cfg *config.Config) (aiquery.BookStore, error) {
	switch cfg.BookStore.Backend {
	case config.BookStoreBackendPostgres:
		return repository.NewPostgresBookStore(s.Postgres.DB, s.logger), nil
	case config.BookStoreBackendElasticsearch:
		if s.Elastic == nil {
			return nil, fmt.Errorf("elasticsearch book store selected but no client is connected")
		}
		return repository.NewElasticBookStore(s.Elastic.Client, cfg.BookStore.Index, s.logger), nil
	default:
		return nil, fmt.Errorf("unknown book store backend %q", cfg.BookStore.Backend)
	}
}

// Ready pings every connected backend.
func (s *Stack) Ready(ctx context.Context) error {
	if err := s.Postgres.Ping(ctx); err != nil {
		return err
	}
	if s.Elastic != nil {
		if err := s.Elastic.Ping(ctx); err != nil {
			return err
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn("Error closing Redis", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			s.logger.Warn("Error closing PostgreSQL", map[string]interface{}{"error": err.Error()})
		}
	}
}
