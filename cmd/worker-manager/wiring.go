// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"fmt"

	"repairer-search/internal/alerting"
	"repairer-search/internal/api"
	"repairer-search/internal/common/aws"
	"repairer-search/internal/common/camunda"
	"repairer-search/internal/common/config"
	"repairer-search/internal/common/database"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/observability"
	"repairer-search/internal/common/validation"
	"repairer-search/internal/search/intent"
	"repairer-search/internal/search/matcher"
	"repairer-search/internal/search/orchestrator"
	esstore "repairer-search/internal/store/elasticsearch"
	pgstore "repairer-search/internal/store/postgres"
	"repairer-search/internal/store/rediscache"
	"repairer-search/pkg/registry"

	gsi "repairer-search/internal/workers/search/get-search-suggestions"
	mr "repairer-search/internal/workers/search/match-repairers"
	psi "repairer-search/internal/workers/search/parse-search-intent"
	qsr "repairer-search/internal/workers/search/quick-search-repairers"
	snr "repairer-search/internal/workers/search/search-nearby-repairers"
	sr "repairer-search/internal/workers/search/search-repairers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type backends struct {
	postgres      *database.PostgresClient
	redis         *database.RedisClient
	elasticsearch *database.ElasticsearchClient
}

// connectBackends opens Postgres and Redis, plus Elasticsearch when a store uses it.
func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	err := camunda.Retry(ctx, camunda.DefaultRetryConfig, "PostgreSQL connection", log, func(ctx context.Context) error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		b.postgres = pg
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("postgres connected", nil)

	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "Redis connection", log, func(ctx context.Context) error {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rdb.Ping(ctx); err != nil {
			rdb.Close()
			return err
		}
		b.redis = rdb
		return nil
	})
	if err != nil {
		b.Close()
		return nil, err
	}
	log.Info("redis connected", nil)

	if !cfg.UsesElasticsearch() {
		return b, nil
	}
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "Elasticsearch connection", log, func(ctx context.Context) error {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return err
		}
		if err := es.Ping(ctx); err != nil {
			return err
		}
		b.elasticsearch = es
		return nil
	})
	if err != nil {
		b.Close()
		return nil, err
	}
	log.Info("elasticsearch connected", nil)
	return b, nil
}

func (b *backends) HealthChecks() map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{}
	if b.postgres != nil {
		checks["postgres"] = b.postgres.Ping
	}
	if b.redis != nil {
		checks["redis"] = b.redis.Ping
	}
	if b.elasticsearch != nil {
		checks["elasticsearch"] = b.elasticsearch.Ping
	}
	return checks
}

func (b *backends) Close() {
	if b.postgres != nil {
		b.postgres.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}

// initSchema creates the Postgres tables and, when used, the Elasticsearch indices.
func initSchema(ctx context.Context, cfg *config.Config, b *backends, log logger.Logger) error {
	if err := b.postgres.Migrate(ctx, pgstore.Schema...); err != nil {
		return err
	}
	log.Info("postgres schema ready", map[string]interface{}{"statements": len(pgstore.Schema)})

	if b.elasticsearch == nil {
		return nil
	}
	indices := map[string]string{}
	if cfg.Search.DirectoryBackend == config.BackendElasticsearch {
		indices[cfg.Search.DirectoryIndex] = esstore.RepairersMapping
	}
	if cfg.Search.QueryLogBackend == config.BackendElasticsearch {
		indices[cfg.Search.QueryLogIndex] = esstore.QueryLogMapping
	}
	for index, mapping := range indices {
		if err := b.elasticsearch.EnsureIndex(ctx, index, mapping); err != nil {
			return err
		}
		log.Info("elasticsearch index ready", map[string]interface{}{"index": index})
	}
	return nil
}

type stores struct {
	directory matcher.DirectoryStore
	profiles  matcher.ProfileStore
	queryLog  orchestrator.QueryLog
}

// buildStores picks the directory and query log backends. Profiles always
// come from Postgres behind the Redis level cache.
func buildStores(cfg *config.Config, b *backends, log logger.Logger) (*stores, error) {
	s := &stores{
		profiles: rediscache.NewLevelCache(
			b.redis.Client,
			pgstore.NewProfileStore(b.postgres.DB),
			config.GetDuration(cfg.Search.LevelCacheTTL),
			log,
		),
	}

	switch cfg.Search.DirectoryBackend {
	case config.BackendPostgres:
		s.directory = pgstore.NewDirectoryStore(b.postgres.DB)
	case config.BackendElasticsearch:
		s.directory = esstore.NewDirectoryStore(b.elasticsearch.Client, cfg.Search.DirectoryIndex)
	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.Search.DirectoryBackend)
	}

	switch cfg.Search.QueryLogBackend {
	case config.BackendPostgres:
		s.queryLog = pgstore.NewQueryLog(b.postgres.DB)
	case config.BackendElasticsearch:
		s.queryLog = esstore.NewQueryLog(b.elasticsearch.Client, cfg.Search.QueryLogIndex)
	case config.BackendNone:
	default:
		return nil, fmt.Errorf("unknown query log backend %q", cfg.Search.QueryLogBackend)
	}
	return s, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*alerting.Notifier, error) {
	awsCfg, err := aws.LoadConfig(ctx, cfg.Alerting.Region)
	if err != nil {
		return nil, err
	}
	return alerting.NewNotifier(cfg.Alerting, cfg.App.Name, aws.NewSNSClient(awsCfg), aws.NewSESClient(awsCfg), log), nil
}

type searchDeps struct {
	parser       *intent.Parser
	matcher      *matcher.Matcher
	orchestrator *orchestrator.Orchestrator
}

// startWorkers opens a job worker for every enabled search task type.
func startWorkers(cfg *config.Config, client zbc.Client, deps searchDeps, obs *observability.Observability, log logger.Logger) ([]*camunda.CamundaWorker, error) {
	var validator *validation.Validator
	if cfg.Search.ValidateJobInputs {
		reg, err := registry.LoadOrDefault(cfg.Search.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("load activity registry: %w", err)
		}
		if validator, err = validation.NewValidator(reg); err != nil {
			return nil, err
		}
	}

	handlers := map[string]worker.JobHandler{
		psi.TaskType: psi.NewHandler(psi.LoadConfig(config.GetWorkerConfig(cfg, psi.TaskType)), deps.parser, validator, obs, log).Handle,
		mr.TaskType:  mr.NewHandler(mr.LoadConfig(config.GetWorkerConfig(cfg, mr.TaskType)), deps.matcher, validator, obs, log).Handle,
		sr.TaskType:  sr.NewHandler(sr.LoadConfig(config.GetWorkerConfig(cfg, sr.TaskType)), deps.orchestrator, validator, obs, log).Handle,
		qsr.TaskType: qsr.NewHandler(qsr.LoadConfig(config.GetWorkerConfig(cfg, qsr.TaskType)), deps.orchestrator, validator, obs, log).Handle,
		snr.TaskType: snr.NewHandler(snr.LoadConfig(config.GetWorkerConfig(cfg, snr.TaskType)), deps.orchestrator, validator, obs, log).Handle,
		gsi.TaskType: gsi.NewHandler(gsi.LoadConfig(config.GetWorkerConfig(cfg, gsi.TaskType)), deps.orchestrator, validator, obs, log).Handle,
	}

	order := []string{psi.TaskType, mr.TaskType, sr.TaskType, qsr.TaskType, snr.TaskType, gsi.TaskType}

	var started []*camunda.CamundaWorker
	for _, taskType := range order {
		handler := handlers[taskType]
		wc := config.GetWorkerConfig(cfg, taskType)
		if !wc.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		started = append(started, camunda.StartWorker(client, taskType, wc, handler, log))
	}
	return started, nil
}
