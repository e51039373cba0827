package main

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"reading-effort/internal/common/aws"
	"reading-effort/internal/common/camunda"
	"reading-effort/internal/common/config"
	"reading-effort/internal/common/database"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/validation"
	"reading-effort/internal/correlation"
	"reading-effort/internal/reports"
	"reading-effort/pkg/registry"

	as "reading-effort/internal/workers/analysis/aligned-series"
	ce "reading-effort/internal/workers/analysis/correlate-effort"
	se "reading-effort/internal/workers/analysis/score-effort"
)

func postgresDB(pg *database.PostgresClient) *sql.DB {
	if pg == nil {
		return nil
	}
	return pg.DB
}

// connectPostgres opens and pings the corpus database. A pool that fails the
// ping is closed before returning.
func connectPostgres(ctx context.Context, cfg config.PostgresConfig) (*database.PostgresClient, error) {
	pg, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// reportPublishers builds the enabled report sinks. A sink that cannot be
// reached is logged and skipped.
func reportPublishers(ctx context.Context, cfg *config.Config, log *zap.Logger) []reports.Publisher {
	var pubs []reports.Publisher

	if cfg.Reports.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = database.PingElasticsearch(ctx, es)
		}
		if err != nil {
			log.Warn("elasticsearch reports disabled", zap.Error(err))
		} else {
			pubs = append(pubs, reports.NewElasticsearchPublisher(es, cfg.Reports.Elasticsearch.Index))
			log.Info("Elasticsearch reports enabled", zap.String("index", cfg.Reports.Elasticsearch.Index))
		}
	}

	if cfg.Reports.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Reports.SNS.Region)
		if err != nil {
			log.Warn("sns reports disabled", zap.Error(err))
		} else {
			pubs = append(pubs, reports.NewSNSPublisher(client, cfg.Reports.SNS.TopicARN))
			log.Info("SNS reports enabled", zap.String("topicArn", cfg.Reports.SNS.TopicARN))
		}
	}

	return pubs
}

// workerSettings returns the configured settings for taskType. When the
// worker is not listed the timeout is cleared so the registry value applies.
func workerSettings(cfg *config.Config, taskType string) config.WorkerConfig {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	if _, listed := cfg.Workers[taskType]; !listed {
		wcfg.Timeout = 0
	}
	return wcfg
}

func withTimeout(wcfg config.WorkerConfig, d time.Duration) config.WorkerConfig {
	wcfg.Timeout = int(d / time.Millisecond)
	return wcfg
}

func startWorkers(
	zeebe *camunda.Client,
	cfg *config.Config,
	reg *registry.ActivityRegistry,
	service *correlation.Service,
	validator *validation.Validator,
	log logger.Logger,
	zapLog *zap.Logger,
) []*camunda.CamundaWorker {
	client := zeebe.GetClient()
	var workers []*camunda.CamundaWorker
	add := func(w *camunda.CamundaWorker) {
		if w != nil {
			workers = append(workers, w)
		}
	}

	if activity, ok := reg.Lookup(se.TaskType); ok {
		wcfg := workerSettings(cfg, se.TaskType)
		hcfg := se.LoadConfig(wcfg, activity)
		handler, err := se.NewHandler(hcfg, validator, log)
		if err != nil {
			zapLog.Fatal("failed to create score-effort handler", zap.Error(err))
		}
		add(camunda.StartWorker(client, se.TaskType, withTimeout(wcfg, hcfg.Timeout), handler, log))
	}

	if activity, ok := reg.Lookup(ce.TaskType); ok {
		wcfg := workerSettings(cfg, ce.TaskType)
		hcfg := ce.LoadConfig(wcfg, activity)
		handler, err := ce.NewHandler(hcfg, service, validator, log)
		if err != nil {
			zapLog.Fatal("failed to create correlate-effort handler", zap.Error(err))
		}
		add(camunda.StartWorker(client, ce.TaskType, withTimeout(wcfg, hcfg.Timeout), handler, log))
	}

	if activity, ok := reg.Lookup(as.TaskType); ok {
		wcfg := workerSettings(cfg, as.TaskType)
		hcfg := as.LoadConfig(wcfg, activity)
		handler, err := as.NewHandler(hcfg, service, validator, log)
		if err != nil {
			zapLog.Fatal("failed to create aligned-series handler", zap.Error(err))
		}
		add(camunda.StartWorker(client, as.TaskType, withTimeout(wcfg, hcfg.Timeout), handler, log))
	}

	return workers
}
