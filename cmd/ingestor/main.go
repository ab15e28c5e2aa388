// Package main is the entrypoint for the sales ingest Lambda function.
//
// The ingestor is triggered once per uploaded batch file (S3 ObjectCreated,
// directly or via an SQS envelope). Cold start builds the structured
// logger, loads configuration, opens the Postgres pool and the AWS clients,
// and wires them into the pipeline; the warm container reuses all of them
// across invocations.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"salespipe/internal/config"
	"salespipe/internal/db"
	"salespipe/internal/ingest"
	"salespipe/internal/objectstore"
	"salespipe/internal/observe"
)

// txStore adapts db.SalesStore to the pipeline's Store interface.
type txStore struct {
	store *db.SalesStore
}

func (s txStore) InTx(ctx context.Context, fn func(ingest.BatchWriter) error) error {
	return s.store.InTx(ctx, func(repo *db.SalesRepo) error {
		return fn(repo)
	})
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("ingestor initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// LocalStack support: point every client at the override endpoint.
	endpoint := cfg.AWS.EndpointURL
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	pipeline := &ingest.Pipeline{
		Settings: ingest.Settings{
			QualityAlertThreshold: cfg.Pipeline.QualityAlertThreshold,
			Archive: ingest.ArchiveSettings{
				RawMarker:       cfg.Pipeline.RawMarker,
				ProcessedMarker: cfg.Pipeline.ProcessedMarker,
				Suffix:          cfg.Pipeline.ArchiveSuffix,
			},
		},
		Log:     logger,
		Store:   txStore{store: db.NewSalesStore(pool)},
		Objects: objectstore.NewClient(s3Client),
		Metrics: observe.NewBatchMetrics(cwClient, cfg.Pipeline.MetricNamespace),
		Alerts:  observe.NewSNSAlertChannel(snsClient, cfg.AWS.AlertTopicARN),
	}

	logger.Info("ingestor initialized",
		"metric_namespace", cfg.Pipeline.MetricNamespace,
		"alerting_enabled", cfg.AWS.AlertTopicARN != "",
	)

	handler := &ingest.Handler{Pipeline: pipeline}
	lambda.Start(handler.Handle)
}
