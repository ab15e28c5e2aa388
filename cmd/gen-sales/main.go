// Package main is a CLI that generates synthetic sales batches for testing
// the ingest pipeline. It writes a CSV to a local file, or uploads one or
// more files to the raw bucket concurrently.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"salespipe/internal/gen"
	"salespipe/internal/objectstore"
)

func main() {
	var (
		records  = flag.Int("records", 10000, "rows per file")
		defects  = flag.Float64("defect-rate", 0.05, "fraction of rows with seeded data-quality defects")
		dupes    = flag.Float64("duplicate-rate", 0, "fraction of rows reusing an earlier transaction id")
		seed     = flag.Int64("seed", 0, "random seed (0 = from clock)")
		out      = flag.String("out", "sales_data.csv", "local output file (ignored when -bucket is set)")
		bucket   = flag.String("bucket", "", "upload to this S3 bucket instead of writing locally")
		prefix   = flag.String("prefix", "incoming/", "S3 key prefix")
		files    = flag.Int("files", 1, "number of files to upload (concurrent)")
		region   = flag.String("region", envOr("AWS_REGION", "us-east-1"), "AWS region")
		endpoint = flag.String("endpoint", os.Getenv("AWS_ENDPOINT_URL"), "AWS endpoint override (LocalStack)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := gen.Options{
		Records:       *records,
		DefectRate:    *defects,
		DuplicateRate: *dupes,
		Seed:          *seed,
	}

	if *bucket == "" {
		body, err := gen.Generate(opts)
		if err != nil {
			logger.Error("generation failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, body, 0o644); err != nil {
			logger.Error("write failed", "file", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("batch written", "file", *out, "records", *records)
		return
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(*region))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	client := objectstore.NewClient(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if *endpoint != "" {
			o.BaseEndpoint = aws.String(*endpoint)
			o.UsePathStyle = true
		}
	}))

	g, gctx := errgroup.WithContext(ctx)
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	for i := 0; i < *files; i++ {
		fileOpts := opts
		if fileOpts.Seed != 0 {
			fileOpts.Seed += int64(i)
		}
		key := fmt.Sprintf("%ssales_data_%s_%02d.csv", *prefix, stamp, i)
		g.Go(func() error {
			body, err := gen.Generate(fileOpts)
			if err != nil {
				return fmt.Errorf("generating %s: %w", key, err)
			}
			if err := client.Put(gctx, *bucket, key, body, "text/csv"); err != nil {
				return err
			}
			logger.Info("batch uploaded", "bucket", *bucket, "key", key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("upload failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
