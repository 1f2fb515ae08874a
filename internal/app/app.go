package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/socialstats/engage/internal/adapters/analytics"
	"github.com/socialstats/engage/internal/adapters/httpapi"
	"github.com/socialstats/engage/internal/adapters/kafka"
	sqliteadapter "github.com/socialstats/engage/internal/adapters/sqlite"
	"github.com/socialstats/engage/internal/adapters/sqlite/gormsqlite"
	"github.com/socialstats/engage/internal/core/usecase"
	"github.com/socialstats/engage/migrations"
)

type Config struct {
	Addr            string
	CountersDBPath  string
	AnalyticsDBPath string
	Brokers         []string
	ConsumerGroup   string
	CORSOrigins     []string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer wires the whole pipeline: counter store, publisher, ingestion
// consumer, analytical store and the HTTP surface over both. The returned
// closer shuts the consumer down before the stores so the in-flight write
// lands first.
func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	countersDB, err := gormsqlite.Open(cfg.CountersDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open counter store: %w", err)
	}

	analyticsDB, err := gormsqlite.Open(cfg.AnalyticsDBPath)
	if err != nil {
		_ = countersDB.Close()
		return nil, nil, fmt.Errorf("open analytics store: %w", err)
	}

	closeDBs := func() {
		_ = analyticsDB.Close()
		_ = countersDB.Close()
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	countersSQL, err := countersDB.WriteSQLDB()
	if err != nil {
		closeDBs()
		return nil, nil, fmt.Errorf("resolve counters writer: %w", err)
	}
	if err := migrations.Counters(migrateCtx, countersSQL); err != nil {
		closeDBs()
		return nil, nil, err
	}

	analyticsSQL, err := analyticsDB.WriteSQLDB()
	if err != nil {
		closeDBs()
		return nil, nil, fmt.Errorf("resolve analytics writer: %w", err)
	}
	if err := migrations.Analytics(migrateCtx, analyticsSQL); err != nil {
		closeDBs()
		return nil, nil, err
	}

	repo := sqliteadapter.NewPostRepository(countersDB)
	analyticsStore := analytics.NewStore(analyticsDB)
	publisher := kafka.NewPublisher(cfg.Brokers)

	engagementService := usecase.NewEngagementService(repo, publisher)
	statsService := usecase.NewStatsService(analyticsStore)
	ingestService := usecase.NewIngestService(analyticsStore)

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.ConsumerGroup,
	}, ingestService)
	consumer.Start(context.Background())

	handler := httpapi.NewHandler(engagementService, statsService, cfg.CORSOrigins)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	closer := resourceCloser{closers: []io.Closer{consumer, publisher, analyticsDB, countersDB}}
	return server, closer, nil
}
