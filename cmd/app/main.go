package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/socialstats/engage/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "engage",
		Usage: "Engagement event pipeline: counters, event stream, analytics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("ENGAGE_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "counters-db-path",
				Value:   "./counters.sqlite",
				Sources: cli.EnvVars("ENGAGE_COUNTERS_DB_PATH"),
				Usage:   "SQLite file for the authoritative counter store",
			},
			&cli.StringFlag{
				Name:    "analytics-db-path",
				Value:   "./analytics.sqlite",
				Sources: cli.EnvVars("ENGAGE_ANALYTICS_DB_PATH"),
				Usage:   "SQLite file for the analytical event store",
			},
			&cli.StringFlag{
				Name:    "brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("ENGAGE_KAFKA_BROKERS"),
				Usage:   "Comma-separated Kafka broker addresses",
			},
			&cli.StringFlag{
				Name:    "consumer-group",
				Value:   "stats-service",
				Sources: cli.EnvVars("ENGAGE_CONSUMER_GROUP"),
				Usage:   "Consumer group name for the ingestion loop",
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Sources: cli.EnvVars("ENGAGE_CORS_ORIGINS"),
				Usage:   "Comma-separated allowed CORS origins (empty disables CORS)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:            c.String("addr"),
				CountersDBPath:  c.String("counters-db-path"),
				AnalyticsDBPath: c.String("analytics-db-path"),
				Brokers:         splitList(c.String("brokers")),
				ConsumerGroup:   c.String("consumer-group"),
				CORSOrigins:     splitList(c.String("cors-origins")),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
