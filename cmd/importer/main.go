package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"job-agent/internal/app"
	"job-agent/internal/config"
	"job-agent/internal/domain/job"
	"job-agent/internal/gateway"
)

// importer is the slice of the container a run needs.
type importer interface {
	RestoreSession(ctx context.Context) bool
	Import(ctx context.Context, query string) (job.ImportSummary, error)
	Close() error
}

type containerImporter struct {
	*app.Container
}

func (c containerImporter) Import(ctx context.Context, query string) (job.ImportSummary, error) {
	return c.Jobs.Import(ctx, query)
}

func openContainer(logger *log.Logger) (importer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init container: %w", err)
	}
	return containerImporter{Container: c}, nil
}

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	os.Exit(run(os.Args[1:], os.Stdout, logger, openContainer))
}

// run returns the process exit code. Deferred cleanup always runs before it
// returns.
func run(args []string, stdout io.Writer, logger *log.Logger, open func(*log.Logger) (importer, error)) int {
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.SetOutput(logger.Writer())
	query := fs.String("query", "", "job search query to import postings for")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall import timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	q := strings.TrimSpace(*query)
	if q == "" {
		logger.Printf("provide -query")
		return 2
	}

	imp, err := open(logger)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}
	defer func() {
		if err := imp.Close(); err != nil {
			logger.Printf("[Importer] close: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if !imp.RestoreSession(ctx) {
		logger.Printf("no stored session: sign in through the bridge first")
		return 1
	}

	started := time.Now()
	sum, err := imp.Import(ctx, q)
	if err != nil {
		logger.Printf("import failed: %s (%v)", gateway.UserMessage(err), err)
		return 1
	}
	logger.Printf("[Importer] done query=%q imported=%d total_found=%d elapsed=%s", q, sum.Imported, sum.TotalFound, time.Since(started).Round(time.Millisecond))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		logger.Printf("write summary: %v", err)
		return 1
	}
	return 0
}
