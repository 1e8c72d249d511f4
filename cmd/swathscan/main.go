// Command swathscan converts multibeam survey line files into a coverage
// dataset: it extracts the outermost valid soundings per ping, persists the
// results, and optionally serves the analysis API for interactive review.
//
//	swathscan [flags] line1.kmall.jsonl line2.all.jsonl.gz ...
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hydroscan-data/coverage.report/internal/api"
	"github.com/hydroscan-data/coverage.report/internal/config"
	"github.com/hydroscan-data/coverage.report/internal/db"
	"github.com/hydroscan-data/coverage.report/internal/swath"
)

var (
	configPath  = flag.String("config", "", "Path to analysis config JSON (defaults apply when empty)")
	dbPath      = flag.String("db", "", "SQLite database path (empty disables persistence)")
	archiveDir  = flag.String("archive", "", "Directory for converted-dataset archives (empty disables)")
	compress    = flag.Bool("compress", true, "Gzip archives")
	exportTrend = flag.String("export-trend", "", "Write the coverage trend export to this file")
	paramsOnly  = flag.Bool("params-only", false, "Extract acquisition parameters only, skip geometry")
	listen      = flag.String("listen", "", "Listen address for the analysis API (empty runs batch-only)")
	migrations  = flag.String("migrations", "db/migrations", "Migrations directory")
)

func main() {
	flag.Parse()

	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var store *db.DB
	if *dbPath != "" {
		var err error
		store, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		if err := store.MigrateUp(*migrations); err != nil {
			log.Printf("migrations not applied: %v", err)
		}
	}

	loader := swath.NewLoader(cfg, *archiveDir, *compress)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if files := flag.Args(); len(files) > 0 {
		res := loader.LoadFiles(ctx, files, *paramsOnly)
		log.Printf("load complete: %d converted, %d restored, %d failed in %v",
			res.Converted, res.Restored, res.Failed, res.Elapsed)
		for path, err := range res.Errors {
			log.Printf("  %s: %v", path, err)
		}

		if store != nil {
			batchID, err := store.RecordBatch(res)
			if err != nil {
				log.Fatalf("failed to record batch: %v", err)
			}
			tbl := swath.AdjustTable(loader.Table(), cfg.GetReferenceFrame())
			if err := store.RecordDetections(batchID, tbl.Records()); err != nil {
				log.Fatalf("failed to record detections: %v", err)
			}
			flat := tbl.Flatten()
			filtered := flat.Select(flat.MaskedIndices(swath.Mask(tbl, cfg)))
			bins := swath.ComputeTrend(filtered.Z, filtered.Y, cfg.GetTrendBinCount())
			if err := store.RecordTrendBins(batchID, bins); err != nil {
				log.Fatalf("failed to record trend: %v", err)
			}
			if samples, err := swath.AnalyzeRates(tbl, cfg); err == nil {
				if err := store.RecordRateSamples(batchID, samples); err != nil {
					log.Fatalf("failed to record rates: %v", err)
				}
			} else {
				log.Printf("skipping rate analysis: %v", err)
			}
		}

		if *exportTrend != "" {
			if err := writeTrendFile(loader, cfg, *exportTrend); err != nil {
				log.Fatalf("failed to export trend: %v", err)
			}
			log.Printf("trend exported to %s", *exportTrend)
		}
	}

	if *listen == "" {
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(loader, cfg, store).ServeMux()
		mux.Handle("/", api.LoggingMiddleware(apiMux))

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			log.Printf("analysis API listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("shutdown complete")
}

func writeTrendFile(loader *swath.Loader, cfg *config.AnalysisConfig, path string) error {
	tbl := swath.AdjustTable(loader.Table(), cfg.GetReferenceFrame())
	flat := tbl.Flatten()
	filtered := flat.Select(flat.MaskedIndices(swath.Mask(tbl, cfg)))
	bins := swath.ComputeTrend(filtered.Z, filtered.Y, cfg.GetTrendBinCount())

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return swath.WriteTrendExport(f, bins)
}
