// Command stream-catalog: ingest IPTV playlists into a browsable catalog.
//
//	run     Refresh the catalog on an interval and serve /healthz + /metrics. For systemd.
//	import  One-shot: fetch (or read) a playlist, classify, save catalog + database
//	check   Validate a playlist source and report entry counts without writing anything
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamcat/stream-catalog/internal/catalog"
	"github.com/streamcat/stream-catalog/internal/config"
	"github.com/streamcat/stream-catalog/internal/fetch"
	"github.com/streamcat/stream-catalog/internal/health"
	"github.com/streamcat/stream-catalog/internal/metrics"
	"github.com/streamcat/stream-catalog/internal/playlist"
	"github.com/streamcat/stream-catalog/internal/safeurl"
	"github.com/streamcat/stream-catalog/internal/store"
)

// readSource returns the playlist text from a local file or by fetching url.
// Exactly one of file/url must be non-empty.
func readSource(ctx context.Context, f *fetch.Fetcher, file, url string) (content string, stale bool, err error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, err
		}
		// Same compression sniffing as the fetch path, so a downloaded
		// .m3u.gz works with -file too.
		text, err := playlist.Decode(data)
		if err != nil {
			return "", false, err
		}
		return text, false, nil
	}
	return f.Playlist(ctx, url)
}

// importOnce runs the full pipeline: fetch, parse, classify, group, persist.
func importOnce(ctx context.Context, cfg *config.Config, fetcher *fetch.Fetcher, cat *catalog.Catalog, db *store.Store, file, sourceURL string) error {
	start := time.Now()

	content, stale, err := readSource(ctx, fetcher, file, sourceURL)
	if err != nil {
		return err
	}
	if stale {
		metrics.StaleServes.Inc()
		log.Printf("Source fetch failed; using cached playlist copy")
	}

	entries, err := playlist.Load(content)
	if err != nil {
		return err
	}

	// Classification is pure and single-pass; chunk the outer loop so large
	// provider exports report progress instead of going silent.
	const batchSize = 1000
	var res catalog.Result
	for off := 0; off < len(entries); off += batchSize {
		end := min(off+batchSize, len(entries))
		part := catalog.Classify(entries[off:end], metrics.Recorder{})
		res.Movies = append(res.Movies, part.Movies...)
		res.Series = append(res.Series, part.Series...)
		res.Live = append(res.Live, part.Live...)
		if len(entries) > batchSize {
			log.Printf("Classified %d/%d entries", end, len(entries))
		}
	}
	cat.Replace(res.Movies, res.Series, res.Live)

	movies, groups, live := cat.Snapshot()
	seriesCount := 0
	for _, g := range groups {
		for _, s := range g.Seasons {
			seriesCount += len(s.Episodes)
		}
	}
	metrics.ObserveImport(start, len(entries))
	metrics.SetCatalogSize(len(movies), seriesCount, len(live), len(groups))

	if err := cat.Save(cfg.CatalogPath); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	if db != nil {
		if err := db.UpsertItems(ctx, cat.Items()); err != nil {
			return fmt.Errorf("store items: %w", err)
		}
	}
	log.Printf("Imported %d entries in %v: %d movies, %d series groups (%d episodes), %d live channels",
		len(entries), time.Since(start).Round(time.Millisecond), len(movies), len(groups), seriesCount, len(live))
	return nil
}

func main() {
	_ = config.LoadEnvFile(".env")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importURL := importCmd.String("url", "", "Playlist URL (default: STREAM_CATALOG_SOURCE_URL or provider credentials)")
	importFile := importCmd.String("file", "", "Local playlist file instead of a URL")
	importNoDB := importCmd.Bool("no-db", false, "Skip the SQLite database, only write the catalog JSON")

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkURL := checkCmd.String("url", "", "Playlist URL to validate")
	checkFile := checkCmd.String("file", "", "Local playlist file to validate")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runAddr := runCmd.String("addr", "", "Listen address (default: STREAM_CATALOG_LISTEN)")
	runRefresh := runCmd.Duration("refresh", 0, "Refresh interval (default: STREAM_CATALOG_REFRESH_INTERVAL)")
	runSkipInitial := runCmd.Bool("skip-initial", false, "Serve the existing catalog without refreshing at startup")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <run|import|check> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  run     Refresh on an interval, serve /healthz and /metrics\n")
		fmt.Fprintf(os.Stderr, "  import  One-shot import into catalog JSON + SQLite\n")
		fmt.Fprintf(os.Stderr, "  check   Validate a playlist source, write nothing\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Config: %v", err)
		os.Exit(1)
	}
	fetcher := fetch.New(fetch.Config{
		UserAgent:       cfg.UserAgent,
		RequestsPerHost: cfg.RequestsPerHost,
		CacheDir:        cfg.CacheDir,
	}, nil)

	switch os.Args[1] {
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		sourceURL := *importURL
		if sourceURL == "" && *importFile == "" {
			sourceURL = cfg.SourceURLOrBuild()
		}
		if sourceURL == "" && *importFile == "" {
			log.Print("Need -url, -file, or STREAM_CATALOG_SOURCE_URL / provider credentials")
			os.Exit(1)
		}
		var db *store.Store
		if !*importNoDB {
			db, err = store.Open(cfg.DBPath)
			if err != nil {
				log.Printf("Open database %s: %v", cfg.DBPath, err)
				os.Exit(1)
			}
			defer db.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := importOnce(ctx, cfg, fetcher, catalog.New(), db, *importFile, sourceURL); err != nil {
			log.Printf("Import failed: %v", err)
			os.Exit(1)
		}

	case "check":
		_ = checkCmd.Parse(os.Args[2:])
		sourceURL := *checkURL
		if sourceURL == "" && *checkFile == "" {
			sourceURL = cfg.SourceURLOrBuild()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		content, _, err := readSource(ctx, fetcher, *checkFile, sourceURL)
		if err != nil {
			log.Printf("Check failed: %v", err)
			os.Exit(1)
		}
		entries, err := playlist.Load(content)
		if err != nil {
			log.Printf("Check failed: %v", err)
			os.Exit(1)
		}
		res := catalog.Classify(entries, catalog.NopObserver{})
		log.Printf("OK: %d entries (%d movies, %d series episodes, %d live)",
			len(entries), len(res.Movies), len(res.Series), len(res.Live))

	case "run":
		_ = runCmd.Parse(os.Args[2:])
		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := *runAddr
		if addr == "" {
			addr = cfg.ListenAddr
		}
		refresh := *runRefresh
		if refresh <= 0 {
			refresh = cfg.RefreshInterval
		}
		sourceURL := cfg.SourceURLOrBuild()
		if sourceURL == "" {
			log.Print("Need STREAM_CATALOG_SOURCE_URL or provider credentials")
			os.Exit(1)
		}
		log.Printf("Playlist source: %s", safeurl.Redact(sourceURL))

		db, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Printf("Open database %s: %v", cfg.DBPath, err)
			os.Exit(1)
		}
		defer db.Close()

		cat := catalog.New()
		if *runSkipInitial {
			if err := cat.Load(cfg.CatalogPath); err != nil {
				log.Printf("Load catalog %s: %v (starting empty)", cfg.CatalogPath, err)
			}
		} else {
			if err := importOnce(runCtx, cfg, fetcher, cat, db, "", sourceURL); err != nil {
				log.Printf("Initial import failed: %v", err)
				os.Exit(1)
			}
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
			defer cancel()
			if err := health.CheckSource(ctx, sourceURL); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			fmt.Fprintln(w, "ok")
		})
		mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, cfg.CatalogPath)
		})
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.Printf("Listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP server: %v", err)
				stop()
			}
		}()

		// Scheduled refresh plus SIGHUP for on-demand reload.
		sigHUP := make(chan os.Signal, 1)
		signal.Notify(sigHUP, syscall.SIGHUP)
		defer signal.Stop(sigHUP)
		go func() {
			for {
				select {
				case <-runCtx.Done():
					return
				case <-sigHUP:
					log.Print("SIGHUP received, refreshing catalog")
					if err := importOnce(runCtx, cfg, fetcher, cat, db, "", sourceURL); err != nil {
						log.Printf("Refresh failed: %v", err)
					}
				}
			}
		}()
		go fetch.RefreshEvery(runCtx, refresh, func(ctx context.Context) {
			log.Print("Refreshing catalog (scheduled)")
			if err := importOnce(ctx, cfg, fetcher, cat, db, "", sourceURL); err != nil {
				log.Printf("Scheduled refresh failed: %v", err)
			}
		})

		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		log.Print("Shutdown complete")

	default:
		log.Printf("Unknown command %q; use run, import, or check", strings.TrimSpace(os.Args[1]))
		os.Exit(1)
	}
}
