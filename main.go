package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/thermal.report/internal/api"
	"github.com/banshee-data/thermal.report/internal/config"
	"github.com/banshee-data/thermal.report/internal/db"
	"github.com/banshee-data/thermal.report/internal/thermal"
)

var (
	//go:embed static/*
	staticFiles embed.FS
	devMode     = flag.Bool("dev", false, "Run in dev mode")
	listen      = flag.String("listen", ":8080", "Listen address")
	configPath  = flag.String("config", "", "Path to tuning config JSON (optional)")
	videoPath   = flag.String("video", "", "Video file to load at startup (optional)")
	csvPath     = flag.String("calibration", "", "Calibration CSV to load at startup (optional)")
	dbPath      = flag.String("db", "", "Path to the history database (overrides config)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	historyPath := cfg.GetDBPath()
	if *dbPath != "" {
		historyPath = *dbPath
	}
	history, err := db.NewDB(historyPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer history.Close()

	engine := thermal.NewEngine(thermal.OpenVideoFile, cfg.GetMatchThresholdRGB())
	defer engine.Close()

	if *csvPath != "" {
		if _, err := engine.LoadCalibration(*csvPath); err != nil {
			log.Fatalf("failed to load calibration: %v", err)
		}
	}
	if *videoPath != "" {
		if _, err := engine.LoadVideo(*videoPath); err != nil {
			log.Fatalf("failed to load video: %v", err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the API handlers
		apiMux := api.NewServer(engine, history, cfg.GetUnits()).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticFS, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("failed to mount embedded static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(staticFS))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
