package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"aufseher/internal/bot"
	"aufseher/internal/classifier"
	"aufseher/internal/config"
	"aufseher/internal/logging"
	"aufseher/internal/metrics"
	"aufseher/internal/moderation"
	"aufseher/internal/rules"
	"aufseher/internal/scheduler"
	"aufseher/internal/storage"
)

const (
	classifierCacheSize = 1024
	classifierCacheTTL  = time.Hour
)

func main() {
	configFile := flag.String("config", "", "rule file (default $CONFIG_FILE or "+config.DefaultConfigFile+")")
	check := flag.Bool("check", false, "load the rule file, verify its samples and exit")
	flag.Parse()

	if *check {
		log := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"))
		os.Exit(runCheck(rulePath(*configFile, os.Getenv("CONFIG_FILE")), log))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)

	path := rulePath(*configFile, cfg.ConfigFile)
	set, samples, err := rules.LoadFile(path)
	if err != nil {
		log.Error("load rules", "path", path, "error", err)
		os.Exit(1)
	}
	for _, m := range set.Verify(samples) {
		log.Warn("sample not caught by any rule", "list", m.List, "sample", m.Sample)
	}
	log.Info("rules loaded", "path", path, "name_regexes", set.Identity.Len(), "message_regexes", set.Content.Len())

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, cfg.RateLimit, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	executor := moderation.NewExecutor(b, store, log, cfg.TransportTimeout)
	mod := moderation.New(set, executor, moderation.NewPinger(b, cfg.TransportTimeout), log)
	if cfg.ClassifierEnabled() {
		openai := classifier.NewOpenAI(&http.Client{Timeout: cfg.ClassifierTimeout}, classifier.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		mod.SetClassifier(classifier.NewCached(openai, classifierCacheSize, classifierCacheTTL), cfg.ClassifierTimeout)
		log.Info("classifier enabled", "model", cfg.OpenAIModel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	sched := scheduler.New(store, cfg.JournalRetention, log)
	go sched.Run(ctx)

	log.Info("starting bot")

	b.Run(ctx, mod)

	log.Info("bot stopped")
}

// rulePath prefers the -config flag over the environment.
func rulePath(flagValue, envValue string) string {
	switch {
	case flagValue != "":
		return flagValue
	case envValue != "":
		return envValue
	}
	return config.DefaultConfigFile
}

func runCheck(path string, log *slog.Logger) int {
	set, samples, err := rules.LoadFile(path)
	if err != nil {
		log.Error("load rules", "path", path, "error", err)
		return 1
	}
	misses := set.Verify(samples)
	for _, m := range misses {
		log.Error("sample not caught by any rule", "list", m.List, "sample", m.Sample)
	}
	if len(misses) > 0 {
		return 1
	}
	log.Info("rules ok",
		"path", path,
		"name_regexes", set.Identity.Len(),
		"message_regexes", set.Content.Len(),
		"samples", len(samples.Usernames)+len(samples.Messages),
	)
	return 0
}

func serveMetrics(ctx context.Context, addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server", "error", err)
	}
}
