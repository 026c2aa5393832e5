package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/talkroom/talkd/pkg/logging"
	"github.com/talkroom/talkd/pkg/server"
	"github.com/talkroom/talkd/pkg/store"
	"github.com/talkroom/talkd/pkg/version"
)

func main() {
	cfg := server.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file path (optional)")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP bind address for the chat protocol")
	flag.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "HTTP bind address for the WebSocket endpoint (empty to disable)")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file path")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("talkd " + version.String())
		return
	}

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	// Precedence: defaults, config file, environment, then explicit flags.
	// Flags are bound directly to cfg above, so re-apply any the user set
	// after the file and environment overlays.
	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			slog.Error("load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		slog.Error("load environment", "err", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = f.Value.String()
		case "ws":
			cfg.WSAddr = f.Value.String()
		case "metrics":
			cfg.MetricsAddr = f.Value.String()
		case "db":
			cfg.DBPath = f.Value.String()
		}
	})

	st, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}

	slog.Info("starting talkd", "version", version.String(), "db", cfg.DBPath)
	srv := server.New(cfg, server.Dependencies{Store: st})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
