package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sms-connector/internal/app"
	"sms-connector/internal/config"
)

//go:embed config/config.yaml
var configYamlContent []byte

var configPath = flag.String("config", "", "YAML configuration file, the embedded one when empty")

var runFn = run

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()
	runFn(ctx, *configPath)
}

func run(ctx context.Context, path string) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Panic(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		log.Panic(err)
	}

	slog.SetDefault(newLogger(cfg))

	runner, err := app.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	runner.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewFromYamlContent(configYamlContent)
	}
	return config.NewFromYaml(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.GetLogLevel()}
	if cfg.GetLogFormat() == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
