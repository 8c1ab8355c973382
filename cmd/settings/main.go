// Command settings edits the persisted forwarding configuration read by the
// daemon.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"sms-connector/internal/settings"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}

	if err := execute(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	driver    string
	filePath  string
	redisAddr string
	redisKey  string
	email     string
	license   string
	setup     bool
	validated bool
	reset     bool
	show      bool
	set       map[string]bool
}

func parseOptions(args []string) (*options, error) {
	o := &options{set: map[string]bool{}}

	fset := flag.NewFlagSet("settings", flag.ContinueOnError)
	fset.StringVar(&o.driver, "driver", envOr("SETTINGS_DRIVER", settings.DriverFile), "settings backend: file or redis")
	fset.StringVar(&o.filePath, "file", envOr("SETTINGS_FILE_PATH", "settings.json"), "settings file for the file backend")
	fset.StringVar(&o.redisAddr, "redis-addr", os.Getenv("REDIS_ADDR"), "redis address for the redis backend")
	fset.StringVar(&o.redisKey, "redis-key", os.Getenv("SETTINGS_REDIS_KEY"), "settings hash for the redis backend")
	fset.StringVar(&o.email, "email", "", "target email address")
	fset.StringVar(&o.license, "license", "", "license key")
	fset.BoolVar(&o.setup, "setup", false, "mark setup as completed")
	fset.BoolVar(&o.validated, "validated", false, "mark the configuration as validated")
	fset.BoolVar(&o.reset, "reset", false, "clear the setup flag so messages are discarded")
	fset.BoolVar(&o.show, "show", false, "print the stored configuration")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	fset.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	return o, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func execute(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseOptions(args)
	if err != nil {
		return err
	}

	var client redis.Cmdable
	if o.driver == settings.DriverRedis {
		rc := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		defer func() { _ = rc.Close() }()
		client = rc
	}

	store, err := settings.NewStore(settings.Config{Driver: o.driver, FilePath: o.filePath, RedisKey: o.redisKey}, client)
	if err != nil {
		return err
	}

	cfg, err := store.Load(ctx)
	if err != nil {
		return err
	}

	changed, err := apply(&cfg, o)
	if err != nil {
		return err
	}

	if changed {
		if err = store.Save(ctx, cfg); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, "settings saved")
	}

	if o.show || !changed {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, string(data))
	}

	return nil
}

func apply(cfg *settings.Configuration, o *options) (bool, error) {
	changed := false

	if o.set["email"] {
		email := strings.TrimSpace(o.email)
		if email != "" {
			if err := validate.Var(email, "email"); err != nil {
				return false, fmt.Errorf("invalid email %q", email)
			}
		}
		cfg.TargetEmail = email
		changed = true
	}

	if o.set["license"] {
		cfg.LicenseKey = settings.NormalizeLicenseKey(o.license)
		changed = true
	}

	if o.set["setup"] {
		cfg.SetupCompleted = o.setup
		changed = true
	}

	if o.set["validated"] {
		cfg.ConfigValidated = o.validated
		changed = true
	}

	if o.reset {
		cfg.SetupCompleted = false
		changed = true
	}

	return changed, nil
}
