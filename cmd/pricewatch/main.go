package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/jawher/mow.cli"

	"github.com/geniass/pricewatch/pkg/alert"
	"github.com/geniass/pricewatch/pkg/config"
	"github.com/geniass/pricewatch/pkg/history"
	"github.com/geniass/pricewatch/pkg/logging"
	"github.com/geniass/pricewatch/pkg/scraper"
	"github.com/geniass/pricewatch/pkg/watcher"
)

// Set via -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
)

type globalOptions struct {
	configPath string
	envFile    string
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		os.Exit(2)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Cli {
	app := cli.App("pricewatch", "Check a product price, record it, and alert when it drops")
	app.Version("v version", fmt.Sprintf("pricewatch %s (commit=%s)", version, commit))

	configPath := app.String(cli.StringOpt{
		Name:   "c config",
		Value:  "",
		Desc:   "path to YAML config file",
		EnvVar: "PRICEWATCH_CONFIG",
	})
	envFile := app.String(cli.StringOpt{
		Name:   "env-file",
		Value:  ".env",
		Desc:   "dotenv file loaded before reading the environment; ignored when missing",
		EnvVar: "PRICEWATCH_ENV_FILE",
	})
	opts := func() globalOptions {
		return globalOptions{configPath: *configPath, envFile: *envFile}
	}

	app.Command("run", "check the price once and record it", func(cmd *cli.Cmd) {
		cmd.Spec = "[--dry-run] [PRODUCT]"
		dryRun := cmd.BoolOpt("dry-run", false, "log the alert instead of sending it")
		product := cmd.StringArg("PRODUCT", "", "product identifier, overrides product.id")

		cmd.Action = func() {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runCheck(ctx, opts(), *product, *dryRun, stderr); err != nil {
				stop()
				cli.Exit(1)
			}
		}
	})

	app.Command("history", "print the recorded price history as markdown", func(cmd *cli.Cmd) {
		cmd.Spec = "[--last]"
		last := cmd.IntOpt("n last", 0, "only show the last N records")

		cmd.Action = func() {
			if err := printHistory(context.Background(), opts(), *last, stdout); err != nil {
				fmt.Fprintln(stderr, "ERROR", err)
				cli.Exit(1)
			}
		}
	})

	return app
}

// loadConfig loads the env file and config, applying the product override.
func loadConfig(opts globalOptions, product string) (*config.Config, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.LoadWithDefaults(opts.configPath)
	if err != nil {
		return nil, err
	}
	if product != "" {
		cfg.Product.ID = product
	}
	return cfg, nil
}

// runCheck performs one watcher run. Errors are logged before being returned.
func runCheck(ctx context.Context, opts globalOptions, product string, dryRun bool, stderr io.Writer) error {
	cfg, err := loadConfig(opts, product)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR", err)
		return err
	}
	if dryRun {
		disabled := false
		cfg.Alert.Enabled = &disabled
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "ERROR validate config:", err)
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR", err)
		return err
	}
	defer closeLog()

	w, err := newWatcher(cfg, logger)
	if err != nil {
		logger.Error("failed to set up watcher", "error", err)
		return err
	}

	logger.Info("starting price check",
		"version", version,
		"product_id", cfg.Product.ID,
		"history", cfg.History.Path,
		"alerts", cfg.Alert.IsEnabled(),
	)

	res, err := w.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("price check complete",
		"run_id", res.RunID,
		"price", res.Price,
		"previous", res.Previous,
		"percent_drop", res.PercentDrop,
		"alerted", res.Alerted,
	)
	return nil
}

func newWatcher(cfg *config.Config, logger *slog.Logger) (*watcher.Watcher, error) {
	fetcher, err := scraper.NewCollyFetcher(
		scraper.WithUserAgent(cfg.Scraper.UserAgent),
		scraper.WithProxy(cfg.Scraper.Proxy),
		scraper.WithInsecureSkipVerify(cfg.Scraper.InsecureSkipVerify),
		scraper.WithRequestTimeout(cfg.Scraper.Timeout),
		scraper.WithFetcherLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Scraper.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled for page fetches")
	}

	selector, err := scraper.NewSelector(cfg.Scraper.SelectorKind)
	if err != nil {
		return nil, err
	}

	prices := scraper.NewPriceScraper(fetcher, selector,
		scraper.WithURLTemplate(cfg.Product.URLTemplate),
		scraper.WithSelectorExpr(cfg.Scraper.Selector),
		scraper.WithGroupingSeparators(cfg.Scraper.GroupingSeparators),
		scraper.WithLogger(logger),
	)

	var notifier alert.Notifier
	if cfg.Alert.IsEnabled() {
		popts := []alert.PushoverOption{
			alert.WithAPIURL(cfg.Alert.APIURL),
			alert.WithTitle(cfg.Alert.Title),
			alert.WithLogger(logger),
		}
		if cfg.Alert.Timeout > 0 {
			popts = append(popts, alert.WithTimeout(cfg.Alert.Timeout))
		}
		notifier = alert.NewPushoverNotifier(cfg.Alert.Token, cfg.Alert.User, popts...)
	} else {
		notifier = alert.NewLogNotifier(logger)
	}

	store := history.NewFileStore(cfg.History.Path)

	return watcher.New(cfg.Product.ID, prices, store, notifier, watcher.WithLogger(logger)), nil
}

func printHistory(ctx context.Context, opts globalOptions, last int, stdout io.Writer) error {
	cfg, err := loadConfig(opts, "")
	if err != nil {
		return err
	}

	records, err := history.NewFileStore(cfg.History.Path).Load(ctx)
	if err != nil {
		return err
	}

	url := scraper.NewPriceScraper(nil, nil, scraper.WithURLTemplate(cfg.Product.URLTemplate)).TargetURL(cfg.Product.ID)
	return renderHistory(stdout, newHistoryContext(cfg.Product.ID, url, records, last))
}
