// Command wdctl drives browser sessions on a remote WebDriver end from the
// shell. Sessions outlive a single invocation: their ids are kept in Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	webdriver "github.com/SeleniumHQ/selenium-sub047"
	"github.com/SeleniumHQ/selenium-sub047/internal/config"
	"github.com/SeleniumHQ/selenium-sub047/internal/sessionstore"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	// flags
	configPath  string
	hubURL      string
	verbose     bool
	metricsAddr string

	cfg      *config.Config
	logger   *zap.Logger
	store    *sessionstore.Store
	registry *prometheus.Registry
	metrics  *webdriver.Metrics
	server   *http.Server
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wdctl",
		Short: "Drive browser sessions on a remote WebDriver end",
		Long: `wdctl talks the JSON wire protocol to a Selenium hub or a driver service.

Sessions started with "wdctl session start" are recorded in Redis, so later
invocations can address them by id.

Example:
  id=$(wdctl session start --browser firefox)
  wdctl open $id http://golang.org
  wdctl title $id
  wdctl session quit $id`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.hubURL, "hub", "", "remote end URL (overrides config)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every command")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(newStatusCmd(a), newSessionCmd(a))
	root.AddCommand(newPageCmds(a)...)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.hubURL != "" {
		cfg.HubURL = a.hubURL
	}
	if a.metricsAddr != "" {
		cfg.MetricsAddr = a.metricsAddr
	}
	a.cfg = cfg

	if a.logger == nil {
		zc := zap.NewProductionConfig()
		if a.verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		a.logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = webdriver.NewMetrics(a.registry)
	if cfg.MetricsAddr != "" {
		if err := a.serveMetrics(cfg.MetricsAddr); err != nil {
			return err
		}
	}

	a.store = sessionstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		sessionstore.WithTTL(cfg.SessionTTL))
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// close releases what setup acquired. It runs even when a command fails.
func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
		a.server = nil
	}
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}

// executor returns an executor for hubURL, or the configured hub when empty.
func (a *app) executor(hubURL string) (*webdriver.HTTPCommandExecutor, error) {
	if hubURL == "" {
		hubURL = a.cfg.HubURL
	}
	return webdriver.NewHTTPCommandExecutor(hubURL,
		webdriver.WithLogger(a.logger),
		webdriver.WithMetrics(a.metrics),
	)
}

// commandContext bounds one command by the configured timeout.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func run(ctx context.Context, a *app, stdout io.Writer, args []string) error {
	root := newRootCmd(a)
	root.SetOut(stdout)
	root.SetArgs(args)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, &app{}, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
