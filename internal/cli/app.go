package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/config"
	"github.com/studiowebux/lmscli/internal/keybinds"
	"github.com/studiowebux/lmscli/internal/logging"
	"github.com/studiowebux/lmscli/internal/resource"
	"github.com/studiowebux/lmscli/internal/session"
	"github.com/studiowebux/lmscli/internal/storage"
	"github.com/studiowebux/lmscli/internal/views"
)

// GlobalOptions are the persistent flags shared by every command
type GlobalOptions struct {
	BaseURL     string
	LogLevel    string
	Insecure    bool
	MetricsAddr string
	Version     string

	// LogToFile sends logs to the log file instead of stderr (TUI mode)
	LogToFile bool
}

// App holds everything a command needs: settings, storage, session and client
type App struct {
	Settings  *config.Settings
	Logger    *slog.Logger
	Store     *storage.SQLiteKV
	Session   *session.Manager
	Client    *apiclient.Client
	Views     *views.Manager
	Resources map[string]resource.Definition

	// Expired receives refresh failures; the TUI turns them into a sign-in prompt
	Expired chan error

	metrics   *prometheus.Registry
	logFile   *os.File
	metricSrv *http.Server
}

// Open loads settings, opens the local database and builds the API client
func Open(ctx context.Context, opts GlobalOptions) (*App, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.LoadSettings(config.GetSettingsFilePath())
	if err != nil {
		return nil, err
	}
	if opts.BaseURL != "" {
		settings.BaseURL = opts.BaseURL
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}
	if opts.Insecure {
		settings.Insecure = true
	}
	if opts.MetricsAddr != "" {
		settings.MetricsAddr = opts.MetricsAddr
	}

	app := &App{Settings: settings, Expired: make(chan error, 1)}

	logging.SetLevelByName(settings.LogLevel)
	if opts.LogToFile {
		logger, f, err := logging.OpenFile(config.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		app.Logger, app.logFile = logger, f
	} else {
		app.Logger = logging.NewTerminal(os.Stderr)
	}

	resources, err := resource.Load(settings.Resources)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("invalid resources: %w", err)
	}
	app.Resources = resources

	store, err := storage.OpenSQLite(config.DatabasePath)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	app.Views = views.NewManager(store.DB())

	app.Session = session.NewManager(store)
	app.Session.SetLogger(app.Logger)
	if err := app.Session.Load(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	// A locale chosen with `lmscli locale` wins over the configured one
	if _, err := store.Get(ctx, session.KeyLocale); errors.Is(err, storage.ErrNotFound) && settings.Locale != "" {
		if _, err := app.Session.SetLocale(settings.Locale); err != nil {
			app.Logger.Warn("ignoring configured locale", "locale", settings.Locale, "error", err)
		}
	}

	app.metrics = prometheus.NewRegistry()
	client, err := apiclient.New(
		apiclient.Config{
			BaseURL:   settings.BaseURL,
			Timeout:   time.Duration(settings.Timeout),
			UserAgent: "lmscli/" + opts.Version,
			TLS: &apiclient.TLSConfig{
				InsecureSkipVerify: settings.Insecure,
				CAFile:             settings.CAFile,
			},
		},
		apiclient.WithAuth(app.Session),
		apiclient.WithLocale(app.Session),
		apiclient.WithLogger(app.Logger),
		apiclient.WithMetrics(apiclient.NewMetrics(app.metrics)),
		apiclient.WithRateLimit(settings.RateLimit.RPS, settings.RateLimit.Burst),
		apiclient.WithOnSessionExpired(app.reportExpired),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Client = client

	if settings.MetricsAddr != "" {
		app.serveMetrics(settings.MetricsAddr)
	}
	return app, nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// reportExpired hands a refresh failure to whoever listens, never blocking
// the request path
func (a *App) reportExpired(err error) {
	select {
	case a.Expired <- err:
	default:
	}
}

// serveMetrics exposes client metrics on addr until the app closes
func (a *App) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	a.metricSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metricSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.Logger.Info("serving metrics", "addr", addr)
}

// Keybinds loads the user's keybindings over the defaults and logs
// validation warnings
func (a *App) Keybinds() (*keybinds.Registry, error) {
	registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return nil, err
	}
	result := keybinds.NewValidator().ValidateRegistry(registry)
	for _, w := range result.Warnings {
		a.Logger.Warn("keybinding", "context", w.Context, "key", w.Key, "message", w.Message)
	}
	if len(result.Errors) > 0 {
		e := result.Errors[0]
		return nil, fmt.Errorf("invalid keybinding %s in %s: %s", e.Key, e.Context, e.Message)
	}
	return registry, nil
}

// Close releases the database, the log file and the metrics listener
func (a *App) Close() error {
	var errs []error
	if a.metricSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		errs = append(errs, a.metricSrv.Shutdown(ctx))
		cancel()
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
