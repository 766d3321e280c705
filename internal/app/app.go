// Package app wires configuration, clients and services into one object
// shared by every CLI command.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/borsa/internal/clients/api"
	"github.com/bobmcallan/borsa/internal/clients/onesignal"
	"github.com/bobmcallan/borsa/internal/clients/stream"
	"github.com/bobmcallan/borsa/internal/common"
	"github.com/bobmcallan/borsa/internal/models"
	"github.com/bobmcallan/borsa/internal/services/portfolio"
	"github.com/bobmcallan/borsa/internal/services/quote"
	"github.com/bobmcallan/borsa/internal/services/watchlist"
)

// App holds all initialized clients and services.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	API              *api.Client
	QuoteService     *quote.Service
	PortfolioService *portfolio.Service
	WatchlistService *watchlist.Service
	PushClient       *onesignal.Client
	StartupTime      time.Time

	feed            *stream.Client
	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the first of: the given path, BORSA_CONFIG,
// borsa.toml next to the binary, borsa.toml in the working directory.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("BORSA_CONFIG"); p != "" {
		return p
	}
	p := filepath.Join(getBinaryDir(), "borsa.toml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return "borsa.toml"
}

// NewApp loads configuration and initializes every client and service.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging)), nil
}

// NewAppWithConfig initializes the app from an already loaded configuration.
func NewAppWithConfig(config *common.Config, logger *common.Logger) *App {
	startupStart := time.Now()

	apiClient := api.NewClient(
		api.WithBaseURL(config.API.BaseURL),
		api.WithToken(config.API.Token),
		api.WithLogger(logger),
		api.WithRateLimit(config.API.RateLimit),
		api.WithTimeout(config.API.GetTimeout()),
	)

	quoteService := quote.NewService(apiClient, config.Quotes.GetStaleTime(), logger)
	portfolioService := portfolio.NewService(apiClient, quoteService, config.Quotes.MaxConcurrent, logger)
	watchlistService := watchlist.NewService(apiClient, quoteService, config.Quotes.MaxConcurrent, logger)

	pushClient := onesignal.NewClient(config.Notifications.AppID, config.Notifications.RESTAPIKey,
		onesignal.WithBaseURL(config.Notifications.BaseURL),
		onesignal.WithTimeout(config.Notifications.GetTimeout()),
		onesignal.WithLogger(logger),
	)
	if err := pushClient.Init(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize push notifications")
	}

	a := &App{
		Config:           config,
		Logger:           logger,
		API:              apiClient,
		QuoteService:     quoteService,
		PortfolioService: portfolioService,
		WatchlistService: watchlistService,
		PushClient:       pushClient,
		StartupTime:      startupStart,
	}

	logger.Debug().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a
}

// Close releases all resources held by the App.
// Shutdown order: stop the scheduler, close the feed, close services.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close price feed")
		}
		a.feed = nil
	}
	a.PortfolioService.Close()
	a.WatchlistService.Close()
	a.PushClient.Close()
}

// UserID returns the user id carried by the configured API token
func (a *App) UserID() (string, error) {
	return common.UserIDFromToken(a.Config.API.Token)
}

// SaveNotificationPreferences tags the current user with prefs on the push
// service. A disabled push client succeeds without doing anything.
func (a *App) SaveNotificationPreferences(ctx context.Context, prefs models.NotificationPreferences) error {
	if !a.PushClient.Enabled() {
		return nil
	}
	userID, err := a.UserID()
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	return a.PushClient.SetUserTags(ctx, userID, prefs)
}

// NotificationsEnabled reports whether the current user has push enabled
func (a *App) NotificationsEnabled(ctx context.Context) bool {
	userID, err := a.UserID()
	if err != nil {
		return false
	}
	return a.PushClient.NotificationsEnabled(ctx, userID)
}
