package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/config"
	"github.com/MarcoPoloResearchLab/collectibles/internal/images"
	"github.com/MarcoPoloResearchLab/collectibles/internal/logging"
	"github.com/MarcoPoloResearchLab/collectibles/internal/remote"
	"github.com/MarcoPoloResearchLab/collectibles/internal/server"
	"github.com/MarcoPoloResearchLab/collectibles/internal/store"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	version = "dev"
	cfgFile string
)

func main() {
	rootCmd := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collectibles-dashboard",
		Short: "Dashboard service for a remote collectibles collection",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	return rootCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("api-base-url", defaults.GetString("api.base_url"), "Base URL of the collection API")
	flags.String("images-base-url", "", "Base URL of the image list (defaults to the API base URL)")
	flags.Duration("api-timeout", defaults.GetDuration("api.timeout"), "Timeout for each collection API call")
	flags.Int("page-size", defaults.GetInt("page.size"), "Initial number of cards per page")
	flags.IntSlice("page-size-options", defaults.GetIntSlice("page.size_options"), "Selectable page sizes")
	flags.Int("notifications-limit", defaults.GetInt("notifications.limit"), "Maximum pending notifications")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.GetString("log.format"), "Log format (json, console)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "api.base_url", "api-base-url")
	bindFlag(cmd, "images.base_url", "images-base-url")
	bindFlag(cmd, "api.timeout", "api-timeout")
	bindFlag(cmd, "page.size", "page-size")
	bindFlag(cmd, "page.size_options", "page-size-options")
	bindFlag(cmd, "notifications.limit", "notifications-limit")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	return viper.ReadInConfig()
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	collectionClient, err := remote.NewClient(remote.ClientConfig{
		HTTPClient: remote.NewHTTPClient(appConfig.APIBaseURL, appConfig.APITimeout),
		Logger:     logger.Named("remote"),
	})
	if err != nil {
		return err
	}

	imageProvider, err := images.NewProvider(images.ProviderConfig{
		HTTPClient: remote.NewHTTPClient(appConfig.ImagesBaseURL, appConfig.APITimeout),
		Logger:     logger.Named("images"),
	})
	if err != nil {
		return err
	}

	dispatcher := server.NewRealtimeDispatcher()
	recordStore, err := store.New(store.Config{
		Remote:            collectionClient,
		Images:            imageProvider,
		Publisher:         server.StorePublisher(dispatcher),
		IDProvider:        store.NewUUIDProvider(),
		Clock:             time.Now,
		Logger:            logger.Named("store"),
		PageSize:          appConfig.PageSize,
		PageSizeOptions:   appConfig.PageSizeOptions,
		NotificationLimit: appConfig.NotificationLimit,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Store:    recordStore,
		Realtime: dispatcher,
		Logger:   logger.Named("http"),
	})
	if err != nil {
		return err
	}

	go func() {
		recordStore.LoadImages(ctx)
		if err := recordStore.Refresh(ctx); err != nil && !errors.Is(err, store.ErrSuperseded) {
			logger.Warn("initial refresh failed", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with the service context; Shutdown would otherwise wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("api_base_url", appConfig.APIBaseURL),
			zap.String("images_base_url", appConfig.ImagesBaseURL))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
