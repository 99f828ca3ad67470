package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-relay/domain/repository"
	"social-relay/infrastructure/cache"
	"social-relay/infrastructure/clients/linkedin"
	"social-relay/infrastructure/clients/twitter"
	"social-relay/infrastructure/clients/youtube"
	"social-relay/infrastructure/configuration"
	"social-relay/infrastructure/logger"
	"social-relay/infrastructure/media"
	"social-relay/infrastructure/persistence"
	"social-relay/infrastructure/pubsub"
	"social-relay/infrastructure/realtime"
	"social-relay/infrastructure/servicebus"
	"social-relay/infrastructure/session"
	httpHandler "social-relay/interfaces/http"
	"social-relay/interfaces/middleware"
	"social-relay/server"
	"social-relay/usecase"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	figure.NewFigure("social-relay", "", true).Print()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configuration.C
	logConfigState(cfg)

	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	registry := usecase.NewProviderRegistry(initiateProviders(ctx, cfg, timeout)...)
	if len(registry.Names()) == 0 {
		logger.GetLogger().Warn("No provider credentials configured; only /healthz and /providers will answer")
	}

	sessionStore := session.NewMemoryStore()
	stager, err := media.NewStager(afero.NewOsFs(), cfg.Media.UploadDir, cfg.Media.MaxBytes)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Cannot prepare media upload directory")
	}

	history, closeHistory, err := persistence.NewPostHistory(ctx, cfg.Database)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("vendor", cfg.Database.Vendor).
			Warn("Post history not available - continuing without history")
		history = persistence.NewNoopPostHistory()
	}
	defer func() {
		if err := closeHistory(); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing post history")
		}
	}()

	hub := realtime.NewPostHub()
	sinks, closeSinks := initiateEventSinks(ctx, cfg)
	defer closeSinks()
	events := usecase.NewPostEventFanout(append([]repository.IPostEvents{hub}, sinks...)...)

	authUsecase := usecase.NewAuthUsecase(registry, sessionStore, timeout)
	uploadTimeout := time.Duration(cfg.Media.UploadTimeoutSeconds) * time.Second
	publishUsecase := usecase.NewPublishUsecase(registry, sessionStore, stager, history, events, timeout, uploadTimeout)

	router := server.InitiateRouter(
		cfg.App.FrontendURL,
		middleware.NewCookieStore(middleware.SessionOptions{Secret: cfg.App.SessionSecret, Secure: cfg.App.CookieSecure}),
		sessionStore,
		registry,
		httpHandler.NewAuthHandler(authUsecase, registry, cfg.App.FrontendURL),
		httpHandler.NewPostHandler(publishUsecase),
		httpHandler.NewHealthHandler(),
		hub,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.GetLogger().
			WithField("port", cfg.App.Port).
			WithField("tls", cfg.App.TLSEnabled).
			WithField("providers", registry.Names()).
			Info("Starting application")
		var err error
		if cfg.App.TLSEnabled && cfg.App.TLSCertFile != "" && cfg.App.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.App.TLSCertFile, cfg.App.TLSKeyFile)
		} else {
			if cfg.App.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// initiateProviders builds a client for every provider whose credentials are configured.
func initiateProviders(ctx context.Context, cfg configuration.Config, timeout time.Duration) []repository.ISocialProvider {
	var providers []repository.ISocialProvider
	if c := cfg.OAuth.LinkedIn; c.Configured() {
		providers = append(providers, linkedin.NewLinkedInClient(ctx, linkedin.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURI,
			Timeout:      timeout,
		}))
	}
	if c := cfg.OAuth.Twitter; c.Configured() {
		providers = append(providers, twitter.NewTwitterClient(twitter.Config{
			ConsumerKey:    c.ClientID,
			ConsumerSecret: c.ClientSecret,
			CallbackURL:    c.RedirectURI,
			Timeout:        timeout,
		}))
	}
	if c := cfg.OAuth.YouTube; c.Configured() {
		providers = append(providers, youtube.NewYouTubeClient(youtube.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURI,
			Timeout:      timeout,
		}))
	}
	return providers
}

// initiateEventSinks connects the configured external sinks. A sink that fails to connect is logged and skipped.
func initiateEventSinks(ctx context.Context, cfg configuration.Config) ([]repository.IPostEvents, func()) {
	var sinks []repository.IPostEvents
	var closers []func() error

	for _, name := range cfg.Events.Sinks {
		lg := logger.GetLogger().WithField("sink", name)
		switch name {
		case "pubsub":
			client, err := gpubsub.NewClient(ctx, cfg.Pubsub.ProjectID)
			if err != nil {
				lg.WithField("error", err).Error("Error while instantiate PubSub")
				continue
			}
			sinks = append(sinks, pubsub.NewPostEventPublisher(client, cfg.Events.Topic))
			closers = append(closers, client.Close)
		case "servicebus":
			client, err := servicebus.NewServiceBusClient(cfg.ServiceBus.Namespace)
			if err != nil {
				lg.WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
				continue
			}
			sender, err := servicebus.NewPostEventSender(client, cfg.Events.Topic)
			if err != nil {
				_ = client.Close(ctx)
				continue
			}
			sinks = append(sinks, sender)
			closers = append(closers, func() error { return sender.Close(context.Background()) })
		case "redis":
			rdb, err := cache.NewRedisClient(ctx, cfg.RedisClient)
			if err != nil {
				lg.WithField("error", err).Warn("Redis not available - continuing without Redis events")
				continue
			}
			sinks = append(sinks, cache.NewPostEventChannel(rdb, cfg.Events.Topic))
			closers = append(closers, rdb.Close)
		default:
			lg.Warn("Unknown event sink ignored")
			continue
		}
		lg.Info("Event sink connected")
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.GetLogger().WithField("error", err).Error("Error while closing event sink")
			}
		}
	}
}

func logConfigState(cfg configuration.Config) {
	for _, f := range []string{"config.env", ".env"} {
		_, err := os.Stat(f)
		logger.GetLogger().WithField("file", f).WithField("present", err == nil).Info("Env file check")
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"frontendURL":            cfg.App.FrontendURL,
		"sessionSecretSet":       cfg.App.SessionSecret != "",
		"cookieSecure":           cfg.App.CookieSecure,
		"linkedinEnabled":        cfg.OAuth.LinkedIn.Configured(),
		"twitterEnabled":         cfg.OAuth.Twitter.Configured(),
		"youtubeEnabled":         cfg.OAuth.YouTube.Configured(),
		"dbVendor":               cfg.Database.Vendor,
		"eventSinks":             cfg.Events.Sinks,
		"providerTimeoutSeconds": cfg.Provider.TimeoutSeconds,
		"uploadTimeoutSeconds":   cfg.Media.UploadTimeoutSeconds,
	}).Info("Loaded configuration state")
}
