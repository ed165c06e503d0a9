package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frontend/internal/address"
	"frontend/internal/apiclient"
	intconfig "frontend/internal/config"
	"frontend/internal/forms"
	router "frontend/internal/http"
	"frontend/internal/http/handlers"
	"frontend/internal/repositories"
	"frontend/internal/secure"
	"frontend/internal/session"
	"frontend/internal/transitions"
	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	utils.SetLogger(logger)

	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	api := apiclient.New(env.APIBaseURL, apiclient.Options{
		Timeout:   env.APITimeout,
		RateLimit: env.APIRateLimit,
		RateBurst: env.APIRateBurst,
		Logger:    logger,
	})

	var provider session.Provider
	var onSignOut func(string)
	if env.SessionSecret != "" {
		provider = session.TokenProvider{Secret: []byte(env.SessionSecret), CookieName: env.SessionCookie}
	} else {
		remote := session.NewRemoteProvider(api, env.SessionCookie, 0, 0)
		provider = remote
		onSignOut = remote.Forget
	}

	drafts, err := draftStore(env)
	if err != nil {
		logger.Fatal("draft store unavailable", zap.String("store", env.DraftStore), zap.Error(err))
	}
	defer intconfig.Close()

	var geocoder address.Service = address.Noop{}
	if env.GeocoderURL != "" {
		geocoder = address.NewHTTPService(env.GeocoderURL, 5*time.Second)
	}

	hs := &handlers.Handlers{
		API:            api,
		PageSize:       env.PageSize,
		InFlight:       transitions.NewInFlight(),
		Mutator:        transitions.APIMutator(api),
		Drafts:         drafts,
		Submitter:      forms.APISubmitter(api),
		Address:        geocoder,
		MaxUploadBytes: env.MaxUploadBytes,
		SessionCookie:  env.SessionCookie,
		CookieSecure:   env.CookieSecure,
		SignInPath:     env.SignInPath,
		OnSignOut:      onSignOut,
	}
	guard := session.Guard{Provider: provider, SignInPath: env.SignInPath}
	r := router.NewRouter(env, hs, guard, logger)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr), zap.String("api", env.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

// draftStore picks where unfinished forms live. Drafts are sealed when a
// passphrase is configured.
func draftStore(env intconfig.Env) (forms.DraftStore, error) {
	codec := forms.Codec{}
	if env.DraftPassphrase != "" {
		box, err := secure.NewBox(env.DraftPassphrase)
		if err != nil {
			return nil, err
		}
		codec.Box = box
	}

	switch env.DraftStore {
	case "mysql":
		db, err := intconfig.ConnectDB(env.MySQLDSN)
		if err != nil {
			return nil, err
		}
		repo := &repositories.DraftRepository{DB: db, Codec: codec, TTL: env.DraftTTL}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if n, err := repo.PurgeExpired(ctx); err == nil && n > 0 {
			utils.Logger().Info("purged expired drafts", zap.Int64("count", n))
		}
		return repo, nil
	case "redis":
		client, err := intconfig.ConnectRedis(env.RedisAddr, env.RedisPassword)
		if err != nil {
			return nil, err
		}
		return &repositories.DraftCache{Client: client, Codec: codec, TTL: env.DraftTTL}, nil
	default:
		return forms.NewMemoryStore(env.DraftTTL, codec), nil
	}
}
