package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/route"
	"github.com/hugohenrick/pdv-sync/internal/adapter/remote"
	"github.com/hugohenrick/pdv-sync/internal/config"
	"github.com/hugohenrick/pdv-sync/internal/terminal"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// App reúne o terminal e a API local usada pela interface do caixa
type App struct {
	cfg      *config.TerminalConfig
	log      *logger.ZapLogger
	terminal *terminal.Terminal
	router   *gin.Engine
}

// NewApp abre o armazenamento local e monta o terminal
func NewApp(cfg *config.TerminalConfig) (*App, error) {
	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := localstore.Open(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(remote.Config{
		BaseURL:    cfg.ServerURL,
		APIPrefix:  cfg.APIPrefix,
		Token:      cfg.Token,
		Timeout:    cfg.CallTimeout,
		MaxRetries: cfg.MaxRetries,
	}, log)

	term, err := terminal.New(store, client, terminal.Options{
		Logger:        log,
		CallTimeout:   cfg.CallTimeout,
		ProbeInterval: cfg.ProbeInterval,
		ProbeTimeout:  cfg.ProbeTimeout,
		SyncInterval:  cfg.SyncInterval,
		Retention:     cfg.Retention,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(log.Zap(), time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(log.Zap(), true))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	route.SetupTerminalRoutes(router.Group(""), controller.NewTerminalController(term, cfg.ShowCosts))

	return &App{cfg: cfg, log: log, terminal: term, router: router}, nil
}

// Start executa a sonda, a sincronização periódica e a API local até o contexto ser cancelado
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.ListenAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.terminal.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Terminal iniciado",
			"address", a.cfg.ListenAddress,
			"server", a.cfg.ServerURL,
			"pending", a.terminal.PendingSyncCount(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	a.log.Info("Encerrando terminal", "pending", a.terminal.PendingSyncCount())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("erro ao encerrar API local: %w", err)
	}

	wg.Wait()
	return serveErr
}

// Close fecha o armazenamento local
func (a *App) Close() {
	if err := a.terminal.Close(); err != nil {
		a.log.Error("Erro ao fechar armazenamento local", "error", err)
	}
	a.log.Sync()
}
