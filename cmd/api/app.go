package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/hugohenrick/pdv-sync/docs"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/route"
	"github.com/hugohenrick/pdv-sync/internal/adapter/repository"
	"github.com/hugohenrick/pdv-sync/internal/config"
	"github.com/hugohenrick/pdv-sync/internal/infrastructure/database"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// App representa a aplicação e suas dependências
type App struct {
	cfg    *config.ServerConfig
	log    *logger.ZapLogger
	db     *database.PostgresDB
	router *gin.Engine
}

// NewApp cria uma nova instância do aplicativo
func NewApp(ctx context.Context, cfg *config.ServerConfig) (*App, error) {
	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	jwtService, err := newJWTService(cfg)
	if err != nil {
		return nil, err
	}
	if jwtService == nil {
		log.Warn("JWT_SECRET_KEY não configurado, rotas sem autenticação", "storage", cfg.StorageDriver)
	}

	app := &App{cfg: cfg, log: log}

	// Configurar armazenamento
	var (
		store  ledger.Store
		pinger controller.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store = repository.NewMemoryStore()
		log.Warn("Usando armazenamento em memória, os dados não serão persistidos")
	default:
		if cfg.AutoMigrate {
			if err := database.RunMigrations(&cfg.Database, log); err != nil {
				return nil, err
			}
		}
		db, err := database.NewPostgresDB(ctx, &cfg.Database, log)
		if err != nil {
			return nil, err
		}
		app.db = db
		store = repository.NewPostgresStore(db)
		pinger = db
	}

	service := ledger.NewService(store, ledger.WithLocation(loc), ledger.WithLogger(log))

	// Configurar router com modo correto
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(log.Zap(), time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(log.Zap(), true))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	route.ServerRoutes{
		Service:    service,
		JWTService: jwtService,
		Location:   loc,
		Pinger:     pinger,
	}.Register(router, cfg.BasePath)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	app.router = router
	return app, nil
}

// Start inicia o servidor HTTP e bloqueia até o contexto ser cancelado
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Address,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Servidor iniciado", "address", a.cfg.Address, "base_path", a.cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Encerrando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("erro ao encerrar servidor: %w", err)
	}
	return nil
}

// GetRouter retorna o router da aplicação
func (a *App) GetRouter() *gin.Engine {
	return a.router
}

// Close libera os recursos da aplicação
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	a.log.Sync()
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// newJWTService retorna nil quando não há segredo e o armazenamento é em memória
func newJWTService(cfg *config.ServerConfig) (*auth.JWTService, error) {
	if cfg.JWTSecretKey == "" {
		if cfg.StorageDriver == config.StorageMemory {
			return nil, nil
		}
		return nil, auth.ErrMissingJWTKey
	}
	return auth.NewJWTService(cfg.JWTSecretKey, cfg.JWTExpiration)
}
