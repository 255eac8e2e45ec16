package route

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
)

// ServerRoutes reúne as dependências das rotas do servidor
type ServerRoutes struct {
	Service    *ledger.Service
	JWTService *auth.JWTService
	Location   *time.Location
	Pinger     controller.Pinger
}

// Register registra as rotas do servidor no router
func (s ServerRoutes) Register(router *gin.Engine, basePath string) {
	SetupHealthRoutes(router, controller.NewHealthController(s.Pinger))

	api := router.Group(basePath)
	SetupProductRoutes(api, s.JWTService, controller.NewProductController(s.Service))
	SetupSaleRoutes(api, s.JWTService, controller.NewSaleController(s.Service, s.Location))
	SetupReportRoutes(api, s.JWTService, controller.NewReportController(s.Service, s.Location))
	SetupUserRoutes(api, s.JWTService, controller.NewUserController(s.Service))
}
