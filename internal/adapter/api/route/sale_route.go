package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
)

// SetupSaleRoutes configura as rotas para o módulo de vendas
func SetupSaleRoutes(router *gin.RouterGroup, jwtService *auth.JWTService, saleController *controller.SaleController) {
	saleRouter := router.Group("/sales")
	saleRouter.Use(auth.JWTAuthMiddleware(jwtService))
	{
		saleRouter.POST("", auth.RoleAuthMiddleware(user.RoleAdmin, user.RoleEditor), saleController.Record)

		saleRouter.GET("/recent", saleController.ListRecent)
		saleRouter.GET("/product/:id", saleController.ByProduct)
		saleRouter.GET("/user/:id", saleController.ByUser)
		saleRouter.GET("/range", saleController.ByRange)
	}
}
