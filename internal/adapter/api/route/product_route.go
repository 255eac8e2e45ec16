package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
)

// SetupProductRoutes configura as rotas para o módulo de produtos
func SetupProductRoutes(router *gin.RouterGroup, jwtService *auth.JWTService, productController *controller.ProductController) {
	productRouter := router.Group("/products")
	productRouter.Use(auth.JWTAuthMiddleware(jwtService))
	{
		// Consulta liberada para qualquer usuário autenticado
		productRouter.GET("", productController.List)
		productRouter.GET("/:id", productController.GetByID)
		productRouter.GET("/sku/:sku", productController.GetBySKU)

		editors := productRouter.Group("")
		editors.Use(auth.RoleAuthMiddleware(user.RoleAdmin, user.RoleEditor))
		{
			editors.POST("", productController.Create)
			editors.PUT("/:id", productController.Update)
			editors.DELETE("/:id", productController.Delete)
		}
	}
}
