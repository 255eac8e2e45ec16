package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
)

// SetupUserRoutes configura as rotas para o módulo de usuários
func SetupUserRoutes(router *gin.RouterGroup, jwtService *auth.JWTService, userController *controller.UserController) {
	userRouter := router.Group("/users")
	{
		// Apenas administradores gerenciam usuários
		userRouter.Use(auth.JWTAuthMiddleware(jwtService))
		userRouter.Use(auth.RoleAuthMiddleware(user.RoleAdmin))

		userRouter.POST("", userController.Create)
		userRouter.GET("", userController.List)
		userRouter.GET("/:id", userController.GetByID)
	}
}
