package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
)

// SetupReportRoutes configura as rotas de relatórios. O lucro só aparece para administradores.
func SetupReportRoutes(router *gin.RouterGroup, jwtService *auth.JWTService, reportController *controller.ReportController) {
	reportRouter := router.Group("/reports")
	reportRouter.Use(auth.JWTAuthMiddleware(jwtService))
	{
		reportRouter.GET("/daily", reportController.Daily)
		reportRouter.GET("/daily/:date", reportController.Day)
		reportRouter.GET("/range", reportController.Range)
		reportRouter.GET("/items", reportController.Items)
		reportRouter.GET("/items/:id", reportController.Item)
	}
}
