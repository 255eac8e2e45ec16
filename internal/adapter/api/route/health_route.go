package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupHealthRoutes configura o endpoint de saúde usado pela sonda dos terminais e as métricas
func SetupHealthRoutes(router gin.IRoutes, healthController *controller.HealthController) {
	router.GET("/health", healthController.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
