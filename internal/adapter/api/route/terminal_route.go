package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/controller"
)

// SetupTerminalRoutes configura a API local consumida pelo front-end do caixa
func SetupTerminalRoutes(router *gin.RouterGroup, terminalController *controller.TerminalController) {
	terminalRouter := router.Group("/terminal")
	{
		terminalRouter.GET("/status", terminalController.Status)
		terminalRouter.PUT("/connectivity", terminalController.SetConnectivity)
		terminalRouter.POST("/sync", terminalController.Sync)
		terminalRouter.GET("/operations", terminalController.Operations)

		terminalRouter.POST("/sales", terminalController.EnqueueSale)

		terminalRouter.GET("/products", terminalController.ListProducts)
		terminalRouter.GET("/products/:id", terminalController.GetProduct)
		terminalRouter.POST("/products", terminalController.CreateProduct)
		terminalRouter.PUT("/products/:id", terminalController.UpdateProduct)
		terminalRouter.DELETE("/products/:id", terminalController.DeleteProduct)
	}
}
