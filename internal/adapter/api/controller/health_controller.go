package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
)

// Pinger verifica se uma dependência está acessível
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController responde ao endpoint de saúde usado pela sonda dos terminais
type HealthController struct {
	pinger Pinger
}

// NewHealthController cria uma nova instância de HealthController. pinger pode ser nil.
func NewHealthController(pinger Pinger) *HealthController {
	return &HealthController{pinger: pinger}
}

// Health verifica a saúde do servidor
// @Summary Saúde do servidor
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	if c.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := c.pinger.Ping(pingCtx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(http.StatusServiceUnavailable, "Banco de dados indisponível", err.Error()))
			return
		}
	}

	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
