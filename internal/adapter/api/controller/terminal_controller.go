package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/terminal"
	"github.com/hugohenrick/pdv-sync/internal/terminal/orchestrator"
	"github.com/hugohenrick/pdv-sync/internal/terminal/queue"
)

// TerminalController expõe ao front-end do caixa as operações do terminal local
type TerminalController struct {
	terminal  *terminal.Terminal
	showCosts bool
}

// NewTerminalController cria uma nova instância de TerminalController.
// showCosts define se preços de compra e lucro aparecem nas respostas.
func NewTerminalController(t *terminal.Terminal, showCosts bool) *TerminalController {
	return &TerminalController{terminal: t, showCosts: showCosts}
}

// Status retorna a conexão e a quantidade de operações pendentes
// @Summary Situação do terminal
// @Tags terminal
// @Produce json
// @Success 200 {object} dto.TerminalStatusResponse
// @Router /terminal/status [get]
func (c *TerminalController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.TerminalStatusResponse{
		Online:           c.terminal.IsOnline(),
		PendingSyncCount: c.terminal.PendingSyncCount(),
	})
}

// SetConnectivity aplica o sinal de rede informado pela interface
// @Summary Informa a conectividade
// @Tags terminal
// @Accept json
// @Produce json
// @Param connectivity body dto.ConnectivityRequest true "Sinal de rede"
// @Success 200 {object} dto.TerminalStatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /terminal/connectivity [put]
func (c *TerminalController) SetConnectivity(ctx *gin.Context) {
	var request dto.ConnectivityRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	c.terminal.SetOnline(ctx, *request.Online)
	c.Status(ctx)
}

// EnqueueSale registra uma venda online ou na fila local
// @Summary Registra uma venda no caixa
// @Description Online a venda vai direto ao servidor. Offline fica na fila e o estoque local é baixado.
// @Tags terminal
// @Accept json
// @Produce json
// @Param sale body dto.EnqueueSaleRequest true "Dados da venda"
// @Success 201 {object} dto.SaleResultResponse "Venda gravada no servidor"
// @Success 202 {object} dto.SaleResultResponse "Venda na fila"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /terminal/sales [post]
func (c *TerminalController) EnqueueSale(ctx *gin.Context) {
	var request dto.EnqueueSaleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	result, err := c.terminal.EnqueueSale(ctx, request.ProductID, request.UserID, request.Quantity)
	if err != nil {
		respondError(ctx, err)
		return
	}

	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	ctx.JSON(status, toSaleResultResponse(result, c.showCosts))
}

// ListProducts lista os produtos do cache local
// @Summary Produtos do cache local
// @Tags terminal
// @Produce json
// @Success 200 {array} dto.ProductResponse
// @Router /terminal/products [get]
func (c *TerminalController) ListProducts(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.ToProductResponses(c.terminal.Products(), c.showCosts))
}

// GetProduct busca um produto no cache local
// @Summary Produto do cache local
// @Tags terminal
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /terminal/products/{id} [get]
func (c *TerminalController) GetProduct(ctx *gin.Context) {
	p, err := c.terminal.Product(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToProductResponse(p, c.showCosts))
}

// CreateProduct cadastra um produto, com id provisório quando offline
// @Summary Cadastra produto pelo caixa
// @Tags terminal
// @Accept json
// @Produce json
// @Param product body dto.CreateProductRequest true "Dados do produto"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /terminal/products [post]
func (c *TerminalController) CreateProduct(ctx *gin.Context) {
	var request dto.CreateProductRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	p, err := c.terminal.CreateProduct(ctx, request.ToDraft())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToProductResponse(p, c.showCosts))
}

// UpdateProduct altera um produto
// @Summary Altera produto pelo caixa
// @Tags terminal
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Param product body dto.UpdateProductRequest true "Campos alterados"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /terminal/products/{id} [put]
func (c *TerminalController) UpdateProduct(ctx *gin.Context) {
	var request dto.UpdateProductRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	p, err := c.terminal.UpdateProduct(ctx, ctx.Param("id"), request.ToDraft())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToProductResponse(p, c.showCosts))
}

// DeleteProduct remove um produto
// @Summary Remove produto pelo caixa
// @Tags terminal
// @Param id path string true "ID do produto"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /terminal/products/{id} [delete]
func (c *TerminalController) DeleteProduct(ctx *gin.Context) {
	err := c.terminal.DeleteProduct(ctx, ctx.Param("id"))
	if errors.Is(err, orchestrator.ErrDrainInProgress) {
		respondSyncInProgress(ctx)
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Operations lista a fila local
// @Summary Fila de operações
// @Tags terminal
// @Produce json
// @Success 200 {array} dto.OperationResponse
// @Router /terminal/operations [get]
func (c *TerminalController) Operations(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, toOperationResponses(c.terminal.Operations()))
}

// Sync força uma sincronização imediata
// @Summary Sincroniza agora
// @Tags terminal
// @Produce json
// @Success 200 {object} dto.SyncReportResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /terminal/sync [post]
func (c *TerminalController) Sync(ctx *gin.Context) {
	report, err := c.terminal.SyncNow(ctx)
	if errors.Is(err, orchestrator.ErrDrainInProgress) {
		respondSyncInProgress(ctx)
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SyncReportResponse{
		Synced:    report.Synced,
		Skipped:   report.Skipped,
		Deferred:  report.Deferred,
		Purged:    report.Purged,
		Refreshed: report.Refreshed,
	})
}

func toSaleResultResponse(r *terminal.SaleResult, showCosts bool) dto.SaleResultResponse {
	resp := dto.SaleResultResponse{
		Queued:         r.Queued,
		LocalID:        r.LocalID,
		TransactionID:  r.TransactionID,
		RemainingStock: r.RemainingStock,
		TotalSale:      r.TotalSale,
	}
	if showCosts {
		profit := r.TotalProfit
		resp.TotalProfit = &profit
	}
	return resp
}

func toOperationResponses(ops []queue.Operation) []dto.OperationResponse {
	out := make([]dto.OperationResponse, 0, len(ops))
	for _, op := range ops {
		out = append(out, dto.OperationResponse{
			ID:             op.ID,
			Kind:           string(op.Kind),
			Status:         string(op.Status),
			ProductID:      op.ProductID,
			UserID:         op.UserID,
			Quantity:       op.Quantity,
			TotalSale:      op.TotalSale,
			IdempotencyKey: op.IdempotencyKey,
			RemoteID:       op.RemoteID,
			SkipReason:     op.SkipReason,
			CreatedAt:      op.CreatedAt,
			ResolvedAt:     op.ResolvedAt,
		})
	}
	return out
}

func respondSyncInProgress(ctx *gin.Context) {
	resp := dto.NewErrorResponse(http.StatusConflict, "Sincronização em andamento", "")
	resp.Reason = dto.ReasonSyncInProgress
	ctx.JSON(http.StatusConflict, resp)
}
