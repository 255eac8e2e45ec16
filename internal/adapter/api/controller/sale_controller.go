package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
)

// SaleController gerencia as requisições do livro-razão de vendas
type SaleController struct {
	service  *ledger.Service
	location *time.Location
}

// NewSaleController cria uma nova instância de SaleController
func NewSaleController(service *ledger.Service, location *time.Location) *SaleController {
	return &SaleController{service: service, location: location}
}

// Record registra uma venda
// @Summary Registra uma venda
// @Description Grava a venda, baixa o estoque e atualiza o relatório do dia de forma atômica.
// @Description Repetir a mesma idempotency_key devolve a venda original.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sale body dto.RecordSaleRequest true "Dados da venda"
// @Success 201 {object} dto.SaleReceiptResponse
// @Success 200 {object} dto.SaleReceiptResponse "Venda repetida"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /sales [post]
func (c *SaleController) Record(ctx *gin.Context) {
	var request dto.RecordSaleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	receipt, err := c.service.RecordSale(ctx, ledger.SaleRequest{
		ProductID:      request.ProductID,
		UserID:         request.UserID,
		Quantity:       request.Quantity,
		IdempotencyKey: request.IdempotencyKey,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	tx := dto.ToTransactionResponse(receipt.Transaction, showCosts(ctx))
	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}

	ctx.JSON(status, dto.SaleReceiptResponse{
		TransactionID:  receipt.TransactionID,
		RemainingStock: receipt.RemainingStock,
		Replayed:       receipt.Replayed,
		Transaction:    &tx,
	})
}

// ListRecent lista as vendas mais recentes
// @Summary Lista as vendas recentes
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Quantidade máxima (1 a 100)" default(50)
// @Success 200 {array} dto.DetailedSaleResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /sales/recent [get]
func (c *SaleController) ListRecent(ctx *gin.Context) {
	limit, ok := queryInt(ctx, "limit", 50)
	if !ok {
		return
	}

	list, err := c.service.ListRecentSales(ctx, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDetailedSaleResponses(list, showCosts(ctx)))
}

// ByProduct lista as vendas de um produto
// @Summary Lista as vendas de um produto
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param limit query int false "Quantidade máxima" default(50)
// @Success 200 {array} dto.TransactionResponse
// @Router /sales/product/{id} [get]
func (c *SaleController) ByProduct(ctx *gin.Context) {
	limit, ok := queryInt(ctx, "limit", 0)
	if !ok {
		return
	}

	list, err := c.service.SalesByProduct(ctx, ctx.Param("id"), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponses(list, showCosts(ctx)))
}

// ByUser lista as vendas de um usuário
// @Summary Lista as vendas de um usuário
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do usuário"
// @Param limit query int false "Quantidade máxima" default(50)
// @Success 200 {array} dto.TransactionResponse
// @Router /sales/user/{id} [get]
func (c *SaleController) ByUser(ctx *gin.Context) {
	limit, ok := queryInt(ctx, "limit", 0)
	if !ok {
		return
	}

	list, err := c.service.SalesByUser(ctx, ctx.Param("id"), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponses(list, showCosts(ctx)))
}

// ByRange lista as vendas de um intervalo
// @Summary Lista as vendas de um intervalo
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param start query string true "Início (RFC3339, 2006-01-02 ou milissegundos)"
// @Param end query string true "Fim (RFC3339, 2006-01-02 ou milissegundos)"
// @Param limit query int false "Quantidade máxima" default(50)
// @Success 200 {array} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /sales/range [get]
func (c *SaleController) ByRange(ctx *gin.Context) {
	start, ok := queryTime(ctx, "start", c.location)
	if !ok {
		return
	}
	end, ok := queryTime(ctx, "end", c.location)
	if !ok {
		return
	}
	limit, ok := queryInt(ctx, "limit", 0)
	if !ok {
		return
	}

	list, err := c.service.SalesByDateRange(ctx, start, end, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponses(list, showCosts(ctx)))
}
