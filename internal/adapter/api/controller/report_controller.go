package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
)

// ReportController gerencia as requisições de relatórios
type ReportController struct {
	service  *ledger.Service
	location *time.Location
}

// NewReportController cria uma nova instância de ReportController
func NewReportController(service *ledger.Service, location *time.Location) *ReportController {
	return &ReportController{service: service, location: location}
}

// Daily lista os relatórios diários
// @Summary Estatísticas diárias
// @Description Relatórios dos últimos dias, mais recentes primeiro. Lucro só para administradores.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Quantidade de dias (máximo 365)" default(30)
// @Success 200 {array} dto.DailyReportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /reports/daily [get]
func (c *ReportController) Daily(ctx *gin.Context) {
	days, ok := queryInt(ctx, "days", 30)
	if !ok {
		return
	}

	list, err := c.service.DailyStats(ctx, days)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDailyReportResponses(list, showCosts(ctx)))
}

// Day retorna o relatório de um dia
// @Summary Relatório de um dia
// @Description Com recompute=true o relatório é recalculado a partir das vendas registradas
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param date path string true "Dia (2006-01-02)"
// @Param recompute query bool false "Recalcular a partir do livro-razão"
// @Success 200 {object} dto.DailyReportResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /reports/daily/{date} [get]
func (c *ReportController) Day(ctx *gin.Context) {
	day, err := parseTime(ctx.Param("date"), c.location)
	if err != nil {
		respondBadRequest(ctx, "Data inválida", err.Error())
		return
	}

	fetch := c.service.DailyReport
	if ctx.Query("recompute") == "true" {
		fetch = c.service.RecomputeDailyReport
	}

	r, err := fetch(ctx, day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDailyReportResponse(r, showCosts(ctx)))
}

// Range resume um intervalo de dias
// @Summary Estatísticas de um intervalo
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start query string true "Início"
// @Param end query string true "Fim"
// @Success 200 {object} dto.RangeStatsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /reports/range [get]
func (c *ReportController) Range(ctx *gin.Context) {
	start, ok := queryTime(ctx, "start", c.location)
	if !ok {
		return
	}
	end, ok := queryTime(ctx, "end", c.location)
	if !ok {
		return
	}

	stats, err := c.service.StatsForRange(ctx, start, end)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToRangeStatsResponse(stats, showCosts(ctx)))
}

// Items lista os totais vendidos por produto
// @Summary Vendas por produto
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ItemSalesResponse
// @Router /reports/items [get]
func (c *ReportController) Items(ctx *gin.Context) {
	items, err := c.service.SalesByItem(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToItemSalesResponses(items, showCosts(ctx)))
}

// Item retorna os totais vendidos de um produto
// @Summary Vendas de um produto
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 200 {object} dto.ItemSalesResponse
// @Router /reports/items/{id} [get]
func (c *ReportController) Item(ctx *gin.Context) {
	item, err := c.service.SalesForProduct(ctx, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToItemSalesResponse(item, showCosts(ctx)))
}
