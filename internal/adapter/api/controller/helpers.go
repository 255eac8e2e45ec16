package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/pkg/auth"
)

func respondError(ctx *gin.Context, err error) {
	resp := dto.NewDomainErrorResponse(err)
	ctx.JSON(resp.Code, resp)
}

func respondBadRequest(ctx *gin.Context, message, details string) {
	resp := dto.NewErrorResponse(http.StatusBadRequest, message, details)
	resp.Reason = dto.ReasonInvalidRequest
	ctx.JSON(http.StatusBadRequest, resp)
}

// showCosts indica se o usuário atual pode ver preço de compra e lucro
func showCosts(ctx *gin.Context) bool {
	role, ok := auth.CurrentRole(ctx)
	return ok && role.CanSeeCosts()
}

// queryInt lê um parâmetro inteiro opcional
func queryInt(ctx *gin.Context, name string, def int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(ctx, "Parâmetro inválido", name+" deve ser um número inteiro")
		return 0, false
	}
	return v, true
}

// parseTime aceita RFC3339, data (2006-01-02) ou milissegundos desde a época
func parseTime(raw string, loc *time.Location) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}

func queryTime(ctx *gin.Context, name string, loc *time.Location) (time.Time, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		respondBadRequest(ctx, "Parâmetro obrigatório", name+" não fornecido")
		return time.Time{}, false
	}
	t, err := parseTime(raw, loc)
	if err != nil {
		respondBadRequest(ctx, "Data inválida", err.Error())
		return time.Time{}, false
	}
	return t, true
}
