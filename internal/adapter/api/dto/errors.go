package dto

import (
	"errors"
	"net/http"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
)

// Códigos estáveis de erro trafegados entre servidor e terminal
const (
	ReasonInvalidQuantity   = "INVALID_QUANTITY"
	ReasonProductNotFound   = "PRODUCT_NOT_FOUND"
	ReasonUserNotFound      = "USER_NOT_FOUND"
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
	ReasonInvalidLimit      = "INVALID_LIMIT"
	ReasonInvalidRange      = "INVALID_RANGE"
	ReasonInvalidDays       = "INVALID_DAYS"
	ReasonSaleNotFound      = "SALE_NOT_FOUND"
	ReasonReportNotFound    = "REPORT_NOT_FOUND"
	ReasonDuplicateSKU      = "DUPLICATE_SKU"
	ReasonEmptyName         = "EMPTY_NAME"
	ReasonNegativePrice     = "NEGATIVE_PRICE"
	ReasonNegativeStock     = "NEGATIVE_STOCK"
	ReasonDuplicateEmail    = "DUPLICATE_EMAIL"
	ReasonInvalidEmail      = "INVALID_EMAIL"
	ReasonInvalidRole       = "INVALID_ROLE"
	ReasonInvalidRequest    = "INVALID_REQUEST"
	ReasonUnauthorized      = "UNAUTHORIZED"
	ReasonForbidden         = "FORBIDDEN"
	ReasonSyncInProgress    = "SYNC_IN_PROGRESS"
	ReasonCanceled          = "CANCELED"
	ReasonInternal          = "INTERNAL_ERROR"
)

type errorMapping struct {
	err    error
	status int
	reason string
}

var errorMappings = []errorMapping{
	{sale.ErrInvalidQuantity, http.StatusBadRequest, ReasonInvalidQuantity},
	{product.ErrProductNotFound, http.StatusNotFound, ReasonProductNotFound},
	{user.ErrUserNotFound, http.StatusNotFound, ReasonUserNotFound},
	{sale.ErrInsufficientStock, http.StatusConflict, ReasonInsufficientStock},
	{sale.ErrInvalidLimit, http.StatusBadRequest, ReasonInvalidLimit},
	{sale.ErrInvalidRange, http.StatusBadRequest, ReasonInvalidRange},
	{report.ErrInvalidDays, http.StatusBadRequest, ReasonInvalidDays},
	{sale.ErrSaleNotFound, http.StatusNotFound, ReasonSaleNotFound},
	{report.ErrReportNotFound, http.StatusNotFound, ReasonReportNotFound},
	{product.ErrDuplicateSKU, http.StatusConflict, ReasonDuplicateSKU},
	{product.ErrEmptyName, http.StatusBadRequest, ReasonEmptyName},
	{product.ErrNegativePrice, http.StatusBadRequest, ReasonNegativePrice},
	{product.ErrNegativeStock, http.StatusBadRequest, ReasonNegativeStock},
	{user.ErrDuplicateEmail, http.StatusConflict, ReasonDuplicateEmail},
	{user.ErrInvalidEmail, http.StatusBadRequest, ReasonInvalidEmail},
	{user.ErrInvalidRole, http.StatusBadRequest, ReasonInvalidRole},
	{user.ErrEmptyName, http.StatusBadRequest, ReasonEmptyName},
}

// ErrorStatus retorna o status HTTP e o código estável de um erro de domínio
func ErrorStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.reason
		}
	}
	return http.StatusInternalServerError, ReasonInternal
}

// ErrorFromReason converte o código estável de volta para o erro de domínio.
// Retorna nil para códigos desconhecidos.
func ErrorFromReason(reason string) error {
	for _, m := range errorMappings {
		if m.reason == reason {
			return m.err
		}
	}
	return nil
}
