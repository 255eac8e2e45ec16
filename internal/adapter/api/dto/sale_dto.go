package dto

import (
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
)

// RecordSaleRequest representa o pedido de registro de venda
type RecordSaleRequest struct {
	ProductID      string `json:"product_id" binding:"required"`
	UserID         string `json:"user_id" binding:"required"`
	Quantity       int64  `json:"quantity"`
	IdempotencyKey string `json:"idempotency_key,omitempty" binding:"max=100"`
}

// TransactionResponse representa uma venda nas respostas
type TransactionResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	UserID         string    `json:"user_id"`
	Quantity       int64     `json:"quantity"`
	TotalSale      int64     `json:"total_sale"`
	TotalProfit    *int64    `json:"total_profit,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

// SaleReceiptResponse é a resposta do registro de venda
type SaleReceiptResponse struct {
	TransactionID  string               `json:"transaction_id"`
	RemainingStock int64                `json:"remaining_stock"`
	Replayed       bool                 `json:"replayed"`
	Transaction    *TransactionResponse `json:"transaction,omitempty"`
}

// DetailedSaleResponse é uma venda com nomes de produto e usuário
type DetailedSaleResponse struct {
	TransactionResponse
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	UserName    string `json:"user_name"`
}

// ToTransactionResponse converte uma venda para resposta
func ToTransactionResponse(t *sale.Transaction, showCosts bool) TransactionResponse {
	resp := TransactionResponse{
		ID:             t.ID,
		ProductID:      t.ProductID,
		UserID:         t.UserID,
		Quantity:       t.Quantity,
		TotalSale:      t.TotalSale,
		Timestamp:      t.Timestamp,
		IdempotencyKey: t.IdempotencyKey,
	}
	if showCosts {
		profit := t.TotalProfit
		resp.TotalProfit = &profit
	}
	return resp
}

// ToTransactionResponses converte uma lista de vendas
func ToTransactionResponses(list []*sale.Transaction, showCosts bool) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, ToTransactionResponse(t, showCosts))
	}
	return out
}

// ToDetailedSaleResponses converte a lista de vendas recentes
func ToDetailedSaleResponses(list []*sale.Detailed, showCosts bool) []DetailedSaleResponse {
	out := make([]DetailedSaleResponse, 0, len(list))
	for _, d := range list {
		out = append(out, DetailedSaleResponse{
			TransactionResponse: ToTransactionResponse(&d.Transaction, showCosts),
			ProductName:         d.ProductName,
			ProductSKU:          d.ProductSKU,
			UserName:            d.UserName,
		})
	}
	return out
}
