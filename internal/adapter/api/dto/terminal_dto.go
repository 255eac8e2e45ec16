package dto

import "time"

// EnqueueSaleRequest é o pedido de venda feito pela interface do caixa
type EnqueueSaleRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// SaleResultResponse informa se a venda foi gravada no servidor ou ficou na fila
type SaleResultResponse struct {
	Queued         bool   `json:"queued"`
	LocalID        uint64 `json:"local_id,omitempty"`
	TransactionID  string `json:"transaction_id,omitempty"`
	RemainingStock int64  `json:"remaining_stock"`
	TotalSale      int64  `json:"total_sale"`
	TotalProfit    *int64 `json:"total_profit,omitempty"`
}

// TerminalStatusResponse alimenta os indicadores de conexão e pendências
type TerminalStatusResponse struct {
	Online           bool `json:"online"`
	PendingSyncCount int  `json:"pending_sync_count"`
}

// ConnectivityRequest informa o sinal de rede detectado pelo sistema operacional
type ConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// OperationResponse representa uma operação da fila local
type OperationResponse struct {
	ID             uint64     `json:"id"`
	Kind           string     `json:"kind"`
	Status         string     `json:"status"`
	ProductID      string     `json:"product_id"`
	UserID         string     `json:"user_id,omitempty"`
	Quantity       int64      `json:"quantity,omitempty"`
	TotalSale      int64      `json:"total_sale,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
	RemoteID       string     `json:"remote_id,omitempty"`
	SkipReason     string     `json:"skip_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// SyncReportResponse resume uma sincronização manual
type SyncReportResponse struct {
	Synced    int  `json:"synced"`
	Skipped   int  `json:"skipped"`
	Deferred  int  `json:"deferred"`
	Purged    int  `json:"purged"`
	Refreshed bool `json:"refreshed"`
}
