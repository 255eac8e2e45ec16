package ledger

import (
	"context"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
)

// ListRecentSales lista as últimas vendas. limit deve ser positivo e é limitado a 100.
func (s *Service) ListRecentSales(ctx context.Context, limit int) ([]*sale.Detailed, error) {
	if limit <= 0 {
		return nil, sale.ErrInvalidLimit
	}
	return s.store.ListRecentSales(ctx, sale.ClampLimit(limit))
}

// SalesByProduct lista as vendas de um produto
func (s *Service) SalesByProduct(ctx context.Context, productID string, limit int) ([]*sale.Transaction, error) {
	return s.store.ListSalesByProduct(ctx, productID, sale.ClampLimit(limit))
}

// SalesByUser lista as vendas de um usuário
func (s *Service) SalesByUser(ctx context.Context, userID string, limit int) ([]*sale.Transaction, error) {
	return s.store.ListSalesByUser(ctx, userID, sale.ClampLimit(limit))
}

// SalesByDateRange lista as vendas no intervalo [start, end]
func (s *Service) SalesByDateRange(ctx context.Context, start, end time.Time, limit int) ([]*sale.Transaction, error) {
	if start.After(end) {
		return nil, sale.ErrInvalidRange
	}
	return s.store.ListSalesBetween(ctx, start, end, sale.ClampLimit(limit))
}
