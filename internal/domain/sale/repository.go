package sale

import (
	"context"
	"time"
)

// Repository define as consultas sobre o livro-razão de vendas
type Repository interface {
	// ListRecentSales lista as vendas mais recentes com nomes de produto e usuário
	ListRecentSales(ctx context.Context, limit int) ([]*Detailed, error)

	// ListSalesByProduct lista as vendas de um produto, mais recentes primeiro
	ListSalesByProduct(ctx context.Context, productID string, limit int) ([]*Transaction, error)

	// ListSalesByUser lista as vendas registradas por um usuário, mais recentes primeiro
	ListSalesByUser(ctx context.Context, userID string, limit int) ([]*Transaction, error)

	// ListSalesBetween lista as vendas com timestamp em [start, end], mais recentes primeiro
	ListSalesBetween(ctx context.Context, start, end time.Time, limit int) ([]*Transaction, error)

	// FindSaleByIdempotencyKey busca a venda registrada com a chave informada
	FindSaleByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
}
