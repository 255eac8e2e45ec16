package product

import (
	"context"
)

// Repository define a interface para operações de repositório de produtos
type Repository interface {
	// ListProducts lista todos os produtos ordenados por nome
	ListProducts(ctx context.Context) ([]*Product, error)

	// FindProductByID busca um produto pelo ID
	FindProductByID(ctx context.Context, id string) (*Product, error)

	// FindProductBySKU busca um produto pelo SKU
	FindProductBySKU(ctx context.Context, sku string) (*Product, error)

	// CreateProduct cria um novo produto
	CreateProduct(ctx context.Context, p *Product) error

	// UpdateProduct atualiza os dados de um produto existente
	UpdateProduct(ctx context.Context, p *Product) error

	// DeleteProduct remove um produto
	DeleteProduct(ctx context.Context, id string) error
}
