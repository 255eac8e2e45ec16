package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = "id, name, sku, buy_price, sell_price, stock_quantity, image_url, created_at, updated_at"

// ProductRepository implementa a interface product.Repository usando PostgreSQL
type ProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository cria uma nova instância de ProductRepository
func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	var imageURL *string

	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.BuyPrice, &p.SellPrice, &p.StockQuantity, &imageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	return &p, nil
}

// ListProducts implementa product.Repository.ListProducts
func (r *ProductRepository) ListProducts(ctx context.Context) ([]*product.Product, error) {
	rows, err := r.db.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("falha ao listar produtos: %w", err)
	}
	defer rows.Close()

	products := []*product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler produto: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// FindProductByID implementa product.Repository.FindProductByID
func (r *ProductRepository) FindProductByID(ctx context.Context, id string) (*product.Product, error) {
	if !isUUID(id) {
		return nil, product.ErrProductNotFound
	}
	return r.findOne(ctx, "id", id)
}

// FindProductBySKU implementa product.Repository.FindProductBySKU
func (r *ProductRepository) FindProductBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.findOne(ctx, "sku", sku)
}

func (r *ProductRepository) findOne(ctx context.Context, column, value string) (*product.Product, error) {
	row := r.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE "+column+" = $1", value)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("falha ao buscar produto: %w", err)
	}
	return p, nil
}

// CreateProduct implementa product.Repository.CreateProduct
func (r *ProductRepository) CreateProduct(ctx context.Context, p *product.Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.SKU, p.BuyPrice, p.SellPrice, p.StockQuantity, nullIfEmpty(p.ImageURL), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return product.ErrDuplicateSKU
		}
		return fmt.Errorf("falha ao inserir produto: %w", err)
	}
	return nil
}

// UpdateProduct implementa product.Repository.UpdateProduct
func (r *ProductRepository) UpdateProduct(ctx context.Context, p *product.Product) error {
	if !isUUID(p.ID) {
		return product.ErrProductNotFound
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE products SET
			name = $2, sku = $3, buy_price = $4, sell_price = $5,
			stock_quantity = $6, image_url = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.Name, p.SKU, p.BuyPrice, p.SellPrice, p.StockQuantity, nullIfEmpty(p.ImageURL), p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return product.ErrDuplicateSKU
		}
		return fmt.Errorf("falha ao atualizar produto: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// DeleteProduct implementa product.Repository.DeleteProduct
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	if !isUUID(id) {
		return product.ErrProductNotFound
	}

	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("falha ao remover produto: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrProductNotFound
	}
	return nil
}
