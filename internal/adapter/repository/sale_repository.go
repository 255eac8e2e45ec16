package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const saleColumns = "t.id, t.product_id, t.user_id, t.quantity, t.total_sale, t.total_profit, t.timestamp, COALESCE(t.idempotency_key, '')"

// SaleRepository implementa a interface sale.Repository usando PostgreSQL
type SaleRepository struct {
	db *pgxpool.Pool
}

// NewSaleRepository cria uma nova instância de SaleRepository
func NewSaleRepository(db *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{db: db}
}

func scanSale(row pgx.Row, extra ...any) (*sale.Transaction, error) {
	var t sale.Transaction
	dest := append([]any{&t.ID, &t.ProductID, &t.UserID, &t.Quantity, &t.TotalSale, &t.TotalProfit, &t.Timestamp, &t.IdempotencyKey}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

func findSaleByKey(ctx context.Context, q querier, key string) (*sale.Transaction, error) {
	row := q.QueryRow(ctx, "SELECT "+saleColumns+" FROM transactions t WHERE t.idempotency_key = $1", key)
	t, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrSaleNotFound
		}
		return nil, fmt.Errorf("falha ao buscar venda por chave de idempotência: %w", err)
	}
	return t, nil
}

// FindSaleByIdempotencyKey implementa sale.Repository.FindSaleByIdempotencyKey
func (r *SaleRepository) FindSaleByIdempotencyKey(ctx context.Context, key string) (*sale.Transaction, error) {
	return findSaleByKey(ctx, r.db, key)
}

// ListRecentSales implementa sale.Repository.ListRecentSales
func (r *SaleRepository) ListRecentSales(ctx context.Context, limit int) ([]*sale.Detailed, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+saleColumns+`,
			COALESCE(p.name, $2), COALESCE(p.sku, $3), COALESCE(u.name, $4)
		FROM transactions t
		LEFT JOIN products p ON p.id = t.product_id
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.timestamp DESC
		LIMIT $1`,
		limit, sale.UnknownProductName, sale.UnknownProductSKU, sale.UnknownUserName,
	)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar vendas recentes: %w", err)
	}
	defer rows.Close()

	list := []*sale.Detailed{}
	for rows.Next() {
		var d sale.Detailed
		t, err := scanSale(rows, &d.ProductName, &d.ProductSKU, &d.UserName)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler venda: %w", err)
		}
		d.Transaction = *t
		list = append(list, &d)
	}

	return list, rows.Err()
}

// ListSalesByProduct implementa sale.Repository.ListSalesByProduct
func (r *SaleRepository) ListSalesByProduct(ctx context.Context, productID string, limit int) ([]*sale.Transaction, error) {
	if !isUUID(productID) {
		return []*sale.Transaction{}, nil
	}
	return r.list(ctx, "WHERE t.product_id = $2", limit, productID)
}

// ListSalesByUser implementa sale.Repository.ListSalesByUser
func (r *SaleRepository) ListSalesByUser(ctx context.Context, userID string, limit int) ([]*sale.Transaction, error) {
	if !isUUID(userID) {
		return []*sale.Transaction{}, nil
	}
	return r.list(ctx, "WHERE t.user_id = $2", limit, userID)
}

// ListSalesBetween implementa sale.Repository.ListSalesBetween
func (r *SaleRepository) ListSalesBetween(ctx context.Context, start, end time.Time, limit int) ([]*sale.Transaction, error) {
	return r.list(ctx, "WHERE t.timestamp >= $2 AND t.timestamp <= $3", limit, start, end)
}

func (r *SaleRepository) list(ctx context.Context, where string, limit int, args ...any) ([]*sale.Transaction, error) {
	query := "SELECT " + saleColumns + " FROM transactions t " + where + " ORDER BY t.timestamp DESC LIMIT $1"
	rows, err := r.db.Query(ctx, query, append([]any{limit}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar vendas: %w", err)
	}
	defer rows.Close()

	list := []*sale.Transaction{}
	for rows.Next() {
		t, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler venda: %w", err)
		}
		list = append(list, t)
	}

	return list, rows.Err()
}
