package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/infrastructure/database"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier é o subconjunto comum entre pgxpool.Pool e pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implementa ledger.Store usando PostgreSQL
type PostgresStore struct {
	*ProductRepository
	*UserRepository
	*SaleRepository
	*ReportRepository

	db *database.PostgresDB
}

var _ ledger.Store = (*PostgresStore)(nil)

// NewPostgresStore cria uma nova instância de PostgresStore
func NewPostgresStore(db *database.PostgresDB) *PostgresStore {
	pool := db.Pool()
	return &PostgresStore{
		ProductRepository: NewProductRepository(pool),
		UserRepository:    NewUserRepository(pool),
		SaleRepository:    NewSaleRepository(pool),
		ReportRepository:  NewReportRepository(pool),
		db:                db,
	}
}

// WithinTx implementa ledger.Store.WithinTx
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockProduct(ctx context.Context, id string) (*product.Product, error) {
	if !isUUID(id) {
		return nil, product.ErrProductNotFound
	}

	row := t.tx.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("falha ao bloquear produto: %w", err)
	}
	return p, nil
}

func (t *postgresTx) UserExists(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}

	var exists bool
	if err := t.tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("falha ao verificar usuário: %w", err)
	}
	return exists, nil
}

func (t *postgresTx) FindSaleByIdempotencyKey(ctx context.Context, key string) (*sale.Transaction, error) {
	return findSaleByKey(ctx, t.tx, key)
}

func (t *postgresTx) InsertSale(ctx context.Context, s *sale.Transaction) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transactions (
			id, product_id, user_id, quantity, total_sale, total_profit, timestamp, idempotency_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.ProductID, s.UserID, s.Quantity, s.TotalSale, s.TotalProfit, s.Timestamp, nullIfEmpty(s.IdempotencyKey),
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key_key") {
			return sale.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("falha ao inserir venda: %w", err)
	}
	return nil
}

func (t *postgresTx) SetProductStock(ctx context.Context, productID string, stock int64, now time.Time) error {
	tag, err := t.tx.Exec(ctx, "UPDATE products SET stock_quantity = $2, updated_at = $3 WHERE id = $1", productID, stock, now)
	if err != nil {
		return fmt.Errorf("falha ao atualizar estoque: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func (t *postgresTx) AddToDailyReport(ctx context.Context, day time.Time, totals report.Totals) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO daily_reports (date, total_revenue, total_profit, total_sales_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE SET
			total_revenue = daily_reports.total_revenue + EXCLUDED.total_revenue,
			total_profit = daily_reports.total_profit + EXCLUDED.total_profit,
			total_sales_count = daily_reports.total_sales_count + EXCLUDED.total_sales_count`,
		day, totals.Revenue, totals.Profit, totals.Quantity,
	)
	if err != nil {
		return fmt.Errorf("falha ao atualizar relatório diário: %w", err)
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
