package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportColumns = "date, total_revenue, total_profit, total_sales_count"

// ReportRepository implementa a interface report.Repository usando PostgreSQL
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository cria uma nova instância de ReportRepository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

func scanReport(row pgx.Row) (*report.DailyReport, error) {
	var r report.DailyReport
	if err := row.Scan(&r.Date, &r.TotalRevenue, &r.TotalProfit, &r.TotalSalesCount); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ReportRepository) queryReports(ctx context.Context, query string, args ...any) ([]*report.DailyReport, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar relatórios: %w", err)
	}
	defer rows.Close()

	list := []*report.DailyReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler relatório: %w", err)
		}
		list = append(list, rep)
	}

	return list, rows.Err()
}

// ListDailyReports implementa report.Repository.ListDailyReports
func (r *ReportRepository) ListDailyReports(ctx context.Context, limit int) ([]*report.DailyReport, error) {
	return r.queryReports(ctx, "SELECT "+reportColumns+" FROM daily_reports ORDER BY date DESC LIMIT $1", limit)
}

// ListDailyReportsBetween implementa report.Repository.ListDailyReportsBetween
func (r *ReportRepository) ListDailyReportsBetween(ctx context.Context, start, end time.Time) ([]*report.DailyReport, error) {
	return r.queryReports(ctx, "SELECT "+reportColumns+" FROM daily_reports WHERE date >= $1 AND date <= $2 ORDER BY date", start, end)
}

// FindDailyReport implementa report.Repository.FindDailyReport
func (r *ReportRepository) FindDailyReport(ctx context.Context, day time.Time) (*report.DailyReport, error) {
	rep, err := scanReport(r.db.QueryRow(ctx, "SELECT "+reportColumns+" FROM daily_reports WHERE date = $1", day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("falha ao buscar relatório: %w", err)
	}
	return rep, nil
}

// SumSalesByProduct implementa report.Repository.SumSalesByProduct
func (r *ReportRepository) SumSalesByProduct(ctx context.Context) (map[string]report.Totals, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, SUM(total_sale)::BIGINT, SUM(total_profit)::BIGINT, SUM(quantity)::BIGINT
		FROM transactions
		GROUP BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("falha ao agregar vendas por produto: %w", err)
	}
	defer rows.Close()

	sums := map[string]report.Totals{}
	for rows.Next() {
		var productID string
		var t report.Totals
		if err := rows.Scan(&productID, &t.Revenue, &t.Profit, &t.Quantity); err != nil {
			return nil, fmt.Errorf("falha ao ler agregado: %w", err)
		}
		sums[productID] = t
	}

	return sums, rows.Err()
}

// SumSalesBetween implementa report.Repository.SumSalesBetween
func (r *ReportRepository) SumSalesBetween(ctx context.Context, start, end time.Time) (report.Totals, error) {
	var t report.Totals
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_sale), 0)::BIGINT, COALESCE(SUM(total_profit), 0)::BIGINT, COALESCE(SUM(quantity), 0)::BIGINT
		FROM transactions
		WHERE timestamp >= $1 AND timestamp < $2`,
		start, end,
	).Scan(&t.Revenue, &t.Profit, &t.Quantity)
	if err != nil {
		return report.Totals{}, fmt.Errorf("falha ao agregar vendas do período: %w", err)
	}
	return t, nil
}
