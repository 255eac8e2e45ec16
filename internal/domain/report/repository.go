package report

import (
	"context"
	"time"
)

// Repository define as consultas de relatórios
type Repository interface {
	// ListDailyReports retorna os últimos relatórios diários, mais recentes primeiro
	ListDailyReports(ctx context.Context, limit int) ([]*DailyReport, error)

	// ListDailyReportsBetween retorna os relatórios com data em [start, end], em ordem crescente
	ListDailyReportsBetween(ctx context.Context, start, end time.Time) ([]*DailyReport, error)

	// FindDailyReport busca o relatório do dia (meia-noite no fuso do negócio)
	FindDailyReport(ctx context.Context, day time.Time) (*DailyReport, error)

	// SumSalesByProduct agrega as vendas por produto a partir do livro-razão
	SumSalesByProduct(ctx context.Context) (map[string]Totals, error)

	// SumSalesBetween agrega as vendas com timestamp em [start, end)
	SumSalesBetween(ctx context.Context, start, end time.Time) (Totals, error)
}
