package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
)

// DailyStats retorna os relatórios dos últimos dias, mais recentes primeiro
func (s *Service) DailyStats(ctx context.Context, days int) ([]*report.DailyReport, error) {
	if days <= 0 {
		return nil, report.ErrInvalidDays
	}
	if days > report.MaxDailyStatsDays {
		days = report.MaxDailyStatsDays
	}
	return s.store.ListDailyReports(ctx, days)
}

// StatsForRange resume os relatórios dos dias entre start e end
func (s *Service) StatsForRange(ctx context.Context, start, end time.Time) (report.RangeStats, error) {
	if start.After(end) {
		return report.RangeStats{}, sale.ErrInvalidRange
	}

	reports, err := s.store.ListDailyReportsBetween(ctx, report.StartOfDay(start, s.location), end)
	if err != nil {
		return report.RangeStats{}, err
	}
	return report.Summarize(reports), nil
}

// SalesByItem retorna os totais vendidos por produto, maior receita primeiro
func (s *Service) SalesByItem(ctx context.Context) ([]*report.ItemSales, error) {
	sums, err := s.store.SumSalesByProduct(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*report.ItemSales, 0, len(sums))
	for productID, totals := range sums {
		item, err := s.itemSales(ctx, productID, totals)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Revenue != items[j].Revenue {
			return items[i].Revenue > items[j].Revenue
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}

// SalesForProduct retorna os totais vendidos de um produto
func (s *Service) SalesForProduct(ctx context.Context, productID string) (*report.ItemSales, error) {
	sums, err := s.store.SumSalesByProduct(ctx)
	if err != nil {
		return nil, err
	}
	return s.itemSales(ctx, productID, sums[productID])
}

// RecomputeDailyReport recalcula o relatório do dia a partir das vendas registradas.
// Serve para conferir o agregado incremental.
func (s *Service) RecomputeDailyReport(ctx context.Context, day time.Time) (*report.DailyReport, error) {
	start := report.StartOfDay(day, s.location)
	end := start.AddDate(0, 0, 1)

	totals, err := s.store.SumSalesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	r := &report.DailyReport{Date: start}
	r.Apply(totals)
	return r, nil
}

// DailyReport retorna o relatório incremental do dia
func (s *Service) DailyReport(ctx context.Context, day time.Time) (*report.DailyReport, error) {
	return s.store.FindDailyReport(ctx, report.StartOfDay(day, s.location))
}

func (s *Service) itemSales(ctx context.Context, productID string, totals report.Totals) (*report.ItemSales, error) {
	item := &report.ItemSales{
		ProductID:   productID,
		ProductName: sale.UnknownProductName,
		ProductSKU:  sale.UnknownProductSKU,
		Totals:      totals,
	}

	p, err := s.store.FindProductByID(ctx, productID)
	switch {
	case err == nil:
		item.ProductName = p.Name
		item.ProductSKU = p.SKU
	case !errors.Is(err, product.ErrProductNotFound):
		return nil, err
	}
	return item, nil
}
