package dto

import (
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/report"
)

// DailyReportResponse representa o agregado de um dia
type DailyReportResponse struct {
	Date            time.Time `json:"date"`
	TotalRevenue    int64     `json:"total_revenue"`
	TotalProfit     *int64    `json:"total_profit,omitempty"`
	TotalSalesCount int64     `json:"total_sales_count"`
}

// RangeStatsResponse resume um intervalo de dias
type RangeStatsResponse struct {
	TotalRevenue           int64   `json:"total_revenue"`
	TotalProfit            *int64  `json:"total_profit,omitempty"`
	TotalSalesCount        int64   `json:"total_sales_count"`
	DayCount               int     `json:"day_count"`
	AverageDailyRevenue    float64 `json:"average_daily_revenue"`
	AverageDailySalesCount float64 `json:"average_daily_sales_count"`
}

// ItemSalesResponse são os totais vendidos de um produto
type ItemSalesResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int64  `json:"quantity"`
	Revenue     int64  `json:"revenue"`
	Profit      *int64 `json:"profit,omitempty"`
}

func maskedProfit(v int64, showCosts bool) *int64 {
	if !showCosts {
		return nil
	}
	return &v
}

// ToDailyReportResponse converte um relatório diário
func ToDailyReportResponse(r *report.DailyReport, showCosts bool) DailyReportResponse {
	return DailyReportResponse{
		Date:            r.Date,
		TotalRevenue:    r.TotalRevenue,
		TotalProfit:     maskedProfit(r.TotalProfit, showCosts),
		TotalSalesCount: r.TotalSalesCount,
	}
}

// ToDailyReportResponses converte uma lista de relatórios
func ToDailyReportResponses(list []*report.DailyReport, showCosts bool) []DailyReportResponse {
	out := make([]DailyReportResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ToDailyReportResponse(r, showCosts))
	}
	return out
}

// ToRangeStatsResponse converte o resumo de um intervalo
func ToRangeStatsResponse(s report.RangeStats, showCosts bool) RangeStatsResponse {
	return RangeStatsResponse{
		TotalRevenue:           s.TotalRevenue,
		TotalProfit:            maskedProfit(s.TotalProfit, showCosts),
		TotalSalesCount:        s.TotalSalesCount,
		DayCount:               s.DayCount,
		AverageDailyRevenue:    s.AverageDailyRevenue,
		AverageDailySalesCount: s.AverageDailySalesCount,
	}
}

// ToItemSalesResponse converte os totais de um produto
func ToItemSalesResponse(i *report.ItemSales, showCosts bool) ItemSalesResponse {
	return ItemSalesResponse{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		ProductSKU:  i.ProductSKU,
		Quantity:    i.Quantity,
		Revenue:     i.Revenue,
		Profit:      maskedProfit(i.Profit, showCosts),
	}
}

// ToItemSalesResponses converte a lista de totais por produto
func ToItemSalesResponses(list []*report.ItemSales, showCosts bool) []ItemSalesResponse {
	out := make([]ItemSalesResponse, 0, len(list))
	for _, i := range list {
		out = append(out, ToItemSalesResponse(i, showCosts))
	}
	return out
}
