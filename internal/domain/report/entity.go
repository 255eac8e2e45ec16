package report

import (
	"errors"
	"time"
)

// Erros do domínio de relatórios
var (
	ErrInvalidDays    = errors.New("quantidade de dias deve ser maior que zero")
	ErrReportNotFound = errors.New("relatório diário não encontrado")
)

// MaxDailyStatsDays limita a janela das estatísticas diárias
const MaxDailyStatsDays = 365

// Totals agrega receita, lucro e quantidade vendida
type Totals struct {
	Revenue  int64 `json:"revenue"`
	Profit   int64 `json:"profit"`
	Quantity int64 `json:"quantity"`
}

// Add soma outro total
func (t *Totals) Add(o Totals) {
	t.Revenue += o.Revenue
	t.Profit += o.Profit
	t.Quantity += o.Quantity
}

// DailyReport é o agregado de vendas de um dia no fuso horário do negócio.
// TotalSalesCount soma as quantidades vendidas.
type DailyReport struct {
	Date            time.Time `json:"date"`
	TotalRevenue    int64     `json:"total_revenue"`
	TotalProfit     int64     `json:"total_profit"`
	TotalSalesCount int64     `json:"total_sales_count"`
}

// Apply soma os totais de uma venda ao relatório
func (r *DailyReport) Apply(t Totals) {
	r.TotalRevenue += t.Revenue
	r.TotalProfit += t.Profit
	r.TotalSalesCount += t.Quantity
}

// StartOfDay retorna a meia-noite do dia de t no fuso informado
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ItemSales são os totais de vendas de um produto
type ItemSales struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Totals
}

// RangeStats resume um intervalo de relatórios diários
type RangeStats struct {
	TotalRevenue           int64   `json:"total_revenue"`
	TotalProfit            int64   `json:"total_profit"`
	TotalSalesCount        int64   `json:"total_sales_count"`
	DayCount               int     `json:"day_count"`
	AverageDailyRevenue    float64 `json:"average_daily_revenue"`
	AverageDailySalesCount float64 `json:"average_daily_sales_count"`
}

// Summarize soma os relatórios e calcula as médias por dia com vendas
func Summarize(reports []*DailyReport) RangeStats {
	var s RangeStats
	for _, r := range reports {
		s.TotalRevenue += r.TotalRevenue
		s.TotalProfit += r.TotalProfit
		s.TotalSalesCount += r.TotalSalesCount
	}
	s.DayCount = len(reports)
	if s.DayCount > 0 {
		s.AverageDailyRevenue = float64(s.TotalRevenue) / float64(s.DayCount)
		s.AverageDailySalesCount = float64(s.TotalSalesCount) / float64(s.DayCount)
	}
	return s
}
