package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
)

// MemoryStore implementa ledger.Store em memória.
// Uma transação segura o lock durante toda a execução e trabalha sobre uma cópia
// do estado, que só substitui o original no commit.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	products map[string]product.Product
	users    map[string]user.User
	sales    []sale.Transaction
	byKey    map[string]int
	reports  map[int64]report.DailyReport
}

var _ ledger.Store = (*MemoryStore)(nil)

// NewMemoryStore cria um armazenamento vazio
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		products: map[string]product.Product{},
		users:    map[string]user.User{},
		byKey:    map[string]int{},
		reports:  map[int64]report.DailyReport{},
	}}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		products: make(map[string]product.Product, len(s.products)),
		users:    make(map[string]user.User, len(s.users)),
		sales:    append([]sale.Transaction(nil), s.sales...),
		byKey:    make(map[string]int, len(s.byKey)),
		reports:  make(map[int64]report.DailyReport, len(s.reports)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.byKey {
		c.byKey[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	return c
}

// WithinTx implementa ledger.Store.WithinTx
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	draft := s.state.clone()
	if err := fn(&memoryTx{state: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

type memoryTx struct {
	state *memoryState
}

func (tx *memoryTx) LockProduct(_ context.Context, id string) (*product.Product, error) {
	p, ok := tx.state.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (tx *memoryTx) UserExists(_ context.Context, id string) (bool, error) {
	_, ok := tx.state.users[id]
	return ok, nil
}

func (tx *memoryTx) FindSaleByIdempotencyKey(_ context.Context, key string) (*sale.Transaction, error) {
	return tx.state.saleByKey(key)
}

func (tx *memoryTx) InsertSale(_ context.Context, t *sale.Transaction) error {
	if t.IdempotencyKey != "" {
		if _, dup := tx.state.byKey[t.IdempotencyKey]; dup {
			return sale.ErrDuplicateIdempotencyKey
		}
		tx.state.byKey[t.IdempotencyKey] = len(tx.state.sales)
	}
	tx.state.sales = append(tx.state.sales, *t)
	return nil
}

func (tx *memoryTx) SetProductStock(_ context.Context, productID string, stock int64, now time.Time) error {
	p, ok := tx.state.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	if stock < 0 {
		return product.ErrNegativeStock
	}
	p.StockQuantity = stock
	p.UpdatedAt = now
	tx.state.products[productID] = p
	return nil
}

func (tx *memoryTx) AddToDailyReport(_ context.Context, day time.Time, totals report.Totals) error {
	key := day.Unix()
	r, ok := tx.state.reports[key]
	if !ok {
		r = report.DailyReport{Date: day}
	}
	r.Apply(totals)
	tx.state.reports[key] = r
	return nil
}

func (s *memoryState) saleByKey(key string) (*sale.Transaction, error) {
	i, ok := s.byKey[key]
	if !ok {
		return nil, sale.ErrSaleNotFound
	}
	t := s.sales[i]
	return &t, nil
}

// Produtos

// ListProducts implementa product.Repository.ListProducts
func (s *MemoryStore) ListProducts(_ context.Context) ([]*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*product.Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		p := p
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// FindProductByID implementa product.Repository.FindProductByID
func (s *MemoryStore) FindProductByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.state.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

// FindProductBySKU implementa product.Repository.FindProductBySKU
func (s *MemoryStore) FindProductBySKU(_ context.Context, sku string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.products {
		if p.SKU == sku {
			p := p
			return &p, nil
		}
	}
	return nil, product.ErrProductNotFound
}

// CreateProduct implementa product.Repository.CreateProduct
func (s *MemoryStore) CreateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.skuTaken(p.SKU, "") {
		return product.ErrDuplicateSKU
	}
	s.state.products[p.ID] = *p
	return nil
}

// UpdateProduct implementa product.Repository.UpdateProduct
func (s *MemoryStore) UpdateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.products[p.ID]; !ok {
		return product.ErrProductNotFound
	}
	if s.state.skuTaken(p.SKU, p.ID) {
		return product.ErrDuplicateSKU
	}
	s.state.products[p.ID] = *p
	return nil
}

// DeleteProduct implementa product.Repository.DeleteProduct
func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.products[id]; !ok {
		return product.ErrProductNotFound
	}
	delete(s.state.products, id)
	return nil
}

func (s *memoryState) skuTaken(sku, excludeID string) bool {
	for id, p := range s.products {
		if p.SKU == sku && id != excludeID {
			return true
		}
	}
	return false
}

// Usuários

// CreateUser implementa user.Repository.CreateUser
func (s *MemoryStore) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrDuplicateEmail
		}
	}
	s.state.users[u.ID] = *u
	return nil
}

// FindUserByID implementa user.Repository.FindUserByID
func (s *MemoryStore) FindUserByID(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.state.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

// ListUsers implementa user.Repository.ListUsers
func (s *MemoryStore) ListUsers(_ context.Context) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*user.User, 0, len(s.state.users))
	for _, u := range s.state.users {
		u := u
		list = append(list, &u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Vendas

// ListRecentSales implementa sale.Repository.ListRecentSales
func (s *MemoryStore) ListRecentSales(_ context.Context, limit int) ([]*sale.Detailed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.state.filterSales(func(*sale.Transaction) bool { return true }, limit)
	list := make([]*sale.Detailed, 0, len(recent))
	for _, t := range recent {
		d := &sale.Detailed{
			Transaction: *t,
			ProductName: sale.UnknownProductName,
			ProductSKU:  sale.UnknownProductSKU,
			UserName:    sale.UnknownUserName,
		}
		if p, ok := s.state.products[t.ProductID]; ok {
			d.ProductName, d.ProductSKU = p.Name, p.SKU
		}
		if u, ok := s.state.users[t.UserID]; ok {
			d.UserName = u.Name
		}
		list = append(list, d)
	}
	return list, nil
}

// ListSalesByProduct implementa sale.Repository.ListSalesByProduct
func (s *MemoryStore) ListSalesByProduct(_ context.Context, productID string, limit int) ([]*sale.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.filterSales(func(t *sale.Transaction) bool { return t.ProductID == productID }, limit), nil
}

// ListSalesByUser implementa sale.Repository.ListSalesByUser
func (s *MemoryStore) ListSalesByUser(_ context.Context, userID string, limit int) ([]*sale.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.filterSales(func(t *sale.Transaction) bool { return t.UserID == userID }, limit), nil
}

// ListSalesBetween implementa sale.Repository.ListSalesBetween
func (s *MemoryStore) ListSalesBetween(_ context.Context, start, end time.Time, limit int) ([]*sale.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.filterSales(func(t *sale.Transaction) bool {
		return !t.Timestamp.Before(start) && !t.Timestamp.After(end)
	}, limit), nil
}

// FindSaleByIdempotencyKey implementa sale.Repository.FindSaleByIdempotencyKey
func (s *MemoryStore) FindSaleByIdempotencyKey(_ context.Context, key string) (*sale.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.saleByKey(key)
}

// filterSales percorre as vendas da mais recente para a mais antiga
func (s *memoryState) filterSales(match func(*sale.Transaction) bool, limit int) []*sale.Transaction {
	ordered := make([]*sale.Transaction, 0, len(s.sales))
	for i := len(s.sales) - 1; i >= 0; i-- {
		t := s.sales[i]
		if match(&t) {
			ordered = append(ordered, &t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp.After(ordered[j].Timestamp) })

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// Relatórios

// ListDailyReports implementa report.Repository.ListDailyReports
func (s *MemoryStore) ListDailyReports(_ context.Context, limit int) ([]*report.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.state.sortedReports()
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ListDailyReportsBetween implementa report.Repository.ListDailyReportsBetween
func (s *MemoryStore) ListDailyReportsBetween(_ context.Context, start, end time.Time) ([]*report.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*report.DailyReport
	for _, r := range s.state.sortedReports() {
		if !r.Date.Before(start) && !r.Date.After(end) {
			list = append(list, r)
		}
	}
	return list, nil
}

// FindDailyReport implementa report.Repository.FindDailyReport
func (s *MemoryStore) FindDailyReport(_ context.Context, day time.Time) (*report.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.reports[day.Unix()]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	return &r, nil
}

// SumSalesByProduct implementa report.Repository.SumSalesByProduct
func (s *MemoryStore) SumSalesByProduct(_ context.Context) (map[string]report.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sums := map[string]report.Totals{}
	for _, t := range s.state.sales {
		total := sums[t.ProductID]
		total.Add(report.Totals{Revenue: t.TotalSale, Profit: t.TotalProfit, Quantity: t.Quantity})
		sums[t.ProductID] = total
	}
	return sums, nil
}

// SumSalesBetween implementa report.Repository.SumSalesBetween
func (s *MemoryStore) SumSalesBetween(_ context.Context, start, end time.Time) (report.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total report.Totals
	for _, t := range s.state.sales {
		if !t.Timestamp.Before(start) && t.Timestamp.Before(end) {
			total.Add(report.Totals{Revenue: t.TotalSale, Profit: t.TotalProfit, Quantity: t.Quantity})
		}
	}
	return total, nil
}

func (s *memoryState) sortedReports() []*report.DailyReport {
	list := make([]*report.DailyReport, 0, len(s.reports))
	for _, r := range s.reports {
		r := r
		list = append(list, &r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list
}
