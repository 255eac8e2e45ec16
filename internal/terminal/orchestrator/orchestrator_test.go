package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/adapter/remote"
	"github.com/hugohenrick/pdv-sync/internal/adapter/repository"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
	"github.com/hugohenrick/pdv-sync/internal/terminal/cache"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
	"github.com/hugohenrick/pdv-sync/internal/terminal/orchestrator"
	"github.com/hugohenrick/pdv-sync/internal/terminal/queue"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// o leveldb mantém um goroutine de pool por banco até o fim do processo
		goleak.IgnoreTopFunction("github.com/syndtr/goleveldb/leveldb.(*DB).mpoolDrain"),
	)
}

func ptr[T any](v T) *T { return &v }

// ledgerRemote expõe o serviço do servidor como se fosse a API remota
type ledgerRemote struct {
	svc *ledger.Service

	mu           sync.Mutex
	unreachable  map[string]bool
	loseResponse bool
	gate         chan struct{}
	entered      chan struct{}
	saleCalls    atomic.Int32
	afterCreate  func()
}

func (r *ledgerRemote) failing(productID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unreachable[productID] || r.unreachable["*"]
}

func (r *ledgerRemote) RecordSale(ctx context.Context, req remote.SaleRequest) (*remote.SaleReceipt, error) {
	r.saleCalls.Add(1)
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.gate
	}
	if r.failing(req.ProductID) {
		return nil, remote.ErrTransient
	}

	receipt, err := r.svc.RecordSale(ctx, ledger.SaleRequest{
		ProductID:      req.ProductID,
		UserID:         req.UserID,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	lost := r.loseResponse
	r.mu.Unlock()
	if lost {
		return nil, context.DeadlineExceeded
	}
	return &remote.SaleReceipt{TransactionID: receipt.TransactionID, RemainingStock: receipt.RemainingStock, Replayed: receipt.Replayed}, nil
}

func (r *ledgerRemote) ListProducts(ctx context.Context) ([]*product.Product, error) {
	if r.failing("*") {
		return nil, remote.ErrTransient
	}
	return r.svc.ListProducts(ctx)
}

func (r *ledgerRemote) CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error) {
	p, err := r.svc.CreateProduct(ctx, d)
	if err == nil && r.afterCreate != nil {
		r.afterCreate()
	}
	return p, err
}

// hangingRemote nunca responde vendas até o contexto da chamada expirar
type hangingRemote struct {
	*ledgerRemote
}

func (r hangingRemote) RecordSale(ctx context.Context, _ remote.SaleRequest) (*remote.SaleReceipt, error) {
	r.saleCalls.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (r *ledgerRemote) UpdateProduct(ctx context.Context, id string, d product.Draft) (*product.Product, error) {
	return r.svc.UpdateProduct(ctx, id, d)
}

func (r *ledgerRemote) DeleteProduct(ctx context.Context, id string) error {
	return r.svc.DeleteProduct(ctx, id)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type OrchestratorSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *clock
	svc    *ledger.Service
	remote *ledgerRemote
	store  *localstore.Store
	cache  *cache.Cache
	queue  *queue.Queue
	orch   *orchestrator.Orchestrator
	user   *user.User
	closed bool
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &clock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	s.svc = ledger.NewService(repository.NewMemoryStore(), ledger.WithClock(s.clock.Now), ledger.WithLocation(time.UTC))
	s.remote = &ledgerRemote{svc: s.svc, unreachable: map[string]bool{}}

	u, err := s.svc.CreateUser(s.ctx, "Caixa", "caixa@mercado.com", user.RoleEditor)
	s.Require().NoError(err)
	s.user = u

	s.store, err = localstore.OpenInMemory(logger.NewNop())
	s.Require().NoError(err)
	s.cache, err = cache.New(s.store, s.clock.Now)
	s.Require().NoError(err)
	s.queue, err = queue.New(s.store, s.cache, queue.WithClock(s.clock.Now))
	s.Require().NoError(err)
	s.orch = orchestrator.New(s.queue, s.cache, s.remote, orchestrator.WithCallTimeout(time.Second))
}

func (s *OrchestratorSuite) TearDownTest() {
	s.orch.Wait()
	if !s.closed {
		s.Require().NoError(s.store.Close())
	}
}

func (s *OrchestratorSuite) serverProduct(name string, buy, sell, stock int64) *product.Product {
	p, err := s.svc.CreateProduct(s.ctx, product.Draft{
		Name:          ptr(name),
		BuyPrice:      ptr(buy),
		SellPrice:     ptr(sell),
		StockQuantity: ptr(stock),
	})
	s.Require().NoError(err)
	return p
}

// sync drena a fila e exige que a execução termine sem erro
func (s *OrchestratorSuite) sync() orchestrator.Report {
	report, err := s.orch.Drain(s.ctx)
	s.Require().NoError(err)
	return report
}

func (s *OrchestratorSuite) sellOffline(productID string, qty int64) uint64 {
	id, err := s.queue.Enqueue(queue.Operation{ProductID: productID, UserID: s.user.ID, Quantity: qty})
	s.Require().NoError(err)
	_, err = s.cache.ApplyOptimisticStockDelta(productID, -qty, id)
	s.Require().NoError(err)
	return id
}

func (s *OrchestratorSuite) localStock(id string) int64 {
	stock, ok := s.cache.StockOf(id)
	s.Require().True(ok)
	return stock
}

func (s *OrchestratorSuite) remoteStock(id string) int64 {
	p, err := s.svc.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	return p.StockQuantity
}

func (s *OrchestratorSuite) TestDrain_ReplaysOfflineSale() {
	p := s.serverProduct("Café", 600, 1000, 5)
	s.sync()

	id := s.sellOffline(p.ID, 3)
	s.EqualValues(2, s.localStock(p.ID))
	s.Equal(1, s.queue.PendingCount())

	report := s.sync()
	s.Equal(1, report.Synced)
	s.True(report.Refreshed)

	op, _ := s.queue.Get(id)
	s.Equal(queue.StatusSynced, op.Status)
	s.NotEmpty(op.RemoteID)
	s.EqualValues(2, s.remoteStock(p.ID))
	s.EqualValues(2, s.localStock(p.ID))

	daily, err := s.svc.DailyReport(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.EqualValues(3000, daily.TotalRevenue)
	s.EqualValues(1200, daily.TotalProfit)
	s.EqualValues(3, daily.TotalSalesCount)
}

func (s *OrchestratorSuite) TestDrain_ConflictingSaleIsSkippedAndRefreshed() {
	p := s.serverProduct("Feijão", 500, 800, 10)
	s.sync()

	// Outro terminal vende 5 unidades enquanto este está offline
	_, err := s.svc.RecordSale(s.ctx, ledger.SaleRequest{ProductID: p.ID, UserID: s.user.ID, Quantity: 5})
	s.Require().NoError(err)

	first := s.sellOffline(p.ID, 4)
	second := s.sellOffline(p.ID, 4)
	s.EqualValues(2, s.localStock(p.ID))

	report := s.sync()
	s.Equal(1, report.Synced)
	s.Equal(1, report.Skipped)

	op, _ := s.queue.Get(first)
	s.Equal(queue.StatusSynced, op.Status)
	op, _ = s.queue.Get(second)
	s.Equal(queue.StatusSkipped, op.Status)
	s.Equal(dto.ReasonInsufficientStock, op.SkipReason)

	s.EqualValues(1, s.remoteStock(p.ID))
	s.EqualValues(1, s.localStock(p.ID))
}

func (s *OrchestratorSuite) TestDrain_FirstSalesWinWhenStockRunsOut() {
	const queued, available = 6, 4
	p := s.serverProduct("Leite", 300, 450, queued)
	s.sync()

	_, err := s.svc.UpdateProduct(s.ctx, p.ID, product.Draft{StockQuantity: ptr(int64(available))})
	s.Require().NoError(err)

	ids := make([]uint64, 0, queued)
	for i := 0; i < queued; i++ {
		ids = append(ids, s.sellOffline(p.ID, 1))
	}

	report := s.sync()
	s.Equal(available, report.Synced)
	s.Equal(queued-available, report.Skipped)

	for i, id := range ids {
		op, _ := s.queue.Get(id)
		if i < available {
			s.Equal(queue.StatusSynced, op.Status, "operação %d", i)
		} else {
			s.Equal(queue.StatusSkipped, op.Status, "operação %d", i)
			s.Equal(dto.ReasonInsufficientStock, op.SkipReason)
		}
	}
	s.EqualValues(0, s.remoteStock(p.ID))
	s.Equal(0, s.queue.PendingCount())
}

func (s *OrchestratorSuite) TestDrain_TransientFailureBlocksOnlyThatProduct() {
	a := s.serverProduct("Arroz", 300, 500, 10)
	b := s.serverProduct("Açúcar", 200, 400, 10)
	s.sync()

	a1 := s.sellOffline(a.ID, 1)
	a2 := s.sellOffline(a.ID, 2)
	b1 := s.sellOffline(b.ID, 1)

	s.remote.mu.Lock()
	s.remote.unreachable[a.ID] = true
	s.remote.mu.Unlock()

	report := s.sync()
	s.Equal(1, report.Synced)
	s.Equal(2, report.Deferred)

	op, _ := s.queue.Get(b1)
	s.Equal(queue.StatusSynced, op.Status)
	// As baixas pendentes continuam visíveis após a atualização
	s.EqualValues(7, s.localStock(a.ID))

	s.remote.mu.Lock()
	delete(s.remote.unreachable, a.ID)
	s.remote.mu.Unlock()

	report = s.sync()
	s.Equal(2, report.Synced)
	for _, id := range []uint64{a1, a2} {
		op, _ := s.queue.Get(id)
		s.Equal(queue.StatusSynced, op.Status)
	}
	s.EqualValues(7, s.remoteStock(a.ID))

	sales, err := s.svc.SalesByProduct(s.ctx, a.ID, 10)
	s.Require().NoError(err)
	s.Len(sales, 2)
}

func (s *OrchestratorSuite) TestDrain_LostResponseIsNotRecordedTwice() {
	p := s.serverProduct("Óleo", 700, 900, 5)
	s.sync()

	id := s.sellOffline(p.ID, 2)
	s.remote.mu.Lock()
	s.remote.loseResponse = true
	s.remote.mu.Unlock()

	report := s.sync()
	s.Equal(1, report.Deferred)
	s.EqualValues(3, s.remoteStock(p.ID))

	s.remote.mu.Lock()
	s.remote.loseResponse = false
	s.remote.mu.Unlock()

	report = s.sync()
	s.Equal(1, report.Synced)
	s.EqualValues(3, s.remoteStock(p.ID))
	op, _ := s.queue.Get(id)
	s.Equal(queue.StatusSynced, op.Status)
}

func (s *OrchestratorSuite) TestDrain_RefreshFailureKeepsOptimisticState() {
	p := s.serverProduct("Sal", 100, 200, 5)
	s.sync()
	s.sellOffline(p.ID, 1)

	s.remote.mu.Lock()
	s.remote.unreachable["*"] = true
	s.remote.mu.Unlock()

	report := s.sync()
	s.False(report.Refreshed)
	s.Equal(1, report.Deferred)
	s.EqualValues(4, s.localStock(p.ID))
}

func (s *OrchestratorSuite) TestDrain_CreatesPlaceholderBeforeItsSales() {
	tempID := product.PlaceholderPrefix + "novo"
	draft := product.Draft{Name: ptr("Biscoito"), BuyPrice: ptr(int64(150)), SellPrice: ptr(int64(300)), StockQuantity: ptr(int64(8))}
	placeholder, err := product.NewProduct(tempID, product.ProvisionalSKU("Biscoito"), draft, s.clock.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.cache.AddPlaceholder(placeholder))

	create, err := s.queue.Enqueue(queue.Operation{Kind: queue.KindProductCreate, ProductID: tempID, Draft: &draft})
	s.Require().NoError(err)
	saleID := s.sellOffline(tempID, 3)

	report := s.sync()
	s.Equal(2, report.Synced)

	op, _ := s.queue.Get(create)
	realID := op.RemoteID
	s.NotEmpty(realID)
	op, _ = s.queue.Get(saleID)
	s.Equal(realID, op.ProductID)

	s.EqualValues(5, s.remoteStock(realID))
	s.EqualValues(5, s.localStock(realID))
	_, ok := s.cache.Get(tempID)
	s.False(ok)
}

func (s *OrchestratorSuite) TestDrain_RejectedCreateSkipsDependents() {
	tempID := product.PlaceholderPrefix + "ruim"
	draft := product.Draft{Name: ptr("  "), StockQuantity: ptr(int64(2))}
	s.Require().NoError(s.cache.AddPlaceholder(&product.Product{ID: tempID, Name: "?", StockQuantity: 2}))

	create, err := s.queue.Enqueue(queue.Operation{Kind: queue.KindProductCreate, ProductID: tempID, Draft: &draft})
	s.Require().NoError(err)
	saleID := s.sellOffline(tempID, 1)

	report := s.sync()
	s.Equal(2, report.Skipped)

	op, _ := s.queue.Get(create)
	s.Equal(dto.ReasonEmptyName, op.SkipReason)
	op, _ = s.queue.Get(saleID)
	s.Equal(dto.ReasonProductNotFound, op.SkipReason)
	_, ok := s.cache.Get(tempID)
	s.False(ok)
}

func (s *OrchestratorSuite) TestDrain_LocalFailureAfterCreateAbortsWithoutSkipping() {
	tempID := product.PlaceholderPrefix + "disco"
	draft := product.Draft{Name: ptr("Arroz"), BuyPrice: ptr(int64(500)), SellPrice: ptr(int64(800)), StockQuantity: ptr(int64(6))}
	placeholder, err := product.NewProduct(tempID, product.ProvisionalSKU("Arroz"), draft, s.clock.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.cache.AddPlaceholder(placeholder))

	create, err := s.queue.Enqueue(queue.Operation{Kind: queue.KindProductCreate, ProductID: tempID, Draft: &draft})
	s.Require().NoError(err)
	saleID := s.sellOffline(tempID, 2)

	// O servidor cria o produto mas o armazenamento local falha em seguida
	s.remote.afterCreate = func() {
		s.closed = true
		s.Require().NoError(s.store.Close())
	}

	report, err := s.orch.Drain(s.ctx)
	s.Require().Error(err)
	s.Zero(report.Skipped)
	s.Zero(report.Synced)

	for _, id := range []uint64{create, saleID} {
		op, ok := s.queue.Get(id)
		s.Require().True(ok)
		s.Equal(queue.StatusUnsynced, op.Status)
		s.Empty(op.SkipReason)
		s.Equal(tempID, op.ProductID)
	}
	_, ok := s.cache.Get(tempID)
	s.True(ok)

	products, err := s.svc.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Len(products, 1)
}

func (s *OrchestratorSuite) TestDrain_HangingCallIsCutByCallTimeout() {
	p := s.serverProduct("Feijão", 400, 700, 5)
	s.sync()
	id := s.sellOffline(p.ID, 1)

	hanging := hangingRemote{ledgerRemote: s.remote}
	orch := orchestrator.New(s.queue, s.cache, hanging, orchestrator.WithCallTimeout(50*time.Millisecond))

	started := time.Now()
	report, err := orch.Drain(s.ctx)
	elapsed := time.Since(started)

	s.Require().NoError(err)
	s.Less(elapsed, 2*time.Second)
	s.Equal(1, report.Deferred)
	s.Zero(report.Synced)
	s.EqualValues(1, s.remote.saleCalls.Load())

	op, _ := s.queue.Get(id)
	s.Equal(queue.StatusUnsynced, op.Status)
	s.EqualValues(5, s.remoteStock(p.ID))
	s.EqualValues(4, s.localStock(p.ID))
}

func (s *OrchestratorSuite) TestDrain_ReplaysProductEditsAndDeletes() {
	keep := s.serverProduct("Macarrão", 200, 350, 4)
	gone := s.serverProduct("Vinagre", 100, 250, 4)
	s.sync()

	edit := product.Draft{SellPrice: ptr(int64(399))}
	_, _, err := s.cache.ApplyLocalEdit(keep.ID, edit)
	s.Require().NoError(err)
	_, err = s.queue.Enqueue(queue.Operation{Kind: queue.KindProductUpdate, ProductID: keep.ID, Draft: &edit})
	s.Require().NoError(err)
	_, err = s.queue.Enqueue(queue.Operation{Kind: queue.KindProductDelete, ProductID: gone.ID})
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Remove(gone.ID))

	report := s.sync()
	s.Equal(2, report.Synced)

	remoteKeep, err := s.svc.GetProduct(s.ctx, keep.ID)
	s.Require().NoError(err)
	s.EqualValues(399, remoteKeep.SellPrice)
	_, err = s.svc.GetProduct(s.ctx, gone.ID)
	s.ErrorIs(err, product.ErrProductNotFound)

	local, ok := s.cache.Get(keep.ID)
	s.Require().True(ok)
	s.False(local.IsLocallyModified)
	s.EqualValues(399, local.SellPrice)
}

func (s *OrchestratorSuite) TestDrain_PurgesResolvedOperationsAfterRetention() {
	p := s.serverProduct("Farinha", 300, 500, 5)
	s.sync()
	id := s.sellOffline(p.ID, 1)
	s.sync()

	s.clock.Advance(orchestrator.DefaultRetention + time.Hour)
	report := s.sync()
	s.Equal(1, report.Purged)
	_, ok := s.queue.Get(id)
	s.False(ok)
}

func (s *OrchestratorSuite) TestDrain_ConcurrentCallsRunOnce() {
	p := s.serverProduct("Manteiga", 800, 1200, 5)
	s.sync()
	s.sellOffline(p.ID, 1)

	s.remote.gate = make(chan struct{})
	s.remote.entered = make(chan struct{}, 1)

	done := make(chan orchestrator.Report)
	go func() {
		report, _ := s.orch.Drain(s.ctx)
		done <- report
	}()
	<-s.remote.entered

	_, err := s.orch.Drain(s.ctx)
	s.ErrorIs(err, orchestrator.ErrDrainInProgress)

	close(s.remote.gate)
	report := <-done
	s.Equal(1, report.Synced)
	s.EqualValues(1, s.remote.saleCalls.Load())
}

func (s *OrchestratorSuite) TestExclusive_RefusesWhileDraining() {
	p := s.serverProduct("Óleo", 500, 900, 5)
	s.sync()
	s.sellOffline(p.ID, 1)

	s.remote.gate = make(chan struct{})
	s.remote.entered = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.orch.Drain(s.ctx)
	}()
	<-s.remote.entered

	called := false
	err := s.orch.Exclusive(func() error { called = true; return nil })
	s.ErrorIs(err, orchestrator.ErrDrainInProgress)
	s.False(called)

	close(s.remote.gate)
	<-done

	s.Require().NoError(s.orch.Exclusive(func() error { called = true; return nil }))
	s.True(called)
}

func (s *OrchestratorSuite) TestTrigger_DrainsInBackground() {
	p := s.serverProduct("Queijo", 900, 1500, 5)
	s.sync()
	s.sellOffline(p.ID, 2)

	ctx, cancel := context.WithCancel(s.ctx)
	s.orch.Trigger(ctx)
	cancel()
	s.orch.Wait()

	s.Equal(0, s.queue.PendingCount())
	s.EqualValues(3, s.remoteStock(p.ID))
}

func (s *OrchestratorSuite) TestRecoverPending_AppliesMissingDeltasOnce() {
	p := s.serverProduct("Vela", 100, 300, 5)
	s.sync()

	s.sellOffline(p.ID, 1)
	// Venda gravada na fila sem a baixa local
	_, err := s.queue.Enqueue(queue.Operation{ProductID: p.ID, UserID: s.user.ID, Quantity: 2})
	s.Require().NoError(err)
	s.EqualValues(4, s.localStock(p.ID))

	recovered, err := s.orch.RecoverPending()
	s.Require().NoError(err)
	s.Equal(1, recovered)
	s.EqualValues(2, s.localStock(p.ID))

	recovered, err = s.orch.RecoverPending()
	s.Require().NoError(err)
	s.Equal(0, recovered)
	s.EqualValues(2, s.localStock(p.ID))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, orchestrator.OutcomeSuccess, orchestrator.Classify(nil))
	assert.Equal(t, orchestrator.OutcomeTransient, orchestrator.Classify(remote.ErrTransient))
	assert.Equal(t, orchestrator.OutcomeTransient, orchestrator.Classify(context.DeadlineExceeded))
	assert.Equal(t, orchestrator.OutcomePermanent, orchestrator.Classify(sale.ErrInsufficientStock))
	assert.Equal(t, orchestrator.OutcomePermanent, orchestrator.Classify(remote.ErrRejected))

	assert.Equal(t, dto.ReasonUserNotFound, orchestrator.Reason(user.ErrUserNotFound))
	assert.Equal(t, "REJECTED", orchestrator.Reason(errors.Join(remote.ErrRejected)))
}
