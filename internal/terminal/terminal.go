// Package terminal reúne o cache, a fila, o monitor de conectividade e a
// sincronização em um único ponto de entrada para a interface do caixa.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/adapter/remote"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/terminal/cache"
	"github.com/hugohenrick/pdv-sync/internal/terminal/connectivity"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
	"github.com/hugohenrick/pdv-sync/internal/terminal/orchestrator"
	"github.com/hugohenrick/pdv-sync/internal/terminal/queue"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
)

// Remote é a API do servidor usada pelo terminal
type Remote interface {
	orchestrator.Remote
	Ping(ctx context.Context) error
}

// SaleResult descreve como a venda foi aceita
type SaleResult struct {
	// Queued é true quando a venda ficou na fila para envio posterior
	Queued         bool
	LocalID        uint64
	TransactionID  string
	RemainingStock int64
	TotalSale      int64
	TotalProfit    int64
}

// Options configura o terminal
type Options struct {
	Clock         func() time.Time
	Logger        logger.Logger
	CallTimeout   time.Duration
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
	SyncInterval  time.Duration
	Retention     time.Duration
	StartOnline   bool
}

// Terminal é o ponto de entrada das operações do caixa
type Terminal struct {
	store   *localstore.Store
	cache   *cache.Cache
	queue   *queue.Queue
	monitor *connectivity.Monitor
	orch    *orchestrator.Orchestrator
	remote  Remote

	clock       func() time.Time
	log         logger.Logger
	callTimeout time.Duration
	newID       func() string

	// offlineMu serializa conferência de estoque, enfileiramento e baixa local das vendas offline
	offlineMu sync.Mutex
}

// New monta o terminal sobre o armazenamento local já aberto
func New(store *localstore.Store, r Remote, opts Options) (*Terminal, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 5 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = opts.CallTimeout
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 30 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = orchestrator.DefaultRetention
	}

	c, err := cache.New(store, opts.Clock)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar cache de produtos: %w", err)
	}
	q, err := queue.New(store, c, queue.WithClock(opts.Clock))
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar fila de operações: %w", err)
	}

	t := &Terminal{
		store:       store,
		cache:       c,
		queue:       q,
		remote:      r,
		clock:       opts.Clock,
		log:         opts.Logger,
		callTimeout: opts.CallTimeout,
		newID:       uuid.NewString,
	}
	t.orch = orchestrator.New(q, c, r,
		orchestrator.WithCallTimeout(opts.CallTimeout),
		orchestrator.WithRetention(opts.Retention),
		orchestrator.WithInterval(opts.SyncInterval),
		orchestrator.WithLogger(opts.Logger),
	)
	t.monitor = connectivity.NewMonitor(opts.StartOnline,
		connectivity.WithProbe(r, opts.ProbeInterval, opts.ProbeTimeout),
		connectivity.WithLogger(opts.Logger),
	)
	t.monitor.OnReconnect(t.orch.Trigger)

	recovered, err := t.orch.RecoverPending()
	if err != nil {
		return nil, err
	}
	if recovered > 0 {
		t.log.Warn("Baixas de estoque pendentes recuperadas", "operacoes", recovered)
	}

	return t, nil
}

// Run executa a sonda de conectividade e a sincronização periódica até o contexto ser cancelado
func (t *Terminal) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		t.monitor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		t.orch.Run(ctx, t.monitor.IsOnline)
	}()
	wg.Wait()
	t.orch.Wait()
}

// Wait aguarda as sincronizações disparadas pela reconexão
func (t *Terminal) Wait() {
	t.orch.Wait()
}

// Close aguarda sincronizações em andamento e fecha o armazenamento local
func (t *Terminal) Close() error {
	t.orch.Wait()
	return t.store.Close()
}

// IsOnline indica se o terminal está conectado ao servidor
func (t *Terminal) IsOnline() bool {
	return t.monitor.IsOnline()
}

// SetOnline aplica um sinal externo de conectividade
func (t *Terminal) SetOnline(ctx context.Context, online bool) bool {
	return t.monitor.Set(ctx, online)
}

// PendingSyncCount retorna a quantidade de operações aguardando envio
func (t *Terminal) PendingSyncCount() int {
	return t.queue.PendingCount()
}

// Operations retorna todas as operações da fila local
func (t *Terminal) Operations() []queue.Operation {
	return t.queue.All()
}

// Products retorna os produtos do cache local
func (t *Terminal) Products() []*product.Product {
	return t.cache.List()
}

// Product retorna um produto do cache local
func (t *Terminal) Product(id string) (*product.Product, error) {
	p, ok := t.cache.Get(id)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

// SyncNow executa uma sincronização imediata
func (t *Terminal) SyncNow(ctx context.Context) (orchestrator.Report, error) {
	return t.orch.Drain(ctx)
}

// EnqueueSale registra uma venda. Online a venda vai direto ao servidor;
// offline, ou se o servidor não responder, fica na fila e o estoque local é baixado.
// Recusas do servidor retornam o erro de domínio correspondente.
func (t *Terminal) EnqueueSale(ctx context.Context, productID, userID string, quantity int64) (*SaleResult, error) {
	if quantity <= 0 {
		return nil, sale.ErrInvalidQuantity
	}

	p, ok := t.cache.Get(productID)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	key := t.newID()

	if t.canGoDirect(productID) {
		callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
		receipt, err := t.remote.RecordSale(callCtx, remote.SaleRequest{
			ProductID:      productID,
			UserID:         userID,
			Quantity:       quantity,
			IdempotencyKey: key,
		})
		cancel()

		switch orchestrator.Classify(err) {
		case orchestrator.OutcomeSuccess:
			if err := t.cache.ConfirmStock(productID, receipt.RemainingStock); err != nil {
				t.log.Warn("Falha ao atualizar estoque local", "product_id", productID, "error", err)
			}
			totalSale, totalProfit := sale.Totals(p, quantity)
			return &SaleResult{
				TransactionID:  receipt.TransactionID,
				RemainingStock: receipt.RemainingStock,
				TotalSale:      totalSale,
				TotalProfit:    totalProfit,
			}, nil
		case orchestrator.OutcomePermanent:
			return nil, err
		default:
			t.log.Warn("Servidor não respondeu, venda enviada para a fila", "product_id", productID, "error", err)
			t.monitor.Set(ctx, false)
		}
	}

	t.offlineMu.Lock()
	defer t.offlineMu.Unlock()

	totalSale, totalProfit := sale.Totals(p, quantity)
	id, err := t.queue.Enqueue(queue.Operation{
		IdempotencyKey: key,
		Kind:           queue.KindSale,
		ProductID:      productID,
		UserID:         userID,
		Quantity:       quantity,
		TotalSale:      totalSale,
		TotalProfit:    totalProfit,
	})
	if err != nil {
		return nil, err
	}
	if _, err := t.cache.ApplyOptimisticStockDelta(productID, -quantity, id); err != nil {
		t.log.Warn("Falha ao baixar estoque local", "product_id", productID, "error", err)
	}

	remaining, _ := t.cache.StockOf(productID)
	return &SaleResult{
		Queued:         true,
		LocalID:        id,
		RemainingStock: remaining,
		TotalSale:      totalSale,
		TotalProfit:    totalProfit,
	}, nil
}

// CreateProduct cadastra um produto. Offline o produto recebe um id provisório
// que é trocado pelo definitivo na sincronização.
func (t *Terminal) CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error) {
	if d.Name == nil {
		return nil, product.ErrEmptyName
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if t.monitor.IsOnline() {
		callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
		created, err := t.remote.CreateProduct(callCtx, d)
		cancel()

		switch orchestrator.Classify(err) {
		case orchestrator.OutcomeSuccess:
			if err := t.cache.ConfirmProduct(created); err != nil {
				t.log.Warn("Falha ao gravar produto no cache", "product_id", created.ID, "error", err)
			}
			return created, nil
		case orchestrator.OutcomePermanent:
			return nil, err
		default:
			t.log.Warn("Servidor não respondeu, cadastro enviado para a fila", "error", err)
			t.monitor.Set(ctx, false)
		}
	}

	tempID := product.PlaceholderPrefix + t.newID()
	p, err := product.NewProduct(tempID, product.ProvisionalSKU(*d.Name), d, t.clock())
	if err != nil {
		return nil, err
	}
	draft := d
	if _, err := t.queue.Enqueue(queue.Operation{Kind: queue.KindProductCreate, ProductID: tempID, Draft: &draft}); err != nil {
		return nil, err
	}
	if err := t.cache.AddPlaceholder(p); err != nil {
		return nil, err
	}

	created, _ := t.cache.Get(tempID)
	return created, nil
}

// UpdateProduct altera parcialmente um produto
func (t *Terminal) UpdateProduct(ctx context.Context, id string, d product.Draft) (*product.Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	current, ok := t.cache.Get(id)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	if d.IsEmpty() {
		return current, nil
	}

	if t.canGoDirect(id) {
		callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
		updated, err := t.remote.UpdateProduct(callCtx, id, d)
		cancel()

		switch orchestrator.Classify(err) {
		case orchestrator.OutcomeSuccess:
			if err := t.cache.ConfirmProduct(updated); err != nil {
				t.log.Warn("Falha ao gravar produto no cache", "product_id", id, "error", err)
			}
			return updated, nil
		case orchestrator.OutcomePermanent:
			return nil, err
		default:
			t.log.Warn("Servidor não respondeu, alteração enviada para a fila", "product_id", id, "error", err)
			t.monitor.Set(ctx, false)
		}
	}

	draft := d
	if _, err := t.queue.Enqueue(queue.Operation{Kind: queue.KindProductUpdate, ProductID: id, Draft: &draft}); err != nil {
		return nil, err
	}
	updated, _, err := t.cache.ApplyLocalEdit(id, d)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProduct remove um produto. Um produto cadastrado offline e ainda não
// enviado tem o cadastro e as vendas pendentes descartados, sem chegar ao servidor.
func (t *Terminal) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := t.cache.Get(id); !ok {
		return product.ErrProductNotFound
	}

	if product.IsPlaceholderID(id) {
		canceled, err := t.cancelPlaceholder(id)
		if err != nil {
			return err
		}
		if canceled {
			return nil
		}
	}

	if t.canGoDirect(id) {
		callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
		err := t.remote.DeleteProduct(callCtx, id)
		cancel()

		switch outcome := orchestrator.Classify(err); {
		case outcome == orchestrator.OutcomeSuccess, errors.Is(err, product.ErrProductNotFound):
			return t.cache.Remove(id)
		case outcome == orchestrator.OutcomePermanent:
			return err
		default:
			t.log.Warn("Servidor não respondeu, exclusão enviada para a fila", "product_id", id, "error", err)
			t.monitor.Set(ctx, false)
		}
	}

	if _, err := t.queue.Enqueue(queue.Operation{Kind: queue.KindProductDelete, ProductID: id}); err != nil {
		return err
	}
	return t.cache.Remove(id)
}

// cancelPlaceholder descarta as operações pendentes de um produto cujo cadastro
// ainda não foi enviado. Retorna false se não houver cadastro pendente.
// Com uma sincronização em andamento retorna ErrDrainInProgress.
func (t *Terminal) cancelPlaceholder(id string) (bool, error) {
	canceled := 0
	err := t.orch.Exclusive(func() error {
		if !t.hasPendingCreate(id) {
			return nil
		}
		n, err := t.queue.CancelProduct(id, dto.ReasonCanceled)
		if err != nil {
			return err
		}
		canceled = n
		return t.cache.Remove(id)
	})
	if err != nil {
		return false, err
	}
	if canceled > 0 {
		t.log.Info("Cadastro offline cancelado", "product_id", id, "operacoes", canceled)
	}
	return canceled > 0, nil
}

func (t *Terminal) hasPendingCreate(id string) bool {
	for _, op := range t.queue.Unsynced() {
		if op.Kind == queue.KindProductCreate && op.ProductID == id {
			return true
		}
	}
	return false
}

// canGoDirect indica se a operação pode ir direto ao servidor sem furar a ordem da fila
func (t *Terminal) canGoDirect(productID string) bool {
	return t.monitor.IsOnline() && !product.IsPlaceholderID(productID) && !t.queue.HasPending(productID)
}
