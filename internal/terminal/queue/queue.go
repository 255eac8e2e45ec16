// Package queue é a fila durável de operações feitas enquanto o terminal está offline.
package queue

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
	"github.com/hugohenrick/pdv-sync/pkg/metrics"
)

const (
	queueBucket = "queue"
	metaBucket  = "meta"
	sequenceKey = "queue_sequence"
)

// Erros da fila
var (
	ErrQueuePersistence  = errors.New("falha ao gravar operação na fila local")
	ErrOperationNotFound = errors.New("operação não encontrada na fila")
	ErrOperationFrozen   = errors.New("operação já sincronizada ou descartada")
)

// Status é a situação de uma operação pendente
type Status string

// Situações possíveis
const (
	StatusUnsynced Status = "unsynced"
	StatusSynced   Status = "synced"
	StatusSkipped  Status = "skipped"
)

// Kind é o tipo da operação
type Kind string

// Tipos de operação
const (
	KindSale          Kind = "sale"
	KindProductCreate Kind = "product_create"
	KindProductUpdate Kind = "product_update"
	KindProductDelete Kind = "product_delete"
)

// Operation é uma operação aguardando envio ao servidor.
// Depois de sincronizada ou descartada não muda mais.
type Operation struct {
	ID             uint64         `json:"id"`
	IdempotencyKey string         `json:"idempotency_key"`
	Kind           Kind           `json:"kind"`
	ProductID      string         `json:"product_id"`
	UserID         string         `json:"user_id,omitempty"`
	Quantity       int64          `json:"quantity,omitempty"`
	TotalSale      int64          `json:"total_sale,omitempty"`
	TotalProfit    int64          `json:"total_profit,omitempty"`
	Draft          *product.Draft `json:"draft,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Status         Status         `json:"status"`
	RemoteID       string         `json:"remote_id,omitempty"`
	SkipReason     string         `json:"skip_reason,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
}

// Frozen indica se a operação já foi resolvida
func (o *Operation) Frozen() bool {
	return o.Status == StatusSynced || o.Status == StatusSkipped
}

// StockChecker informa o estoque local usado na conferência antes de enfileirar vendas
type StockChecker interface {
	StockOf(productID string) (int64, bool)
}

// Queue é a fila de operações pendentes
type Queue struct {
	mu     sync.Mutex
	store  *localstore.Store
	stock  StockChecker
	ops    map[uint64]*Operation
	nextID uint64
	clock  func() time.Time
	newKey func() string
}

// Option configura a fila
type Option func(*Queue)

// WithClock define a fonte de tempo
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) { q.clock = clock }
}

// New carrega a fila do armazenamento local
func New(store *localstore.Store, stock StockChecker, opts ...Option) (*Queue, error) {
	q := &Queue{
		store:  store,
		stock:  stock,
		ops:    map[uint64]*Operation{},
		nextID: 1,
		clock:  time.Now,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}

	err := store.Iterate(queueBucket, func(_ string, value []byte) error {
		var op Operation
		if err := json.Unmarshal(value, &op); err != nil {
			return fmt.Errorf("operação local corrompida: %w", err)
		}
		q.ops[op.ID] = &op
		if op.ID >= q.nextID {
			q.nextID = op.ID + 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := store.Get(metaBucket, sequenceKey)
	switch {
	case err == nil:
		seq, perr := strconv.ParseUint(string(raw), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("sequência da fila corrompida: %w", perr)
		}
		if seq > q.nextID {
			q.nextID = seq
		}
	case !errors.Is(err, localstore.ErrNotFound):
		return nil, err
	}

	q.updateGauge()
	return q, nil
}

func opKey(id uint64) string {
	// Zeros à esquerda mantêm a ordem das chaves igual à ordem dos ids
	return fmt.Sprintf("%020d", id)
}

// Enqueue grava a operação e retorna o id atribuído.
// Vendas são conferidas contra o estoque local antes de entrar na fila.
func (q *Queue) Enqueue(op Operation) (uint64, error) {
	if op.Kind == "" {
		op.Kind = KindSale
	}

	if op.Kind == KindSale {
		stock, ok := q.stock.StockOf(op.ProductID)
		if !ok {
			return 0, product.ErrProductNotFound
		}
		if op.Quantity > stock {
			return 0, sale.ErrInsufficientStock
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	op.ID = q.nextID
	if op.IdempotencyKey == "" {
		op.IdempotencyKey = q.newKey()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = q.clock()
	}
	op.Status = StatusUnsynced
	op.RemoteID, op.SkipReason, op.ResolvedAt = "", "", nil

	err := q.store.Update(func(b *localstore.Batch) error {
		if err := b.PutJSON(queueBucket, opKey(op.ID), &op); err != nil {
			return err
		}
		b.Put(metaBucket, sequenceKey, []byte(strconv.FormatUint(op.ID+1, 10)))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueuePersistence, err)
	}

	q.nextID = op.ID + 1
	q.ops[op.ID] = &op
	q.updateGauge()
	return op.ID, nil
}

// Get retorna uma cópia da operação
func (q *Queue) Get(id uint64) (Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Unsynced retorna as operações pendentes em ordem de id
func (q *Queue) Unsynced() []Operation {
	return q.filter(func(op *Operation) bool { return op.Status == StatusUnsynced })
}

// All retorna todas as operações em ordem de id
func (q *Queue) All() []Operation {
	return q.filter(func(*Operation) bool { return true })
}

func (q *Queue) filter(match func(*Operation) bool) []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := make([]Operation, 0, len(q.ops))
	for _, op := range q.ops {
		if match(op) {
			list = append(list, *op)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// PendingCount retorna a quantidade de operações não sincronizadas
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pendingLocked()
}

func (q *Queue) pendingLocked() int {
	n := 0
	for _, op := range q.ops {
		if op.Status == StatusUnsynced {
			n++
		}
	}
	return n
}

// HasPending indica se há operações não sincronizadas para o produto
func (q *Queue) HasPending(productID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, op := range q.ops {
		if op.Status == StatusUnsynced && op.ProductID == productID {
			return true
		}
	}
	return false
}

// MarkSynced registra o sucesso da operação com o id atribuído pelo servidor
func (q *Queue) MarkSynced(id uint64, remoteID string) error {
	return q.resolve(id, func(op *Operation) {
		op.Status = StatusSynced
		op.RemoteID = remoteID
	})
}

// MarkSkipped descarta a operação rejeitada pelo servidor
func (q *Queue) MarkSkipped(id uint64, reason string) error {
	return q.resolve(id, func(op *Operation) {
		op.Status = StatusSkipped
		op.SkipReason = reason
	})
}

func (q *Queue) resolve(id uint64, apply func(*Operation)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	current, ok := q.ops[id]
	if !ok {
		return ErrOperationNotFound
	}
	if current.Frozen() {
		return ErrOperationFrozen
	}

	op := *current
	apply(&op)
	now := q.clock()
	op.ResolvedAt = &now

	if err := q.persist(&op); err != nil {
		return err
	}
	q.ops[id] = &op
	q.updateGauge()
	return nil
}

// RebindProduct troca o produto provisório pelo id definitivo nas operações pendentes
func (q *Queue) RebindProduct(fromID, toID string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var changed []*Operation
	for _, current := range q.ops {
		if current.Status == StatusUnsynced && current.ProductID == fromID {
			op := *current
			op.ProductID = toID
			changed = append(changed, &op)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	err := q.store.Update(func(b *localstore.Batch) error {
		for _, op := range changed {
			if err := b.PutJSON(queueBucket, opKey(op.ID), op); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueuePersistence, err)
	}

	for _, op := range changed {
		q.ops[op.ID] = op
	}
	return len(changed), nil
}

// CancelProduct descarta de uma vez todas as operações pendentes do produto.
// Retorna quantas foram descartadas.
func (q *Queue) CancelProduct(productID, reason string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock()
	var changed []*Operation
	for _, current := range q.ops {
		if current.Status == StatusUnsynced && current.ProductID == productID {
			op := *current
			op.Status = StatusSkipped
			op.SkipReason = reason
			op.ResolvedAt = &now
			changed = append(changed, &op)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	err := q.store.Update(func(b *localstore.Batch) error {
		for _, op := range changed {
			if err := b.PutJSON(queueBucket, opKey(op.ID), op); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueuePersistence, err)
	}

	for _, op := range changed {
		q.ops[op.ID] = op
	}
	q.updateGauge()
	return len(changed), nil
}

// PurgeOlderThan remove as operações resolvidas criadas antes da janela de retenção.
// Retorna os ids removidos.
func (q *Queue) PurgeOlderThan(retention time.Duration) ([]uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.clock().Add(-retention)
	var purged []uint64
	for id, op := range q.ops {
		if op.Frozen() && op.CreatedAt.Before(cutoff) {
			purged = append(purged, id)
		}
	}
	if len(purged) == 0 {
		return nil, nil
	}
	sort.Slice(purged, func(i, j int) bool { return purged[i] < purged[j] })

	err := q.store.Update(func(b *localstore.Batch) error {
		for _, id := range purged {
			b.Delete(queueBucket, opKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueuePersistence, err)
	}

	for _, id := range purged {
		delete(q.ops, id)
	}
	return purged, nil
}

func (q *Queue) persist(op *Operation) error {
	err := q.store.Update(func(b *localstore.Batch) error {
		return b.PutJSON(queueBucket, opKey(op.ID), op)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueuePersistence, err)
	}
	return nil
}

func (q *Queue) updateGauge() {
	metrics.PendingOperations.Set(float64(q.pendingLocked()))
}
