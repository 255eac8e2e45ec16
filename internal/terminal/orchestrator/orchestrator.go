// Package orchestrator reenvia ao servidor as operações feitas offline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/adapter/remote"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/terminal/cache"
	"github.com/hugohenrick/pdv-sync/internal/terminal/queue"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/hugohenrick/pdv-sync/pkg/metrics"
)

// ErrDrainInProgress indica que outra sincronização já está em andamento
var ErrDrainInProgress = errors.New("sincronização já em andamento")

// Retenção padrão das operações resolvidas
const DefaultRetention = 7 * 24 * time.Hour

// Remote é o subconjunto da API do servidor usado na sincronização
type Remote interface {
	RecordSale(ctx context.Context, req remote.SaleRequest) (*remote.SaleReceipt, error)
	ListProducts(ctx context.Context) ([]*product.Product, error)
	CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, d product.Draft) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Outcome é a classificação do resultado de uma chamada ao servidor
type Outcome int

// Resultados possíveis
const (
	OutcomeSuccess Outcome = iota
	OutcomePermanent
	OutcomeTransient
)

// Classify separa falhas temporárias das recusas definitivas do servidor
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, remote.ErrTransient),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return OutcomeTransient
	default:
		return OutcomePermanent
	}
}

// Reason retorna o código estável usado para registrar o descarte
func Reason(err error) string {
	if errors.Is(err, remote.ErrRejected) {
		return "REJECTED"
	}
	_, reason := dto.ErrorStatus(err)
	return reason
}

// Report resume uma execução de Drain
type Report struct {
	Synced    int
	Skipped   int
	Deferred  int
	Purged    int
	Refreshed bool
}

// Orchestrator drena a fila de operações pendentes
type Orchestrator struct {
	queue  *queue.Queue
	cache  *cache.Cache
	remote Remote
	log    logger.Logger

	callTimeout time.Duration
	retention   time.Duration
	interval    time.Duration

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// Option configura o orquestrador
type Option func(*Orchestrator)

// WithCallTimeout limita cada chamada ao servidor
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

// WithRetention define por quanto tempo as operações resolvidas ficam na fila
func WithRetention(d time.Duration) Option {
	return func(o *Orchestrator) { o.retention = d }
}

// WithInterval define o intervalo da sincronização periódica
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.interval = d }
}

// WithLogger define o logger
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New cria o orquestrador
func New(q *queue.Queue, c *cache.Cache, r Remote, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		queue:       q,
		cache:       c,
		remote:      r,
		log:         logger.NewNop(),
		callTimeout: 10 * time.Second,
		retention:   DefaultRetention,
		interval:    time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// drainState acompanha os produtos bloqueados durante uma execução
type drainState struct {
	blocked       map[string]bool
	rebound       map[string]string
	failedCreates map[string]bool
	report        Report
}

// Drain envia as operações pendentes em ordem de criação.
// Uma segunda chamada enquanto outra está em andamento retorna ErrDrainInProgress.
func (o *Orchestrator) Drain(ctx context.Context) (Report, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		metrics.Drains.WithLabelValues("busy").Inc()
		return Report{}, ErrDrainInProgress
	}
	defer o.inFlight.Store(false)

	started := time.Now()
	defer func() { metrics.DrainDuration.Observe(time.Since(started).Seconds()) }()

	st := &drainState{
		blocked:       map[string]bool{},
		rebound:       map[string]string{},
		failedCreates: map[string]bool{},
	}

	for _, op := range o.queue.Unsynced() {
		if ctx.Err() != nil {
			metrics.Drains.WithLabelValues("canceled").Inc()
			return st.report, ctx.Err()
		}
		if err := o.replayOne(ctx, st, op); err != nil {
			metrics.Drains.WithLabelValues("error").Inc()
			return st.report, err
		}
	}

	if err := o.refresh(ctx); err != nil {
		o.log.Warn("Falha ao atualizar produtos após sincronização", "error", err)
	} else {
		st.report.Refreshed = true
	}

	purged, err := o.queue.PurgeOlderThan(o.retention)
	if err != nil {
		o.log.Error("Falha ao limpar operações antigas", "error", err)
	} else if len(purged) > 0 {
		st.report.Purged = len(purged)
		if err := o.cache.Forget(purged); err != nil {
			o.log.Error("Falha ao limpar marcadores do cache", "error", err)
		}
	}

	result := "ok"
	if st.report.Deferred > 0 {
		result = "partial"
	}
	metrics.Drains.WithLabelValues(result).Inc()
	o.log.Info("Sincronização concluída",
		"sincronizadas", st.report.Synced,
		"descartadas", st.report.Skipped,
		"adiadas", st.report.Deferred,
		"removidas", st.report.Purged,
	)
	return st.report, nil
}

// Exclusive executa fn sem nenhuma sincronização em andamento.
// Retorna ErrDrainInProgress sem chamar fn se o Drain estiver rodando.
func (o *Orchestrator) Exclusive(fn func() error) error {
	if !o.inFlight.CompareAndSwap(false, true) {
		return ErrDrainInProgress
	}
	defer o.inFlight.Store(false)
	return fn()
}

// replayOne envia uma operação. Erros retornados são falhas de gravação local.
func (o *Orchestrator) replayOne(ctx context.Context, st *drainState, op queue.Operation) error {
	productID := op.ProductID
	if real, ok := st.rebound[productID]; ok {
		productID = real
	}

	if st.blocked[productID] {
		st.deferOp()
		return nil
	}
	if st.failedCreates[productID] {
		return o.skip(st, op, dto.ReasonProductNotFound)
	}
	// Produtos provisórios só seguem depois que a criação for confirmada
	if op.Kind != queue.KindProductCreate && product.IsPlaceholderID(productID) {
		st.blocked[productID] = true
		st.deferOp()
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	var (
		remoteID string
		err      error
	)
	switch op.Kind {
	case queue.KindSale:
		var receipt *remote.SaleReceipt
		receipt, err = o.remote.RecordSale(callCtx, remote.SaleRequest{
			ProductID:      productID,
			UserID:         op.UserID,
			Quantity:       op.Quantity,
			IdempotencyKey: op.IdempotencyKey,
		})
		if err == nil {
			remoteID = receipt.TransactionID
		}
	case queue.KindProductCreate:
		var localErr error
		remoteID, err, localErr = o.replayCreate(callCtx, st, op)
		if localErr != nil {
			o.log.Error("Produto criado no servidor mas não gravado localmente",
				"op", op.ID, "produto", op.ProductID, "remote_id", remoteID, "error", localErr)
			return localErr
		}
	case queue.KindProductUpdate:
		if op.Draft == nil {
			return o.skip(st, op, dto.ReasonInvalidRequest)
		}
		var p *product.Product
		p, err = o.remote.UpdateProduct(callCtx, productID, *op.Draft)
		if err == nil {
			remoteID = p.ID
		}
	case queue.KindProductDelete:
		err = o.remote.DeleteProduct(callCtx, productID)
		if errors.Is(err, product.ErrProductNotFound) {
			err = nil
		}
		remoteID = productID
	default:
		return o.skip(st, op, dto.ReasonInvalidRequest)
	}

	switch Classify(err) {
	case OutcomeSuccess:
		if err := o.queue.MarkSynced(op.ID, remoteID); err != nil {
			return fmt.Errorf("erro ao confirmar operação %d: %w", op.ID, err)
		}
		st.report.Synced++
		metrics.ReplayedOperations.WithLabelValues("synced").Inc()
		return nil
	case OutcomePermanent:
		if op.Kind == queue.KindProductCreate {
			st.failedCreates[productID] = true
			if err := o.cache.Remove(productID); err != nil {
				return err
			}
		}
		o.log.Warn("Operação recusada pelo servidor", "op", op.ID, "kind", op.Kind, "error", err)
		return o.skip(st, op, Reason(err))
	default:
		o.log.Debug("Falha temporária ao sincronizar", "op", op.ID, "produto", productID, "error", err)
		st.blocked[productID] = true
		st.deferOp()
		return nil
	}
}

// replayCreate cria o produto no servidor e troca o id provisório pelo definitivo.
// remoteErr é a resposta do servidor; localErr é uma falha ao gravar o resultado
// no terminal depois que o servidor já confirmou a criação.
func (o *Orchestrator) replayCreate(ctx context.Context, st *drainState, op queue.Operation) (remoteID string, remoteErr, localErr error) {
	if op.Draft == nil {
		return "", fmt.Errorf("%w: criação sem dados", remote.ErrRejected), nil
	}

	created, err := o.remote.CreateProduct(ctx, *op.Draft)
	if err != nil {
		return "", err, nil
	}

	if err := o.cache.ReplacePlaceholder(op.ProductID, created); err != nil {
		return created.ID, nil, fmt.Errorf("erro ao gravar produto criado: %w", err)
	}
	if _, err := o.queue.RebindProduct(op.ProductID, created.ID); err != nil {
		return created.ID, nil, fmt.Errorf("erro ao atualizar operações do produto: %w", err)
	}
	st.rebound[op.ProductID] = created.ID
	return created.ID, nil, nil
}

func (o *Orchestrator) skip(st *drainState, op queue.Operation, reason string) error {
	if err := o.queue.MarkSkipped(op.ID, reason); err != nil {
		return fmt.Errorf("erro ao descartar operação %d: %w", op.ID, err)
	}
	st.report.Skipped++
	metrics.ReplayedOperations.WithLabelValues("skipped").Inc()
	return nil
}

func (st *drainState) deferOp() {
	st.report.Deferred++
	metrics.ReplayedOperations.WithLabelValues("deferred").Inc()
}

// refresh substitui o cache pelo estado do servidor e reaplica o que ainda está pendente
func (o *Orchestrator) refresh(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	products, err := o.remote.ListProducts(callCtx)
	if err != nil {
		return err
	}
	if err := o.cache.UpsertFromRemote(products); err != nil {
		return err
	}
	return o.reapplyPending()
}

func (o *Orchestrator) reapplyPending() error {
	for _, op := range o.queue.Unsynced() {
		var err error
		switch op.Kind {
		case queue.KindSale:
			_, err = o.cache.ApplyOptimisticStockDelta(op.ProductID, -op.Quantity, op.ID)
		case queue.KindProductUpdate:
			if op.Draft != nil {
				_, _, err = o.cache.ApplyLocalEdit(op.ProductID, *op.Draft)
			}
		case queue.KindProductDelete:
			err = o.cache.Remove(op.ProductID)
		}
		if err != nil {
			return fmt.Errorf("erro ao reaplicar operação %d: %w", op.ID, err)
		}
	}
	return nil
}

// RecoverPending reaplica no cache as baixas das vendas pendentes.
// Cobre a queda do processo entre a gravação na fila e a baixa local.
func (o *Orchestrator) RecoverPending() (int, error) {
	recovered := 0
	for _, op := range o.queue.Unsynced() {
		if op.Kind != queue.KindSale {
			continue
		}
		applied, err := o.cache.ApplyOptimisticStockDelta(op.ProductID, -op.Quantity, op.ID)
		if err != nil {
			return recovered, fmt.Errorf("erro ao recuperar operação %d: %w", op.ID, err)
		}
		if applied {
			recovered++
		}
	}
	return recovered, nil
}

// Trigger inicia uma sincronização em segundo plano.
// O contexto do chamador não cancela a sincronização iniciada.
func (o *Orchestrator) Trigger(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if _, err := o.Drain(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrDrainInProgress) {
			o.log.Error("Falha na sincronização", "error", err)
		}
	}()
}

// Wait aguarda as sincronizações iniciadas por Trigger
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Run sincroniza periodicamente enquanto online() for verdadeiro, até o contexto ser cancelado
func (o *Orchestrator) Run(ctx context.Context, online func() bool) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if online() {
				o.tick(ctx)
			}
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Pânico na sincronização periódica", "panic", r)
		}
	}()

	if _, err := o.Drain(ctx); err != nil && !errors.Is(err, ErrDrainInProgress) && ctx.Err() == nil {
		o.log.Error("Falha na sincronização periódica", "error", err)
	}
}
