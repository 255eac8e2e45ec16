package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/hugohenrick/pdv-sync/pkg/metrics"
)

// Service é a autoridade sobre vendas, estoque e relatórios diários
type Service struct {
	store    Store
	clock    func() time.Time
	location *time.Location
	newID    func() string
	log      logger.Logger
}

// Option configura o Service
type Option func(*Service)

// WithClock define a fonte de tempo
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation define o fuso horário do negócio usado nos relatórios diários
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithLogger define o logger
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService cria uma nova instância de Service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		clock:    time.Now,
		location: time.UTC,
		newID:    uuid.NewString,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaleRequest é o pedido de registro de uma venda
type SaleRequest struct {
	ProductID      string
	UserID         string
	Quantity       int64
	IdempotencyKey string
}

// Receipt é o resultado de uma venda registrada
type Receipt struct {
	TransactionID  string
	RemainingStock int64
	Replayed       bool
	Transaction    *sale.Transaction
}

// RecordSale registra a venda de forma atômica: grava a transação, baixa o estoque
// e soma os totais ao relatório do dia. Se a chave de idempotência já foi usada,
// retorna a venda existente sem alterar nada.
func (s *Service) RecordSale(ctx context.Context, req SaleRequest) (*Receipt, error) {
	receipt, err := s.recordSale(ctx, req)
	if errors.Is(err, sale.ErrDuplicateIdempotencyKey) {
		// Outra réplica da mesma venda confirmou primeiro
		receipt, err = s.replayedReceipt(ctx, req.IdempotencyKey)
	}

	switch {
	case err != nil:
		metrics.SalesRejected.WithLabelValues(rejectReason(err)).Inc()
		s.log.Warn("Venda rejeitada", "product_id", req.ProductID, "user_id", req.UserID, "quantity", req.Quantity, "error", err)
		return nil, err
	case receipt.Replayed:
		metrics.SalesReplayed.Inc()
		s.log.Info("Venda repetida ignorada", "transaction_id", receipt.TransactionID, "idempotency_key", req.IdempotencyKey)
	default:
		metrics.SalesRecorded.Inc()
		s.log.Debug("Venda registrada", "transaction_id", receipt.TransactionID, "remaining_stock", receipt.RemainingStock)
	}

	return receipt, nil
}

func (s *Service) recordSale(ctx context.Context, req SaleRequest) (*Receipt, error) {
	if req.Quantity <= 0 {
		return nil, sale.ErrInvalidQuantity
	}

	var receipt *Receipt
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		receipt = nil

		p, err := tx.LockProduct(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) && req.IdempotencyKey != "" {
				// O produto pode ter sido removido depois que a venda foi aceita
				existing, findErr := tx.FindSaleByIdempotencyKey(ctx, req.IdempotencyKey)
				if findErr == nil {
					receipt = &Receipt{TransactionID: existing.ID, Replayed: true, Transaction: existing}
					return nil
				}
				if !errors.Is(findErr, sale.ErrSaleNotFound) {
					return findErr
				}
			}
			return err
		}

		if req.IdempotencyKey != "" {
			existing, err := tx.FindSaleByIdempotencyKey(ctx, req.IdempotencyKey)
			if err == nil {
				receipt = &Receipt{TransactionID: existing.ID, RemainingStock: p.StockQuantity, Replayed: true, Transaction: existing}
				return nil
			}
			if !errors.Is(err, sale.ErrSaleNotFound) {
				return err
			}
		}

		ok, err := tx.UserExists(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return user.ErrUserNotFound
		}

		if p.StockQuantity < req.Quantity {
			return sale.ErrInsufficientStock
		}

		now := s.clock()
		t, err := sale.NewTransaction(s.newID(), p, req.UserID, req.Quantity, req.IdempotencyKey, now)
		if err != nil {
			return err
		}
		if err := tx.InsertSale(ctx, t); err != nil {
			return err
		}

		remaining := p.StockQuantity - req.Quantity
		if err := tx.SetProductStock(ctx, p.ID, remaining, now); err != nil {
			return err
		}

		day := report.StartOfDay(now, s.location)
		totals := report.Totals{Revenue: t.TotalSale, Profit: t.TotalProfit, Quantity: t.Quantity}
		if err := tx.AddToDailyReport(ctx, day, totals); err != nil {
			return err
		}

		receipt = &Receipt{TransactionID: t.ID, RemainingStock: remaining, Transaction: t}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

func (s *Service) replayedReceipt(ctx context.Context, key string) (*Receipt, error) {
	existing, err := s.store.FindSaleByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar venda repetida: %w", err)
	}

	receipt := &Receipt{TransactionID: existing.ID, Replayed: true, Transaction: existing}
	if p, err := s.store.FindProductByID(ctx, existing.ProductID); err == nil {
		receipt.RemainingStock = p.StockQuantity
	}
	return receipt, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, sale.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, product.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, user.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, sale.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "internal"
	}
}
