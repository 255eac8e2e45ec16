package sale

import (
	"errors"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
)

// Erros do domínio de vendas
var (
	ErrInvalidQuantity         = errors.New("quantidade deve ser maior que zero")
	ErrInsufficientStock       = errors.New("estoque insuficiente")
	ErrInvalidLimit            = errors.New("limite deve ser maior que zero")
	ErrInvalidRange            = errors.New("data inicial deve ser anterior à data final")
	ErrSaleNotFound            = errors.New("venda não encontrada")
	ErrDuplicateIdempotencyKey = errors.New("venda com mesma chave de idempotência já registrada")
)

// Limites das consultas de vendas
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Rótulos usados quando o produto ou o usuário da venda não existem mais
const (
	UnknownProductName = "Unknown Product"
	UnknownProductSKU  = "N/A"
	UnknownUserName    = "Unknown User"
)

// Transaction representa uma venda registrada no livro-razão do servidor.
// É criada uma única vez por venda aceita e nunca alterada.
type Transaction struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	UserID         string    `json:"user_id"`
	Quantity       int64     `json:"quantity"`
	TotalSale      int64     `json:"total_sale"`
	TotalProfit    int64     `json:"total_profit"`
	Timestamp      time.Time `json:"timestamp"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

// Detailed é uma venda acompanhada dos nomes do produto e do usuário
type Detailed struct {
	Transaction
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	UserName    string `json:"user_name"`
}

// Totals calcula o total de venda e o lucro para a quantidade informada
func Totals(p *product.Product, quantity int64) (totalSale, totalProfit int64) {
	return p.SellPrice * quantity, p.Profit() * quantity
}

// NewTransaction cria a venda com os totais calculados a partir dos preços atuais do produto
func NewTransaction(id string, p *product.Product, userID string, quantity int64, idempotencyKey string, now time.Time) (*Transaction, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	totalSale, totalProfit := Totals(p, quantity)
	return &Transaction{
		ID:             id,
		ProductID:      p.ID,
		UserID:         userID,
		Quantity:       quantity,
		TotalSale:      totalSale,
		TotalProfit:    totalProfit,
		Timestamp:      now,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// ClampLimit aplica o limite padrão e o teto das consultas
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
