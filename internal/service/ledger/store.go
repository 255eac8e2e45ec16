package ledger

import (
	"context"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/report"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
)

// Tx são as operações disponíveis dentro de uma transação do livro-razão.
// Tudo que for feito por um Tx é confirmado ou desfeito em conjunto.
type Tx interface {
	// LockProduct lê o produto bloqueando-o até o fim da transação
	LockProduct(ctx context.Context, id string) (*product.Product, error)

	// UserExists verifica se o usuário existe
	UserExists(ctx context.Context, id string) (bool, error)

	// FindSaleByIdempotencyKey busca uma venda já registrada com a chave
	FindSaleByIdempotencyKey(ctx context.Context, key string) (*sale.Transaction, error)

	// InsertSale grava a venda. Chave de idempotência repetida retorna sale.ErrDuplicateIdempotencyKey
	InsertSale(ctx context.Context, t *sale.Transaction) error

	// SetProductStock grava o novo estoque do produto
	SetProductStock(ctx context.Context, productID string, stock int64, now time.Time) error

	// AddToDailyReport soma os totais ao relatório do dia, criando-o se não existir
	AddToDailyReport(ctx context.Context, day time.Time, totals report.Totals) error
}

// Store é o armazenamento autoritativo do servidor
type Store interface {
	product.Repository
	user.Repository
	sale.Repository
	report.Repository

	// WithinTx executa fn em uma transação. Se fn retornar erro nada é gravado.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
