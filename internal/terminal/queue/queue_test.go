package queue

import (
	"testing"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockMap map[string]int64

func (s stockMap) StockOf(id string) (int64, bool) {
	v, ok := s[id]
	return v, ok
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newQueue(t *testing.T, stock stockMap) (*Queue, *localstore.Store, *clock) {
	t.Helper()
	store, err := localstore.OpenInMemory(logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clk := &clock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	q, err := New(store, stock, WithClock(clk.Now))
	require.NoError(t, err)
	return q, store, clk
}

func TestEnqueue_AssignsMonotonicIDs(t *testing.T) {
	q, _, _ := newQueue(t, stockMap{"p1": 10})

	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := q.Enqueue(Operation{ProductID: "p1", UserID: "u1", Quantity: 1})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	ops := q.Unsynced()
	require.Len(t, ops, 3)
	assert.Equal(t, KindSale, ops[0].Kind)
	assert.NotEmpty(t, ops[0].IdempotencyKey)
	assert.NotEqual(t, ops[0].IdempotencyKey, ops[1].IdempotencyKey)
	assert.Equal(t, 3, q.PendingCount())
}

func TestEnqueue_PreChecksStock(t *testing.T) {
	q, _, _ := newQueue(t, stockMap{"p1": 2})

	_, err := q.Enqueue(Operation{ProductID: "p1", Quantity: 3})
	assert.ErrorIs(t, err, sale.ErrInsufficientStock)

	_, err = q.Enqueue(Operation{ProductID: "nao-existe", Quantity: 1})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	// Produtos não passam pela conferência de estoque
	_, err = q.Enqueue(Operation{Kind: KindProductDelete, ProductID: "nao-existe"})
	assert.NoError(t, err)

	assert.Equal(t, 1, q.PendingCount())
}

func TestEnqueue_PersistenceFailureRejects(t *testing.T) {
	q, store, _ := newQueue(t, stockMap{"p1": 2})
	require.NoError(t, store.Close())

	_, err := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, ErrQueuePersistence)
	assert.Equal(t, 0, q.PendingCount())
}

func TestMarkSyncedAndSkipped_AreFinal(t *testing.T) {
	q, _, _ := newQueue(t, stockMap{"p1": 10})
	a, _ := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})
	b, _ := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})

	require.NoError(t, q.MarkSynced(a, "remote-a"))
	require.NoError(t, q.MarkSkipped(b, "estoque insuficiente"))

	assert.ErrorIs(t, q.MarkSkipped(a, "x"), ErrOperationFrozen)
	assert.ErrorIs(t, q.MarkSynced(b, "x"), ErrOperationFrozen)
	assert.ErrorIs(t, q.MarkSynced(99, "x"), ErrOperationNotFound)

	op, ok := q.Get(a)
	require.True(t, ok)
	assert.Equal(t, StatusSynced, op.Status)
	assert.Equal(t, "remote-a", op.RemoteID)
	assert.NotNil(t, op.ResolvedAt)
	assert.Equal(t, 0, q.PendingCount())
}

func TestQueue_ReloadKeepsOrderAndNeverReusesIDs(t *testing.T) {
	q, store, clk := newQueue(t, stockMap{"p1": 10})
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})
		require.NoError(t, err)
	}
	require.NoError(t, q.MarkSynced(3, "r3"))

	clk.now = clk.now.Add(8 * 24 * time.Hour)
	purged, err := q.PurgeOlderThan(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, purged)

	reloaded, err := New(store, stockMap{"p1": 10})
	require.NoError(t, err)

	ops := reloaded.Unsynced()
	require.Len(t, ops, 2)
	assert.Equal(t, uint64(1), ops[0].ID)
	assert.Equal(t, uint64(2), ops[1].ID)

	id, err := reloaded.Enqueue(Operation{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)
}

func TestPurgeOlderThan_KeepsUnsyncedAndRecent(t *testing.T) {
	q, _, clk := newQueue(t, stockMap{"p1": 10})
	old, _ := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})
	pending, _ := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})
	require.NoError(t, q.MarkSkipped(old, "x"))

	clk.now = clk.now.Add(6 * 24 * time.Hour)
	recent, _ := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})
	require.NoError(t, q.MarkSynced(recent, "r"))

	clk.now = clk.now.Add(2 * 24 * time.Hour)
	purged, err := q.PurgeOlderThan(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []uint64{old}, purged)

	_, ok := q.Get(pending)
	assert.True(t, ok)
	_, ok = q.Get(recent)
	assert.True(t, ok)
}

func TestRebindProduct(t *testing.T) {
	tempID := product.PlaceholderPrefix + "1"
	q, _, _ := newQueue(t, stockMap{tempID: 5})
	create, _ := q.Enqueue(Operation{Kind: KindProductCreate, ProductID: tempID})
	saleID, _ := q.Enqueue(Operation{ProductID: tempID, Quantity: 2})
	require.NoError(t, q.MarkSynced(create, "real"))

	n, err := q.RebindProduct(tempID, "real")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	op, _ := q.Get(saleID)
	assert.Equal(t, "real", op.ProductID)
	assert.True(t, q.HasPending("real"))
	assert.False(t, q.HasPending(tempID))
	op, _ = q.Get(create)
	assert.Equal(t, tempID, op.ProductID)
}

func TestCancelProduct_SkipsOnlyPendingOpsOfThatProduct(t *testing.T) {
	tempID := product.PlaceholderPrefix + "2"
	q, store, _ := newQueue(t, stockMap{tempID: 5, "p1": 5})
	create, _ := q.Enqueue(Operation{Kind: KindProductCreate, ProductID: tempID})
	saleID, _ := q.Enqueue(Operation{ProductID: tempID, Quantity: 1})
	other, _ := q.Enqueue(Operation{ProductID: "p1", Quantity: 1})

	n, err := q.CancelProduct(tempID, "CANCELED")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, q.PendingCount())
	assert.False(t, q.HasPending(tempID))

	for _, id := range []uint64{create, saleID} {
		op, _ := q.Get(id)
		assert.Equal(t, StatusSkipped, op.Status)
		assert.Equal(t, "CANCELED", op.SkipReason)
		assert.NotNil(t, op.ResolvedAt)
	}
	op, _ := q.Get(other)
	assert.Equal(t, StatusUnsynced, op.Status)

	// Já descartadas não voltam a ser canceladas
	n, err = q.CancelProduct(tempID, "CANCELED")
	require.NoError(t, err)
	assert.Zero(t, n)

	reloaded, err := New(store, stockMap{})
	require.NoError(t, err)
	op, _ = reloaded.Get(saleID)
	assert.Equal(t, StatusSkipped, op.Status)
}
