package cache

import (
	"testing"
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newCache(t *testing.T) (*Cache, *localstore.Store) {
	t.Helper()
	store, err := localstore.OpenInMemory(logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := New(store, func() time.Time { return fixedNow })
	require.NoError(t, err)
	return c, store
}

func remoteProducts() []*product.Product {
	return []*product.Product{
		{ID: "p1", Name: "Arroz", SKU: "ARROZ", BuyPrice: 300, SellPrice: 500, StockQuantity: 5},
		{ID: "p2", Name: "Feijão", SKU: "FEIJO", BuyPrice: 400, SellPrice: 700, StockQuantity: 2},
	}
}

func TestUpsertFromRemote_RoundTrip(t *testing.T) {
	c, _ := newCache(t)
	remote := remoteProducts()
	require.NoError(t, c.UpsertFromRemote(remote))

	list := c.List()
	require.Len(t, list, 2)
	for i, p := range list {
		assert.Equal(t, remote[i].ID, p.ID)
		assert.Equal(t, remote[i].StockQuantity, p.StockQuantity)
		assert.False(t, p.IsLocallyModified)
		require.NotNil(t, p.LastSyncedAt)
		assert.True(t, p.LastSyncedAt.Equal(fixedNow))
	}

	// Produtos removidos no servidor somem do cache
	require.NoError(t, c.UpsertFromRemote(remote[:1]))
	_, ok := c.Get("p2")
	assert.False(t, ok)
}

func TestUpsertFromRemote_KeepsUnsyncedPlaceholders(t *testing.T) {
	c, _ := newCache(t)
	require.NoError(t, c.AddPlaceholder(&product.Product{ID: product.PlaceholderPrefix + "1", Name: "Novo", StockQuantity: 3}))
	require.NoError(t, c.UpsertFromRemote(remoteProducts()))

	p, ok := c.Get(product.PlaceholderPrefix + "1")
	require.True(t, ok)
	assert.True(t, p.IsLocallyModified)
	assert.Nil(t, p.LastSyncedAt)
	assert.Len(t, c.List(), 3)
}

func TestGetAndApplyLocalEdit_UnknownIDIsNoop(t *testing.T) {
	c, _ := newCache(t)

	_, ok := c.Get("nao-existe")
	assert.False(t, ok)

	p, ok, err := c.ApplyLocalEdit("nao-existe", product.Draft{Name: ptr("x")})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestApplyLocalEdit_MarksModified(t *testing.T) {
	c, _ := newCache(t)
	require.NoError(t, c.UpsertFromRemote(remoteProducts()))

	p, ok, err := c.ApplyLocalEdit("p1", product.Draft{SellPrice: ptr(int64(550))})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, p.IsLocallyModified)
	assert.EqualValues(t, 550, p.SellPrice)

	// Get devolve cópias
	p.SellPrice = 1
	again, _ := c.Get("p1")
	assert.EqualValues(t, 550, again.SellPrice)
}

func TestApplyOptimisticStockDelta_IdempotentPerOperation(t *testing.T) {
	c, _ := newCache(t)
	require.NoError(t, c.UpsertFromRemote(remoteProducts()))

	applied, err := c.ApplyOptimisticStockDelta("p1", -3, 1)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = c.ApplyOptimisticStockDelta("p1", -3, 1)
	require.NoError(t, err)
	assert.False(t, applied)

	stock, _ := c.StockOf("p1")
	assert.EqualValues(t, 2, stock)

	// Nunca fica negativo
	_, err = c.ApplyOptimisticStockDelta("p1", -10, 2)
	require.NoError(t, err)
	stock, _ = c.StockOf("p1")
	assert.EqualValues(t, 0, stock)

	applied, err = c.ApplyOptimisticStockDelta("nao-existe", -1, 3)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestUpsertFromRemote_ResetsAppliedMarkers(t *testing.T) {
	c, _ := newCache(t)
	require.NoError(t, c.UpsertFromRemote(remoteProducts()))
	_, err := c.ApplyOptimisticStockDelta("p1", -1, 7)
	require.NoError(t, err)

	require.NoError(t, c.UpsertFromRemote(remoteProducts()))
	applied, err := c.ApplyOptimisticStockDelta("p1", -1, 7)
	require.NoError(t, err)
	assert.True(t, applied)

	stock, _ := c.StockOf("p1")
	assert.EqualValues(t, 4, stock)
}

func TestCache_PersistsAcrossReload(t *testing.T) {
	c, store := newCache(t)
	require.NoError(t, c.UpsertFromRemote(remoteProducts()))
	_, err := c.ApplyOptimisticStockDelta("p2", -2, 9)
	require.NoError(t, err)

	reloaded, err := New(store, nil)
	require.NoError(t, err)

	stock, ok := reloaded.StockOf("p2")
	require.True(t, ok)
	assert.EqualValues(t, 0, stock)

	applied, err := reloaded.ApplyOptimisticStockDelta("p2", -2, 9)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestReplacePlaceholderAndRemove(t *testing.T) {
	c, _ := newCache(t)
	tempID := product.PlaceholderPrefix + "abc"
	require.NoError(t, c.AddPlaceholder(&product.Product{ID: tempID, Name: "Novo", StockQuantity: 5}))
	_, err := c.ApplyOptimisticStockDelta(tempID, -2, 7)
	require.NoError(t, err)
	assert.ErrorIs(t, c.AddPlaceholder(&product.Product{ID: "real"}), ErrNotPlaceholder)

	require.NoError(t, c.ReplacePlaceholder(tempID, &product.Product{ID: "real-1", Name: "Novo", SKU: "NOVO", StockQuantity: 5}))
	_, ok := c.Get(tempID)
	assert.False(t, ok)
	p, ok := c.Get("real-1")
	require.True(t, ok)
	assert.NotNil(t, p.LastSyncedAt)
	assert.EqualValues(t, 3, p.StockQuantity)

	require.NoError(t, c.Remove("real-1"))
	require.NoError(t, c.Remove("real-1"))
	assert.Empty(t, c.List())
}

func TestForget(t *testing.T) {
	c, _ := newCache(t)
	require.NoError(t, c.UpsertFromRemote(remoteProducts()))
	_, err := c.ApplyOptimisticStockDelta("p1", -1, 1)
	require.NoError(t, err)

	require.NoError(t, c.Forget([]uint64{1, 2}))
	applied, err := c.ApplyOptimisticStockDelta("p1", -1, 1)
	require.NoError(t, err)
	assert.True(t, applied)
}
