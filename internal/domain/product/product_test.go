package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func lookupIn(taken map[string]string) SKULookup {
	return func(_ context.Context, sku string) (string, bool, error) {
		id, ok := taken[sku]
		return id, ok, nil
	}
}

func TestBaseSKU(t *testing.T) {
	cases := map[string]string{
		"Arroz Tipo 1 5kg":                  "ARROZTIPO15KG",
		"café   pilão":                      "CAFPILO",
		"!!!":                               "PROD",
		"":                                  "PROD",
		"Refrigerante de Laranja 2 Litros": "REFRIGERANTEDELARANJ",
	}
	for name, want := range cases {
		assert.Equal(t, want, BaseSKU(name), name)
	}
	assert.Len(t, ProvisionalSKU("Refrigerante de Laranja"), 10)
}

func TestGenerateUniqueSKU_SuffixesOnCollision(t *testing.T) {
	ctx := context.Background()
	now := time.Now

	sku, err := GenerateUniqueSKU(ctx, "Leite", "", lookupIn(map[string]string{}), now)
	require.NoError(t, err)
	assert.Equal(t, "LEITE", sku)

	sku, err = GenerateUniqueSKU(ctx, "Leite", "", lookupIn(map[string]string{"LEITE": "a", "LEITE-1": "b"}), now)
	require.NoError(t, err)
	assert.Equal(t, "LEITE-2", sku)
}

func TestGenerateUniqueSKU_KeepsTwentyChars(t *testing.T) {
	name := "Refrigerante de Laranja 2 Litros"
	sku, err := GenerateUniqueSKU(context.Background(), name, "", lookupIn(map[string]string{"REFRIGERANTEDELARANJ": "a"}), time.Now)
	require.NoError(t, err)
	assert.Equal(t, "REFRIGERANTEDELARA-1", sku)
	assert.LessOrEqual(t, len(sku), 20)
}

func TestGenerateUniqueSKU_ExcludesSelf(t *testing.T) {
	sku, err := GenerateUniqueSKU(context.Background(), "Leite", "p1", lookupIn(map[string]string{"LEITE": "p1"}), time.Now)
	require.NoError(t, err)
	assert.Equal(t, "LEITE", sku)
}

func TestGenerateUniqueSKU_FallsBackToTimestamp(t *testing.T) {
	always := func(context.Context, string) (string, bool, error) { return "x", true, nil }
	fixed := time.UnixMilli(1700000000000)

	sku, err := GenerateUniqueSKU(context.Background(), "Leite", "", always, func() time.Time { return fixed })
	require.NoError(t, err)
	assert.Equal(t, "LEITE-1700000000000", sku)
}

func TestDraft_ValidateAndApply(t *testing.T) {
	assert.ErrorIs(t, Draft{Name: ptr("  ")}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Draft{SellPrice: ptr(int64(-1))}.Validate(), ErrNegativePrice)
	assert.ErrorIs(t, Draft{StockQuantity: ptr(int64(-1))}.Validate(), ErrNegativeStock)
	assert.True(t, Draft{}.IsEmpty())

	p := &Product{Name: "Leite", SellPrice: 500}
	renamed := Draft{Name: ptr(" Leite Integral "), StockQuantity: ptr(int64(3))}.Apply(p)
	assert.True(t, renamed)
	assert.Equal(t, "Leite Integral", p.Name)
	assert.EqualValues(t, 3, p.StockQuantity)
	assert.EqualValues(t, 500, p.SellPrice)
}

func TestNewProduct(t *testing.T) {
	now := time.Now()
	_, err := NewProduct("id", "SKU", Draft{}, now)
	assert.ErrorIs(t, err, ErrEmptyName)

	p, err := NewProduct("id", "LEITE", Draft{Name: ptr("Leite"), BuyPrice: ptr(int64(300)), SellPrice: ptr(int64(500))}, now)
	require.NoError(t, err)
	assert.EqualValues(t, 200, p.Profit())
	assert.False(t, p.IsPlaceholder())
	assert.True(t, IsPlaceholderID(PlaceholderPrefix+"abc"))
}
