package product

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	maxSKULength         = 20
	provisionalSKULength = 10
	maxSKUAttempts       = 9999
	fallbackSKU          = "PROD"
)

// SKULookup retorna o id do produto dono do SKU, se existir
type SKULookup func(ctx context.Context, sku string) (ownerID string, found bool, err error)

func normalizeSKU(name string, limit int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	sku := b.String()
	if len(sku) > limit {
		sku = sku[:limit]
	}
	if sku == "" {
		return fallbackSKU
	}
	return sku
}

// BaseSKU deriva o SKU base a partir do nome do produto
func BaseSKU(name string) string {
	return normalizeSKU(name, maxSKULength)
}

// ProvisionalSKU gera o SKU curto usado em produtos criados offline.
// O servidor gera o SKU definitivo quando o produto é sincronizado.
func ProvisionalSKU(name string) string {
	return normalizeSKU(name, provisionalSKULength)
}

// GenerateUniqueSKU gera um SKU único para o nome informado.
// Em caso de colisão adiciona o sufixo -N mantendo o total em até 20 caracteres.
// excludeID permite que o próprio produto mantenha seu SKU ao ser renomeado.
func GenerateUniqueSKU(ctx context.Context, name, excludeID string, lookup SKULookup, now func() time.Time) (string, error) {
	base := BaseSKU(name)
	sku := base

	for counter := 1; ; counter++ {
		ownerID, found, err := lookup(ctx, sku)
		if err != nil {
			return "", err
		}
		if !found || (excludeID != "" && ownerID == excludeID) {
			return sku, nil
		}

		if counter > maxSKUAttempts {
			return base + "-" + strconv.FormatInt(now().UnixMilli(), 10), nil
		}

		suffix := strconv.Itoa(counter)
		keep := maxSKULength - len(suffix) - 1
		if keep > len(base) {
			keep = len(base)
		}
		sku = base[:keep] + "-" + suffix
	}
}
