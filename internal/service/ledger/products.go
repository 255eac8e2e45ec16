package ledger

import (
	"context"
	"errors"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
)

const maxSKURetries = 3

// ListProducts lista todos os produtos
func (s *Service) ListProducts(ctx context.Context) ([]*product.Product, error) {
	return s.store.ListProducts(ctx)
}

// GetProduct busca um produto pelo ID
func (s *Service) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.store.FindProductByID(ctx, id)
}

// GetProductBySKU busca um produto pelo SKU
func (s *Service) GetProductBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return s.store.FindProductBySKU(ctx, sku)
}

// CreateProduct cadastra um produto gerando um SKU único a partir do nome
func (s *Service) CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error) {
	if d.Name == nil {
		return nil, product.ErrEmptyName
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxSKURetries; attempt++ {
		sku, err := product.GenerateUniqueSKU(ctx, *d.Name, "", s.skuOwner, s.clock)
		if err != nil {
			return nil, err
		}

		p, err := product.NewProduct(s.newID(), sku, d, s.clock())
		if err != nil {
			return nil, err
		}

		lastErr = s.store.CreateProduct(ctx, p)
		if lastErr == nil {
			s.log.Info("Produto criado", "product_id", p.ID, "sku", p.SKU)
			return p, nil
		}
		if !errors.Is(lastErr, product.ErrDuplicateSKU) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// UpdateProduct altera os campos informados. Renomear regenera o SKU.
func (s *Service) UpdateProduct(ctx context.Context, id string, d product.Draft) (*product.Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxSKURetries; attempt++ {
		p, err := s.store.FindProductByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if d.Apply(p) {
			sku, err := product.GenerateUniqueSKU(ctx, p.Name, p.ID, s.skuOwner, s.clock)
			if err != nil {
				return nil, err
			}
			p.SKU = sku
		}
		p.UpdatedAt = s.clock()

		lastErr = s.store.UpdateProduct(ctx, p)
		if lastErr == nil {
			return p, nil
		}
		if !errors.Is(lastErr, product.ErrDuplicateSKU) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// DeleteProduct remove um produto. As vendas já registradas são mantidas.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("Produto removido", "product_id", id)
	return nil
}

func (s *Service) skuOwner(ctx context.Context, sku string) (string, bool, error) {
	p, err := s.store.FindProductBySKU(ctx, sku)
	if errors.Is(err, product.ErrProductNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.ID, true, nil
}
