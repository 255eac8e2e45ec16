package dto

import (
	"time"

	"github.com/hugohenrick/pdv-sync/internal/domain/product"
)

// CreateProductRequest representa os dados para cadastro de produto
type CreateProductRequest struct {
	Name          string `json:"name" binding:"required"`
	BuyPrice      int64  `json:"buy_price" binding:"min=0"`
	SellPrice     int64  `json:"sell_price" binding:"min=0"`
	StockQuantity int64  `json:"stock_quantity" binding:"min=0"`
	ImageURL      string `json:"image_url,omitempty"`
}

// ToDraft converte a requisição para o rascunho de domínio
func (r CreateProductRequest) ToDraft() product.Draft {
	d := product.Draft{
		Name:          &r.Name,
		BuyPrice:      &r.BuyPrice,
		SellPrice:     &r.SellPrice,
		StockQuantity: &r.StockQuantity,
	}
	if r.ImageURL != "" {
		d.ImageURL = &r.ImageURL
	}
	return d
}

// UpdateProductRequest representa uma alteração parcial de produto
type UpdateProductRequest struct {
	Name          *string `json:"name,omitempty"`
	BuyPrice      *int64  `json:"buy_price,omitempty" binding:"omitempty,min=0"`
	SellPrice     *int64  `json:"sell_price,omitempty" binding:"omitempty,min=0"`
	StockQuantity *int64  `json:"stock_quantity,omitempty" binding:"omitempty,min=0"`
	ImageURL      *string `json:"image_url,omitempty"`
}

// ToDraft converte a requisição para o rascunho de domínio
func (r UpdateProductRequest) ToDraft() product.Draft {
	return product.Draft{
		Name:          r.Name,
		BuyPrice:      r.BuyPrice,
		SellPrice:     r.SellPrice,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
	}
}

// FromDraft monta a requisição de alteração a partir do rascunho
func FromDraft(d product.Draft) UpdateProductRequest {
	return UpdateProductRequest{
		Name:          d.Name,
		BuyPrice:      d.BuyPrice,
		SellPrice:     d.SellPrice,
		StockQuantity: d.StockQuantity,
		ImageURL:      d.ImageURL,
	}
}

// ProductResponse representa um produto nas respostas.
// BuyPrice só é enviado para quem pode ver custos.
type ProductResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	SKU               string     `json:"sku"`
	BuyPrice          *int64     `json:"buy_price,omitempty"`
	SellPrice         int64      `json:"sell_price"`
	StockQuantity     int64      `json:"stock_quantity"`
	ImageURL          string     `json:"image_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	IsLocallyModified bool       `json:"is_locally_modified,omitempty"`
}

// ToProductResponse converte um produto para resposta
func ToProductResponse(p *product.Product, showCosts bool) ProductResponse {
	resp := ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		SellPrice:         p.SellPrice,
		StockQuantity:     p.StockQuantity,
		ImageURL:          p.ImageURL,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		LastSyncedAt:      p.LastSyncedAt,
		IsLocallyModified: p.IsLocallyModified,
	}
	if showCosts {
		buy := p.BuyPrice
		resp.BuyPrice = &buy
	}
	return resp
}

// ToProductResponses converte uma lista de produtos
func ToProductResponses(products []*product.Product, showCosts bool) []ProductResponse {
	list := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		list = append(list, ToProductResponse(p, showCosts))
	}
	return list
}

// ToDomain converte a resposta de volta para o produto de domínio
func (r ProductResponse) ToDomain() *product.Product {
	p := &product.Product{
		ID:                r.ID,
		Name:              r.Name,
		SKU:               r.SKU,
		SellPrice:         r.SellPrice,
		StockQuantity:     r.StockQuantity,
		ImageURL:          r.ImageURL,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		LastSyncedAt:      r.LastSyncedAt,
		IsLocallyModified: r.IsLocallyModified,
	}
	if r.BuyPrice != nil {
		p.BuyPrice = *r.BuyPrice
	}
	return p
}
