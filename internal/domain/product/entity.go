package product

import (
	"errors"
	"strings"
	"time"
)

// Erros do domínio de produtos
var (
	ErrEmptyName       = errors.New("nome do produto não pode ser vazio")
	ErrNegativePrice   = errors.New("preço não pode ser negativo")
	ErrNegativeStock   = errors.New("estoque não pode ser negativo")
	ErrProductNotFound = errors.New("produto não encontrado")
	ErrDuplicateSKU    = errors.New("produto com mesmo SKU já existe")
)

// PlaceholderPrefix identifica produtos criados offline que ainda não existem no servidor
const PlaceholderPrefix = "temp_"

// Product representa um produto do estoque.
// Valores monetários estão na menor unidade da moeda (centavos).
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	BuyPrice      int64     `json:"buy_price"`
	SellPrice     int64     `json:"sell_price"`
	StockQuantity int64     `json:"stock_quantity"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Campos exclusivos do cache local do terminal
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	IsLocallyModified bool       `json:"is_locally_modified,omitempty"`
}

// Draft contém os campos informados na criação ou edição parcial de um produto.
// Campos nil não são alterados.
type Draft struct {
	Name          *string `json:"name,omitempty"`
	BuyPrice      *int64  `json:"buy_price,omitempty"`
	SellPrice     *int64  `json:"sell_price,omitempty"`
	StockQuantity *int64  `json:"stock_quantity,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
}

// IsPlaceholderID indica se o id pertence a um produto criado offline
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// IsPlaceholder indica se o produto ainda não foi confirmado pelo servidor
func (p *Product) IsPlaceholder() bool {
	return IsPlaceholderID(p.ID)
}

// Clone retorna uma cópia independente do produto
func (p *Product) Clone() *Product {
	c := *p
	if p.LastSyncedAt != nil {
		t := *p.LastSyncedAt
		c.LastSyncedAt = &t
	}
	return &c
}

// Profit retorna o lucro unitário
func (p *Product) Profit() int64 {
	return p.SellPrice - p.BuyPrice
}

// Validate verifica os invariantes do produto
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.BuyPrice < 0 || p.SellPrice < 0 {
		return ErrNegativePrice
	}
	if p.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Validate verifica os campos presentes no rascunho
func (d Draft) Validate() error {
	if d.Name != nil && strings.TrimSpace(*d.Name) == "" {
		return ErrEmptyName
	}
	if (d.BuyPrice != nil && *d.BuyPrice < 0) || (d.SellPrice != nil && *d.SellPrice < 0) {
		return ErrNegativePrice
	}
	if d.StockQuantity != nil && *d.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}

// IsEmpty indica se nenhum campo foi informado
func (d Draft) IsEmpty() bool {
	return d.Name == nil && d.BuyPrice == nil && d.SellPrice == nil && d.StockQuantity == nil && d.ImageURL == nil
}

// Apply copia os campos presentes para o produto. Retorna true se o nome mudou.
func (d Draft) Apply(p *Product) bool {
	renamed := false
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		renamed = name != p.Name
		p.Name = name
	}
	if d.BuyPrice != nil {
		p.BuyPrice = *d.BuyPrice
	}
	if d.SellPrice != nil {
		p.SellPrice = *d.SellPrice
	}
	if d.StockQuantity != nil {
		p.StockQuantity = *d.StockQuantity
	}
	if d.ImageURL != nil {
		p.ImageURL = *d.ImageURL
	}
	return renamed
}

// NewProduct cria um produto a partir de um rascunho completo
func NewProduct(id, sku string, d Draft, now time.Time) (*Product, error) {
	if d.Name == nil {
		return nil, ErrEmptyName
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p := &Product{
		ID:        id,
		SKU:       sku,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.Apply(p)

	return p, nil
}
