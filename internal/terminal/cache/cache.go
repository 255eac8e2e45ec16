// Package cache mantém o espelho local dos produtos do servidor, incluindo
// as edições e baixas de estoque feitas enquanto o terminal está offline.
package cache

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/terminal/localstore"
)

const (
	productsBucket = "products"
	appliedBucket  = "applied"
)

// ErrNotPlaceholder é retornado ao tentar substituir um produto que já existe no servidor
var ErrNotPlaceholder = errors.New("produto não é um registro provisório")

// Cache é o espelho local dos produtos.
// Cada alteração é gravada no armazenamento local antes de ser aplicada em memória.
type Cache struct {
	mu       sync.RWMutex
	store    *localstore.Store
	products map[string]*product.Product
	applied  map[uint64]struct{}
	clock    func() time.Time
}

// New carrega o cache a partir do armazenamento local
func New(store *localstore.Store, clock func() time.Time) (*Cache, error) {
	if clock == nil {
		clock = time.Now
	}

	c := &Cache{
		store:    store,
		products: map[string]*product.Product{},
		applied:  map[uint64]struct{}{},
		clock:    clock,
	}

	err := store.Iterate(productsBucket, func(_ string, value []byte) error {
		var p product.Product
		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("produto local corrompido: %w", err)
		}
		c.products[p.ID] = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = store.Iterate(appliedBucket, func(k string, _ []byte) error {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return fmt.Errorf("marcador de operação corrompido %q: %w", k, err)
		}
		c.applied[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func opKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Get retorna uma cópia do produto ou false se ele não existir
func (c *Cache) Get(id string) (*product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// StockOf retorna o estoque conhecido do produto
func (c *Cache) StockOf(id string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return 0, false
	}
	return p.StockQuantity, true
}

// List retorna cópias de todos os produtos ordenados por nome
func (c *Cache) List() []*product.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]*product.Product, 0, len(c.products))
	for _, p := range c.products {
		list = append(list, p.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// UpsertFromRemote substitui o espelho pelo estado confirmado do servidor.
// Produtos ausentes da lista são removidos, exceto os provisórios ainda não sincronizados.
// As baixas otimistas registradas deixam de valer, pois o estado remoto as substitui.
func (c *Cache) UpsertFromRemote(products []*product.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	next := make(map[string]*product.Product, len(products))
	for id, p := range c.products {
		if p.IsPlaceholder() && p.LastSyncedAt == nil {
			next[id] = p
		}
	}
	for _, remote := range products {
		p := remote.Clone()
		synced := now
		p.LastSyncedAt = &synced
		p.IsLocallyModified = false
		next[p.ID] = p
	}

	err := c.store.Update(func(b *localstore.Batch) error {
		for id := range c.products {
			if _, ok := next[id]; !ok {
				b.Delete(productsBucket, id)
			}
		}
		for id, p := range next {
			if err := b.PutJSON(productsBucket, id, p); err != nil {
				return err
			}
		}
		for id := range c.applied {
			b.Delete(appliedBucket, opKey(id))
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.products = next
	c.applied = map[uint64]struct{}{}
	return nil
}

// ConfirmProduct grava um produto confirmado pelo servidor
func (c *Cache) ConfirmProduct(remote *product.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := remote.Clone()
	now := c.clock()
	p.LastSyncedAt = &now
	p.IsLocallyModified = false

	return c.put(p)
}

// ConfirmStock grava o estoque informado pelo servidor após uma venda online
func (c *Cache) ConfirmStock(id string, stock int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.products[id]
	if !ok {
		return nil
	}

	p := current.Clone()
	now := c.clock()
	p.StockQuantity = stock
	p.LastSyncedAt = &now
	return c.put(p)
}

// ApplyLocalEdit aplica uma edição feita offline e marca o produto como modificado.
// Para um id desconhecido não faz nada e retorna false.
func (c *Cache) ApplyLocalEdit(id string, d product.Draft) (*product.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.products[id]
	if !ok {
		return nil, false, nil
	}

	p := current.Clone()
	d.Apply(p)
	p.IsLocallyModified = true
	p.UpdatedAt = c.clock()

	if err := c.put(p); err != nil {
		return nil, false, err
	}
	return p.Clone(), true, nil
}

// ApplyOptimisticStockDelta ajusta o estoque local uma única vez por operação.
// Retorna false se o produto não existe ou se a operação já foi aplicada.
// O estoque nunca fica negativo.
func (c *Cache) ApplyOptimisticStockDelta(id string, delta int64, opID uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, done := c.applied[opID]; done {
		return false, nil
	}
	current, ok := c.products[id]
	if !ok {
		return false, nil
	}

	p := current.Clone()
	p.StockQuantity += delta
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}

	err := c.store.Update(func(b *localstore.Batch) error {
		b.Put(appliedBucket, opKey(opID), []byte(id))
		return b.PutJSON(productsBucket, p.ID, p)
	})
	if err != nil {
		return false, err
	}

	c.products[p.ID] = p
	c.applied[opID] = struct{}{}
	return true, nil
}

// AddPlaceholder grava um produto criado offline
func (c *Cache) AddPlaceholder(p *product.Product) error {
	if !p.IsPlaceholder() {
		return ErrNotPlaceholder
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	local := p.Clone()
	local.LastSyncedAt = nil
	local.IsLocallyModified = true
	return c.put(local)
}

// ReplacePlaceholder troca o produto provisório pelo produto criado no servidor.
// O estoque local é mantido porque já contém as baixas das vendas pendentes.
func (c *Cache) ReplacePlaceholder(tempID string, remote *product.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := remote.Clone()
	now := c.clock()
	p.LastSyncedAt = &now
	p.IsLocallyModified = false
	if local, ok := c.products[tempID]; ok {
		p.StockQuantity = local.StockQuantity
	}

	err := c.store.Update(func(b *localstore.Batch) error {
		b.Delete(productsBucket, tempID)
		return b.PutJSON(productsBucket, p.ID, p)
	})
	if err != nil {
		return err
	}

	delete(c.products, tempID)
	c.products[p.ID] = p
	return nil
}

// Remove apaga o produto do cache
func (c *Cache) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.products[id]; !ok {
		return nil
	}

	if err := c.store.Update(func(b *localstore.Batch) error {
		b.Delete(productsBucket, id)
		return nil
	}); err != nil {
		return err
	}

	delete(c.products, id)
	return nil
}

// Forget descarta os marcadores das operações removidas da fila
func (c *Cache) Forget(opIDs []uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Update(func(b *localstore.Batch) error {
		for _, id := range opIDs {
			if _, ok := c.applied[id]; ok {
				b.Delete(appliedBucket, opKey(id))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range opIDs {
		delete(c.applied, id)
	}
	return nil
}

// put grava o produto; o chamador deve segurar o lock de escrita
func (c *Cache) put(p *product.Product) error {
	if err := c.store.Update(func(b *localstore.Batch) error {
		return b.PutJSON(productsBucket, p.ID, p)
	}); err != nil {
		return err
	}

	c.products[p.ID] = p
	return nil
}
