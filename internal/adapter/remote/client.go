// Package remote é o cliente HTTP que o terminal usa para falar com o servidor.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
)

// Erros do cliente remoto
var (
	// ErrTransient indica falha de rede, timeout ou indisponibilidade do servidor
	ErrTransient = errors.New("servidor indisponível")
	// ErrRejected indica recusa do servidor com motivo não reconhecido
	ErrRejected = errors.New("requisição recusada pelo servidor")
)

// Config contém as configurações do cliente
type Config struct {
	BaseURL              string
	APIPrefix            string
	Token                string
	Timeout              time.Duration
	MaxRetries           uint64
	RetryInitialInterval time.Duration
}

// Client chama a API do servidor
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// SaleRequest é o pedido de venda enviado ao servidor
type SaleRequest struct {
	ProductID      string
	UserID         string
	Quantity       int64
	IdempotencyKey string
}

// SaleReceipt é a confirmação de venda do servidor
type SaleReceipt struct {
	TransactionID  string
	RemainingStock int64
	Replayed       bool
}

// NewClient cria um novo cliente
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 200 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// RecordSale registra uma venda. A chave de idempotência torna a repetição segura.
func (c *Client) RecordSale(ctx context.Context, req SaleRequest) (*SaleReceipt, error) {
	body := dto.RecordSaleRequest{
		ProductID:      req.ProductID,
		UserID:         req.UserID,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	}

	var resp dto.SaleReceiptResponse
	retry := req.IdempotencyKey != ""
	if err := c.do(ctx, http.MethodPost, c.api("/sales"), body, &resp, retry); err != nil {
		return nil, err
	}

	return &SaleReceipt{
		TransactionID:  resp.TransactionID,
		RemainingStock: resp.RemainingStock,
		Replayed:       resp.Replayed,
	}, nil
}

// ListProducts retorna todos os produtos do servidor
func (c *Client) ListProducts(ctx context.Context) ([]*product.Product, error) {
	var resp []dto.ProductResponse
	if err := c.do(ctx, http.MethodGet, c.api("/products"), nil, &resp, true); err != nil {
		return nil, err
	}

	products := make([]*product.Product, 0, len(resp))
	for _, p := range resp {
		products = append(products, p.ToDomain())
	}
	return products, nil
}

// CreateProduct cadastra um produto. Não é repetido automaticamente.
func (c *Client) CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error) {
	req := dto.CreateProductRequest{}
	if d.Name != nil {
		req.Name = *d.Name
	}
	if d.BuyPrice != nil {
		req.BuyPrice = *d.BuyPrice
	}
	if d.SellPrice != nil {
		req.SellPrice = *d.SellPrice
	}
	if d.StockQuantity != nil {
		req.StockQuantity = *d.StockQuantity
	}
	if d.ImageURL != nil {
		req.ImageURL = *d.ImageURL
	}

	var resp dto.ProductResponse
	if err := c.do(ctx, http.MethodPost, c.api("/products"), req, &resp, false); err != nil {
		return nil, err
	}
	return resp.ToDomain(), nil
}

// UpdateProduct altera parcialmente um produto
func (c *Client) UpdateProduct(ctx context.Context, id string, d product.Draft) (*product.Product, error) {
	var resp dto.ProductResponse
	if err := c.do(ctx, http.MethodPut, c.api("/products/"+id), dto.FromDraft(d), &resp, true); err != nil {
		return nil, err
	}
	return resp.ToDomain(), nil
}

// DeleteProduct remove um produto
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.api("/products/"+id), nil, nil, true)
}

// Ping consulta o endpoint de saúde sem repetir
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil, nil, false)
}

func (c *Client) api(path string) string {
	return c.cfg.BaseURL + c.cfg.APIPrefix + path
}

func (c *Client) do(ctx context.Context, method, url string, in, out any, retry bool) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("erro ao serializar requisição: %w", err)
		}
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if retry && c.cfg.MaxRetries > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = c.cfg.RetryInitialInterval
		policy = backoff.WithMaxRetries(exp, c.cfg.MaxRetries)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := c.send(ctx, method, url, payload, out)
		if err != nil && !errors.Is(err, ErrTransient) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Debug("Repetindo chamada ao servidor", "method", method, "url", url, "tentativa", attempt, "espera", wait, "error", err)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("erro ao montar requisição: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: resposta inválida: %v", ErrTransient, err)
		}
		return nil
	}

	return decodeError(resp)
}

// decodeError converte a resposta de erro do servidor.
// Motivos conhecidos voltam como o erro de domínio correspondente.
func decodeError(resp *http.Response) error {
	var e dto.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &e)
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}

	if isTransientStatus(resp.StatusCode) {
		return fmt.Errorf("%w: status %d: %s", ErrTransient, resp.StatusCode, e.Message)
	}
	if domainErr := dto.ErrorFromReason(e.Reason); domainErr != nil {
		return fmt.Errorf("%w: %s", domainErr, e.Message)
	}
	return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, e.Message)
}

// Falhas de autenticação também são temporárias: a venda espera um token válido
func isTransientStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return status >= 500
}
