package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/service/ledger"
)

// ProductController gerencia as requisições relacionadas a produtos
type ProductController struct {
	service *ledger.Service
}

// NewProductController cria uma nova instância de ProductController
func NewProductController(service *ledger.Service) *ProductController {
	return &ProductController{service: service}
}

// List lista os produtos
// @Summary Lista os produtos
// @Description Lista todos os produtos. O preço de compra só é enviado para administradores.
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ProductResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /products [get]
func (c *ProductController) List(ctx *gin.Context) {
	products, err := c.service.ListProducts(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToProductResponses(products, showCosts(ctx)))
}

// GetByID busca um produto pelo ID
// @Summary Busca um produto pelo ID
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /products/{id} [get]
func (c *ProductController) GetByID(ctx *gin.Context) {
	p, err := c.service.GetProduct(ctx, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToProductResponse(p, showCosts(ctx)))
}

// GetBySKU busca um produto pelo SKU
// @Summary Busca um produto pelo SKU
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param sku path string true "SKU do produto"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /products/sku/{sku} [get]
func (c *ProductController) GetBySKU(ctx *gin.Context) {
	p, err := c.service.GetProductBySKU(ctx, ctx.Param("sku"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToProductResponse(p, showCosts(ctx)))
}

// Create cadastra um novo produto
// @Summary Cadastra um produto
// @Description O SKU é gerado a partir do nome
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body dto.CreateProductRequest true "Dados do produto"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /products [post]
func (c *ProductController) Create(ctx *gin.Context) {
	var request dto.CreateProductRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	p, err := c.service.CreateProduct(ctx, request.ToDraft())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToProductResponse(p, showCosts(ctx)))
}

// Update altera um produto
// @Summary Altera um produto
// @Description Altera apenas os campos enviados. Renomear regenera o SKU.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param product body dto.UpdateProductRequest true "Campos a alterar"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /products/{id} [put]
func (c *ProductController) Update(ctx *gin.Context) {
	var request dto.UpdateProductRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondBadRequest(ctx, "Requisição inválida", err.Error())
		return
	}

	p, err := c.service.UpdateProduct(ctx, ctx.Param("id"), request.ToDraft())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToProductResponse(p, showCosts(ctx)))
}

// Delete remove um produto
// @Summary Remove um produto
// @Tags products
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /products/{id} [delete]
func (c *ProductController) Delete(ctx *gin.Context) {
	if err := c.service.DeleteProduct(ctx, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
