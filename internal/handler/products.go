package handler

import (
	"net/http"

	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct {
	products service.ProductService
	catalog  service.CatalogService
}

func NewProductsHandler(products service.ProductService, catalog service.CatalogService) *ProductsHandler {
	return &ProductsHandler{products: products, catalog: catalog}
}

// List godoc
// @Summary List or search products
// @Description Without filter, products in id order. With filter, products ranked by text relevance.
// @Tags products
// @Produce json
// @Param filter query string false "Search text (alias: query)"
// @Param page[size] query int false "Page size, default 10, max 100 (alias: page_size)"
// @Param page[number] query int false "Page number, default 1 (alias: page)"
// @Success 200 {object} dto.Envelope{data=dto.ProductListEnvelope}
// @Failure 401 {object} dto.Envelope
// @Failure 503 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	q := service.NewListQuery(
		queryString(c, "filter", "query"),
		queryInt(c, "page[size]", "page_size"),
		queryInt(c, "page[number]", "page"),
	)
	page, err := h.catalog.List(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Links = dto.BuildLinks(c.Request.URL, page.Meta)
	c.JSON(http.StatusOK, dto.Success(dto.ProductListEnvelope{Products: *page}))
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Success 201 {object} dto.Envelope{data=dto.ProductEnvelope}
// @Failure 422 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	in, ok := bindPayload(c)
	if !ok {
		return
	}
	p, err := h.products.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Success(dto.ProductEnvelope{Product: *p}))
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product id"
// @Success 200 {object} dto.Envelope{data=dto.ProductEnvelope}
// @Failure 404 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.ProductEnvelope{Product: *p}))
}

// Update godoc
// @Summary Update descriptive attributes of a product
// @Description Prices are optional; when sent and different, the change is recorded in the price history.
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product id"
// @Success 200 {object} dto.Envelope{data=dto.ProductEnvelope}
// @Failure 404 {object} dto.Envelope
// @Failure 422 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := bindPayload(c)
	if !ok {
		return
	}
	p, err := h.products.Update(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.ProductEnvelope{Product: *p}))
}

// Delete godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path int true "Product id"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success([]any{}))
}

// FindByCode godoc
// @Summary Look a product up by barcode or alternative code
// @Tags products
// @Produce json
// @Param code path string true "Barcode or alternative code"
// @Success 200 {object} dto.Envelope{data=dto.ProductEnvelope}
// @Failure 404 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/code/{code} [get]
func (h *ProductsHandler) FindByCode(c *gin.Context) {
	p, err := h.products.FindByCode(c.Request.Context(), actorFrom(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.ProductEnvelope{Product: *p}))
}
