package handler

import (
	"fmt"
	"net/http"

	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/service"

	"github.com/gin-gonic/gin"
)

type PricesHandler struct{ svc service.PriceService }

func NewPricesHandler(svc service.PriceService) *PricesHandler {
	return &PricesHandler{svc: svc}
}

// UpdatePrice godoc
// @Summary Change the prices of a product
// @Description Records the previous prices in the price history in the same transaction.
// @Tags prices
// @Accept json
// @Produce json
// @Param id path int true "Product id"
// @Success 200 {object} dto.Envelope{data=dto.ProductEnvelope}
// @Failure 404 {object} dto.Envelope
// @Failure 422 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/{id}/prices [put]
func (h *PricesHandler) UpdatePrice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := bindPayload(c)
	if !ok {
		return
	}
	p, err := h.svc.UpdatePrice(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.ProductEnvelope{Product: *p}))
}

// History godoc
// @Summary Price history of a product, newest first
// @Tags prices
// @Produce json
// @Param id path int true "Product id"
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 50, max 200"
// @Success 200 {object} dto.Envelope{data=dto.PriceHistoryPage}
// @Failure 404 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/{id}/price-history [get]
func (h *PricesHandler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	page, err := h.svc.History(c.Request.Context(), actorFrom(c), id, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(page))
}

// HistoryReport godoc
// @Summary Price history of a product as PDF
// @Tags prices
// @Produce application/pdf
// @Param id path int true "Product id"
// @Success 200 {file} binary
// @Failure 404 {object} dto.Envelope
// @Security BearerAuth
// @Router /v1/products/{id}/price-history.pdf [get]
func (h *PricesHandler) HistoryReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	pdf, err := h.svc.HistoryReport(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="price-history-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
