package infra

// pdf.go renders a product's price history as an A4 report using go-pdf/fpdf:
//   - Product header (id, description, both codes, current prices)
//   - One row per audit record (date, user, previous purchase/sale price)
//   - Deleted marker when the product no longer exists in the catalog

import (
	"bytes"
	"fmt"

	"github.com/BulizzesRG/myownpos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GeneratePriceHistoryPDF renders rows (oldest first) for product and returns
// the document bytes.
func GeneratePriceHistoryPDF(product *model.Product, rows []model.PriceHistory) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(fmt.Sprintf("Price history #%d", product.ID), true)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Price history", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("#%d  %s", product.ID, product.Description)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Barcode: %s   Alternative code: %s", product.Barcode, product.AlternativeCode), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Current purchase: $%s   Current sale: $%s",
		product.PurchasePrice.StringFixed(2), product.SalePrice.StringFixed(2)), "", 1, "L", false, 0, "")
	if product.DeletedAt != nil {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentW, 5, "Deleted on "+product.DeletedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Table header ─────────────────────────────────────────────────────────
	colDate := contentW * 0.30
	colUser := contentW * 0.16
	colPrice := contentW * 0.18

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colDate, 6, "Changed at", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colUser, 6, "User", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colPrice, 6, "Purchase", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colPrice, 6, "System cost", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colPrice, 6, "Sale", "B", 1, "R", false, 0, "")

	// ── Rows ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		pdf.CellFormat(contentW, 6, "No price changes recorded.", "", 1, "L", false, 0, "")
	}
	for _, h := range rows {
		pdf.CellFormat(colDate, 5, h.AddedAt.Format("2006-01-02 15:04:05"), "", 0, "L", false, 0, "")
		pdf.CellFormat(colUser, 5, fmt.Sprintf("%d", h.UserID), "", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, 5, "$"+h.PurchasePrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colPrice, 5, "$"+h.SystemPurchasePrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colPrice, 5, "$"+h.SalePrice.StringFixed(2), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render price history: %w", err)
	}
	return buf.Bytes(), nil
}
