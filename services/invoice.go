package services

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/HSouheill/sm_online_shop/models"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
)

// InvoiceFilename is the download name of an order's invoice
func InvoiceFilename(order *models.Order) string {
	return fmt.Sprintf("invoice-%s.pdf", order.ID.Hex())
}

// InvoiceURL is where the invoice of order can be fetched again; the QR code points there
func InvoiceURL(baseURL string, order *models.Order) string {
	return strings.TrimRight(baseURL, "/") + "/orders/" + order.ID.Hex()
}

// WriteInvoicePDF renders the invoice of order for customer as an A4 PDF.
// verifyURL is encoded in a QR code in the footer; it is skipped when empty.
func WriteInvoicePDF(w io.Writer, order *models.Order, customer *models.Account, verifyURL string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(InvoiceFilename(order), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "SM Online Shop", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "Invoice", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Order: "+order.ID.Hex(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+order.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	if customer != nil {
		pdf.CellFormat(0, 6, tr("Customer: "+customer.Name+" <"+customer.Email+">"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{95, 20, 35, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range []string{"Product", "Qty", "Unit price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, header, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, p := range order.Products {
		pdf.CellFormat(widths[0], 7, tr(truncate(p.Title, 55)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", p.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, formatMoney(p.SellingPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, formatMoney(p.LineTotal()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, formatMoney(order.Total), "1", 1, "R", false, 0, "")

	if verifyURL != "" {
		qrPNG, err := qrCodePNG(verifyURL)
		if err != nil {
			return err
		}
		pdf.Ln(10)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("order-qr", opts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("order-qr", pdf.GetX(), pdf.GetY(), 30, 30, true, opts, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, "Scan to view this order online", "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	return nil
}

func qrCodePNG(content string) ([]byte, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	code, err = barcode.Scale(code, 200, 200)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
