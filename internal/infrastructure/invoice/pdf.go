// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

var _ ports.InvoiceRenderer = (*Renderer)(nil)

// Store identifies the seller printed in the invoice header.
type Store struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Renderer lays out an invoice on A4 portrait: a coloured header band, the
// bill-to block, an item table with alternating row shading and a totals
// box.
type Renderer struct {
	store    Store
	compress bool
}

func NewRenderer(store Store) *Renderer {
	if store.Name == "" {
		store.Name = "N.Honest Supermarket"
	}
	return &Renderer{store: store, compress: true}
}

// Palette.
var (
	brand     = [3]int{22, 101, 52}
	brandTint = [3]int{236, 246, 239}
	ink       = [3]int{33, 37, 41}
	muted     = [3]int{108, 117, 125}
	rule      = [3]int{206, 212, 218}
)

const (
	pageMargin = 15.0
	rowHeight  = 8.0
)

// column widths: item, qty, unit price, amount. They add up to the 180mm
// printable width.
var columns = [4]float64{90, 20, 35, 35}

// Render returns the PDF bytes for o.
func (r *Renderer) Render(o *domain.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetCompression(r.compress)
	pdf.SetTitle("Invoice "+o.OrderNumber, true)
	pdf.SetAuthor(r.store.Name, true)
	if !o.CreatedAt.IsZero() {
		pdf.SetCreationDate(o.CreatedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 8)
		setText(pdf, muted)
		pdf.CellFormat(0, 5, tr("Thank you for shopping with "+r.store.Name), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	r.header(pdf, tr, o)
	r.billTo(pdf, tr, o)
	r.items(pdf, tr, o)
	r.totals(pdf, o)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout invoice: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	w, _ := pdf.GetPageSize()
	setFill(pdf, brand)
	pdf.Rect(0, 0, w, 38, "F")

	pdf.SetXY(pageMargin, 10)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(110, 9, tr(r.store.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 9, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	contact := strings.Join(nonEmpty(r.store.Address, r.store.Phone, r.store.Email), "  |  ")
	pdf.CellFormat(110, 6, tr(contact), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("No. "+o.OrderNumber), "", 1, "R", false, 0, "")
	pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
	date := ""
	if !o.CreatedAt.IsZero() {
		date = o.CreatedAt.Format("02 Jan 2006")
	}
	pdf.CellFormat(0, 6, date, "", 1, "R", false, 0, "")
	pdf.SetY(46)
}

func (r *Renderer) billTo(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	setText(pdf, muted)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(110, 5, "BILL TO", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, "PAYMENT", "", 1, "R", false, 0, "")

	setText(pdf, ink)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(110, 6, tr(o.Customer.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	status := strings.ToUpper(string(o.PaymentStatus))
	if o.PaymentStatus == domain.OrderPaid {
		setText(pdf, brand)
	}
	pdf.CellFormat(0, 6, status, "", 1, "R", false, 0, "")

	setText(pdf, ink)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range nonEmpty(o.Customer.Address, o.Customer.Phone, o.Customer.Email) {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (r *Renderer) items(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	heading := func() {
		setFill(pdf, brand)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 10)
		for i, title := range [4]string{"Item", "Qty", "Unit price", "Amount"} {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(columns[i], rowHeight, title, "", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	heading()

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, ink)
	for i, it := range o.Items {
		if pdf.GetY()+rowHeight > pageHeight-30 {
			pdf.AddPage()
			heading()
			pdf.SetFont("Helvetica", "", 10)
			setText(pdf, ink)
		}
		shaded := i%2 == 1
		if shaded {
			setFill(pdf, brandTint)
		}
		pdf.CellFormat(columns[0], rowHeight, tr(it.Name), "", 0, "L", shaded, 0, "")
		pdf.CellFormat(columns[1], rowHeight, strconv.Itoa(it.Quantity), "", 0, "R", shaded, 0, "")
		pdf.CellFormat(columns[2], rowHeight, FormatAmount(o.Currency, it.UnitPrice), "", 0, "R", shaded, 0, "")
		pdf.CellFormat(columns[3], rowHeight, FormatAmount(o.Currency, it.LineTotal()), "", 1, "R", shaded, 0, "")
	}

	setDraw(pdf, rule)
	x, y := pdf.GetX(), pdf.GetY()
	pdf.Line(x, y, x+columns[0]+columns[1]+columns[2]+columns[3], y)
	pdf.Ln(4)
}

func (r *Renderer) totals(pdf *fpdf.Fpdf, o *domain.Order) {
	labelX := pageMargin + columns[0] + columns[1]
	line := func(label, value string, bold bool) {
		pdf.SetX(labelX)
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(columns[2], 7, label, "", 0, "L", bold, 0, "")
		pdf.CellFormat(columns[3], 7, value, "", 1, "R", bold, 0, "")
	}
	setText(pdf, ink)
	line("Subtotal", FormatAmount(o.Currency, o.Subtotal), false)
	line("Delivery", FormatAmount(o.Currency, o.DeliveryFee), false)
	setFill(pdf, brandTint)
	line("Total", FormatAmount(o.Currency, o.Total), true)
}

// zeroDecimal lists currencies printed without minor units.
var zeroDecimal = map[string]bool{"UGX": true, "RWF": true, "BIF": true, "XAF": true, "XOF": true, "GNF": true}

// FormatAmount renders v with thousands separators and the currency code,
// e.g. "UGX 15,500" or "USD 12.50".
func FormatAmount(currency string, v float64) string {
	decimals := 2
	if zeroDecimal[strings.ToUpper(currency)] {
		decimals = 0
	}
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return currency + " " + out
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func setFill(pdf *fpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *fpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDraw(pdf *fpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }
