package estimates

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/bcs-estimating/web"
)

// PDFClient converts rendered HTML into a PDF document.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// RendererOptions control document localisation.
type RendererOptions struct {
	Lang     language.Tag
	Currency currency.Unit
	Symbol   string
}

// Document is the template payload of an estimate export.
type Document struct {
	Lang     string
	Currency string
	Estimate Estimate
	Lines    []LineItem
	Totals   Totals
}

// Renderer turns estimates into PDF documents via html/template and a PDF client.
type Renderer struct {
	tpl     *template.Template
	client  PDFClient
	printer *message.Printer
	opts    RendererOptions
}

// NewRenderer parses the estimate template and wires the PDF client.
func NewRenderer(client PDFClient, opts RendererOptions) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("estimates renderer: pdf client required")
	}
	if opts.Lang == language.Und {
		opts.Lang = language.AmericanEnglish
	}
	if opts.Currency == (currency.Unit{}) {
		opts.Currency = currency.USD
	}
	if opts.Symbol == "" {
		opts.Symbol = "$"
	}
	r := &Renderer{client: client, printer: message.NewPrinter(opts.Lang), opts: opts}
	funcMap := template.FuncMap{
		"formatMoney":    r.formatMoney,
		"formatQuantity": r.formatQuantity,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
	}
	tpl, err := template.New("estimate.html").Funcs(funcMap).ParseFS(web.Templates, "templates/estimates/estimate.html")
	if err != nil {
		return nil, err
	}
	r.tpl = tpl
	return r, nil
}

// NewDocument assembles the export payload for a stored quote.
func (r *Renderer) NewDocument(q *QuoteResult) Document {
	return Document{
		Lang:     r.opts.Lang.String(),
		Currency: r.opts.Currency.String(),
		Estimate: q.Estimate,
		Lines:    q.Lines,
		Totals:   q.Totals,
	}
}

// RenderHTML executes the template.
func (r *Renderer) RenderHTML(doc Document) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render executes the template and converts the HTML to PDF bytes.
func (r *Renderer) Render(ctx context.Context, q *QuoteResult) ([]byte, error) {
	if r == nil || r.tpl == nil || r.client == nil {
		return nil, fmt.Errorf("estimates renderer not initialised")
	}
	html, err := r.RenderHTML(r.NewDocument(q))
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

// formatMoney prints an amount with locale digit grouping and exactly two places.
func (r *Renderer) formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + r.opts.Symbol + s
	}
	return sign + r.opts.Symbol + r.printer.Sprintf("%d", n) + "." + frac
}

func (r *Renderer) formatQuantity(d decimal.Decimal) string {
	if d.IsInteger() {
		return r.printer.Sprintf("%d", d.IntPart())
	}
	return d.String()
}
