package estimates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

func TestRendererFormatsMoneyWithGrouping(t *testing.T) {
	r, err := NewRenderer(&fakePDF{}, RendererOptions{})
	require.NoError(t, err)

	assert.Equal(t, "$1,234,567.50", r.formatMoney(d("1234567.5")))
	assert.Equal(t, "$0.00", r.formatMoney(d("0")))
	assert.Equal(t, "-$12.35", r.formatMoney(d("-12.345")))
	assert.Equal(t, "1,200", r.formatQuantity(d("1200")))
	assert.Equal(t, "2.5", r.formatQuantity(d("2.5")))
}

func TestRendererRendersQuote(t *testing.T) {
	s := newTestService()
	q := createDraft(t, s, freeLine("2", "100"), catalogLine(7, "1"))
	pdf := &fakePDF{}
	r, err := NewRenderer(pdf, RendererOptions{Lang: language.AmericanEnglish, Currency: currency.USD, Symbol: "$"})
	require.NoError(t, err)

	out, err := r.Render(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(out))

	assert.Contains(t, pdf.html, q.Estimate.EstimateNumber)
	assert.Contains(t, pdf.html, "Amounts in USD")
	assert.Contains(t, pdf.html, "DRY-001")
	assert.Contains(t, pdf.html, "$260.40")
	assert.Contains(t, pdf.html, "Overhead &amp; profit")
}

func TestRendererPropagatesClientError(t *testing.T) {
	boom := errors.New("gotenberg down")
	r, err := NewRenderer(&fakePDF{err: boom}, RendererOptions{})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), &QuoteResult{})
	assert.ErrorIs(t, err, boom)

	_, err = NewRenderer(nil, RendererOptions{})
	assert.Error(t, err)
}
