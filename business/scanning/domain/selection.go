package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/fd1az/deal-finder/internal/apperror"
)

const fence = "```"

// CandidateDeal is a listing the model picked, with a positive price.
type CandidateDeal struct {
	ProductDescription string          `json:"product_description"`
	Price              decimal.Decimal `json:"price"`
	URL                string          `json:"url"`
}

// Selection is the model's pick for one run.
type Selection struct {
	Deals []CandidateDeal `json:"deals"`
}

// URLs returns the URL of every deal in order.
func (s *Selection) URLs() []string {
	urls := make([]string, 0, len(s.Deals))
	for _, d := range s.Deals {
		urls = append(urls, d.URL)
	}
	return urls
}

// StripFences removes a leading and a trailing markdown fence line when the
// trimmed reply starts with one. Other replies are returned unchanged.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, fence) {
		return raw
	}

	lines := strings.Split(trimmed, "\n")
	if strings.HasPrefix(lines[0], fence) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), fence) {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

// ParseSelection decodes a model reply of the form
// {"deals":[{"product_description","price","url"}]}. Entries with a missing
// field, a non-numeric price or a price <= 0 are dropped.
func ParseSelection(raw string) (*Selection, error) {
	body := strings.TrimSpace(StripFences(raw))
	if !gjson.Valid(body) {
		return nil, apperror.New(apperror.CodeSelectionParseFailed,
			apperror.WithContext("reply is not valid JSON"))
	}

	deals := gjson.Get(body, "deals")
	if !deals.IsArray() {
		return nil, apperror.New(apperror.CodeSelectionParseFailed,
			apperror.WithContext("reply has no deals array"))
	}

	sel := &Selection{Deals: make([]CandidateDeal, 0, len(deals.Array()))}
	for _, d := range deals.Array() {
		deal, ok := parseDeal(d)
		if !ok {
			continue
		}
		sel.Deals = append(sel.Deals, deal)
	}
	return sel, nil
}

func parseDeal(d gjson.Result) (CandidateDeal, bool) {
	desc := d.Get("product_description")
	price := d.Get("price")
	url := d.Get("url")

	if desc.Type != gjson.String || url.Type != gjson.String || price.Type != gjson.Number {
		return CandidateDeal{}, false
	}
	p, err := decimal.NewFromString(price.Raw)
	if err != nil || !p.IsPositive() {
		return CandidateDeal{}, false
	}
	if strings.TrimSpace(desc.Str) == "" || strings.TrimSpace(url.Str) == "" {
		return CandidateDeal{}, false
	}

	return CandidateDeal{
		ProductDescription: desc.Str,
		Price:              p,
		URL:                url.Str,
	}, true
}
