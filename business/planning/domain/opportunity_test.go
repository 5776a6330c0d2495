package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

func TestNewOpportunity(t *testing.T) {
	tests := []struct {
		name         string
		price        string
		estimate     string
		wantDiscount string
	}{
		{name: "bargain", price: "50", estimate: "200", wantDiscount: "150"},
		{name: "overpriced", price: "120.50", estimate: "100", wantDiscount: "-20.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := scanningDomain.CandidateDeal{ProductDescription: "x", Price: decimal.RequireFromString(tt.price), URL: "u"}
			opp := NewOpportunity(deal, decimal.RequireFromString(tt.estimate), time.Now())

			if !opp.Discount.Equal(decimal.RequireFromString(tt.wantDiscount)) {
				t.Errorf("expected discount %s, got %s", tt.wantDiscount, opp.Discount)
			}
			if opp.ID.String() == "00000000-0000-0000-0000-000000000000" {
				t.Error("expected a generated ID")
			}
		})
	}
}

func TestOpportunity_Markdown(t *testing.T) {
	deal := scanningDomain.CandidateDeal{
		ProductDescription: "Nintendo Switch OLED with 64GB storage.",
		Price:              decimal.NewFromInt(249),
		URL:                "https://example.com/switch",
	}
	opp := NewOpportunity(deal, decimal.NewFromInt(349), time.Date(2025, 10, 6, 9, 30, 0, 0, time.UTC))

	md := opp.Markdown()
	for _, want := range []string{
		"## Deal found 2025-10-06 09:30 UTC",
		"- **Price:** $249.00",
		"- **Discount:** $100.00",
		"- **Link:** https://example.com/switch",
		"Nintendo Switch OLED with 64GB storage.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMemory(t *testing.T) {
	var m Memory
	a := Opportunity{Deal: scanningDomain.CandidateDeal{URL: "a"}}
	b := Opportunity{Deal: scanningDomain.CandidateDeal{URL: "b"}}

	m1 := m.Append(a)
	m2 := m1.Append(b)

	if m1.Len() != 1 || m2.Len() != 2 {
		t.Fatalf("unexpected lengths %d, %d", m1.Len(), m2.Len())
	}
	seen := m2.Seen()
	if _, ok := seen["a"]; !ok {
		t.Error("expected a in seen set")
	}
	if _, ok := seen["c"]; ok {
		t.Error("unexpected c in seen set")
	}
}
