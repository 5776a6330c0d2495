package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBlend(t *testing.T) {
	tests := []struct {
		name         string
		frontier     string
		specialist   string
		wantEstimate string
		wantDegraded bool
	}{
		{name: "both_present", frontier: "180", specialist: "220", wantEstimate: "200"},
		{name: "specialist_sentinel", frontier: "300", specialist: "0", wantEstimate: "150", wantDegraded: true},
		{name: "both_sentinel", frontier: "0", specialist: "0", wantEstimate: "0", wantDegraded: true},
		{name: "odd_sum", frontier: "99.99", specialist: "100", wantEstimate: "99.995"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Blend("desc", decimal.RequireFromString(tt.frontier), decimal.RequireFromString(tt.specialist))
			if !v.Estimate.Equal(decimal.RequireFromString(tt.wantEstimate)) {
				t.Errorf("Estimate = %s, want %s", v.Estimate, tt.wantEstimate)
			}
			if v.Degraded() != tt.wantDegraded {
				t.Errorf("Degraded = %v, want %v", v.Degraded(), tt.wantDegraded)
			}
		})
	}
}

func TestRenderContext(t *testing.T) {
	items := PairSimilars(
		[]string{"Sony 55in TV", "LG 50in TV", "orphan"},
		[]decimal.Decimal{decimal.NewFromInt(499), decimal.RequireFromString("379.5")},
	)
	if len(items) != 2 {
		t.Fatalf("expected 2 paired items, got %d", len(items))
	}

	got := RenderContext(items)
	want := "Here are some similar items and their prices:\n\n" +
		"Sony 55in TV\nPrice: $499.00\n\n" +
		"LG 50in TV\nPrice: $379.50\n\n"
	if got != want {
		t.Errorf("RenderContext mismatch:\n got %q\nwant %q", got, want)
	}

	if empty := RenderContext(nil); !strings.HasPrefix(empty, "Here are some similar items") {
		t.Errorf("expected header even without items, got %q", empty)
	}
}
