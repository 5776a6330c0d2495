// Package report contains the run reporters: plain console output and the
// Bubble Tea dashboard.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fd1az/deal-finder/business/planning/app"
	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

const rule = "================================================================================"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to out.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Deal Finder Started")
	fmt.Fprintln(r.out, "===================")
	return nil
}

// RunStarted prints the run header.
func (r *ConsoleReporter) RunStarted(runID, mode string, remembered int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] run %s started (%s mode, %d deals remembered)\n",
		time.Now().Format("15:04:05"), runID, mode, remembered)
}

// Candidates lists the selected deals.
func (r *ConsoleReporter) Candidates(sel *scanningDomain.Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  %d candidate deals\n", len(sel.Deals))
	for _, d := range sel.Deals {
		fmt.Fprintf(r.out, "    $%-10s %s\n", d.Price.StringFixed(2), d.URL)
	}
}

// Valued prints one estimate.
func (r *ConsoleReporter) Valued(v pricingDomain.Valuation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note := ""
	if v.Degraded() {
		note = " (degraded)"
	}
	fmt.Fprintf(r.out, "    estimate $%s = avg($%s, $%s)%s  %s\n",
		v.Estimate.StringFixed(2), v.Frontier.StringFixed(2), v.Specialist.StringFixed(2), note,
		firstLine(v.Description, 50))
}

// Report prints the surfaced deal.
func (r *ConsoleReporter) Report(opp *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "DEAL FOUND")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Timestamp:        %s\n", opp.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Product:          %s\n", firstLine(opp.Deal.ProductDescription, 60))
	fmt.Fprintf(r.out, "Link:             %s\n", opp.Deal.URL)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "  Price:          $%s\n", opp.Deal.Price.StringFixed(2))
	fmt.Fprintf(r.out, "  Estimate:       $%s\n", opp.Estimate.StringFixed(2))
	fmt.Fprintf(r.out, "  Discount:       $%s\n", opp.Discount.StringFixed(2))
	fmt.Fprintln(r.out, rule)
}

// RunFinished prints the run outcome.
func (r *ConsoleReporter) RunFinished(runID string, opp *domain.Opportunity, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	switch {
	case err != nil:
		fmt.Fprintf(r.out, "[%s] run %s failed: %v\n", ts, runID, err)
	case opp == nil:
		fmt.Fprintf(r.out, "[%s] run %s finished: nothing worth surfacing\n", ts, runID)
	default:
		fmt.Fprintf(r.out, "[%s] run %s finished: surfaced %s\n", ts, runID, opp.Deal.URL)
	}
}

// Stop prints the footer.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Deal Finder Stopped")
	return nil
}

func firstLine(s string, n int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
