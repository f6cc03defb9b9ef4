// Package salesfeedback implements the supplemented post-upload
// reconciliation pass, grounded on
// original_source/services/sales_feedback.py's should_suppress_publishing.
package salesfeedback

import (
	"context"
	"fmt"
	"time"

	"github.com/postforge/postforge/internal/audit"
	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/store"
)

// Thresholds mirrors the two config-driven limits the original checked:
// a run of consecutive zero-sale products, and an overall refund rate.
type Thresholds struct {
	ZeroSalesSuppressionCount int
	RefundRateMax             float64
	LookbackDays              int
}

// Feedback reconciles uploaded products against the storefront's sales
// reports and records a publishing_suppressed audit event when either
// threshold is breached. It never mutates a StageRun — suppression is
// audit-only, and reading it back is left to whatever consults the
// audit log (the dashboard, or a future run's own judgment) before
// deciding whether to keep uploading.
type Feedback struct {
	store      *store.Store
	client     storefront.Client
	audit      *audit.Log
	thresholds Thresholds
}

func New(s *store.Store, client storefront.Client, a *audit.Log, t Thresholds) *Feedback {
	return &Feedback{store: s, client: client, audit: a, thresholds: t}
}

// Summary is the per-run reconciliation result, analogous to the
// original's generate_feedback_summary plus should_suppress_publishing.
type Summary struct {
	ProductsChecked int
	ZeroSaleRun     int
	TotalSales      int
	TotalRefunds    int
	RefundRate      float64
	Suppressed      bool
	SuppressReason  string
}

// Run fetches a sales report for every recently uploaded product (most
// recent ZeroSalesSuppressionCount of them, at minimum, to always be
// able to evaluate the zero-sales-run check), then evaluates both
// thresholds and appends the corresponding audit events.
func (f *Feedback) Run(ctx context.Context) (*Summary, error) {
	limit := f.thresholds.ZeroSalesSuppressionCount
	if limit < 1 {
		limit = 1
	}
	products, err := f.store.RecentUploadedProducts(limit)
	if err != nil {
		return nil, fmt.Errorf("list recent uploaded products: %w", err)
	}
	if len(products) == 0 {
		return &Summary{}, nil
	}

	since := time.Now().AddDate(0, 0, -f.thresholds.LookbackDays)
	summary := &Summary{ProductsChecked: len(products)}

	reports := make([]*storefront.SalesReport, len(products))
	for i, p := range products {
		report, err := f.client.SalesReport(ctx, p.ProductID, since)
		if err != nil {
			return nil, fmt.Errorf("sales report for %s: %w", p.ProductID, err)
		}
		reports[i] = report
		summary.TotalSales += report.Sales
		summary.TotalRefunds += report.Refunds

		if err := f.audit.SalesFeedbackIngested(p.PostID, fmt.Sprintf("sales=%d refunds=%d", report.Sales, report.Refunds)); err != nil {
			return nil, err
		}
	}

	// Zero-sales run counts only the most recent consecutive string of
	// zero-sale uploads, since products is already ordered newest-first:
	// the first nonzero sale ends the run.
	zeroSaleRun := 0
	for _, report := range reports {
		if report.Sales != 0 {
			break
		}
		zeroSaleRun++
	}
	summary.ZeroSaleRun = zeroSaleRun

	if summary.TotalSales > 0 {
		summary.RefundRate = float64(summary.TotalRefunds) / float64(summary.TotalSales)
	}

	if zeroSaleRun >= f.thresholds.ZeroSalesSuppressionCount {
		summary.Suppressed = true
		summary.SuppressReason = fmt.Sprintf("last %d uploaded products had zero sales", zeroSaleRun)
	} else if summary.TotalSales > 0 && summary.RefundRate > f.thresholds.RefundRateMax {
		summary.Suppressed = true
		summary.SuppressReason = fmt.Sprintf("refund rate %.2f%% exceeds threshold %.2f%%", summary.RefundRate*100, f.thresholds.RefundRateMax*100)
	}

	if summary.Suppressed {
		if err := f.audit.PublishingSuppressed("", summary.SuppressReason); err != nil {
			return nil, err
		}
	}

	return summary, nil
}
