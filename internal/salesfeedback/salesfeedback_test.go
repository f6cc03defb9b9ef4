package salesfeedback

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/audit"
	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/store"
)

type fakeReports struct {
	byProduct map[string]storefront.SalesReport
}

func (f *fakeReports) Upload(ctx context.Context, l storefront.Listing) (*storefront.UploadResult, error) {
	return nil, nil
}

func (f *fakeReports) SalesReport(ctx context.Context, productID string, since time.Time) (*storefront.SalesReport, error) {
	r := f.byProduct[productID]
	return &r, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "pipeline.db"), filepath.Join(dir, "artifacts"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRun_SuppressesOnZeroSalesRun(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.RecordUploadedProduct("post-3", "prod-3"))
	require.NoError(t, st.RecordUploadedProduct("post-2", "prod-2"))
	require.NoError(t, st.RecordUploadedProduct("post-1", "prod-1"))

	client := &fakeReports{byProduct: map[string]storefront.SalesReport{
		"prod-1": {ProductID: "prod-1", Sales: 0},
		"prod-2": {ProductID: "prod-2", Sales: 0},
		"prod-3": {ProductID: "prod-3", Sales: 0},
	}}

	fb := New(st, client, audit.New(st), Thresholds{ZeroSalesSuppressionCount: 3, RefundRateMax: 0.3, LookbackDays: 30})
	summary, err := fb.Run(context.Background())
	require.NoError(t, err)
	require.True(t, summary.Suppressed)
	require.Equal(t, 3, summary.ZeroSaleRun)
}

func TestRun_SuppressesOnRefundRate(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.RecordUploadedProduct("post-1", "prod-1"))

	client := &fakeReports{byProduct: map[string]storefront.SalesReport{
		"prod-1": {ProductID: "prod-1", Sales: 10, Refunds: 5},
	}}

	fb := New(st, client, audit.New(st), Thresholds{ZeroSalesSuppressionCount: 5, RefundRateMax: 0.3, LookbackDays: 30})
	summary, err := fb.Run(context.Background())
	require.NoError(t, err)
	require.True(t, summary.Suppressed)
	require.InDelta(t, 0.5, summary.RefundRate, 0.0001)
}

func TestRun_NoSuppressionWhenHealthy(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.RecordUploadedProduct("post-1", "prod-1"))

	client := &fakeReports{byProduct: map[string]storefront.SalesReport{
		"prod-1": {ProductID: "prod-1", Sales: 10, Refunds: 1},
	}}

	fb := New(st, client, audit.New(st), Thresholds{ZeroSalesSuppressionCount: 5, RefundRateMax: 0.3, LookbackDays: 30})
	summary, err := fb.Run(context.Background())
	require.NoError(t, err)
	require.False(t, summary.Suppressed)
}

func TestRun_NoProductsYet(t *testing.T) {
	st := newTestStore(t)
	fb := New(st, &fakeReports{byProduct: map[string]storefront.SalesReport{}}, audit.New(st), Thresholds{ZeroSalesSuppressionCount: 5, RefundRateMax: 0.3, LookbackDays: 30})
	summary, err := fb.Run(context.Background())
	require.NoError(t, err)
	require.False(t, summary.Suppressed)
	require.Equal(t, 0, summary.ProductsChecked)
}
