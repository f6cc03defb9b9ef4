// Package storefront provides the e-commerce upload client interface and
// the sales-feedback reporting it exposes for the supplemented
// SalesFeedback reconciliation pass.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/postforge/postforge/internal/retrypolicy"
)

// Listing is the content the upload stage hands to the storefront.
type Listing struct {
	Title       string
	DescHTML    string
	PriceCents  int
	ContentPath string
}

// UploadResult is returned on a successful upload.
type UploadResult struct {
	ProductID string
	URL       string
}

// SalesReport summarizes one product's sales performance over a
// lookback window, feeding the supplemented SalesFeedback pass.
type SalesReport struct {
	ProductID string
	Sales     int
	Refunds   int
}

// Client is the storefront collaborator's interface.
type Client interface {
	Upload(ctx context.Context, l Listing) (*UploadResult, error)
	SalesReport(ctx context.Context, productID string, since time.Time) (*SalesReport, error)
}

// HTTPClient is a minimal REST-backed implementation, shaped after a
// Gumroad-like product API: POST to create, GET to read a sales report.
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewHTTPClient(baseURL, accessToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Upload(ctx context.Context, l Listing) (*UploadResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"name":        l.Title,
		"description": l.DescHTML,
		"price":       l.PriceCents,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal listing: %w", err)
	}

	var result UploadResult
	err = retrypolicy.Execute(ctx, retrypolicy.RemoteStorefront, func() error {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products", bytes.NewReader(payload))
		if rerr != nil {
			return rerr
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, rerr := c.httpClient.Do(req)
		if rerr != nil {
			return &retrypolicy.TransientError{Err: rerr}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &retrypolicy.TransientError{Err: fmt.Errorf("storefront returned %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("storefront rejected upload: status %d", resp.StatusCode)
		}

		var body struct {
			ProductID string `json:"product_id"`
			URL       string `json:"url"`
		}
		if derr := json.NewDecoder(resp.Body).Decode(&body); derr != nil {
			return fmt.Errorf("decode upload response: %w", derr)
		}
		result = UploadResult{ProductID: body.ProductID, URL: body.URL}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SalesReport(ctx context.Context, productID string, since time.Time) (*SalesReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/%s/sales?since=%d", c.baseURL, productID, since.Unix()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retrypolicy.TransientError{Err: err}
	}
	defer resp.Body.Close()

	var report SalesReport
	report.ProductID = productID
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode sales report: %w", err)
	}
	return &report, nil
}
