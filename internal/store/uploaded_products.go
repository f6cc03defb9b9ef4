package store

import (
	"fmt"
	"time"
)

// UploadedProduct maps a post to the storefront product it became, for
// the SalesFeedback pass to reconcile against sales reports.
type UploadedProduct struct {
	PostID     string
	ProductID  string
	UploadedAt time.Time
}

// RecordUploadedProduct persists the post-to-product mapping once an
// upload succeeds.
func (s *Store) RecordUploadedProduct(postID, productID string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO uploaded_products (post_id, product_id, uploaded_at) VALUES (?,?,?)`,
		postID, productID, nowMilli())
	if err != nil {
		return fmt.Errorf("record uploaded product for %s: %w", postID, err)
	}
	return nil
}

// RecentUploadedProducts returns the most recently uploaded products,
// newest first, for the zero-sales-run-count and refund-rate checks.
func (s *Store) RecentUploadedProducts(limit int) ([]UploadedProduct, error) {
	rows, err := s.db.Query(
		`SELECT post_id, product_id, uploaded_at FROM uploaded_products ORDER BY uploaded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploaded products: %w", err)
	}
	defer rows.Close()

	var out []UploadedProduct
	for rows.Next() {
		var u UploadedProduct
		var ts int64
		if err := rows.Scan(&u.PostID, &u.ProductID, &ts); err != nil {
			return nil, err
		}
		u.UploadedAt = fromMilli(ts)
		out = append(out, u)
	}
	return out, rows.Err()
}
