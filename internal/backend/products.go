package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/evergreenmart/storefront/internal/models"
)

// ProductPage is one page of the catalog listing. The client-rendered
// storefront feeds this straight into its infinite-scroll list.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
}

// ListProducts fetches one catalog page.
func (c *Client) ListProducts(ctx context.Context, page, pageSize int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	path := fmt.Sprintf("/api/products?page=%d&page_size=%d", page, pageSize)
	env, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var pp ProductPage
	if err := json.Unmarshal(env.Data, &pp); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}
	return &pp, nil
}

// Product fetches a single product.
func (c *Client) Product(ctx context.Context, id int) (*models.Product, error) {
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &p, nil
}

// Products fetches several products concurrently, preserving input order.
// Used to refresh cart line items against current catalog data.
func (c *Client) Products(ctx context.Context, ids []int) ([]models.Product, error) {
	out := make([]models.Product, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range ids {
		g.Go(func() error {
			p, err := c.Product(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[i] = *p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
