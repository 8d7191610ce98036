package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cartservice/internal/domain/model"

	"github.com/shopspring/decimal"
)

// CatalogClient はカタログサービスのRESTクライアント。
type CatalogClient struct {
	rest *restClient
}

func NewCatalogClient(baseURL string, httpClient *http.Client, timeout time.Duration) *CatalogClient {
	return &CatalogClient{rest: newRestClient("catalog", baseURL, httpClient, timeout)}
}

// ボリュームプロモーションAPIに送る明細
type cartLineDTO struct {
	ID                 int64           `json:"id"`
	ProductID          int64           `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID int64) (model.ProductSnapshot, error) {
	var p model.ProductSnapshot
	path := fmt.Sprintf("/catalog/products/%d", productID)
	if err := c.rest.do(ctx, http.MethodGet, path, nil, &p, model.ErrProductNotFound); err != nil {
		return model.ProductSnapshot{}, err
	}
	return p, nil
}

func (c *CatalogClient) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.ProductSnapshot, error) {
	if len(ids) == 0 {
		return []model.ProductSnapshot{}, nil
	}

	var products []model.ProductSnapshot
	if err := c.rest.do(ctx, http.MethodPost, "/catalog/products/byIds", ids, &products, model.ErrProductNotFound); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *CatalogClient) GetDiscountedPrice(ctx context.Context, productID int64, quantity int) (decimal.Decimal, error) {
	var price decimal.Decimal
	path := fmt.Sprintf("/catalog/products/%d/price-checkout?quantity=%d", productID, quantity)
	if err := c.rest.do(ctx, http.MethodGet, path, nil, &price, model.ErrProductNotFound); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func (c *CatalogClient) GetVolumePricedProducts(ctx context.Context, lines []model.CartLine) ([]model.ProductSnapshot, error) {
	body := make([]cartLineDTO, 0, len(lines))
	for _, l := range lines {
		body = append(body, cartLineDTO{
			ID:                 l.ID,
			ProductID:          l.ProductID,
			ProductName:        l.ProductName,
			ProductDescription: l.ProductDescription,
			Quantity:           l.Quantity,
			Price:              l.Price,
		})
	}

	var products []model.ProductSnapshot
	if err := c.rest.do(ctx, http.MethodPost, "/catalog/products/volumePromotion", body, &products, model.ErrProductNotFound); err != nil {
		return nil, err
	}
	return products, nil
}
