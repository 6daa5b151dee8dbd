package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"tickets/entity"
	"time"
)

type orderNotFoundError struct {
	orderID string
}

func (e orderNotFoundError) Error() string {
	return fmt.Sprintf("no order %q", e.orderID)
}

func (e orderNotFoundError) OrderNotFound() bool {
	return true
}

// OrdersClient looks orders up in the WooCommerce-style commerce API.
// Authentication is the API's consumer key/secret pair over basic auth.
type OrdersClient struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

func NewOrdersClient(baseURL, consumerKey, consumerSecret string) OrdersClient {
	return OrdersClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type orderResponse struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

func (c OrdersClient) GetOrder(ctx context.Context, orderID string) (entity.Order, error) {
	url := fmt.Sprintf("%s/wp-json/wc/v3/orders/%s", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.Order{}, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Order{}, fmt.Errorf("sending get order request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return entity.Order{}, orderNotFoundError{orderID: orderID}
	case res.StatusCode != http.StatusOK:
		return entity.Order{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body orderResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return entity.Order{}, fmt.Errorf("decoding order: %w", err)
	}

	return entity.Order{
		ID:     body.ID.String(),
		Status: body.Status,
	}, nil
}
