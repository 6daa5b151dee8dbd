package clients_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"tickets/clients"
	"tickets/entity"
	"tickets/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersClient_GetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders/500", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":500,"status":"processing","billing":{"email":"someone@example.com"}}`))
	}))
	defer server.Close()

	c := clients.NewOrdersClient(server.URL, "ck_test", "cs_test")

	order, err := c.GetOrder(context.Background(), "500")
	require.NoError(t, err)
	assert.Equal(t, entity.Order{ID: "500", Status: "processing"}, order)
	assert.True(t, order.AdmitsFulfillment())
}

func TestOrdersClient_GetOrder_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := clients.NewOrdersClient(server.URL, "ck_test", "cs_test")

	_, err := c.GetOrder(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, validation.IsOrderNotFound(err))
}

func TestOrdersClient_GetOrder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := clients.NewOrdersClient(server.URL, "ck_test", "cs_test")

	_, err := c.GetOrder(context.Background(), "500")
	require.Error(t, err)
	assert.False(t, validation.IsOrderNotFound(err))
}
