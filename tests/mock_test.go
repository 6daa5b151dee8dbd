package tests_test

import (
	"context"
	"sync"
	"tickets/entity"
)

type mockOrderNotFoundError struct{}

func (mockOrderNotFoundError) Error() string       { return "order not found" }
func (mockOrderNotFoundError) OrderNotFound() bool { return true }

type MockOrderGetter struct {
	lock   sync.Mutex
	orders map[string]entity.Order
}

func NewMockOrderGetter() *MockOrderGetter {
	return &MockOrderGetter{
		orders: map[string]entity.Order{},
	}
}

func (m *MockOrderGetter) SetOrder(order entity.Order) {
	m.lock.Lock()
	m.orders[order.ID] = order
	m.lock.Unlock()
}

func (m *MockOrderGetter) GetOrder(_ context.Context, orderID string) (entity.Order, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return entity.Order{}, mockOrderNotFoundError{}
	}

	return order, nil
}
