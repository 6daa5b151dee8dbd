package validation_test

import (
	"context"
	"fmt"
	"testing"
	"tickets/entity"
	"tickets/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderNotFoundError struct{}

func (stubOrderNotFoundError) Error() string       { return "order not found" }
func (stubOrderNotFoundError) OrderNotFound() bool { return true }

type stubOrderGetter struct {
	order entity.Order
	err   error
}

func (s stubOrderGetter) GetOrder(context.Context, string) (entity.Order, error) {
	return s.order, s.err
}

type stubGenStore struct {
	existing []entity.Ticket

	createCalls           int
	createdCount          uint
	createdUsagesPerEntry uint
}

func (s *stubGenStore) FindByOrder(context.Context, string, string) ([]entity.Ticket, error) {
	return s.existing, nil
}

func (s *stubGenStore) CreateBatch(_ context.Context, orderID, eventID string, count, usagesPerTicket uint) ([]entity.Ticket, error) {
	s.createCalls++
	s.createdCount = count
	s.createdUsagesPerEntry = usagesPerTicket

	tickets := make([]entity.Ticket, count)
	for i := range tickets {
		tickets[i] = entity.Ticket{
			Code:      fmt.Sprintf("code-%d", i+1),
			EventID:   eventID,
			OrderID:   orderID,
			MaxUsages: usagesPerTicket,
		}
	}
	return tickets, nil
}

func TestGenerator_Generate(t *testing.T) {
	orders := stubOrderGetter{order: entity.Order{ID: "500", Status: entity.OrderStatusProcessing}}
	store := &stubGenStore{}
	g := validation.NewGenerator(orders, store)

	codes, err := g.Generate(context.Background(), "500", "12", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"code-1", "code-2"}, codes)
	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, uint(2), store.createdCount)
	assert.Equal(t, uint(1), store.createdUsagesPerEntry)
}

func TestGenerator_Generate_CompletedOrder(t *testing.T) {
	orders := stubOrderGetter{order: entity.Order{ID: "500", Status: entity.OrderStatusCompleted}}
	store := &stubGenStore{}
	g := validation.NewGenerator(orders, store)

	codes, err := g.Generate(context.Background(), "500", "12", 1, 4)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
	assert.Equal(t, uint(4), store.createdUsagesPerEntry)
}

func TestGenerator_Generate_OrderNotFulfillable(t *testing.T) {
	for _, status := range []string{
		entity.OrderStatusPending,
		entity.OrderStatusCancelled,
		entity.OrderStatusRefunded,
	} {
		t.Run(status, func(t *testing.T) {
			orders := stubOrderGetter{order: entity.Order{ID: "500", Status: status}}
			store := &stubGenStore{}
			g := validation.NewGenerator(orders, store)

			_, err := g.Generate(context.Background(), "500", "12", 2, 1)
			require.Error(t, err)
			assert.True(t, validation.IsOrderNotFulfillable(err))
			assert.Zero(t, store.createCalls, "no tickets may be created for an unfulfillable order")
		})
	}
}

func TestGenerator_Generate_Idempotent(t *testing.T) {
	orders := stubOrderGetter{order: entity.Order{ID: "500", Status: entity.OrderStatusProcessing}}
	store := &stubGenStore{
		existing: []entity.Ticket{
			{Code: "minted-1", EventID: "12", OrderID: "500", MaxUsages: 1},
			{Code: "minted-2", EventID: "12", OrderID: "500", MaxUsages: 1},
		},
	}
	g := validation.NewGenerator(orders, store)

	codes, err := g.Generate(context.Background(), "500", "12", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"minted-1", "minted-2"}, codes)
	assert.Zero(t, store.createCalls, "repeat generation must return the previous set")
}

func TestGenerator_Generate_OrderNotFound(t *testing.T) {
	orders := stubOrderGetter{err: stubOrderNotFoundError{}}
	store := &stubGenStore{}
	g := validation.NewGenerator(orders, store)

	_, err := g.Generate(context.Background(), "999", "12", 1, 1)
	require.Error(t, err)
	assert.True(t, validation.IsOrderNotFound(err))
	assert.Zero(t, store.createCalls)
}

func TestGenerator_Generate_RejectsZeroArguments(t *testing.T) {
	orders := stubOrderGetter{order: entity.Order{ID: "500", Status: entity.OrderStatusProcessing}}
	g := validation.NewGenerator(orders, &stubGenStore{})

	_, err := g.Generate(context.Background(), "500", "12", 0, 1)
	require.Error(t, err)

	_, err = g.Generate(context.Background(), "500", "12", 1, 0)
	require.Error(t, err)
}
