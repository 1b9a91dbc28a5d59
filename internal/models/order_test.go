package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPaid, OrderStatusCompleted, true},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusPaid, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"→"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusIsSettled(t *testing.T) {
	assert.False(t, OrderStatusPending.IsSettled())
	assert.True(t, OrderStatusPaid.IsSettled())
	assert.True(t, OrderStatusCompleted.IsSettled())
	assert.False(t, OrderStatusCancelled.IsSettled())
}
