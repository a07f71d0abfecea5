package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsVersionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "version conflict error",
			err:  ErrOrderVersionConflict,
			want: true,
		},
		{
			name: "wrapped version conflict error",
			err:  errors.Join(ErrOrderVersionConflict, errors.New("additional context")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrOrderNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVersionConflict(tt.err); got != tt.want {
				t.Errorf("IsVersionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{ErrOrderNotFound, ErrCustomerNotFound, ErrCartItemNotFound, ErrProductNotFound} {
		if !IsNotFound(fmt.Errorf("load: %w", err)) {
			t.Errorf("expected %v to be not found", err)
		}
	}
	if IsNotFound(ErrCartEmpty) {
		t.Errorf("cart empty must not be reported as not found")
	}
}

func TestValidationErrors(t *testing.T) {
	if !IsValidation(ErrCartEmpty) || !IsValidation(ErrCartItemForeign) {
		t.Fatal("cart errors must wrap ErrValidation")
	}
	err := Validationf("bad date %q", "2024-13-01")
	if !IsValidation(err) {
		t.Fatalf("Validationf must wrap ErrValidation: %v", err)
	}
	if err.Error() != `validation failed: bad date "2024-13-01"` {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestInsufficientStockError(t *testing.T) {
	var err error = &InsufficientStockError{ProductID: "p-1", ProductName: "Chair", Requested: 3, Available: 2}
	wrapped := fmt.Errorf("create order: %w", err)

	if !errors.Is(wrapped, ErrInsufficientStock) {
		t.Fatal("expected errors.Is to match ErrInsufficientStock")
	}
	var stockErr *InsufficientStockError
	if !errors.As(wrapped, &stockErr) {
		t.Fatal("expected errors.As to extract InsufficientStockError")
	}
	if stockErr.Requested != 3 || stockErr.Available != 2 {
		t.Fatalf("unexpected payload: %+v", stockErr)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: OrderStatusDelivered, To: OrderStatusCancelled}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatal("expected errors.Is to match ErrInvalidTransition")
	}
	if err.Error() != "cannot transition order from DELIVERED to CANCELLED" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
