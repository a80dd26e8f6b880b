package service

import (
	"errors"
	"os"
	"testing"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func precisionReject() error {
	return APIError{HTTPStatus: 400, Code: -1111, Msg: "Precision is over the maximum defined for this asset."}
}

func TestPrecisionRetrySequence(t *testing.T) {
	var attempts []float64
	_, err := placeWithPrecisionRetry("TESTUSDT", 1.2345, func(q float64) (models.Order, error) {
		attempts = append(attempts, q)
		return models.Order{}, precisionReject()
	})

	want := []float64{1.2345, 1.234, 1.23, 1.2, 1}
	if len(attempts) != len(want) {
		t.Fatalf("attempts = %v, want %v", attempts, want)
	}
	for i := range want {
		if attempts[i] != want[i] {
			t.Fatalf("attempt %d = %v, want %v (full: %v)", i+1, attempts[i], want[i], attempts)
		}
	}

	var placement PlacementFailedError
	if !errors.As(err, &placement) {
		t.Fatalf("expected PlacementFailedError, got %T: %v", err, err)
	}
	if placement.Attempts != maxPlaceAttempts {
		t.Fatalf("attempts in error = %d, want %d", placement.Attempts, maxPlaceAttempts)
	}
}

func TestPrecisionRetrySucceedsMidway(t *testing.T) {
	calls := 0
	order, err := placeWithPrecisionRetry("TESTUSDT", 1.2345, func(q float64) (models.Order, error) {
		calls++
		if calls < 3 {
			return models.Order{}, precisionReject()
		}
		return models.Order{OrderID: 42, Quantity: q}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderID != 42 {
		t.Fatalf("expected order 42, got %+v", order)
	}
	if order.Quantity != 1.23 {
		t.Fatalf("expected third attempt at 1.23, got %v", order.Quantity)
	}
}

func TestNonPrecisionErrorNoRetry(t *testing.T) {
	calls := 0
	insufficient := APIError{HTTPStatus: 400, Code: -2019, Msg: "Margin is insufficient."}

	_, err := placeWithPrecisionRetry("TESTUSDT", 1.2345, func(q float64) (models.Order, error) {
		calls++
		return models.Order{}, insufficient
	})
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
	if !errors.Is(err, insufficient) {
		t.Fatalf("expected underlying api error preserved, got %v", err)
	}
}

func TestIsPrecisionError(t *testing.T) {
	if !IsPrecisionError(precisionReject()) {
		t.Fatalf("code -1111 must be a precision error")
	}
	if IsPrecisionError(APIError{Code: -2019, Msg: "Margin is insufficient."}) {
		t.Fatalf("-2019 is not a precision error")
	}
	if IsPrecisionError(errors.New("dial tcp: timeout")) {
		t.Fatalf("transport errors are not precision errors")
	}
}

func TestTruncateOneDecimal(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{1.2345, 1.234},
		{1.234, 1.23},
		{1.23, 1.2},
		{1.2, 1},
		{1, 1},
		{7, 7},
	}
	for _, c := range cases {
		if got := truncateOneDecimal(c.in); got != c.want {
			t.Errorf("truncateOneDecimal(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
