package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/internal/status"
)

func setupTestCheckoutService() (*CheckoutService, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	service := &CheckoutService{
		redis:   db,
		holdTTL: 10 * time.Minute,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return service, mock
}

func TestCheckoutService_PlaceHold_Success(t *testing.T) {
	service, mock := setupTestCheckoutService()
	ctx := context.Background()

	mock.ExpectIncrBy("hold:eventdate:date-1", 2).SetVal(2)
	mock.ExpectExpire("hold:eventdate:date-1", 10*time.Minute).SetVal(true)

	err := service.placeHold(ctx, "date-1", 2, 10)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutService_PlaceHold_SoldOut(t *testing.T) {
	service, mock := setupTestCheckoutService()
	ctx := context.Background()

	// 9 admissions already held, 10 available, 2 requested.
	mock.ExpectIncrBy("hold:eventdate:date-1", 2).SetVal(11)
	mock.ExpectExpire("hold:eventdate:date-1", 10*time.Minute).SetVal(true)
	mock.ExpectDecrBy("hold:eventdate:date-1", 2).SetVal(9)

	err := service.placeHold(ctx, "date-1", 2, 10)

	require.ErrorIs(t, err, status.ErrEventDateSoldOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutService_PlaceHold_ExactCapacity(t *testing.T) {
	service, mock := setupTestCheckoutService()
	ctx := context.Background()

	mock.ExpectIncrBy("hold:eventdate:date-1", 5).SetVal(5)
	mock.ExpectExpire("hold:eventdate:date-1", 10*time.Minute).SetVal(true)

	err := service.placeHold(ctx, "date-1", 5, 5)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutService_ReleaseHold(t *testing.T) {
	service, mock := setupTestCheckoutService()
	ctx := context.Background()

	mock.ExpectDecrBy("hold:eventdate:date-1", 3).SetVal(0)

	service.releaseHold(ctx, "date-1", 3)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutService_Checkout_SoldOutDateShortCircuits(t *testing.T) {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	dates := core.NewBaseCollection("event_dates")
	dates.Fields.Add(
		&core.TextField{Name: "event_id", Max: 50},
		&core.NumberField{Name: "price"},
		&core.NumberField{Name: "available"},
	)
	require.NoError(t, app.Save(dates))

	date := core.NewRecord(dates)
	date.Set("event_id", "ev-1")
	date.Set("price", 25.0)
	date.Set("available", 0)
	require.NoError(t, app.Save(date))

	service, mock := setupTestCheckoutService()
	service.app = app

	_, err = service.Checkout(context.Background(), "user-1", &CheckoutRequest{
		EventID:     "ev-1",
		EventDateID: date.Id,
		Quantity:    2,
	})

	require.ErrorIs(t, err, status.ErrEventDateSoldOut)
	// No hold was placed or released.
	assert.NoError(t, mock.ExpectationsWereMet())
}
