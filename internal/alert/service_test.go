// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/models"
)

func TestCreateTestAlertWithoutCompany(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewService(store, publisher)

	alert, err := svc.CreateTest(context.Background(), 7, nil)
	require.NoError(t, err)

	assert.Equal(t, models.AlertTypeTest, alert.Type)
	assert.Nil(t, alert.CompanyID)
	assert.Equal(t, testAlertMessage, alert.Message)
	require.Len(t, publisher.published(), 1)
}

func TestCreateTestAlertWithCompany(t *testing.T) {
	store := newFakeStore()
	store.companies[10] = &models.Company{ID: 10, Ticker: "TCS"}
	svc := NewService(store, &fakePublisher{})

	alert, err := svc.CreateTest(context.Background(), 7, ptr(int64(10)))
	require.NoError(t, err)
	require.NotNil(t, alert.CompanyID)
	assert.Equal(t, int64(10), *alert.CompanyID)
}

func TestCreateTestAlertUnknownCompany(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewService(store, publisher)

	_, err := svc.CreateTest(context.Background(), 7, ptr(int64(404)))
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Empty(t, publisher.published())
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakePublisher{})
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, 7, nil)
	require.NoError(t, err)

	first, err := svc.MarkSeen(ctx, created.ID, 7)
	require.NoError(t, err)
	assert.True(t, first.Seen)

	second, err := svc.MarkSeen(ctx, created.ID, 7)
	require.NoError(t, err)
	assert.True(t, second.Seen)
}

func TestMarkSeenWrongOwner(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakePublisher{})
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, 7, nil)
	require.NoError(t, err)

	_, err = svc.MarkSeen(ctx, created.ID, 8)
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestListReturnsNewestFirst(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakePublisher{})
	ctx := context.Background()

	first, err := svc.CreateTest(ctx, 7, nil)
	require.NoError(t, err)
	second, err := svc.CreateTest(ctx, 7, nil)
	require.NoError(t, err)
	_, err = svc.CreateTest(ctx, 8, nil)
	require.NoError(t, err)

	alerts, err := svc.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, second.ID, alerts[0].ID)
	assert.Equal(t, first.ID, alerts[1].ID)
}

func ptr[T any](v T) *T { return &v }
