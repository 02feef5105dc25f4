package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

func TestBucketize(t *testing.T) {
	t.Parallel()

	at := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return ts
	}
	points := []repo.OrderPoint{
		{Total: 100, Status: models.OrderStatusCompleted, CreatedAt: at("2025-11-03")},
		{Total: 50, Status: models.OrderStatusPending, CreatedAt: at("2025-11-20")},
		{Total: 200, Status: models.OrderStatusCompleted, CreatedAt: at("2026-01-05")},
	}

	months := bucketize(points, "2006-01")
	require.Len(t, months, 2)
	assert.Equal(t, Bucket{Period: "2026-01", Revenue: 200, Orders: 1}, months[0])
	assert.Equal(t, Bucket{Period: "2025-11", Revenue: 100, Orders: 2}, months[1])

	revenue, avg, err := summarizeOrders(points)
	require.NoError(t, err)
	assert.Equal(t, int64(300), revenue)
	assert.InDelta(t, 150.0, avg, 1e-9)
}

func TestDashboardBuild(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	svc := &DashboardService{Repo: r}
	u, actor := seedUser(t, r, models.RoleUser)
	_, staff := seedUser(t, r, models.RoleStaff)
	p := seedProduct(t, r, "tee", 100_000)
	seedOrder(t, r, u, models.OrderStatusCompleted, p)
	seedOrder(t, r, u, models.OrderStatusPending, p)

	_, err := svc.Build(ctx, actor)
	require.ErrorIs(t, err, ErrUnauthorized)

	d, err := svc.Build(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.TotalOrders)
	assert.Equal(t, int64(1), d.TotalProducts)
	assert.Equal(t, int64(2), d.TotalUsers)
	assert.Equal(t, int64(100_000), d.Revenue)
	assert.Equal(t, int64(1), d.OrdersByStatus[models.OrderStatusPending])
	require.Len(t, d.RevenueByYear, 1)
	assert.Equal(t, int64(2), d.RevenueByYear[0].Orders)
	assert.Len(t, d.RecentOrderList, 2)
}
