package service

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const (
	dashboardMonths = 12
	recentOrders    = 5
)

type DashboardService struct {
	Repo *repo.GormRepo
}

// Bucket aggregates orders of one month ("2006-01") or one year ("2006").
// Revenue only counts completed orders; Orders counts every order.
type Bucket struct {
	Period  string `json:"period"`
	Revenue int64  `json:"revenue"`
	Orders  int64  `json:"orders"`
}

type Dashboard struct {
	TotalOrders     int64            `json:"total_orders"`
	TotalProducts   int64            `json:"total_products"`
	TotalUsers      int64            `json:"total_users"`
	TotalReviews    int64            `json:"total_reviews"`
	Revenue         int64            `json:"revenue"`
	AverageOrder    float64          `json:"average_order"`
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	RevenueByMonth  []Bucket         `json:"revenue_by_month"`
	RevenueByYear   []Bucket         `json:"revenue_by_year"`
	RecentOrderList []models.Order   `json:"recent_orders"`
}

func bucketize(points []repo.OrderPoint, layout string) []Bucket {
	byKey := map[string]*Bucket{}
	for _, p := range points {
		k := p.CreatedAt.UTC().Format(layout)
		b, ok := byKey[k]
		if !ok {
			b = &Bucket{Period: k}
			byKey[k] = b
		}
		b.Orders++
		if p.Status == models.OrderStatusCompleted {
			b.Revenue += p.Total
		}
	}

	out := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

// summarizeOrders returns revenue and average value of completed orders.
func summarizeOrders(points []repo.OrderPoint) (revenue int64, average float64, err error) {
	var completed stats.Float64Data
	for _, p := range points {
		if p.Status == models.OrderStatusCompleted {
			completed = append(completed, float64(p.Total))
		}
	}
	if len(completed) == 0 {
		return 0, 0, nil
	}
	sum, err := completed.Sum()
	if err != nil {
		return 0, 0, err
	}
	mean, err := completed.Mean()
	if err != nil {
		return 0, 0, err
	}
	average, err = stats.Round(mean, 0)
	if err != nil {
		return 0, 0, err
	}
	return int64(sum), average, nil
}

func (s *DashboardService) Build(ctx context.Context, actor Actor) (*Dashboard, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}

	d := &Dashboard{}
	var err error
	if d.TotalProducts, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if d.TotalUsers, err = s.Repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if d.TotalReviews, err = s.Repo.CountReviews(ctx); err != nil {
		return nil, err
	}
	if d.OrdersByStatus, err = s.Repo.CountOrdersByStatus(ctx); err != nil {
		return nil, err
	}
	if d.RecentOrderList, err = s.Repo.RecentOrders(ctx, recentOrders); err != nil {
		return nil, err
	}

	points, err := s.Repo.OrderPoints(ctx)
	if err != nil {
		return nil, err
	}
	d.TotalOrders = int64(len(points))
	if d.Revenue, d.AverageOrder, err = summarizeOrders(points); err != nil {
		return nil, err
	}

	d.RevenueByMonth = bucketize(points, "2006-01")
	if len(d.RevenueByMonth) > dashboardMonths {
		d.RevenueByMonth = d.RevenueByMonth[:dashboardMonths]
	}
	d.RevenueByYear = bucketize(points, "2006")
	return d, nil
}
