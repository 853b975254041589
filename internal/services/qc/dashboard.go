package qc

import (
	"context"
	"time"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/quality"
)

// DashboardWindow is how far back "recently completed" reaches.
const DashboardWindow = 30 * 24 * time.Hour

const dashboardListSize = 5

// CompletedSummary is a completed OP with its out-of-tolerance rate.
type CompletedSummary struct {
	WorkOrderSummary
	Quality quality.QualitySummary `json:"quality"`
}

// Dashboard is the manager's landing page.
type Dashboard struct {
	Drawings        int64              `json:"drawings"`
	OpenWorkOrders  int64              `json:"openWorkOrders"`
	CompletedRecent int64              `json:"completedRecent"`
	RecentOpen      []WorkOrderSummary `json:"recentOpen"`
	RecentCompleted []CompletedSummary `json:"recentCompleted"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		dash Dashboard
		err  error
	)
	since := s.now().Add(-DashboardWindow)

	if dash.Drawings, err = s.store.CountDrawings(ctx); err != nil {
		return nil, err
	}
	if dash.OpenWorkOrders, err = s.store.CountWorkOrders(ctx, models.StatusOpen, nil); err != nil {
		return nil, err
	}
	if dash.CompletedRecent, err = s.store.CountWorkOrders(ctx, models.StatusCompleted, &since); err != nil {
		return nil, err
	}

	if dash.RecentOpen, err = s.ListWorkOrders(ctx, WorkOrderFilter{Status: models.StatusOpen, Limit: dashboardListSize}); err != nil {
		return nil, err
	}

	completed, err := s.ListWorkOrders(ctx, WorkOrderFilter{Status: models.StatusCompleted, Limit: dashboardListSize})
	if err != nil {
		return nil, err
	}
	dash.RecentCompleted = make([]CompletedSummary, 0, len(completed))
	for _, row := range completed {
		od, err := s.loadOrder(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		dash.RecentCompleted = append(dash.RecentCompleted, CompletedSummary{
			WorkOrderSummary: row,
			Quality:          od.matrix.Quality(),
		})
	}
	return &dash, nil
}
