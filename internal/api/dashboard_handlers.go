package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smakiapp/smaki-server/internal/api/dto"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard",
		Summary:     "Dashboard",
		Description: "Catalog counts, today's selection and what the public menu currently shows",
		Tags:        []string{"Dashboard"},
		Security:    staffSecurity,
	}, s.handleGetDashboard)
}

// DashboardResponse is the staff landing summary.
type DashboardResponse struct {
	Today           string              `json:"today" doc:"Today's date in the shop's time zone"`
	ActiveFlavors   int                 `json:"active_flavors" doc:"Active flavors in the catalog"`
	ArchivedFlavors int                 `json:"archived_flavors" doc:"Archived flavors"`
	TodaySelected   int                 `json:"today_selected" doc:"Flavors selected for today"`
	TodayHit        *dto.FlavorResponse `json:"today_hit" doc:"Today's hit, null when unset"`
	TodayUpdatedAt  *time.Time          `json:"today_updated_at,omitempty" doc:"Last change to today's selection"`
	PublicSource    string              `json:"public_source" doc:"Where the public menu comes from: today, yesterday or catalog"`
}

// DashboardOutput wraps the dashboard for Huma.
type DashboardOutput struct {
	Body DashboardResponse
}

func (s *Server) handleGetDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}

	d, err := s.services.Dashboard.Summary(ctx)
	if err != nil {
		return nil, err
	}

	resp := DashboardResponse{
		Today:           d.Today.String(),
		ActiveFlavors:   d.ActiveFlavors,
		ArchivedFlavors: d.ArchivedFlavors,
		TodaySelected:   d.TodaySelected,
		PublicSource:    string(d.PublicSource),
	}
	if d.TodayHit != nil {
		hit := dto.Flavor(d.TodayHit)
		resp.TodayHit = &hit
	}
	if !d.TodayUpdatedAt.IsZero() {
		t := d.TodayUpdatedAt
		resp.TodayUpdatedAt = &t
	}
	return &DashboardOutput{Body: resp}, nil
}
