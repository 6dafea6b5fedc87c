package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smakiapp/smaki-server/internal/api/dto"
	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/service"
)

func (s *Server) registerSelectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSelections",
		Method:      http.MethodGet,
		Path:        "/api/v1/selections",
		Summary:     "List selections",
		Description: "Returns stored selections between from and to, inclusive",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleListSelections)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSelection",
		Method:      http.MethodGet,
		Path:        "/api/v1/selections/{date}",
		Summary:     "Get selection",
		Description: "Returns the day's selection with the active catalog. A day never edited yields an empty, unsaved selection.",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleGetSelection)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFlavor",
		Method:      http.MethodPost,
		Path:        "/api/v1/selections/{date}/toggle/{flavorID}",
		Summary:     "Toggle flavor",
		Description: "Selects an active flavor, or unselects a selected one",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleToggleFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "setHit",
		Method:      http.MethodPost,
		Path:        "/api/v1/selections/{date}/hit/{flavorID}",
		Summary:     "Set hit of the day",
		Description: "Makes a selected flavor the hit of the day, or clears the hit if it already is",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleSetHit)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveFlavor",
		Method:      http.MethodPost,
		Path:        "/api/v1/selections/{date}/move/{flavorID}/{direction}",
		Summary:     "Move flavor",
		Description: "Swaps the flavor with its neighbor in the display order",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleMoveFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderSelection",
		Method:      http.MethodPut,
		Path:        "/api/v1/selections/{date}/order",
		Summary:     "Reorder selection",
		Description: "Replaces the display order. The list must contain exactly the selected flavors.",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleReorderSelection)

	huma.Register(s.api, huma.Operation{
		OperationID: "copyPreviousDay",
		Method:      http.MethodPost,
		Path:        "/api/v1/selections/{date}/copy-previous",
		Summary:     "Copy previous day",
		Description: "Replaces the selection with the previous day's, skipping archived flavors and resetting the hit",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleCopyPreviousDay)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearSelection",
		Method:      http.MethodPost,
		Path:        "/api/v1/selections/{date}/clear",
		Summary:     "Clear selection",
		Description: "Removes every flavor and the hit",
		Tags:        []string{"Selections"},
		Security:    staffSecurity,
	}, s.handleClearSelection)
}

// === DTOs ===

// ListSelectionsInput contains the date range for listing selections.
type ListSelectionsInput struct {
	From string `query:"from" doc:"First date (YYYY-MM-DD), inclusive"`
	To   string `query:"to" doc:"Last date (YYYY-MM-DD), inclusive"`
}

// SelectionDateInput identifies a day.
type SelectionDateInput struct {
	dto.DateParam
}

// SelectionFlavorInput identifies a flavor on a day.
type SelectionFlavorInput struct {
	dto.DateParam
	FlavorID int64 `path:"flavorID" minimum:"1" doc:"Flavor ID"`
}

// MoveFlavorInput contains parameters for moving a flavor.
type MoveFlavorInput struct {
	dto.DateParam
	FlavorID  int64  `path:"flavorID" minimum:"1" doc:"Flavor ID"`
	Direction string `path:"direction" doc:"up or down"`
}

// ReorderRequest is the request body for reordering a selection.
type ReorderRequest struct {
	FlavorIDs []int64 `json:"flavor_ids" doc:"Selected flavor IDs in the new display order"`
}

// ReorderInput wraps the reorder request for Huma.
type ReorderInput struct {
	dto.DateParam
	Body ReorderRequest
}

// SelectionListOutput wraps a list of selections for Huma.
type SelectionListOutput struct {
	Body dto.ListResponse[dto.SelectionResponse]
}

// SelectionViewOutput wraps the staff view of a day for Huma.
type SelectionViewOutput struct {
	Body dto.SelectionViewResponse
}

// SelectionOpOutput wraps a selection operation result for Huma.
type SelectionOpOutput struct {
	Body dto.SelectionOpResponse
}

// === Handlers ===

func (s *Server) handleListSelections(ctx context.Context, input *ListSelectionsInput) (*SelectionListOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}

	today := s.services.Public.Today()
	from, err := parseOptionalDay(input.From, today)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDay(input.To, today)
	if err != nil {
		return nil, err
	}

	sels, err := s.services.Selection.ListSelections(ctx, from, to)
	if err != nil {
		return nil, err
	}
	items := dto.Selections(sels)
	return &SelectionListOutput{Body: dto.NewListResponse(items, len(items), 0)}, nil
}

func (s *Server) handleGetSelection(ctx context.Context, input *SelectionDateInput) (*SelectionViewOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}

	day, err := parseDay(input.Date, s.services.Public.Today())
	if err != nil {
		return nil, err
	}

	view, err := s.services.Selection.GetSelection(ctx, day)
	if err != nil {
		return nil, err
	}
	return &SelectionViewOutput{Body: mapSelectionView(view)}, nil
}

func (s *Server) handleToggleFlavor(ctx context.Context, input *SelectionFlavorInput) (*SelectionOpOutput, error) {
	return s.runSelectionOp(ctx, input.Date, func(actor service.Actor, day domain.Date) (*service.SelectionResult, error) {
		return s.services.Selection.Toggle(ctx, actor, day, input.FlavorID)
	})
}

func (s *Server) handleSetHit(ctx context.Context, input *SelectionFlavorInput) (*SelectionOpOutput, error) {
	return s.runSelectionOp(ctx, input.Date, func(actor service.Actor, day domain.Date) (*service.SelectionResult, error) {
		return s.services.Selection.SetHit(ctx, actor, day, input.FlavorID)
	})
}

func (s *Server) handleMoveFlavor(ctx context.Context, input *MoveFlavorInput) (*SelectionOpOutput, error) {
	return s.runSelectionOp(ctx, input.Date, func(actor service.Actor, day domain.Date) (*service.SelectionResult, error) {
		return s.services.Selection.Move(ctx, actor, day, input.FlavorID, input.Direction)
	})
}

func (s *Server) handleReorderSelection(ctx context.Context, input *ReorderInput) (*SelectionOpOutput, error) {
	return s.runSelectionOp(ctx, input.Date, func(actor service.Actor, day domain.Date) (*service.SelectionResult, error) {
		return s.services.Selection.Reorder(ctx, actor, day, input.Body.FlavorIDs)
	})
}

func (s *Server) handleCopyPreviousDay(ctx context.Context, input *SelectionDateInput) (*SelectionOpOutput, error) {
	return s.runSelectionOp(ctx, input.Date, func(actor service.Actor, day domain.Date) (*service.SelectionResult, error) {
		return s.services.Selection.CopyFromPreviousDay(ctx, actor, day)
	})
}

func (s *Server) handleClearSelection(ctx context.Context, input *SelectionDateInput) (*SelectionOpOutput, error) {
	return s.runSelectionOp(ctx, input.Date, func(actor service.Actor, day domain.Date) (*service.SelectionResult, error) {
		return s.services.Selection.Clear(ctx, actor, day)
	})
}

// runSelectionOp authenticates, resolves the date and maps the result.
func (s *Server) runSelectionOp(ctx context.Context, rawDate string, op func(service.Actor, domain.Date) (*service.SelectionResult, error)) (*SelectionOpOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	day, err := parseDay(rawDate, s.services.Public.Today())
	if err != nil {
		return nil, err
	}

	res, err := op(actor, day)
	if err != nil {
		return nil, err
	}
	return &SelectionOpOutput{Body: dto.SelectionOpResponse{
		Selection: dto.Selection(res.Selection),
		Changed:   res.Changed,
		Reason:    res.Reason,
	}}, nil
}

func mapSelectionView(v *service.SelectionView) dto.SelectionViewResponse {
	resp := dto.SelectionViewResponse{
		Selection: dto.Selection(v.Selection),
		Saved:     v.Saved,
		Flavors:   dto.Flavors(v.Flavors),
		Catalog:   make([]dto.CatalogEntryResponse, len(v.Catalog)),
	}
	if v.Hit != nil {
		hit := dto.Flavor(v.Hit)
		resp.Hit = &hit
	}
	for i, e := range v.Catalog {
		resp.Catalog[i] = dto.CatalogEntryResponse{
			Flavor:   dto.Flavor(&e.Flavor),
			Selected: e.Selected,
			Hit:      e.Hit,
		}
	}
	return resp
}
