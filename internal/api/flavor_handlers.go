package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smakiapp/smaki-server/internal/api/dto"
	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/search"
	"github.com/smakiapp/smaki-server/internal/service"
)

func (s *Server) registerFlavorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFlavors",
		Method:      http.MethodGet,
		Path:        "/api/v1/flavors",
		Summary:     "List flavors",
		Description: "Returns flavors in catalog order, optionally filtered by status",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleListFlavors)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createFlavor",
		Method:        http.MethodPost,
		Path:          "/api/v1/flavors",
		Summary:       "Create flavor",
		Description:   "Adds a flavor to the catalog. The slug is derived from the name.",
		Tags:          []string{"Flavors"},
		DefaultStatus: http.StatusCreated,
		Security:      staffSecurity,
	}, s.handleCreateFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArchivedFlavors",
		Method:      http.MethodGet,
		Path:        "/api/v1/flavors/archived",
		Summary:     "List archived flavors",
		Description: "Returns archived flavors in catalog order",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleListArchivedFlavors)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchFlavors",
		Method:      http.MethodGet,
		Path:        "/api/v1/flavors/search",
		Summary:     "Search flavors",
		Description: "Full-text search over names, descriptions and tags with type and tag facets",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleSearchFlavors)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFlavor",
		Method:      http.MethodGet,
		Path:        "/api/v1/flavors/{id}",
		Summary:     "Get flavor",
		Description: "Returns a flavor by ID, archived or not",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleGetFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateFlavor",
		Method:      http.MethodPatch,
		Path:        "/api/v1/flavors/{id}",
		Summary:     "Update flavor",
		Description: "Changes the fields present in the body",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleUpdateFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "archiveFlavor",
		Method:      http.MethodPost,
		Path:        "/api/v1/flavors/{id}/archive",
		Summary:     "Archive flavor",
		Description: "Hides the flavor from selection building and removes it from today's and future selections",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleArchiveFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreFlavor",
		Method:      http.MethodPost,
		Path:        "/api/v1/flavors/{id}/restore",
		Summary:     "Restore flavor",
		Description: "Makes an archived flavor active again",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleRestoreFlavor)
}

// === DTOs ===

// ListFlavorsInput contains parameters for listing flavors.
type ListFlavorsInput struct {
	Status string `query:"status" enum:"active,archived" doc:"Filter by status; empty lists all"`
}

// FlavorIDInput identifies a flavor.
type FlavorIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Flavor ID"`
}

// CreateFlavorRequest is the request body for creating a flavor.
type CreateFlavorRequest struct {
	Name        string   `json:"name" maxLength:"100" doc:"Flavor name"`
	Description string   `json:"description,omitempty" maxLength:"5000" doc:"Description; HTML is converted to Markdown"`
	Type        string   `json:"type,omitempty" enum:"milk,sorbet" doc:"Flavor type, milk by default"`
	Tags        []string `json:"tags,omitempty" doc:"Up to 5 tags from the vocabulary"`
	Seasonal    bool     `json:"seasonal,omitempty" doc:"Seasonal flavor"`
}

// CreateFlavorInput wraps the create request for Huma.
type CreateFlavorInput struct {
	Body CreateFlavorRequest
}

// UpdateFlavorRequest is the request body for a partial flavor update.
type UpdateFlavorRequest struct {
	Name        *string   `json:"name,omitempty" maxLength:"100" doc:"Flavor name"`
	Description *string   `json:"description,omitempty" maxLength:"5000" doc:"Description"`
	Type        *string   `json:"type,omitempty" enum:"milk,sorbet" doc:"Flavor type"`
	Tags        *[]string `json:"tags,omitempty" doc:"Replaces all tags"`
	Seasonal    *bool     `json:"seasonal,omitempty" doc:"Seasonal flavor"`
}

// UpdateFlavorInput wraps the update request for Huma.
type UpdateFlavorInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Flavor ID"`
	Body UpdateFlavorRequest
}

// SearchFlavorsInput contains search parameters.
type SearchFlavorsInput struct {
	Query  string `query:"q" doc:"Search text"`
	Type   string `query:"type" enum:"milk,sorbet" doc:"Filter by type"`
	Status string `query:"status" enum:"active,archived" doc:"Filter by status"`
	Tags   string `query:"tags" doc:"Comma separated tags, all required"`
	Sort   string `query:"sort" enum:"relevance,name,recent" doc:"Sort order"`
	dto.PaginationParams
}

// FlavorSearchResponse is a page of search results.
type FlavorSearchResponse struct {
	dto.ListResponse[dto.FlavorResponse]
	Query  string              `json:"query" doc:"Search text"`
	Facets search.SearchFacets `json:"facets" doc:"Type and tag counts across all matches"`
}

// FlavorOutput wraps a flavor for Huma.
type FlavorOutput struct {
	Body dto.FlavorResponse
}

// FlavorListOutput wraps a list of flavors for Huma.
type FlavorListOutput struct {
	Body dto.ListResponse[dto.FlavorResponse]
}

// FlavorSearchOutput wraps search results for Huma.
type FlavorSearchOutput struct {
	Body FlavorSearchResponse
}

// === Handlers ===

func (s *Server) handleListFlavors(ctx context.Context, input *ListFlavorsInput) (*FlavorListOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}
	return s.listFlavors(ctx, domain.FlavorStatus(input.Status))
}

func (s *Server) handleListArchivedFlavors(ctx context.Context, _ *struct{}) (*FlavorListOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}
	return s.listFlavors(ctx, domain.FlavorArchived)
}

func (s *Server) listFlavors(ctx context.Context, status domain.FlavorStatus) (*FlavorListOutput, error) {
	flavors, err := s.services.Catalog.ListFlavors(ctx, status)
	if err != nil {
		return nil, err
	}
	items := dto.Flavors(flavors)
	return &FlavorListOutput{Body: dto.NewListResponse(items, len(items), 0)}, nil
}

func (s *Server) handleCreateFlavor(ctx context.Context, input *CreateFlavorInput) (*FlavorOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Catalog.CreateFlavor(ctx, actor, service.FlavorRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Type:        input.Body.Type,
		Tags:        input.Body.Tags,
		Seasonal:    input.Body.Seasonal,
	})
	if err != nil {
		return nil, err
	}
	return &FlavorOutput{Body: dto.Flavor(f)}, nil
}

func (s *Server) handleGetFlavor(ctx context.Context, input *FlavorIDInput) (*FlavorOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}

	f, err := s.services.Catalog.GetFlavor(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &FlavorOutput{Body: dto.Flavor(f)}, nil
}

func (s *Server) handleUpdateFlavor(ctx context.Context, input *UpdateFlavorInput) (*FlavorOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Catalog.UpdateFlavor(ctx, actor, input.ID, service.FlavorPatch{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Type:        input.Body.Type,
		Tags:        input.Body.Tags,
		Seasonal:    input.Body.Seasonal,
	})
	if err != nil {
		return nil, err
	}
	return &FlavorOutput{Body: dto.Flavor(f)}, nil
}

func (s *Server) handleArchiveFlavor(ctx context.Context, input *FlavorIDInput) (*FlavorOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Catalog.ArchiveFlavor(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &FlavorOutput{Body: dto.Flavor(f)}, nil
}

func (s *Server) handleRestoreFlavor(ctx context.Context, input *FlavorIDInput) (*FlavorOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Catalog.RestoreFlavor(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &FlavorOutput{Body: dto.Flavor(f)}, nil
}

func (s *Server) handleSearchFlavors(ctx context.Context, input *SearchFlavorsInput) (*FlavorSearchOutput, error) {
	if _, err := RequireStaff(ctx); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Type = input.Type
	params.Status = input.Status
	params.Tags = splitCSV(input.Tags)
	params.Limit = input.Limit
	params.Offset = input.Offset
	if input.Sort != "" {
		params.SortBy = input.Sort
	}

	res, err := s.services.Catalog.SearchFlavors(ctx, params)
	if err != nil {
		return nil, err
	}

	return &FlavorSearchOutput{Body: FlavorSearchResponse{
		ListResponse: dto.NewListResponse(dto.Flavors(res.Flavors), int(res.Total), params.Offset),
		Query:        input.Query,
		Facets:       res.Facets,
	}}, nil
}
