package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smakiapp/smaki-server/internal/api/dto"
)

func (s *Server) registerPublicRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPublicMenu",
		Method:      http.MethodGet,
		Path:        "/api/v1/public/today",
		Summary:     "Today's menu",
		Description: "Returns the flavors on offer. Falls back to yesterday's selection, then to every active flavor, when the day has nothing selected.",
		Tags:        []string{"Public"},
	}, s.handleGetPublicMenu)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPublicFlavor",
		Method:      http.MethodGet,
		Path:        "/api/v1/public/flavors/{slug}",
		Summary:     "Get flavor",
		Description: "Returns an active flavor by slug",
		Tags:        []string{"Public"},
	}, s.handleGetPublicFlavor)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the tag vocabulary with display labels and colors",
		Tags:        []string{"Public"},
	}, s.handleListTags)
}

// PublicMenuInput contains parameters for the public menu.
type PublicMenuInput struct {
	Date string `query:"date" doc:"Calendar date (YYYY-MM-DD); defaults to today"`
}

// PublicMenuOutput wraps the public menu for Huma.
type PublicMenuOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         dto.PublicViewResponse
}

// PublicFlavorInput contains parameters for getting a flavor by slug.
type PublicFlavorInput struct {
	Slug string `path:"slug" doc:"Flavor slug"`
}

// PublicFlavorOutput wraps a public flavor for Huma.
type PublicFlavorOutput struct {
	Body dto.PublicFlavorResponse
}

// TagsOutput wraps the tag vocabulary for Huma.
type TagsOutput struct {
	Body []dto.TagResponse
}

func (s *Server) handleGetPublicMenu(ctx context.Context, input *PublicMenuInput) (*PublicMenuOutput, error) {
	day, err := parseDay(input.Date, s.services.Public.Today())
	if err != nil {
		return nil, err
	}

	view, err := s.services.Public.ResolvePublicView(ctx, day)
	if err != nil {
		return nil, err
	}
	return &PublicMenuOutput{CacheControl: CacheNoStore, Body: dto.PublicView(view)}, nil
}

func (s *Server) handleGetPublicFlavor(ctx context.Context, input *PublicFlavorInput) (*PublicFlavorOutput, error) {
	f, err := s.services.Public.GetFlavor(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &PublicFlavorOutput{Body: dto.PublicFlavor(f)}, nil
}

func (s *Server) handleListTags(_ context.Context, _ *struct{}) (*TagsOutput, error) {
	return &TagsOutput{Body: dto.Vocabulary()}, nil
}
