package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smakiapp/smaki-server/internal/domain"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/media/images"
	"github.com/smakiapp/smaki-server/internal/metrics"
	"github.com/smakiapp/smaki-server/internal/normalize"
	"github.com/smakiapp/smaki-server/internal/search"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
	"github.com/smakiapp/smaki-server/internal/util"
	"github.com/smakiapp/smaki-server/internal/validation"
)

// FlavorRequest is the full set of editable flavor fields.
type FlavorRequest struct {
	Name        string   `json:"name" validate:"notblank,max=100"`
	Description string   `json:"description" validate:"max=5000"`
	Type        string   `json:"type" validate:"omitempty,flavortype"`
	Tags        []string `json:"tags" validate:"dive,flavortag"`
	Seasonal    bool     `json:"seasonal"`
}

// FlavorPatch changes only the fields that are set.
type FlavorPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Type        *string   `json:"type,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Seasonal    *bool     `json:"seasonal,omitempty"`
}

// CatalogConfig holds the collaborators of the catalog service.
type CatalogConfig struct {
	Store     store.Store
	Validator *validation.Validator
	Index     *search.FlavorIndex
	Photos    *images.Storage
	Processor *images.Processor
	Events    Emitter
	Clock     domain.Clock
	Logger    *slog.Logger
}

// CatalogService manages flavors.
type CatalogService struct {
	store     store.Store
	validator *validation.Validator
	index     *search.FlavorIndex
	photos    *images.Storage
	processor *images.Processor
	events    Emitter
	clock     domain.Clock
	logger    *slog.Logger
}

// NewCatalogService creates a catalog service. Index, photo storage and
// processor may be nil when those features are disabled.
func NewCatalogService(cfg CatalogConfig) *CatalogService {
	v := cfg.Validator
	if v == nil {
		v = validation.New()
	}
	return &CatalogService{
		store:     cfg.Store,
		validator: v,
		index:     cfg.Index,
		photos:    cfg.Photos,
		processor: cfg.Processor,
		events:    orNoop(cfg.Events),
		clock:     cfg.Clock,
		logger:    orDiscard(cfg.Logger),
	}
}

var errFlavorNotFound = domainerrors.NotFound("flavor not found")

// CreateFlavor adds a flavor to the catalog.
func (s *CatalogService) CreateFlavor(ctx context.Context, actor Actor, req FlavorRequest) (*domain.Flavor, error) {
	in, err := s.prepare(ctx, req, 0)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, util.Slugify(in.Name), 0)
	if err != nil {
		return nil, err
	}

	now := clockNow(s.clock).UTC()
	f := &domain.Flavor{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Type:        in.Type,
		Tags:        in.Tags,
		Seasonal:    in.Seasonal,
		Status:      domain.FlavorActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateFlavor(ctx, f); err != nil {
		return nil, s.writeError("create flavor", err)
	}

	s.afterWrite(f, sse.EventFlavorCreated)
	s.logger.Info("flavor created", "flavor_id", f.ID, "slug", f.Slug, "actor", actor.Username)
	return f, nil
}

// UpdateFlavor applies patch to the flavor. Renaming re-derives the slug
// unless the new name slugifies to the same base.
func (s *CatalogService) UpdateFlavor(ctx context.Context, actor Actor, id int64, patch FlavorPatch) (*domain.Flavor, error) {
	f, err := s.store.GetFlavor(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "get flavor", err, errFlavorNotFound)
	}

	req := FlavorRequest{
		Name:        f.Name,
		Description: f.Description,
		Type:        string(f.Type),
		Tags:        tagStrings(f.Tags),
		Seasonal:    f.Seasonal,
	}
	if patch.Name != nil {
		req.Name = *patch.Name
	}
	if patch.Description != nil {
		req.Description = *patch.Description
	}
	if patch.Type != nil {
		req.Type = *patch.Type
	}
	if patch.Tags != nil {
		req.Tags = *patch.Tags
	}
	if patch.Seasonal != nil {
		req.Seasonal = *patch.Seasonal
	}

	in, err := s.prepare(ctx, req, id)
	if err != nil {
		return nil, err
	}

	if base := util.Slugify(in.Name); base != util.Slugify(f.Name) {
		if f.Slug, err = s.uniqueSlug(ctx, base, id); err != nil {
			return nil, err
		}
	}

	f.Name = in.Name
	f.Description = in.Description
	f.Type = in.Type
	f.Tags = in.Tags
	f.Seasonal = in.Seasonal
	f.UpdatedAt = clockNow(s.clock).UTC()

	if err := s.store.UpdateFlavor(ctx, f); err != nil {
		return nil, s.writeError("update flavor", err)
	}

	s.afterWrite(f, sse.EventFlavorUpdated)
	s.logger.Info("flavor updated", "flavor_id", f.ID, "slug", f.Slug, "actor", actor.Username)
	return f, nil
}

// ArchiveFlavor hides the flavor from selection building and removes it
// from today's and future selections. Archiving twice is a no-op.
func (s *CatalogService) ArchiveFlavor(ctx context.Context, actor Actor, id int64) (*domain.Flavor, error) {
	now := clockNow(s.clock)
	f, changed, err := s.store.ArchiveFlavor(ctx, id, s.clock.Today(), now)
	if err != nil {
		return nil, storeError(s.logger, "archive flavor", err, errFlavorNotFound)
	}

	s.afterWrite(f, sse.EventFlavorArchived)
	for _, sel := range changed {
		s.events.Emit(sse.NewSelectionUpdatedEvent(sel, "archive"))
	}
	s.logger.Info("flavor archived",
		"flavor_id", f.ID,
		"selections_updated", len(changed),
		"actor", actor.Username,
	)
	return f, nil
}

// RestoreFlavor makes an archived flavor available again. Selections it was
// removed from are not restored.
func (s *CatalogService) RestoreFlavor(ctx context.Context, actor Actor, id int64) (*domain.Flavor, error) {
	f, err := s.store.RestoreFlavor(ctx, id, clockNow(s.clock))
	if err != nil {
		return nil, storeError(s.logger, "restore flavor", err, errFlavorNotFound)
	}

	s.afterWrite(f, sse.EventFlavorRestored)
	s.logger.Info("flavor restored", "flavor_id", f.ID, "actor", actor.Username)
	return f, nil
}

// GetFlavor returns a flavor by id.
func (s *CatalogService) GetFlavor(ctx context.Context, id int64) (*domain.Flavor, error) {
	f, err := s.store.GetFlavor(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "get flavor", err, errFlavorNotFound)
	}
	return f, nil
}

// GetFlavorBySlug returns a flavor by slug.
func (s *CatalogService) GetFlavorBySlug(ctx context.Context, slug string) (*domain.Flavor, error) {
	f, err := s.store.GetFlavorBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(s.logger, "get flavor by slug", err, errFlavorNotFound)
	}
	return f, nil
}

// ListFlavors returns flavors in catalog order. An empty status lists all.
func (s *CatalogService) ListFlavors(ctx context.Context, status domain.FlavorStatus) ([]domain.Flavor, error) {
	if status != "" && !status.Valid() {
		return nil, domainerrors.Validationf("invalid status %q", status)
	}
	flavors, err := s.store.ListFlavors(ctx, status)
	if err != nil {
		return nil, storeError(s.logger, "list flavors", err, nil)
	}
	return flavors, nil
}

// SearchResult is one page of flavor search results.
type SearchResult struct {
	Total   uint64
	Flavors []domain.Flavor
	Facets  search.SearchFacets
}

// SearchFlavors runs a full-text query and loads the matching flavors in
// relevance order.
func (s *CatalogService) SearchFlavors(ctx context.Context, params search.SearchParams) (*SearchResult, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search is not available")
	}
	if params.Type != "" && !domain.FlavorType(params.Type).Valid() {
		return nil, domainerrors.Validationf("invalid type %q", params.Type)
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("flavor search failed", "query", params.Query, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	ids := make([]int64, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	found, err := s.store.GetFlavorsByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(s.logger, "load search hits", err, nil)
	}

	byID := make(map[int64]domain.Flavor, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}
	flavors := make([]domain.Flavor, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			flavors = append(flavors, f)
		}
	}

	return &SearchResult{Total: res.Total, Flavors: flavors, Facets: res.Facets}, nil
}

// Reindex rebuilds the search index from the store.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	flavors, err := s.store.ListFlavors(ctx, "")
	if err != nil {
		return storeError(s.logger, "list flavors", err, nil)
	}
	if err := s.index.Rebuild(flavors); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "rebuild search index")
	}
	return nil
}

// SetFlavorPhoto processes and stores a new photo, replacing any previous one.
// Uploads that are not JPEG, PNG, GIF or WebP images are rejected; recognised
// images that cannot be processed are stored as uploaded.
func (s *CatalogService) SetFlavorPhoto(ctx context.Context, actor Actor, id int64, data []byte, filename string) (*domain.Flavor, error) {
	if s.photos == nil || s.processor == nil {
		return nil, domainerrors.Internal("photo storage is not configured")
	}
	if len(data) == 0 {
		return nil, domainerrors.ValidationWithDetails("invalid photo", map[string]string{"file": "is empty"})
	}

	f, err := s.store.GetFlavor(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "get flavor", err, errFlavorNotFound)
	}

	res, err := s.processor.Process(data, filename)
	if err != nil {
		metrics.PhotosProcessedTotal.WithLabelValues("rejected").Inc()
		return nil, domainerrors.ValidationWithDetails("invalid photo",
			map[string]string{"file": "must be a JPEG, PNG, GIF or WebP image"}).WithCause(err)
	}
	if res.Processed {
		metrics.PhotosProcessedTotal.WithLabelValues("processed").Inc()
	} else {
		metrics.PhotosProcessedTotal.WithLabelValues("passthrough").Inc()
	}

	now := clockNow(s.clock)
	key, err := s.photos.Save(now, res.Data)
	if err != nil {
		s.logger.Error("failed to store photo", "flavor_id", id, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store photo")
	}

	previous := f.Photo
	f.Photo = key
	f.PhotoBlurHash = res.BlurHash
	f.UpdatedAt = now.UTC()
	if err := s.store.UpdateFlavor(ctx, f); err != nil {
		s.removePhoto(key)
		return nil, s.writeError("update flavor photo", err)
	}
	if previous != "" {
		s.removePhoto(previous)
	}

	s.afterWrite(f, sse.EventFlavorUpdated)
	s.logger.Info("flavor photo updated",
		"flavor_id", f.ID,
		"key", key,
		"processed", res.Processed,
		"actor", actor.Username,
	)
	return f, nil
}

// RemoveFlavorPhoto detaches and deletes the flavor's photo.
func (s *CatalogService) RemoveFlavorPhoto(ctx context.Context, actor Actor, id int64) (*domain.Flavor, error) {
	f, err := s.store.GetFlavor(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "get flavor", err, errFlavorNotFound)
	}
	if f.Photo == "" {
		return f, nil
	}

	previous := f.Photo
	f.Photo = ""
	f.PhotoBlurHash = ""
	f.UpdatedAt = clockNow(s.clock).UTC()
	if err := s.store.UpdateFlavor(ctx, f); err != nil {
		return nil, s.writeError("remove flavor photo", err)
	}
	s.removePhoto(previous)

	s.afterWrite(f, sse.EventFlavorUpdated)
	s.logger.Info("flavor photo removed", "flavor_id", f.ID, "actor", actor.Username)
	return f, nil
}

// preparedFlavor holds normalized, validated field values.
type preparedFlavor struct {
	Name        string
	Description string
	Type        domain.FlavorType
	Tags        []domain.Tag
	Seasonal    bool
}

func (s *CatalogService) prepare(ctx context.Context, req FlavorRequest, excludeID int64) (*preparedFlavor, error) {
	req.Name = normalize.Name(req.Name)
	req.Description = normalize.Description(req.Description)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	name, err := domain.NormalizeFlavorName(req.Name)
	if err != nil {
		return nil, err
	}
	tags, err := domain.NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}
	flavorType := domain.FlavorType(req.Type)
	if flavorType == "" {
		flavorType = domain.FlavorTypeMilk
	}

	taken, err := s.store.FlavorNameTaken(ctx, name, excludeID)
	if err != nil {
		return nil, storeError(s.logger, "check flavor name", err, nil)
	}
	if taken {
		return nil, errDuplicateName()
	}

	return &preparedFlavor{
		Name:        name,
		Description: req.Description,
		Type:        flavorType,
		Tags:        tags,
		Seasonal:    req.Seasonal,
	}, nil
}

func errDuplicateName() *domainerrors.Error {
	return domainerrors.ValidationWithDetails("flavor name already exists",
		map[string]string{"name": "already exists"})
}

// uniqueSlug returns the first free candidate for base.
func (s *CatalogService) uniqueSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	for candidate := range domain.SlugCandidates(base) {
		taken, err := s.store.FlavorSlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", storeError(s.logger, "check flavor slug", err, nil)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domainerrors.Conflict("no free slug for " + base)
}

// writeError maps a failed create/update. A unique-index clash here means a
// concurrent writer took the name or slug after our checks.
func (s *CatalogService) writeError(op string, err error) error {
	if errors.Is(err, store.ErrAlreadyExists) {
		return errDuplicateName().WithCause(err)
	}
	return storeError(s.logger, op, err, errFlavorNotFound)
}

// afterWrite refreshes the search index and notifies staff clients. Index
// failures are logged; the store stays the source of truth and Reindex
// repairs drift.
func (s *CatalogService) afterWrite(f *domain.Flavor, event sse.EventType) {
	if s.index != nil {
		if err := s.index.IndexFlavor(f); err != nil {
			s.logger.Warn("failed to index flavor", "flavor_id", f.ID, "error", err)
		}
	}
	s.events.Emit(sse.NewFlavorEvent(event, f))
}

func (s *CatalogService) removePhoto(key string) {
	if err := s.photos.Delete(key); err != nil {
		s.logger.Warn("failed to delete photo", "key", key, "error", err)
	}
}

func tagStrings(tags []domain.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
