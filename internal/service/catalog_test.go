package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smakiapp/smaki-server/internal/domain"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/media/images"
	"github.com/smakiapp/smaki-server/internal/search"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
)

type catalogFixture struct {
	svc    *CatalogService
	store  store.Store
	index  *search.FlavorIndex
	photos *images.Storage
	events *recorder
}

func newCatalogFixture(t *testing.T, st store.Store) *catalogFixture {
	t.Helper()
	dir := t.TempDir()

	index, _, err := search.Open(search.Options{DataPath: filepath.Join(dir, "search")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	photos, err := images.NewStorage(filepath.Join(dir, "media"))
	require.NoError(t, err)

	rec := &recorder{}
	svc := NewCatalogService(CatalogConfig{
		Store:     st,
		Index:     index,
		Photos:    photos,
		Processor: images.NewProcessor(800, 80, nil),
		Events:    rec,
		Clock:     testClock(t),
	})
	return &catalogFixture{svc: svc, store: st, index: index, photos: photos, events: rec}
}

func TestCreateFlavor(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		fx := newCatalogFixture(t, st)
		ctx := context.Background()

		f, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{
			Name:        "  Słony   Karmel ",
			Description: "<p>Z <strong>solą</strong> morską</p>",
			Tags:        []string{"NEW", "vegan", "new"},
		})
		require.NoError(t, err)
		assert.Positive(t, f.ID)
		assert.Equal(t, "Słony Karmel", f.Name)
		assert.Equal(t, "slony-karmel", f.Slug)
		assert.Equal(t, "Z **solą** morską", f.Description)
		assert.Equal(t, domain.FlavorTypeMilk, f.Type)
		assert.Equal(t, []domain.Tag{domain.TagNew, domain.TagVegan}, f.Tags)
		assert.True(t, f.IsActive())
		assert.Equal(t, []sse.EventType{sse.EventFlavorCreated}, fx.events.types())

		count, err := fx.index.DocumentCount()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)
	})
}

func TestCreateFlavor_Validation(t *testing.T) {
	fx := newCatalogFixture(t, backends[0].open(t))
	ctx := context.Background()

	_, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Mango"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  FlavorRequest
	}{
		{"blank name", FlavorRequest{Name: "   "}},
		{"unknown type", FlavorRequest{Name: "Kiwi", Type: "frozen-yogurt"}},
		{"unknown tag", FlavorRequest{Name: "Kiwi", Tags: []string{"spicy"}}},
		{"too many tags", FlavorRequest{Name: "Kiwi", Tags: []string{
			"vegan", "lactose-free", "new", "hit", "sugar-free", "seasonal",
		}}},
		{"duplicate name ignoring case", FlavorRequest{Name: "MANGO"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.CreateFlavor(ctx, staff, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}

	flavors, err := fx.svc.ListFlavors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, flavors, 1, "rejected requests must not write")

	f, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{
		Name: "Kiwi",
		Tags: []string{"vegan", "lactose-free", "new", "hit", "sugar-free"},
	})
	require.NoError(t, err)
	assert.Len(t, f.Tags, domain.MaxTagsPerFlavor)
}

func TestCreateFlavor_SlugCollisions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		fx := newCatalogFixture(t, st)
		ctx := context.Background()

		first, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Wanilia"})
		require.NoError(t, err)
		second, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Wanilia!"})
		require.NoError(t, err)
		third, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "wanilia?"})
		require.NoError(t, err)
		symbols, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "!!!"})
		require.NoError(t, err)

		assert.Equal(t, "wanilia", first.Slug)
		assert.Equal(t, "wanilia-2", second.Slug)
		assert.Equal(t, "wanilia-3", third.Slug)
		assert.Equal(t, domain.DefaultFallbackSlug, symbols.Slug)
	})
}

func TestUpdateFlavor(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		fx := newCatalogFixture(t, st)
		ctx := context.Background()

		f, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Truskawka", Tags: []string{"new"}})
		require.NoError(t, err)
		other, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Malina"})
		require.NoError(t, err)

		desc := "Sezonowa"
		updated, err := fx.svc.UpdateFlavor(ctx, staff, f.ID, FlavorPatch{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "truskawka", updated.Slug)
		assert.Equal(t, "Sezonowa", updated.Description)
		assert.Equal(t, []domain.Tag{domain.TagNew}, updated.Tags, "unset fields are kept")

		casing := "TRUSKAWKA"
		updated, err = fx.svc.UpdateFlavor(ctx, staff, f.ID, FlavorPatch{Name: &casing})
		require.NoError(t, err)
		assert.Equal(t, "truskawka", updated.Slug, "same base keeps the slug")

		renamed := "Truskawka z bazylią"
		updated, err = fx.svc.UpdateFlavor(ctx, staff, f.ID, FlavorPatch{Name: &renamed})
		require.NoError(t, err)
		assert.Equal(t, "truskawka-z-bazylia", updated.Slug)

		taken := "malina"
		_, err = fx.svc.UpdateFlavor(ctx, staff, f.ID, FlavorPatch{Name: &taken})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)

		_, err = fx.svc.UpdateFlavor(ctx, staff, 9999, FlavorPatch{Name: &renamed})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)

		got, err := fx.svc.GetFlavorBySlug(ctx, other.Slug)
		require.NoError(t, err)
		assert.Equal(t, "Malina", got.Name)
	})
}

func TestArchiveFlavor_ClearsTodaysHit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		fx := newCatalogFixture(t, st)
		sel := NewSelectionService(st, fx.events, testClock(t), nil)
		ctx := context.Background()
		today := testClock(t).Today()

		a, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "A"})
		require.NoError(t, err)
		b, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "B"})
		require.NoError(t, err)
		for _, d := range []domain.Date{today.Prev(), today} {
			for _, id := range []int64{a.ID, b.ID} {
				_, err := sel.Toggle(ctx, staff, d, id)
				require.NoError(t, err)
			}
			_, err := sel.SetHit(ctx, staff, d, a.ID)
			require.NoError(t, err)
		}

		archived, err := fx.svc.ArchiveFlavor(ctx, staff, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FlavorArchived, archived.Status)

		current, err := st.GetSelection(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, []int64{b.ID}, current.FlavorIDs)
		assert.False(t, current.HasHit())

		past, err := st.GetSelection(ctx, today.Prev())
		require.NoError(t, err)
		assert.Equal(t, a.ID, past.HitFlavorID)

		types := fx.events.types()
		assert.Equal(t, []sse.EventType{sse.EventFlavorArchived, sse.EventSelectionUpdated}, types[len(types)-2:])

		_, err = fx.svc.ArchiveFlavor(ctx, staff, a.ID)
		require.NoError(t, err, "archiving twice is a no-op")

		restored, err := fx.svc.RestoreFlavor(ctx, staff, a.ID)
		require.NoError(t, err)
		assert.True(t, restored.IsActive())
		current, err = st.GetSelection(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, []int64{b.ID}, current.FlavorIDs, "restore does not reselect")

		_, err = fx.svc.ArchiveFlavor(ctx, staff, 9999)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}

func TestListFlavors_FiltersByStatus(t *testing.T) {
	fx := newCatalogFixture(t, backends[0].open(t))
	ctx := context.Background()
	seedFlavor(t, fx.store, "A", domain.FlavorActive)
	seedFlavor(t, fx.store, "B", domain.FlavorArchived)

	active, err := fx.svc.ListFlavors(ctx, domain.FlavorActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := fx.svc.ListFlavors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = fx.svc.ListFlavors(ctx, "deleted")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSearchFlavors(t *testing.T) {
	fx := newCatalogFixture(t, backends[0].open(t))
	ctx := context.Background()

	for _, req := range []FlavorRequest{
		{Name: "Pistacja", Tags: []string{"new"}},
		{Name: "Mango", Type: "sorbet", Tags: []string{"vegan"}},
		{Name: "Malina", Type: "sorbet", Tags: []string{"vegan"}},
	} {
		_, err := fx.svc.CreateFlavor(ctx, staff, req)
		require.NoError(t, err)
	}

	params := search.DefaultSearchParams()
	params.Query = "mango"
	res, err := fx.svc.SearchFlavors(ctx, params)
	require.NoError(t, err)
	require.Len(t, res.Flavors, 1)
	assert.Equal(t, "Mango", res.Flavors[0].Name)

	params = search.DefaultSearchParams()
	params.Type = "sorbet"
	params.SortBy = "name"
	res, err = fx.svc.SearchFlavors(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)
	assert.Equal(t, []string{"Malina", "Mango"}, names(res.Flavors))

	params.Type = "gelato"
	_, err = fx.svc.SearchFlavors(ctx, params)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestReindex_RebuildsFromStore(t *testing.T) {
	fx := newCatalogFixture(t, backends[0].open(t))
	ctx := context.Background()

	// Written behind the service's back, so the index misses them.
	seedFlavor(t, fx.store, "A", domain.FlavorActive)
	seedFlavor(t, fx.store, "B", domain.FlavorArchived)

	count, err := fx.index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, fx.svc.Reindex(ctx))
	count, err = fx.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1600, 900))
	for y := range 900 {
		for x := range 1600 {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: 120, B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFlavorPhoto_SetReplaceRemove(t *testing.T) {
	fx := newCatalogFixture(t, backends[0].open(t))
	ctx := context.Background()
	f, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Kawa"})
	require.NoError(t, err)

	withPhoto, err := fx.svc.SetFlavorPhoto(ctx, staff, f.ID, testPNG(t), "kawa.png")
	require.NoError(t, err)
	require.NotEmpty(t, withPhoto.Photo)
	assert.NotEmpty(t, withPhoto.PhotoBlurHash)
	assert.True(t, fx.photos.Exists(withPhoto.Photo))

	data, err := fx.photos.Get(withPhoto.Photo)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, cfg.Width, 800)

	first := withPhoto.Photo
	replaced, err := fx.svc.SetFlavorPhoto(ctx, staff, f.ID, testPNG(t), "kawa-2.png")
	require.NoError(t, err)
	assert.NotEqual(t, first, replaced.Photo)
	assert.False(t, fx.photos.Exists(first), "previous photo is deleted")

	removed, err := fx.svc.RemoveFlavorPhoto(ctx, staff, f.ID)
	require.NoError(t, err)
	assert.Empty(t, removed.Photo)
	assert.False(t, fx.photos.Exists(replaced.Photo))

	_, err = fx.svc.SetFlavorPhoto(ctx, staff, f.ID, nil, "empty.png")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = fx.svc.SetFlavorPhoto(ctx, staff, 9999, testPNG(t), "x.png")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestFlavorPhoto_RejectsNonImages(t *testing.T) {
	fx := newCatalogFixture(t, backends[0].open(t))
	ctx := context.Background()
	f, err := fx.svc.CreateFlavor(ctx, staff, FlavorRequest{Name: "Kawa"})
	require.NoError(t, err)
	withPhoto, err := fx.svc.SetFlavorPhoto(ctx, staff, f.ID, testPNG(t), "kawa.png")
	require.NoError(t, err)

	for _, raw := range [][]byte{
		[]byte("not an image"),
		[]byte("<html><script>alert(document.cookie)</script></html>"),
	} {
		_, err := fx.svc.SetFlavorPhoto(ctx, staff, f.ID, raw, "x.png")
		require.ErrorIs(t, err, domainerrors.ErrValidation)
		var domainErr *domainerrors.Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, map[string]string{"file": "must be a JPEG, PNG, GIF or WebP image"}, domainErr.Details)
	}

	got, err := fx.svc.GetFlavor(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, withPhoto.Photo, got.Photo, "rejected uploads leave the photo alone")
	assert.True(t, fx.photos.Exists(withPhoto.Photo))
}
