package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/service"
	"github.com/smakiapp/smaki-server/internal/store/sqlite"
)

type cliServices struct {
	catalog    *service.CatalogService
	selections *service.SelectionService
	public     *service.PublicService
}

func newCLIServices(t *testing.T) cliServices {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "smaki.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := domain.Clock{
		Now:      func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	}
	return cliServices{
		catalog:    service.NewCatalogService(service.CatalogConfig{Store: st, Clock: clock}),
		selections: service.NewSelectionService(st, nil, clock, nil),
		public:     service.NewPublicService(st, clock, nil),
	}
}

func TestSeedFlavors_SkipsExistingNames(t *testing.T) {
	svc := newCLIServices(t)
	ctx := context.Background()
	var log bytes.Buffer
	logf := func(format string, a ...any) { fmt.Fprintf(&log, format, a...) }

	flavors := []seedFlavor{
		{Name: "Pistacja", Type: "milk", Tags: []string{"new"}},
		{Name: "Mango", Type: "sorbet", Tags: []string{"vegan"}},
		{Name: "Rabarbar", Type: "sorbet", Archived: true},
	}
	first, err := seedFlavors(ctx, svc.catalog, flavors, logf)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := seedFlavors(ctx, svc.catalog, []seedFlavor{{Name: "  pistacja "}}, logf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, log.String(), `flavor "  pistacja " exists, skipped`)

	archived, err := svc.catalog.ListFlavors(ctx, domain.FlavorArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "Rabarbar", archived[0].Name)
}

func TestSeedSelectionDay_ReplacesDayAndPrints(t *testing.T) {
	svc := newCLIServices(t)
	ctx := context.Background()
	ids, err := seedFlavors(ctx, svc.catalog, []seedFlavor{
		{Name: "Pistacja"}, {Name: "Mango", Type: "sorbet"}, {Name: "Wanilia"},
	}, func(string, ...any) {})
	require.NoError(t, err)

	today := svc.public.Today()
	require.NoError(t, seedSelectionDay(ctx, svc.selections, today,
		seedSelection{Flavors: []string{"Wanilia", "Pistacja"}}, ids))
	require.NoError(t, seedSelectionDay(ctx, svc.selections, today,
		seedSelection{Flavors: []string{"Pistacja", "Mango"}, Hit: "mango"}, ids))

	view, err := svc.public.ResolvePublicView(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceToday, view.Source)
	require.Len(t, view.Flavors, 2)
	assert.Equal(t, "Mango", view.Flavors[0].Name)
	assert.Equal(t, "Pistacja", view.Flavors[1].Name)

	var out bytes.Buffer
	printView(&out, view)
	assert.Contains(t, out.String(), "2025-06-10 (source: today 2025-06-10)")
	assert.Contains(t, out.String(), "*  1. Mango")
	assert.Contains(t, out.String(), "Sorbet")
}

func TestSeedSelectionDay_UnknownFlavor(t *testing.T) {
	svc := newCLIServices(t)
	err := seedSelectionDay(context.Background(), svc.selections, svc.public.Today(),
		seedSelection{Flavors: []string{"Nie ma"}}, map[string]int64{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown flavor "Nie ma"`)
}
