package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/service"
	"github.com/smakiapp/smaki-server/internal/store"
)

// seedFile is the YAML layout accepted by the seed command.
type seedFile struct {
	Flavors    []seedFlavor    `yaml:"flavors"`
	Selections []seedSelection `yaml:"selections"`
}

type seedFlavor struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Tags        []string `yaml:"tags"`
	Seasonal    bool     `yaml:"seasonal"`
	Archived    bool     `yaml:"archived"`
}

// seedSelection replaces the selection of one day. Flavors are referenced
// by name and keep the listed order.
type seedSelection struct {
	Date    string   `yaml:"date"`
	Flavors []string `yaml:"flavors"`
	Hit     string   `yaml:"hit"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load flavors and daily selections from a YAML file",
	Long: `Creates every listed flavor that does not exist yet (matched by name,
case-insensitively) and then rebuilds each listed day's selection.

Example file:

  flavors:
    - name: Pistacja
      type: milk
      tags: [new]
    - name: Mango
      type: sorbet
      tags: [vegan, lactose-free]
  selections:
    - date: today
      flavors: [Pistacja, Mango]
      hit: Mango`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	injector, err := newContainer()
	if err != nil {
		return err
	}
	defer injector.Shutdown() //nolint:errcheck

	catalog := do.MustInvoke[*service.CatalogService](injector)
	selections := do.MustInvoke[*service.SelectionService](injector)
	public := do.MustInvoke[*service.PublicService](injector)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ids, err := seedFlavors(ctx, catalog, file.Flavors, func(format string, a ...any) {
		fmt.Fprintf(out, format, a...)
	})
	if err != nil {
		return err
	}

	for _, s := range file.Selections {
		day := public.Today()
		if s.Date != "" && s.Date != "today" {
			if day, err = domain.ParseDate(s.Date); err != nil {
				return fmt.Errorf("selection date %q: %w", s.Date, err)
			}
		}
		if err := seedSelectionDay(ctx, selections, day, s, ids); err != nil {
			return fmt.Errorf("selection %s: %w", day, err)
		}
		fmt.Fprintf(out, "selection %s: %d flavors\n", day, len(s.Flavors))
	}
	return nil
}

// seedFlavors creates missing flavors and returns the id of every flavor in
// the catalog keyed by its name key.
func seedFlavors(ctx context.Context, catalog *service.CatalogService, flavors []seedFlavor, logf func(string, ...any)) (map[string]int64, error) {
	existing, err := catalog.ListFlavors(ctx, "")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(existing)+len(flavors))
	for _, f := range existing {
		ids[store.NameKey(f.Name)] = f.ID
	}

	for _, sf := range flavors {
		key := store.NameKey(sf.Name)
		if _, ok := ids[key]; ok {
			logf("flavor %q exists, skipped\n", sf.Name)
			continue
		}
		f, err := catalog.CreateFlavor(ctx, service.System, service.FlavorRequest{
			Name:        sf.Name,
			Description: sf.Description,
			Type:        sf.Type,
			Tags:        sf.Tags,
			Seasonal:    sf.Seasonal,
		})
		if err != nil {
			return nil, fmt.Errorf("flavor %q: %w", sf.Name, err)
		}
		if sf.Archived {
			if _, err := catalog.ArchiveFlavor(ctx, service.System, f.ID); err != nil {
				return nil, fmt.Errorf("archive %q: %w", sf.Name, err)
			}
		}
		ids[key] = f.ID
		logf("flavor %q created (id %d, slug %s)\n", f.Name, f.ID, f.Slug)
	}
	return ids, nil
}

func seedSelectionDay(ctx context.Context, selections *service.SelectionService, day domain.Date, s seedSelection, ids map[string]int64) error {
	if _, err := selections.Clear(ctx, service.System, day); err != nil {
		return err
	}
	for _, name := range s.Flavors {
		id, ok := ids[store.NameKey(name)]
		if !ok {
			return fmt.Errorf("unknown flavor %q", name)
		}
		if _, err := selections.Toggle(ctx, service.System, day, id); err != nil {
			return fmt.Errorf("add %q: %w", name, err)
		}
	}
	if s.Hit == "" {
		return nil
	}
	id, ok := ids[store.NameKey(s.Hit)]
	if !ok {
		return fmt.Errorf("unknown hit flavor %q", s.Hit)
	}
	_, err := selections.SetHit(ctx, service.System, day, id)
	return err
}
