package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/service"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Print the flavors the public page shows for a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		injector, err := newContainer()
		if err != nil {
			return err
		}
		defer injector.Shutdown() //nolint:errcheck

		public := do.MustInvoke[*service.PublicService](injector)

		day := public.Today()
		if todayDate != "" && todayDate != "today" {
			if day, err = domain.ParseDate(todayDate); err != nil {
				return err
			}
		}

		view, err := public.ResolvePublicView(cmd.Context(), day)
		if err != nil {
			return err
		}
		printView(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Day to resolve, YYYY-MM-DD (default: today in the shop's time zone)")
}

func printView(w io.Writer, view *domain.PublicView) {
	fmt.Fprintf(w, "%s (source: %s", view.Date, view.Source)
	if !view.SourceDate.IsZero() {
		fmt.Fprintf(w, " %s", view.SourceDate)
	}
	fmt.Fprintln(w, ")")
	if view.Note != "" {
		fmt.Fprintln(w, view.Note)
	}
	if len(view.Flavors) == 0 {
		fmt.Fprintln(w, "  no flavors")
		return
	}
	for i, f := range view.Flavors {
		marker := " "
		if view.Hit != nil && view.Hit.ID == f.ID {
			marker = "*"
		}
		var tags []string
		for _, t := range f.Tags {
			if info, ok := domain.LookupTag(t); ok {
				tags = append(tags, info.Label)
			}
		}
		fmt.Fprintf(w, "%s %2d. %-30s %-8s %s\n", marker, i+1, f.DisplayName(), f.Type.Label(), strings.Join(tags, ", "))
	}
}
