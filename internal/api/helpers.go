package api

import (
	"strings"

	"github.com/smakiapp/smaki-server/internal/domain"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
)

// staffSecurity marks an operation as requiring a bearer token in the OpenAPI document.
var staffSecurity = []map[string][]string{{"bearer": {}}}

// parseDay reads a date parameter. "" and "today" mean today in the shop's zone.
func parseDay(raw string, today domain.Date) (domain.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "today") {
		return today, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, domainerrors.ValidationWithDetails(err.Error(), map[string]string{"date": "expected YYYY-MM-DD"})
	}
	return d, nil
}

// parseOptionalDay is parseDay for range bounds, where "" means unbounded.
func parseOptionalDay(raw string, today domain.Date) (domain.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Date{}, nil
	}
	return parseDay(raw, today)
}

// splitCSV splits a comma separated query value, dropping blanks.
func splitCSV(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
