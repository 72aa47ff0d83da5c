package dashboard

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
)

// WidgetSpec is the fixed identity of a dashboard widget.
type WidgetSpec struct {
	ID       string              `json:"id" validate:"required,max=64"`
	Title    string              `json:"title" validate:"required,max=120"`
	Chart    analytics.ChartType `json:"chart" validate:"required,oneof=line area column bar pie"`
	Category analytics.Category  `json:"category,omitempty" validate:"omitempty,oneof=all security productivity infra"`
	Color    string              `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// DefaultWidgets returns the analytics board shipped by default.
func DefaultWidgets() []WidgetSpec {
	return []WidgetSpec{
		{ID: "users", Title: "Users", Chart: analytics.ChartPie, Color: "#2fa4f4"},
		{ID: "unique-logins", Title: "Unique Logins", Chart: analytics.ChartColumn, Color: "#2f9af0"},
		{ID: "queries-executed", Title: "Queries Executed", Chart: analytics.ChartArea, Color: "#7ac24f"},
		{ID: "queries-by-source", Title: "Queries by Source", Chart: analytics.ChartBar, Color: "#7ac24f"},
		{ID: "avg-response-time", Title: "Avg. Response Time", Chart: analytics.ChartLine, Color: "#7cb342"},
		{ID: "firewall-api-calls", Title: "Firewall API Calls", Chart: analytics.ChartArea, Color: "#46b0f5"},
	}
}

var validate = validator.New()

// ValidateSpecs checks every spec and rejects duplicate identifiers.
func ValidateSpecs(specs []WidgetSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: at least one widget required", ErrInvalidWidget)
	}
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if err := validate.Struct(spec); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidWidget, spec.ID, err)
		}
		if _, ok := seen[spec.ID]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidWidget, spec.ID)
		}
		seen[spec.ID] = struct{}{}
	}
	return nil
}

// RangeForm is the normalised payload of the time range filter.
type RangeForm struct {
	Range int `validate:"required,oneof=7 30 90"`
}

// ValidateRange normalises a raw range filter value into a day count.
// Non-numeric and non-positive values become the default range; any other
// number must be one of the offered options.
func ValidateRange(raw string) (int, error) {
	days := analytics.ParseRange(raw)
	if err := validate.Struct(RangeForm{Range: days}); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return days, nil
}
