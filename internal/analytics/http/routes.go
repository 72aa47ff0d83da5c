package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-pulse/internal/platform/httpx"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "refresh rate exceeded")
		}),
	)

	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard/widgets", h.handleWidgets)
	r.Get("/dashboard/widgets/{id}", h.handleWidget)
	r.Get("/dashboard/export.csv", h.handleCSV)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/dashboard/refresh", h.handleRefresh)
		gr.Post("/dashboard/range", h.handleRange)
		gr.Post("/dashboard/widgets/{id}/refresh", h.handleWidgetRefresh)
		gr.Get("/dashboard/export.pdf", h.handlePDF)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
