package prediction

import (
	"time"

	"github.com/go-chi/chi/v5"

	"crimelense/internal/analysis"
)

// NewScreens returns the registry of prediction screens, each with its
// own machine dispatching to svc.
func NewScreens(svc analysis.Service[Params, Result], timeout time.Duration, limit int) *analysis.Screens[Params, Result] {
	return analysis.NewScreens(func() *analysis.Machine[Params, Result] {
		return analysis.New(svc, analysis.Options[Params]{Name: Name, Timeout: timeout})
	}, limit)
}

// Routes mounts the prediction screen API.
func Routes(screens *analysis.Screens[Params, Result], hub analysis.Broadcaster) chi.Router {
	return analysis.NewHandler(screens, hub).Routes()
}
