package controllers

import (
	"net/http"

	"github.com/wholesaledesk/ordering-backend/api/middleware"
	"github.com/wholesaledesk/ordering-backend/api/responses"
	"github.com/wholesaledesk/ordering-backend/internal/availability"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/visibility"
)

// GroupAvailability returns the per-branch stock table of a product group.
func GroupAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		if err := visibility.EnsurePricingAndStockVisible(user); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := parseGroupID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		table, err := svc.GroupAvailability(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}
