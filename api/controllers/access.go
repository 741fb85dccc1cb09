package controllers

import (
	"net/http"

	"github.com/wholesaledesk/ordering-backend/api/middleware"
	"github.com/wholesaledesk/ordering-backend/api/responses"
	"github.com/wholesaledesk/ordering-backend/internal/users"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

// Access reports what the caller may see so clients can hide prices and stock up front.
func Access(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		responses.WriteSuccess(w, users.AccessFromModel(user))
	}
}
