package cart

import (
	"net/http"

	"github.com/wholesaledesk/ordering-backend/api/middleware"
	"github.com/wholesaledesk/ordering-backend/api/responses"
	"github.com/wholesaledesk/ordering-backend/api/validators"
	cartsvc "github.com/wholesaledesk/ordering-backend/internal/cart"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

// CartFetch returns the caller's cart, creating an empty one on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := guard(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.GetOrCreate(r.Context(), user.ID)
		writeView(w, r, logg, view, err)
	}
}

// CartFetchForUser returns another user's cart. Only the owner is allowed.
func CartFetchForUser(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := guard(w, r, svc, logg)
		if !ok {
			return
		}
		ownerID, err := parsePathID(r, "userId", "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetForUser(r.Context(), user, ownerID)
		writeView(w, r, logg, view, err)
	}
}

// CartAddItem adds a product to the cart or increases the quantity of its line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := guard(w, r, svc, logg)
		if !ok {
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.AddItem(r.Context(), user.ID, payload.ProductID, *payload.Quantity)
		writeView(w, r, logg, view, err)
	}
}

// CartUpdateItem sets a line quantity. Zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := guard(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := parsePathID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateItemQuantity(r.Context(), user.ID, itemID, *payload.Quantity)
		writeView(w, r, logg, view, err)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := guard(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := parsePathID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RemoveItem(r.Context(), user.ID, itemID)
		writeView(w, r, logg, view, err)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := guard(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Clear(r.Context(), user.ID)
		writeView(w, r, logg, view, err)
	}
}

func guard(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (*models.User, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return nil, false
	}
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return nil, false
	}
	return user, true
}

func writeView(w http.ResponseWriter, r *http.Request, logg *logger.Logger, view *cartsvc.View, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, cartsvc.NewCartDTO(view))
}
