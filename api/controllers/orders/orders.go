package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/api/middleware"
	"github.com/wholesaledesk/ordering-backend/api/responses"
	"github.com/wholesaledesk/ordering-backend/api/validators"
	cartsvc "github.com/wholesaledesk/ordering-backend/internal/cart"
	internalorders "github.com/wholesaledesk/ordering-backend/internal/orders"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

const maxCommentLength = 2000

type convertRequest struct {
	OrderType     string  `json:"order_type" validate:"required,order_type"`
	PaymentMethod string  `json:"payment_method" validate:"required,payment_method"`
	Comment       *string `json:"comment" validate:"omitempty,max=2000"`
}

type repeatResponse struct {
	Cart              cartsvc.CartDTO `json:"cart"`
	SkippedProductIDs []uuid.UUID     `json:"skipped_product_ids"`
}

// Create converts the caller's cart into an order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		user, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload convertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Comment != nil {
			comment := validators.SanitizeString(*payload.Comment, maxCommentLength)
			payload.Comment = &comment
		}

		order, err := svc.Convert(r.Context(), internalorders.ConvertInput{
			UserID:        user.ID,
			OrderType:     payload.OrderType,
			PaymentMethod: payload.PaymentMethod,
			Comment:       payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns one page of order history inside the requested scope.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		user, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query, err := buildHistoryQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.History(r.Context(), user, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Detail returns a single order visible to the caller.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		user, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), user, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Repeat refills the caller's cart from an earlier order.
func Repeat(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		user, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Repeat(r.Context(), user, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, repeatResponse{
			Cart:              cartsvc.NewCartDTO(result.Cart),
			SkippedProductIDs: result.SkippedProducts,
		})
	}
}

func currentUser(r *http.Request) (*models.User, error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return user, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

func buildHistoryQuery(r *http.Request) (internalorders.HistoryQuery, error) {
	q := r.URL.Query()
	query := internalorders.HistoryQuery{
		Scope:         strings.TrimSpace(q.Get("scope")),
		OrderType:     strings.TrimSpace(q.Get("order_type")),
		PaymentMethod: strings.TrimSpace(q.Get("payment_method")),
	}

	var err error
	if query.CreatedByUserID, err = validators.ParseQueryUUID(r, "created_by_user_id"); err != nil {
		return query, err
	}
	if query.From, err = validators.ParseQueryTime(r, "from", false); err != nil {
		return query, err
	}
	if query.To, err = validators.ParseQueryTime(r, "to", true); err != nil {
		return query, err
	}
	if query.Page, err = validators.ParseQueryInt(r, "page", 1, 1, 1_000_000); err != nil {
		return query, err
	}
	// zero lets the service apply its configured default
	if query.PageSize, err = validators.ParseQueryInt(r, "page_size", 0, 0, 1000); err != nil {
		return query, err
	}
	return query, nil
}
