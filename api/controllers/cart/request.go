package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

type addItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
}

type updateItemRequest struct {
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}

func parsePathID(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
