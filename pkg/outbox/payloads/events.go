package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

// OrderCreatedEvent announces a converted cart to fulfillment.
type OrderCreatedEvent struct {
	OrderID              uuid.UUID           `json:"order_id"`
	OrderNumber          int64               `json:"order_number"`
	CreatedByUserID      uuid.UUID           `json:"created_by_user_id"`
	ManagerUserID        *uuid.UUID          `json:"manager_user_id,omitempty"`
	ShippingDepartmentID *uuid.UUID          `json:"shipping_department_id,omitempty"`
	OrderType            enums.OrderType     `json:"order_type"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	ItemCount            int                 `json:"item_count"`
	TotalQuantity        string              `json:"total_quantity"`
	TotalDiscounted      string              `json:"total_discounted_price"`
	CreatedAt            time.Time           `json:"created_at"`
}
