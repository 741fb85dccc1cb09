package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/internal/cart"
	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/lock"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox/payloads"
	"github.com/wholesaledesk/ordering-backend/pkg/pagination"
	"github.com/wholesaledesk/ordering-backend/pkg/visibility"
)

// OrderNumberSequence names the global counter order numbers are drawn from.
const OrderNumberSequence = "order_number"

const defaultNumberAttempts = 3

var errOrderNumberTaken = errors.New("order number already used")

// Service defines order conversion and the scoped order queries.
type Service interface {
	Convert(ctx context.Context, input ConvertInput) (*OrderDTO, error)
	ResolveScope(ctx context.Context, caller *models.User, requested string) (Scope, error)
	History(ctx context.Context, caller *models.User, query HistoryQuery) (*HistoryResult, error)
	Get(ctx context.Context, caller *models.User, orderID uuid.UUID) (*OrderDTO, error)
	Repeat(ctx context.Context, caller *models.User, orderID uuid.UUID) (*RepeatResult, error)
}

// ServiceParams wires the order service. Logger and Metrics are optional.
type ServiceParams struct {
	Repository  Repository
	Carts       cart.CartRepository
	CartService cartReplacer
	Tx          txRunner
	Locker      lock.Locker
	Sequence    sequence
	Outbox      outboxPublisher
	Users       userLoader
	Products    productLoader
	Discounts   discountLoader
	Config      config.OrdersConfig
	Logger      *logger.Logger
	Metrics     conversionRecorder
}

type service struct {
	repo      Repository
	carts     cart.CartRepository
	cartSvc   cartReplacer
	tx        txRunner
	locker    lock.Locker
	sequence  sequence
	outbox    outboxPublisher
	users     userLoader
	products  productLoader
	discounts discountLoader
	cfg       config.OrdersConfig
	logg      *logger.Logger
	metrics   conversionRecorder
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repository == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.CartService == nil:
		return nil, fmt.Errorf("cart service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Locker == nil:
		return nil, fmt.Errorf("locker required")
	case params.Sequence == nil:
		return nil, fmt.Errorf("order number sequence required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Users == nil:
		return nil, fmt.Errorf("user loader required")
	case params.Products == nil:
		return nil, fmt.Errorf("product loader required")
	case params.Discounts == nil:
		return nil, fmt.Errorf("discount loader required")
	}
	cfg := params.Config
	if cfg.NumberAttempts <= 0 {
		cfg.NumberAttempts = defaultNumberAttempts
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      params.Repository,
		carts:     params.Carts,
		cartSvc:   params.CartService,
		tx:        params.Tx,
		locker:    params.Locker,
		sequence:  params.Sequence,
		outbox:    params.Outbox,
		users:     params.Users,
		products:  params.Products,
		discounts: params.Discounts,
		cfg:       cfg,
		logg:      logg,
		metrics:   params.Metrics,
	}, nil
}

// Convert turns the user's cart into an immutable order and empties the cart in the same transaction.
func (s *service) Convert(ctx context.Context, input ConvertInput) (*OrderDTO, error) {
	started := time.Now()
	order, user, err := s.convert(ctx, input)
	if s.metrics != nil {
		s.metrics.ConversionFinished(err, time.Since(started))
	}
	if err != nil {
		return nil, err
	}
	dto := newOrderDTO(*order, visibility.CanSeePricingAndStock(user))
	return &dto, nil
}

func (s *service) convert(ctx context.Context, input ConvertInput) (*models.Order, *models.User, error) {
	orderType, err := enums.ParseOrderType(input.OrderType)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type").
			WithDetails(map[string]any{"field": "order_type"})
	}
	paymentMethod, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]any{"field": "payment_method"})
	}

	var (
		order *models.Order
		user  *models.User
	)
	err = s.locker.WithLock(ctx, cart.LockKey(input.UserID), func(ctx context.Context) error {
		var err error
		user, err = s.users.Get(ctx, input.UserID)
		if err != nil {
			return err
		}
		source, err := s.carts.FindByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(source.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		lines, err := s.repriceLines(ctx, user, source.Items)
		if err != nil {
			return err
		}
		draft := draftOrder{
			user:          user,
			cart:          source,
			lines:         lines,
			totals:        cart.ComputeTotals(lines),
			orderType:     orderType,
			paymentMethod: paymentMethod,
			comment:       normalizeComment(input.Comment),
		}
		order, err = s.persist(ctx, draft)
		return err
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", input.UserID.String()), "order.lock_contended")
		err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is being changed by another request")
	}
	if err != nil {
		return nil, nil, err
	}
	return order, user, nil
}

// repriceLines rebuilds every cart line from current product data and the current discount catalog.
func (s *service) repriceLines(ctx context.Context, user *models.User, items []models.CartItem) ([]cart.Line, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains products that are no longer available").
			WithDetails(map[string]any{"product_ids": missing})
	}

	catalog, err := s.discounts.LoadCatalog(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	lines := make([]cart.Line, 0, len(items))
	for _, item := range items {
		product := products[item.ProductID]
		price := discounts.ResolvePrice(catalog, product)
		lines = append(lines, cart.Line{
			ItemID:                item.ID,
			ProductID:             product.ID,
			Position:              item.Position,
			ProductCode:           product.Code,
			ProductName:           product.Name,
			Quantity:              item.Quantity,
			UnitPrice:             price.Base,
			UnitPriceWithDiscount: price.Discounted,
			DiscountPercent:       price.Percent,
			UnitWeight:            product.Weight,
			UnitVolume:            product.Volume,
		})
	}
	return lines, nil
}

type draftOrder struct {
	user          *models.User
	cart          *models.Cart
	lines         []cart.Line
	totals        cart.Totals
	orderType     enums.OrderType
	paymentMethod enums.PaymentMethod
	comment       *string
}

// persist writes the order, its event and the emptied cart in one transaction. A taken order
// number rolls the transaction back and retries with a fresh number.
func (s *service) persist(ctx context.Context, draft draftOrder) (*models.Order, error) {
	for attempt := 1; attempt <= s.cfg.NumberAttempts; attempt++ {
		number, err := s.sequence.NextSequence(ctx, OrderNumberSequence)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		order := buildOrder(draft, number)

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				switch {
				case db.IsUniqueViolation(err, "order_number"):
					return errOrderNumberTaken
				case db.IsUniqueViolation(err, "source_cart"):
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart version already converted")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
			}
			if err := s.outbox.Emit(ctx, tx, orderCreatedEvent(draft.user, order)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
			}
			carts := s.carts.WithTx(tx)
			if _, err := carts.DeleteItems(ctx, draft.cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
			if _, err := carts.BumpVersion(ctx, draft.cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump cart version")
			}
			return nil
		})
		if errors.Is(err, errOrderNumberTaken) {
			if s.metrics != nil {
				s.metrics.OrderNumberCollision()
			}
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_number": number,
				"attempt":      attempt,
			}), "order.number_collision")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"user_id":      draft.user.ID.String(),
		}), "order.created")
		return order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeSequenceExhausted, "could not allocate a unique order number")
}

func buildOrder(draft draftOrder, number int64) *models.Order {
	order := &models.Order{
		ID:                   uuid.New(),
		OrderNumber:          number,
		CreatedByUserID:      draft.user.ID,
		ManagerUserID:        draft.user.ManagerUserID,
		ShippingDepartmentID: draft.user.ShippingDepartmentID,
		OrderType:            draft.orderType,
		PaymentMethod:        draft.paymentMethod,
		Comment:              draft.comment,
		TotalQuantity:        draft.totals.Quantity,
		TotalWeight:          draft.totals.Weight,
		TotalVolume:          draft.totals.Volume,
		TotalOriginal:        draft.totals.Original,
		TotalDiscounted:      draft.totals.Discounted,
		SourceCartID:         draft.cart.ID,
		SourceCartVersion:    draft.cart.Version,
		CreatedAt:            time.Now().UTC(),
		Items:                make([]models.OrderItem, 0, len(draft.lines)),
	}
	for i, line := range draft.lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:                    uuid.New(),
			OrderID:               order.ID,
			Position:              i + 1,
			ProductID:             line.ProductID,
			ProductCode:           line.ProductCode,
			ProductName:           line.ProductName,
			Quantity:              line.Quantity,
			UnitPrice:             line.UnitPrice,
			UnitPriceWithDiscount: line.UnitPriceWithDiscount,
			DiscountPercent:       line.DiscountPercent,
			Weight:                line.TotalWeight(),
			Volume:                line.TotalVolume(),
		})
	}
	return order
}

func orderCreatedEvent(user *models.User, order *models.Order) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: user.ID, Roles: []string(user.Roles)},
		OccurredAt:    order.CreatedAt,
		Data: payloads.OrderCreatedEvent{
			OrderID:              order.ID,
			OrderNumber:          order.OrderNumber,
			CreatedByUserID:      order.CreatedByUserID,
			ManagerUserID:        order.ManagerUserID,
			ShippingDepartmentID: order.ShippingDepartmentID,
			OrderType:            order.OrderType,
			PaymentMethod:        order.PaymentMethod,
			ItemCount:            len(order.Items),
			TotalQuantity:        order.TotalQuantity.String(),
			TotalDiscounted:      order.TotalDiscounted.StringFixed(2),
			CreatedAt:            order.CreatedAt,
		},
	}
}

func (s *service) ResolveScope(ctx context.Context, caller *models.User, requested string) (Scope, error) {
	return ResolveScope(ctx, s.users, caller, requested)
}

// History lists the orders inside the caller's resolved scope, newest first.
func (s *service) History(ctx context.Context, caller *models.User, query HistoryQuery) (*HistoryResult, error) {
	scope, err := ResolveScope(ctx, s.users, caller, query.Scope)
	if err != nil {
		return nil, err
	}
	filter := ListFilter{
		Unrestricted: scope.Unrestricted,
		CreatorIDs:   scope.CreatorIDs,
		From:         query.From,
		To:           query.To,
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	if query.CreatedByUserID != nil {
		filter.Unrestricted = false
		filter.CreatorIDs = nil
		if scope.Contains(*query.CreatedByUserID) {
			filter.CreatorIDs = []uuid.UUID{*query.CreatedByUserID}
		}
	}
	if query.OrderType != "" {
		orderType, err := enums.ParseOrderType(query.OrderType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type filter")
		}
		filter.OrderType = &orderType
	}
	if query.PaymentMethod != "" {
		method, err := enums.ParsePaymentMethod(query.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method filter")
		}
		filter.PaymentMethod = &method
	}

	params := pagination.Params{Page: query.Page, PageSize: query.PageSize}.
		Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newHistoryResult(rows, total, params, visibility.CanSeePricingAndStock(caller)), nil
}

// Get returns one order when its creator is inside the caller's widest scope. Orders outside
// it are reported as missing.
func (s *service) Get(ctx context.Context, caller *models.User, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.visibleOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	dto := newOrderDTO(*order, visibility.CanSeePricingAndStock(caller))
	return &dto, nil
}

// Repeat rebuilds the caller's cart from a visible order at current prices.
func (s *service) Repeat(ctx context.Context, caller *models.User, orderID uuid.UUID) (*RepeatResult, error) {
	order, err := s.visibleOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	lines := make([]cart.LineInput, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, cart.LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	view, skipped, err := s.cartSvc.ReplaceItems(ctx, caller.ID, lines)
	if err != nil {
		return nil, err
	}
	if skipped == nil {
		skipped = []uuid.UUID{}
	}
	if len(skipped) > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"skipped":  len(skipped),
		}), "order.repeat_skipped_products")
	}
	return &RepeatResult{Cart: view, SkippedProducts: skipped}, nil
}

func (s *service) visibleOrder(ctx context.Context, caller *models.User, orderID uuid.UUID) (*models.Order, error) {
	scope, err := widestScope(ctx, s.users, caller)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !scope.Contains(order.CreatedByUserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
