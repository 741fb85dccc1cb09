package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/lock"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/visibility"
)

const (
	opAddItem      = "add_item"
	opUpdateItem   = "update_item"
	opRemoveItem   = "remove_item"
	opClear        = "clear"
	opReplaceItems = "replace_items"
)

// LockKey is the per-user key serializing every cart read-modify-write, conversion included.
func LockKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Service exposes the per-user cart aggregate.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*View, error)
	GetForUser(ctx context.Context, actor *models.User, ownerID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) (*View, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity decimal.Decimal) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) (*View, error)
	ReplaceItems(ctx context.Context, userID uuid.UUID, lines []LineInput) (*View, []uuid.UUID, error)
}

type service struct {
	repo      CartRepository
	tx        txRunner
	locker    lock.Locker
	users     userLoader
	products  productLoader
	discounts discountLoader
	logg      *logger.Logger
	metrics   mutationRecorder
}

// NewService builds a cart service backed by the provided stack. metrics may be nil.
func NewService(
	repo CartRepository,
	tx txRunner,
	locker lock.Locker,
	users userLoader,
	products productLoader,
	discountRepo discountLoader,
	logg *logger.Logger,
	metrics mutationRecorder,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if discountRepo == nil {
		return nil, fmt.Errorf("discount loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      repo,
		tx:        tx,
		locker:    locker,
		users:     users,
		products:  products,
		discounts: discountRepo,
		logg:      logg,
		metrics:   metrics,
	}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*View, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.currentView(ctx, user)
}

// GetForUser returns ownerID's cart. Only the owner may read it.
func (s *service) GetForUser(ctx context.Context, actor *models.User, ownerID uuid.UUID) (*View, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	if actor.ID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot read another user's cart")
	}
	return s.currentView(ctx, actor)
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) (*View, error) {
	if !quantity.IsPositive() {
		err := pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
		s.record(opAddItem, err)
		return nil, err
	}
	return s.mutate(ctx, opAddItem, userID, func(ctx context.Context, user *models.User, cart *models.Cart) error {
		product, err := s.loadProduct(ctx, productID)
		if err != nil {
			return err
		}
		price, err := s.resolve(ctx, user, *product)
		if err != nil {
			return err
		}

		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			existing, err := repo.FindItemByProduct(ctx, cart.ID, product.ID)
			switch {
			case err == nil:
				existing.Quantity = existing.Quantity.Add(quantity)
				capturePrice(existing, price)
				if err := repo.SaveItem(ctx, existing); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				item := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity}
				capturePrice(item, price)
				if err := repo.CreateItem(ctx, item); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
				}
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
			return bumpVersion(ctx, repo, cart.ID)
		})
	})
}

// UpdateItemQuantity overwrites the quantity of an item; zero or less removes it.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity decimal.Decimal) (*View, error) {
	return s.mutate(ctx, opUpdateItem, userID, func(ctx context.Context, user *models.User, cart *models.Cart) error {
		item, err := s.ownedItem(ctx, user, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if !quantity.IsPositive() {
			return s.deleteItem(ctx, cart.ID, item.ID)
		}

		product, err := s.loadProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		price, err := s.resolve(ctx, user, *product)
		if err != nil {
			return err
		}
		item.Quantity = quantity
		capturePrice(item, price)

		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.SaveItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
			}
			return bumpVersion(ctx, repo, cart.ID)
		})
	})
}

// RemoveItem deletes the item. An item that no longer exists is not an error.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	return s.mutate(ctx, opRemoveItem, userID, func(ctx context.Context, user *models.User, cart *models.Cart) error {
		item, err := s.ownedItem(ctx, user, itemID)
		if err != nil || item == nil {
			return err
		}
		return s.deleteItem(ctx, cart.ID, item.ID)
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*View, error) {
	return s.mutate(ctx, opClear, userID, func(ctx context.Context, _ *models.User, cart *models.Cart) error {
		if len(cart.Items) == 0 {
			return nil
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.DeleteItems(ctx, cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart items")
			}
			return bumpVersion(ctx, repo, cart.ID)
		})
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "cart_id", cart.ID.String()), "cart.clear_failed", err)
		}
		return err
	})
}

// ReplaceItems swaps the whole item list in one step. Inputs for products missing from the
// catalog are skipped and returned; repeated products are merged.
func (s *service) ReplaceItems(ctx context.Context, userID uuid.UUID, lines []LineInput) (*View, []uuid.UUID, error) {
	var skipped []uuid.UUID
	view, err := s.mutate(ctx, opReplaceItems, userID, func(ctx context.Context, user *models.User, cart *models.Cart) error {
		skipped = nil
		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		found, err := s.products.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		catalog, err := s.discounts.LoadCatalog(ctx, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
		}

		order := make([]uuid.UUID, 0, len(lines))
		quantities := make(map[uuid.UUID]decimal.Decimal, len(lines))
		for _, line := range lines {
			if _, ok := found[line.ProductID]; !ok {
				skipped = append(skipped, line.ProductID)
				continue
			}
			if !line.Quantity.IsPositive() {
				continue
			}
			if current, ok := quantities[line.ProductID]; ok {
				quantities[line.ProductID] = current.Add(line.Quantity)
				continue
			}
			order = append(order, line.ProductID)
			quantities[line.ProductID] = line.Quantity
		}

		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.DeleteItems(ctx, cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart items")
			}
			for _, productID := range order {
				item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantities[productID]}
				capturePrice(item, discounts.ResolvePrice(catalog, found[productID]))
				if err := repo.CreateItem(ctx, item); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
				}
			}
			return bumpVersion(ctx, repo, cart.ID)
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return view, skipped, nil
}

type mutation func(ctx context.Context, user *models.User, cart *models.Cart) error

// mutate runs fn under the user's cart lock with a freshly loaded user and cart, then
// rebuilds the view from storage.
func (s *service) mutate(ctx context.Context, op string, userID uuid.UUID, fn mutation) (*View, error) {
	var view *View
	err := s.locker.WithLock(ctx, LockKey(userID), func(ctx context.Context) error {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			return err
		}
		cart, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := fn(ctx, user, cart); err != nil {
			return err
		}
		view, err = s.currentView(ctx, user)
		return err
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", userID.String()), "cart.lock_contended")
		err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is being changed by another request")
	}
	s.record(op, err)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) record(op string, err error) {
	if s.metrics != nil {
		s.metrics.CartMutation(op, err)
	}
}

// ownedItem returns nil without error when the item does not exist.
func (s *service) ownedItem(ctx context.Context, user *models.User, itemID uuid.UUID) (*models.CartItem, error) {
	item, owner, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if owner.UserID != user.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
	}
	return item, nil
}

func (s *service) deleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return bumpVersion(ctx, repo, cartID)
	})
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) resolve(ctx context.Context, user *models.User, product models.Product) (discounts.Price, error) {
	catalog, err := s.discounts.LoadCatalog(ctx, user)
	if err != nil {
		return discounts.Price{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	return discounts.ResolvePrice(catalog, product), nil
}

func (s *service) currentView(ctx context.Context, user *models.User) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return buildView(user, cart, products), nil
}

func buildView(user *models.User, cart *models.Cart, products map[uuid.UUID]models.Product) *View {
	lines := make([]Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := Line{
			ItemID:                item.ID,
			ProductID:             item.ProductID,
			Position:              item.Position,
			Quantity:              item.Quantity,
			UnitPrice:             item.UnitPrice,
			UnitPriceWithDiscount: item.UnitPriceWithDiscount,
			DiscountPercent:       item.DiscountPercent,
		}
		if product, ok := products[item.ProductID]; ok {
			line.ProductCode = product.Code
			line.ProductName = product.Name
			line.UnitWeight = product.Weight
			line.UnitVolume = product.Volume
		}
		lines = append(lines, line)
	}
	return &View{
		CartID:         cart.ID,
		UserID:         cart.UserID,
		Version:        cart.Version,
		PricingVisible: visibility.CanSeePricingAndStock(user),
		Lines:          lines,
		Totals:         ComputeTotals(lines),
	}
}

func capturePrice(item *models.CartItem, price discounts.Price) {
	item.UnitPrice = price.Base
	item.UnitPriceWithDiscount = price.Discounted
	item.DiscountPercent = price.Percent
}

func bumpVersion(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	if _, err := repo.BumpVersion(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump cart version")
	}
	return nil
}
