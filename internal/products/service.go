package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/visibility"
)

// Service exposes priced catalog browsing.
type Service interface {
	ListGroup(ctx context.Context, user *models.User, groupID uuid.UUID) (*GroupListing, error)
	GetProduct(ctx context.Context, user *models.User, productID uuid.UUID) (*ProductDTO, error)
}

type catalogStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Product, error)
	FindGroup(ctx context.Context, id uuid.UUID) (*models.ProductGroup, error)
}

type discountLoader interface {
	LoadCatalog(ctx context.Context, user *models.User) (discounts.Catalog, error)
}

type service struct {
	products  catalogStore
	discounts discountLoader
}

// NewService wires the catalog browsing service.
func NewService(products catalogStore, discountRepo discountLoader) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if discountRepo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{products: products, discounts: discountRepo}, nil
}

func (s *service) ListGroup(ctx context.Context, user *models.User, groupID uuid.UUID) (*GroupListing, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	group, err := s.products.FindGroup(ctx, groupID)
	if err != nil {
		return nil, mapLookupError(err, "product group")
	}
	rows, err := s.products.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	listing := &GroupListing{
		GroupID:        group.ID,
		GroupName:      group.Name,
		PricingVisible: visibility.CanSeePricingAndStock(user),
		Products:       make([]ProductDTO, 0, len(rows)),
	}
	if !listing.PricingVisible {
		for _, row := range rows {
			listing.Products = append(listing.Products, newProductDTO(row, nil))
		}
		return listing, nil
	}

	catalog, err := s.discounts.LoadCatalog(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	for _, row := range rows {
		price := discounts.ResolvePrice(catalog, row)
		listing.Products = append(listing.Products, newProductDTO(row, &price))
	}
	return listing, nil
}

func (s *service) GetProduct(ctx context.Context, user *models.User, productID uuid.UUID) (*ProductDTO, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	row, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, mapLookupError(err, "product")
	}
	if !visibility.CanSeePricingAndStock(user) {
		dto := newProductDTO(*row, nil)
		return &dto, nil
	}

	catalog, err := s.discounts.LoadCatalog(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	price := discounts.ResolvePrice(catalog, *row)
	dto := newProductDTO(*row, &price)
	return &dto, nil
}

func mapLookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
