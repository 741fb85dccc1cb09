package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

// Service builds stock tables. Callers apply the access gate before calling it.
type Service interface {
	GroupAvailability(ctx context.Context, groupID uuid.UUID) (*Table, error)
}

type stockStore interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	ListRowsForGroup(ctx context.Context, groupID uuid.UUID) ([]models.AvailabilityRow, error)
}

type catalogStore interface {
	FindGroup(ctx context.Context, id uuid.UUID) (*models.ProductGroup, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Product, error)
}

type service struct {
	stock   stockStore
	catalog catalogStore
	group   singleflight.Group
}

func NewService(stock stockStore, catalog catalogStore) (Service, error) {
	if stock == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{stock: stock, catalog: catalog}, nil
}

// GroupAvailability coalesces concurrent requests for the same group into one build.
func (s *service) GroupAvailability(ctx context.Context, groupID uuid.UUID) (*Table, error) {
	result := s.group.DoChan(groupID.String(), func() (interface{}, error) {
		return s.build(context.WithoutCancel(ctx), groupID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		table := res.Val.(Table)
		return &table, nil
	}
}

func (s *service) build(ctx context.Context, groupID uuid.UUID) (Table, error) {
	if _, err := s.catalog.FindGroup(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Table{}, pkgerrors.New(pkgerrors.CodeNotFound, "product group not found")
		}
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product group")
	}
	products, err := s.catalog.ListByGroup(ctx, groupID)
	if err != nil {
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	branches, err := s.stock.ListBranches(ctx)
	if err != nil {
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	rows, err := s.stock.ListRowsForGroup(ctx, groupID)
	if err != nil {
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability")
	}
	return Aggregate(groupID, branches, products, rows), nil
}
