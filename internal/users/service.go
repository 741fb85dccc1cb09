package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListManagedIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
}

// Directory resolves callers and the manager hierarchy with domain errors.
type Directory struct {
	repo userStore
}

func NewDirectory(repo userStore) (*Directory, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &Directory{repo: repo}, nil
}

// Get loads the user fresh from storage; access flags are never cached.
func (d *Directory) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// ManagedUserIDs lists users reporting to managerID.
func (d *Directory) ManagedUserIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := d.repo.ListManagedIDs(ctx, managerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list managed users")
	}
	return ids, nil
}
