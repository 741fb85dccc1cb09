package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

// Scope is the set of order creators a caller may see.
type Scope struct {
	Unrestricted bool
	CreatorIDs   []uuid.UUID
}

// Contains reports whether orders created by userID fall inside the scope.
func (s Scope) Contains(userID uuid.UUID) bool {
	if s.Unrestricted {
		return true
	}
	for _, id := range s.CreatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type managedLister interface {
	ManagedUserIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
}

// ResolveScope maps the requested scope token onto what the caller's highest role allows.
// Scopes beyond the caller's reach are narrowed silently; an unknown token is rejected.
func ResolveScope(ctx context.Context, users managedLister, caller *models.User, requested string) (Scope, error) {
	if caller == nil {
		return Scope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	scope, err := enums.ParseOrderScope(requested)
	if err != nil {
		return Scope{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order scope").
			WithDetails(map[string]any{"scope": requested})
	}

	roles := caller.RoleSet()
	switch {
	case enums.HasRole(roles, enums.RoleAdmin):
		if scope == enums.OrderScopeAll {
			return Scope{Unrestricted: true}, nil
		}
	case enums.HasRole(roles, enums.RoleManager):
		if scope == enums.OrderScopeAll {
			scope = enums.OrderScopeMyAndManaged
		}
	default:
		scope = enums.OrderScopeMy
	}

	switch scope {
	case enums.OrderScopeManaged:
		managed, err := users.ManagedUserIDs(ctx, caller.ID)
		if err != nil {
			return Scope{}, err
		}
		return Scope{CreatorIDs: managed}, nil
	case enums.OrderScopeMyAndManaged:
		managed, err := users.ManagedUserIDs(ctx, caller.ID)
		if err != nil {
			return Scope{}, err
		}
		return Scope{CreatorIDs: appendUnique([]uuid.UUID{caller.ID}, managed...)}, nil
	default:
		return Scope{CreatorIDs: []uuid.UUID{caller.ID}}, nil
	}
}

// widestScope is the broadest scope the caller's roles permit.
func widestScope(ctx context.Context, users managedLister, caller *models.User) (Scope, error) {
	return ResolveScope(ctx, users, caller, enums.OrderScopeAll.String())
}

func appendUnique(ids []uuid.UUID, more ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids)+len(more))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range more {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
