package visibility

import (
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

// CanSeePricingAndStock is the access gate for prices and stock figures. It reads the user
// row as loaded for the current request; results must not be cached across requests.
func CanSeePricingAndStock(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.HasFullAccess || len(user.ProductGroupAccessIDs) > 0
}

// EnsurePricingAndStockVisible turns a closed gate into a forbidden error for endpoints
// whose whole payload is priced or stock data.
func EnsurePricingAndStockVisible(user *models.User) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if !CanSeePricingAndStock(user) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "pricing and stock are not available for this account")
	}
	return nil
}
