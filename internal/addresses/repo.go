// Package addresses reads delivery addresses owned by the external identity
// service. Address CRUD lives elsewhere; orders only need a lookup with an
// ownership check.
package addresses

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/pkg/db/models"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
)

// Repository is the narrow contract the order engine depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOwned(ctx context.Context, addressID, userID int64) (*models.UserAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindOwned loads the address and verifies it belongs to userID. A missing row
// maps to NOT_FOUND; someone else's address maps to FORBIDDEN, never leaking
// whether the id exists for another user.
func (r *repository) FindOwned(ctx context.Context, addressID, userID int64) (*models.UserAddress, error) {
	var address models.UserAddress
	err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found").
				WithDetails(map[string]any{"address_id": addressID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to caller")
	}
	return &address, nil
}
