package product

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

var ErrNotFound = errors.New("product not found")

// Repository is the durable store of products. Every call is atomic and a
// Create is visible to a following ListByOwner of the same owner.
type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Product, error)
	GetLast(ctx context.Context, ownerID int64) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	UpdateField(ctx context.Context, id int64, field model.Field, value any) error

	// Search matches name, code or category case-insensitively.
	Search(ctx context.Context, ownerID int64, query string) ([]model.Product, error)
	Categories(ctx context.Context, ownerID int64) ([]string, error)
}
