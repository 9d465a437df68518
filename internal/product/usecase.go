package product

import (
	"context"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, ownerID, id int64) (*model.Product, error)
	GetLastProduct(ctx context.Context, ownerID int64) (*model.Product, error)
	ListProducts(ctx context.Context, ownerID int64) ([]model.Product, error)
	SearchProducts(ctx context.Context, ownerID int64, query string) ([]model.Product, error)
	ListCategories(ctx context.Context, ownerID int64) ([]string, error)
	UpdateField(ctx context.Context, input *dto.UpdateFieldInput) (*model.Product, error)

	// DeleteLastProduct removes the most recent product of the owner and
	// returns it, or nil when the owner has none.
	DeleteLastProduct(ctx context.Context, ownerID int64) (*model.Product, error)
}
