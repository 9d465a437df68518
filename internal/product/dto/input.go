package dto

import "github.com/fekuna/omnipos-voice-intake/internal/model"

type CreateProductInput struct {
	OwnerID int64
	Draft   model.ProductDraft
}

type UpdateFieldInput struct {
	OwnerID   int64
	ProductID int64
	Field     model.Field
	Value     any // already coerced, see model.Field.Coerce
}
