package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
	"github.com/fekuna/omnipos-voice-intake/internal/product/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listCacheTTL = 5 * time.Minute

type productUseCase struct {
	repo   product.Repository
	cache  *redis.Client // optional
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, cache *redis.Client, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	p := model.NewProductFromDraft(input.OwnerID, input.Draft)
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateListCache(ctx, input.OwnerID)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, ownerID, id int64) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OwnerID != ownerID {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (uc *productUseCase) GetLastProduct(ctx context.Context, ownerID int64) (*model.Product, error) {
	return uc.repo.GetLast(ctx, ownerID)
}

func (uc *productUseCase) ListProducts(ctx context.Context, ownerID int64) ([]model.Product, error) {
	key := listCacheKey(ownerID)

	if uc.cache != nil {
		val, err := uc.cache.Get(ctx, key).Result()
		if err == nil {
			var products []model.Product
			if err := json.Unmarshal([]byte(val), &products); err == nil {
				return products, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			uc.logger.Warn("product list cache read failed", zap.Int64("owner_id", ownerID), zap.Error(err))
		}
	}

	products, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := uc.cache.Set(ctx, key, data, listCacheTTL).Err(); err != nil {
				uc.logger.Warn("product list cache write failed", zap.Int64("owner_id", ownerID), zap.Error(err))
			}
		}
	}

	return products, nil
}

func (uc *productUseCase) SearchProducts(ctx context.Context, ownerID int64, query string) ([]model.Product, error) {
	return uc.repo.Search(ctx, ownerID, query)
}

func (uc *productUseCase) ListCategories(ctx context.Context, ownerID int64) ([]string, error) {
	return uc.repo.Categories(ctx, ownerID)
}

func (uc *productUseCase) UpdateField(ctx context.Context, input *dto.UpdateFieldInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.OwnerID, input.ProductID)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateField(ctx, input.ProductID, input.Field, input.Value); err != nil {
		return nil, err
	}
	uc.invalidateListCache(ctx, input.OwnerID)

	if err := p.Set(input.Field, input.Value); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUseCase) DeleteLastProduct(ctx context.Context, ownerID int64) (*model.Product, error) {
	p, err := uc.repo.GetLast(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if err := uc.repo.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	uc.invalidateListCache(ctx, ownerID)
	return p, nil
}

// invalidateListCache runs inline so a list right after a write never sees
// the cached pre-write state.
func (uc *productUseCase) invalidateListCache(ctx context.Context, ownerID int64) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Del(ctx, listCacheKey(ownerID)).Err(); err != nil {
		uc.logger.Error("failed to invalidate product list cache", zap.Int64("owner_id", ownerID), zap.Error(err))
	}
}

func listCacheKey(ownerID int64) string {
	return fmt.Sprintf("products:list:%d", ownerID)
}
