package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
)

// MemoryRepository keeps products in process memory. It backs local runs
// without a database and the use case tests.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]model.Product
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[int64]model.Product),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = r.now()
	if p.Currency == "" {
		p.Currency = model.DefaultCurrency
	}
	r.products[p.ID] = clone(*p)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	c := clone(p)
	return &c, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID int64) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool { return p.OwnerID == ownerID }), nil
}

func (r *MemoryRepository) GetLast(_ context.Context, ownerID int64) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last *model.Product
	for _, p := range r.products {
		if p.OwnerID != ownerID {
			continue
		}
		if last == nil || p.ID > last.ID {
			c := clone(p)
			last = &c
		}
	}
	return last, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) UpdateField(_ context.Context, id int64, field model.Field, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return product.ErrNotFound
	}
	if err := p.Set(field, value); err != nil {
		return err
	}
	r.products[id] = p
	return nil
}

func (r *MemoryRepository) Search(_ context.Context, ownerID int64, query string) ([]model.Product, error) {
	q := strings.ToLower(query)
	return r.filter(func(p model.Product) bool {
		if p.OwnerID != ownerID {
			return false
		}
		return contains(&p.Name, q) || contains(p.Code, q) || contains(p.Category, q)
	}), nil
}

func (r *MemoryRepository) Categories(_ context.Context, ownerID int64) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range r.filter(func(p model.Product) bool { return p.OwnerID == ownerID }) {
		if p.Category == nil || *p.Category == "" || seen[*p.Category] {
			continue
		}
		seen[*p.Category] = true
		out = append(out, *p.Category)
	}
	sort.Strings(out)
	return out, nil
}

// filter returns matches newest first, like the postgres ordering.
func (r *MemoryRepository) filter(keep func(model.Product) bool) []model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []model.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func contains(s *string, q string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), q)
}

func clone(p model.Product) model.Product {
	c := p
	c.Category = copyPtr(p.Category)
	c.Firma = copyPtr(p.Firma)
	c.Code = copyPtr(p.Code)
	c.CostPrice = copyPtr(p.CostPrice)
	c.SalePrice = copyPtr(p.SalePrice)
	return c
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
