package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/repository/contract"
	"swift-ai-market/pkg/apperr"

	"github.com/patrickmn/go-cache"
)

// ProductRepository keeps the catalog in a non-expiring go-cache. It backs
// the service when no database is configured, and the package tests.
type ProductRepository struct {
	mu     sync.Mutex
	cache  *cache.Cache
	nextId int64
	now    func() time.Time
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		cache: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

var _ contract.ProductRepository = (*ProductRepository)(nil)

func productKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	if p.Embedding != nil {
		cp.Embedding = append([]float32(nil), p.Embedding...)
	}
	return &cp
}

func (r *ProductRepository) all() []*entity.Product {
	items := r.cache.Items()
	out := make([]*entity.Product, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*entity.Product))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Id < out[j].Id
	})
	return out
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.Id == 0 {
		r.nextId++
		product.Id = r.nextId
	} else if product.Id > r.nextId {
		r.nextId = product.Id
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now()
	}
	r.cache.Set(productKey(product.Id), cloneProduct(product), cache.NoExpiration)
	return nil
}

func (r *ProductRepository) UpdateEmbedding(ctx context.Context, id int64, vector []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(productKey(id))
	if !found {
		return fmt.Errorf("%w: %d", apperr.ErrProductNotFound, id)
	}
	p := cloneProduct(x.(*entity.Product))
	p.Embedding = append([]float32(nil), vector...)
	now := r.now()
	p.UpdatedAt = &now
	r.cache.Set(productKey(id), p, cache.NoExpiration)
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(productKey(id))
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	if x, found := r.cache.Get(productKey(id)); found {
		return cloneProduct(x.(*entity.Product)), nil
	}
	return nil, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := []*entity.Product{}
	for _, p := range r.all() {
		if wanted[p.Id] {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	query := strings.ToLower(filter.Query)
	out := []*entity.Product{}
	for _, p := range r.all() {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, cloneProduct(p))
	}

	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return []*entity.Product{}, nil
		}
		end := min(filter.Offset+filter.Limit, len(out))
		out = out[filter.Offset:end]
	}
	return out, nil
}

func (r *ProductRepository) filterEmbedding(present bool) []*entity.Product {
	out := []*entity.Product{}
	for _, p := range r.all() {
		if (len(p.Embedding) > 0) == present {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

func (r *ProductRepository) FindWithEmbedding(ctx context.Context) ([]*entity.Product, error) {
	return r.filterEmbedding(true), nil
}

func (r *ProductRepository) FindWithoutEmbedding(ctx context.Context) ([]*entity.Product, error) {
	return r.filterEmbedding(false), nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range r.all() {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, found := r.cache.Get(productKey(id))
	return found, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.cache.ItemCount()), nil
}
