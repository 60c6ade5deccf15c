package stockview

import (
	"context"
	"sort"
	"testing"
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/clock"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/ledger"
)

// --- Fakes ---

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memProductRepo struct {
	products map[id.ID]*product.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[id.ID]*product.Product)}
}

func (r *memProductRepo) Create(_ context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Update(_ context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *memProductRepo) ListActive(_ context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range r.products {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProductRepo) SetActive(_ context.Context, productID id.ID, active bool) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Active = active
	return nil
}

// memBalanceRepo mirrors the UPSERT semantics of the Postgres cache.
type memBalanceRepo struct {
	products  *memProductRepo
	balances  map[id.ID]types.Quantity
	lastMoved map[id.ID]time.Time
}

func newMemBalanceRepo(products *memProductRepo) *memBalanceRepo {
	return &memBalanceRepo{
		products:  products,
		balances:  make(map[id.ID]types.Quantity),
		lastMoved: make(map[id.ID]time.Time),
	}
}

func (r *memBalanceRepo) ApplyDelta(_ context.Context, productID id.ID, delta types.Quantity, movementAt time.Time) error {
	r.balances[productID] += delta
	if movementAt.After(r.lastMoved[productID]) {
		r.lastMoved[productID] = movementAt
	}
	return nil
}

func (r *memBalanceRepo) GetQuantity(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.balances[productID], nil
}

func (r *memBalanceRepo) Overwrite(_ context.Context, productID id.ID, quantity types.Quantity) error {
	r.balances[productID] = quantity
	return nil
}

func (r *memBalanceRepo) BelowThreshold(ctx context.Context) ([]*product.Product, error) {
	return r.filter(ctx, func(p *product.Product, q types.Quantity) bool {
		return q < p.MinimumThreshold
	})
}

func (r *memBalanceRepo) AtZero(ctx context.Context) ([]*product.Product, error) {
	return r.filter(ctx, func(_ *product.Product, q types.Quantity) bool {
		return q.IsZero()
	})
}

func (r *memBalanceRepo) filter(ctx context.Context, keep func(*product.Product, types.Quantity) bool) ([]*product.Product, error) {
	active, err := r.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var out []*product.Product
	for _, p := range active {
		q := r.balances[p.ID]
		if keep(p, q) {
			p.CurrentQuantity = q
			out = append(out, p)
		}
	}
	return out, nil
}

// mapSource serves ledger balances from a fixed map.
type mapSource struct {
	balances map[id.ID]types.Quantity
}

func (s *mapSource) BalanceAsOf(_ context.Context, productID id.ID, _ time.Time) (types.Quantity, error) {
	return s.balances[productID], nil
}

// --- Fixture ---

func newFixture() (*Service, *memBalanceRepo, *memProductRepo, *mapSource) {
	products := newMemProductRepo()
	repo := newMemBalanceRepo(products)
	source := &mapSource{balances: make(map[id.ID]types.Quantity)}

	svc := NewService(repo, product.NewService(products, nopTxManager{}),
		clock.NewFixed(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)))
	svc.SetSource(source)
	return svc, repo, products, source
}

// --- Tests ---

func TestApplyAccumulatesDeltas(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()

	productID := id.New()
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	deltas := []int64{10, -3, -1}
	for _, d := range deltas {
		err := svc.Apply(ctx, ledger.StockMovement{
			ProductID: productID,
			Quantity:  types.NewQuantityFromInt(d),
			Period:    at,
		})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	got, err := svc.Quantity(ctx, productID)
	if err != nil {
		t.Fatalf("quantity: %v", err)
	}
	if got != types.NewQuantityFromInt(6) {
		t.Errorf("quantity = %s, want 6.0000", got)
	}
}

func TestQuantityUnknownProductIsZero(t *testing.T) {
	svc, _, _, _ := newFixture()

	got, err := svc.Quantity(context.Background(), id.New())
	if err != nil {
		t.Fatalf("quantity: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("quantity = %s, want 0", got)
	}
}

func TestRebuildRecomputedWins(t *testing.T) {
	svc, repo, _, source := newFixture()
	ctx := context.Background()

	productID := id.New()
	repo.balances[productID] = types.NewQuantityFromInt(7) // drifted cache
	source.balances[productID] = types.NewQuantityFromInt(9)

	got, err := svc.Rebuild(ctx, productID)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if got != types.NewQuantityFromInt(9) {
		t.Errorf("rebuild returned %s, want recomputed 9.0000", got)
	}
	if repo.balances[productID] != types.NewQuantityFromInt(9) {
		t.Errorf("cached = %s, recomputed value must overwrite", repo.balances[productID])
	}
}

func TestRebuildAllCoversActiveProducts(t *testing.T) {
	svc, repo, products, source := newFixture()
	ctx := context.Background()

	pa := product.New("Brake pad", "BP-100")
	pb := product.New("Oil filter", "OF-200")
	inactive := product.New("Old part", "OP-1")
	inactive.Active = false
	for _, p := range []*product.Product{pa, pb, inactive} {
		_ = products.Create(ctx, p)
	}

	source.balances[pa.ID] = types.NewQuantityFromInt(4)
	source.balances[pb.ID] = types.NewQuantityFromInt(2)
	source.balances[inactive.ID] = types.NewQuantityFromInt(99)

	if err := svc.RebuildAll(ctx); err != nil {
		t.Fatalf("rebuild all: %v", err)
	}

	if repo.balances[pa.ID] != types.NewQuantityFromInt(4) {
		t.Errorf("cached %s, want 4.0000", repo.balances[pa.ID])
	}
	if repo.balances[pb.ID] != types.NewQuantityFromInt(2) {
		t.Errorf("cached %s, want 2.0000", repo.balances[pb.ID])
	}
	if _, ok := repo.balances[inactive.ID]; ok {
		t.Error("inactive products must not be rebuilt")
	}
}

func TestBelowThresholdAndAtZero(t *testing.T) {
	svc, repo, products, _ := newFixture()
	ctx := context.Background()

	low := product.New("Brake pad", "BP-100")
	low.MinimumThreshold = types.NewQuantityFromInt(5)
	ok := product.New("Oil filter", "OF-200")
	ok.MinimumThreshold = types.NewQuantityFromInt(1)
	empty := product.New("Spark plug", "SP-300")
	for _, p := range []*product.Product{low, ok, empty} {
		_ = products.Create(ctx, p)
	}

	repo.balances[low.ID] = types.NewQuantityFromInt(2)
	repo.balances[ok.ID] = types.NewQuantityFromInt(3)
	repo.balances[empty.ID] = 0

	below, err := svc.BelowThreshold(ctx)
	if err != nil {
		t.Fatalf("below threshold: %v", err)
	}
	if len(below) != 1 || below[0].ID != low.ID {
		t.Fatalf("below threshold = %d products, want only the low one", len(below))
	}
	if below[0].CurrentQuantity != types.NewQuantityFromInt(2) {
		t.Errorf("current quantity = %s, want 2.0000", below[0].CurrentQuantity)
	}

	zero, err := svc.AtZero(ctx)
	if err != nil {
		t.Fatalf("at zero: %v", err)
	}
	if len(zero) != 1 || zero[0].ID != empty.ID {
		t.Fatalf("at zero = %d products, want only the empty one", len(zero))
	}
}
