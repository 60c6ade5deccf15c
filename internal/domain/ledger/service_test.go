package ledger

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

type memMovementRepo struct {
	movements []StockMovement
}

func (r *memMovementRepo) Insert(_ context.Context, m StockMovement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *memMovementRepo) SumAsOf(_ context.Context, productID id.ID, cutoff time.Time) (types.Quantity, error) {
	var sum types.Quantity
	for _, m := range r.movements {
		if m.ProductID == productID && !m.Period.After(cutoff) {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (r *memMovementRepo) ListByProduct(_ context.Context, productID id.ID, filter MovementFilter) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range r.movements {
		if m.ProductID != productID {
			continue
		}
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.Before(out[j].Period)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *memMovementRepo) ListBySession(_ context.Context, sessionID id.ID) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range r.movements {
		if m.SessionID != nil && *m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memView struct {
	quantities map[id.ID]types.Quantity
}

func newMemView() *memView {
	return &memView{quantities: make(map[id.ID]types.Quantity)}
}

func (v *memView) Apply(_ context.Context, m StockMovement) error {
	v.quantities[m.ProductID] += m.Quantity
	return nil
}

// --- Helpers ---

func newTestService(t *testing.T, clk clock.Clock) (*Service, *memMovementRepo, *memView, *product.Product) {
	t.Helper()

	productRepo := newMemProductRepo()
	productService := product.NewService(productRepo, nopTxManager{})

	p := product.New("Brake pad", "BP-100")
	if err := productRepo.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}

	movements := &memMovementRepo{}
	view := newMemView()
	svc := NewService(movements, productService, view, nopTxManager{}, clk)

	return svc, movements, view, p
}

// --- Tests ---

func TestAppendSignValidation(t *testing.T) {
	svc, _, _, p := newTestService(t, clock.System{})
	ctx := context.Background()

	tests := []struct {
		name     string
		typ      MovementType
		quantity types.Quantity
		wantErr  bool
	}{
		{"entrada positive ok", TypeEntrada, types.NewQuantityFromInt(5), false},
		{"entrada negative rejected", TypeEntrada, types.NewQuantityFromInt(-5), true},
		{"saida negative ok", TypeSaida, types.NewQuantityFromInt(-2), false},
		{"saida positive rejected", TypeSaida, types.NewQuantityFromInt(2), true},
		{"ajuste negative ok", TypeAjuste, types.NewQuantityFromInt(-1), false},
		{"ajuste positive ok", TypeAjuste, types.NewQuantityFromInt(1), false},
		{"zero rejected", TypeAjuste, 0, true},
		{"unknown type rejected", MovementType("devolucao"), types.NewQuantityFromInt(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Append(ctx, AppendRequest{
				ProductID: p.ID,
				Type:      tt.typ,
				Quantity:  tt.quantity,
			})
			if tt.wantErr {
				if !apperror.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAppendInactiveProduct(t *testing.T) {
	productRepo := newMemProductRepo()
	productService := product.NewService(productRepo, nopTxManager{})

	p := product.New("Oil filter", "OF-200")
	p.Active = false
	_ = productRepo.Create(context.Background(), p)

	svc := NewService(&memMovementRepo{}, productService, newMemView(), nopTxManager{}, clock.System{})

	_, err := svc.Append(context.Background(), AppendRequest{
		ProductID: p.ID,
		Type:      TypeEntrada,
		Quantity:  types.NewQuantityFromInt(1),
	})
	if !apperror.IsInactiveProduct(err) {
		t.Fatalf("expected inactive product error, got %v", err)
	}
}

func TestAppendUnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestService(t, clock.System{})

	_, err := svc.Append(context.Background(), AppendRequest{
		ProductID: id.New(),
		Type:      TypeEntrada,
		Quantity:  types.NewQuantityFromInt(1),
	})
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAppendUpdatesViewAndLedgerConsistently(t *testing.T) {
	svc, _, view, p := newTestService(t, clock.System{})
	ctx := context.Background()

	appends := []struct {
		typ MovementType
		qty types.Quantity
	}{
		{TypeEntrada, types.NewQuantityFromInt(10)},
		{TypeSaida, types.NewQuantityFromInt(-3)},
		{TypeAjuste, types.NewQuantityFromInt(-1)},
	}
	for _, a := range appends {
		if _, err := svc.Append(ctx, AppendRequest{ProductID: p.ID, Type: a.typ, Quantity: a.qty}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	want := types.NewQuantityFromInt(6)
	ledgerBalance, err := svc.Balance(ctx, p.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if ledgerBalance != want {
		t.Errorf("ledger balance = %s, want %s", ledgerBalance, want)
	}
	if view.quantities[p.ID] != want {
		t.Errorf("view quantity = %s, want %s", view.quantities[p.ID], want)
	}
}

func TestBalanceAsOfCutoff(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &steppingClock{t: base}
	svc, _, _, p := newTestService(t, clk)
	ctx := context.Background()

	// Movement at base.
	if _, err := svc.Append(ctx, AppendRequest{ProductID: p.ID, Type: TypeEntrada, Quantity: types.NewQuantityFromInt(7)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	cutoff := base.Add(time.Hour)

	before, err := svc.BalanceAsOf(ctx, p.ID, cutoff)
	if err != nil {
		t.Fatalf("balance as of: %v", err)
	}

	// A later movement past the cutoff must not change the answer.
	clk.t = base.Add(2 * time.Hour)
	if _, err := svc.Append(ctx, AppendRequest{ProductID: p.ID, Type: TypeSaida, Quantity: types.NewQuantityFromInt(-4)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	after, err := svc.BalanceAsOf(ctx, p.ID, cutoff)
	if err != nil {
		t.Fatalf("balance as of: %v", err)
	}

	if before != after {
		t.Errorf("balance at cutoff changed: %s -> %s", before, after)
	}
	if after != types.NewQuantityFromInt(7) {
		t.Errorf("balance at cutoff = %s, want 7.0000", after)
	}
}

func TestAppendTransferPair(t *testing.T) {
	productRepo := newMemProductRepo()
	productService := product.NewService(productRepo, nopTxManager{})

	from := product.New("Engine oil 5W30", "EO-530")
	to := product.New("Engine oil 5W30 promo", "EO-530P")
	_ = productRepo.Create(context.Background(), from)
	_ = productRepo.Create(context.Background(), to)

	view := newMemView()
	svc := NewService(&memMovementRepo{}, productService, view, nopTxManager{}, clock.System{})
	ctx := context.Background()

	qty := types.NewQuantityFromInt(4)
	legs, err := svc.AppendTransferPair(ctx,
		AppendRequest{ProductID: from.ID, Type: TypeTransferencia, Quantity: qty.Neg()},
		AppendRequest{ProductID: to.ID, Type: TypeTransferencia, Quantity: qty},
	)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(legs))
	}
	if view.quantities[from.ID]+view.quantities[to.ID] != 0 {
		t.Error("transfer legs must net to zero across products")
	}
}

func TestAppendTransferPairValidation(t *testing.T) {
	svc, _, _, p := newTestService(t, clock.System{})
	ctx := context.Background()
	qty := types.NewQuantityFromInt(4)

	_, err := svc.AppendTransferPair(ctx,
		AppendRequest{ProductID: p.ID, Type: TypeTransferencia, Quantity: qty},
		AppendRequest{ProductID: p.ID, Type: TypeTransferencia, Quantity: qty},
	)
	if !apperror.IsValidation(err) {
		t.Fatalf("expected validation error for non-zero net, got %v", err)
	}

	_, err = svc.AppendTransferPair(ctx,
		AppendRequest{ProductID: p.ID, Type: TypeEntrada, Quantity: qty},
		AppendRequest{ProductID: p.ID, Type: TypeTransferencia, Quantity: qty.Neg()},
	)
	if !apperror.IsValidation(err) {
		t.Fatalf("expected validation error for wrong leg type, got %v", err)
	}
}

func TestMovementsForProductOrdering(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clk := &steppingClock{t: base}
	svc, _, _, p := newTestService(t, clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		clk.t = base.Add(time.Duration(i) * time.Minute)
		if _, err := svc.Append(ctx, AppendRequest{ProductID: p.ID, Type: TypeEntrada, Quantity: types.NewQuantityFromInt(1)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	movements, err := svc.MovementsForProduct(ctx, p.ID, MovementFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("movements = %d, want 3", len(movements))
	}
	for i := 1; i < len(movements); i++ {
		if movements[i].Period.Before(movements[i-1].Period) {
			t.Error("movements not ordered by period ascending")
		}
	}
}

// steppingClock lets tests control the period stamped on movements.
type steppingClock struct {
	t time.Time
}

func (c *steppingClock) Now() time.Time { return c.t }
