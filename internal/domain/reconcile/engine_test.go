package reconcile

import (
	"context"
	"sort"
	"testing"
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/inventory"
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

type memMovementRepo struct {
	movements []ledger.StockMovement
}

func (r *memMovementRepo) Insert(_ context.Context, m ledger.StockMovement) error {
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

func (r *memMovementRepo) ListByProduct(_ context.Context, productID id.ID, _ ledger.MovementFilter) ([]ledger.StockMovement, error) {
	var out []ledger.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListBySession(_ context.Context, sessionID id.ID) ([]ledger.StockMovement, error) {
	var out []ledger.StockMovement
	for _, m := range r.movements {
		if m.SessionID != nil && *m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

// memView maintains per-product balances so tests can assert the view
// tracks the ledger through reconciliation.
type memView struct {
	balances map[id.ID]types.Quantity
}

func newMemView() *memView {
	return &memView{balances: make(map[id.ID]types.Quantity)}
}

func (v *memView) Apply(_ context.Context, m ledger.StockMovement) error {
	v.balances[m.ProductID] += m.Quantity
	return nil
}

type memSessionRepo struct {
	sessions map[id.ID]*inventory.Session
	items    map[id.ID][]inventory.Item
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions: make(map[id.ID]*inventory.Session),
		items:    make(map[id.ID][]inventory.Item),
	}
}

func (r *memSessionRepo) Create(_ context.Context, s *inventory.Session) error {
	for _, existing := range r.sessions {
		if !existing.Status.Terminal() {
			return apperror.NewConflict("an inventory session is already open")
		}
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, sessionID id.ID) (*inventory.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("inventory session", sessionID.String())
	}
	cp := *s
	cp.Items = nil
	return &cp, nil
}

func (r *memSessionRepo) UpdateStatus(_ context.Context, s *inventory.Session, expected inventory.Status) error {
	existing, ok := r.sessions[s.ID]
	if !ok {
		return apperror.NewNotFound("inventory session", s.ID.String())
	}
	if existing.Status != expected {
		return apperror.NewInvalidState("inventory session", string(expected), "transition to "+string(s.Status))
	}
	existing.Status = s.Status
	existing.StartedAt = s.StartedAt
	existing.FinalizedAt = s.FinalizedAt
	return nil
}

func (r *memSessionRepo) SaveItems(_ context.Context, sessionID id.ID, items []inventory.Item) error {
	r.items[sessionID] = append([]inventory.Item(nil), items...)
	return nil
}

func (r *memSessionRepo) GetItems(_ context.Context, sessionID id.ID) ([]inventory.Item, error) {
	return append([]inventory.Item(nil), r.items[sessionID]...), nil
}

func (r *memSessionRepo) GetItem(_ context.Context, sessionID, productID id.ID) (*inventory.Item, error) {
	for i := range r.items[sessionID] {
		if r.items[sessionID][i].ProductID == productID {
			cp := r.items[sessionID][i]
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("inventory item", productID.String())
}

func (r *memSessionRepo) RecordCount(_ context.Context, sessionID, productID id.ID, counted, divergence types.Quantity) error {
	items := r.items[sessionID]
	for i := range items {
		if items[i].ProductID == productID {
			now := time.Now().UTC()
			items[i].CountedQuantity = &counted
			items[i].Divergence = divergence
			items[i].CountedAt = &now
			return nil
		}
	}
	return apperror.NewNotFound("inventory item", productID.String())
}

func (r *memSessionRepo) DivergenceRows(_ context.Context, sessionID id.ID) ([]inventory.DivergenceRow, error) {
	var rows []inventory.DivergenceRow
	for _, it := range r.items[sessionID] {
		if !it.Counted() || it.Divergence.IsZero() {
			continue
		}
		rows = append(rows, inventory.DivergenceRow{
			ProductID:        it.ProductID,
			ExpectedQuantity: it.ExpectedQuantity,
			CountedQuantity:  *it.CountedQuantity,
			Divergence:       it.Divergence,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Divergence.Abs() > rows[j].Divergence.Abs()
	})
	return rows, nil
}

type steppingClock struct {
	t time.Time
}

func (c *steppingClock) Now() time.Time { return c.t }

// --- Fixture ---

type fixture struct {
	engine    *Engine
	inventory *inventory.Service
	ledger    *ledger.Service
	products  *memProductRepo
	movements *memMovementRepo
	view      *memView
	sessions  *memSessionRepo
	clk       *steppingClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := &steppingClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}

	productRepo := newMemProductRepo()
	productService := product.NewService(productRepo, nopTxManager{})

	movementRepo := &memMovementRepo{}
	view := newMemView()
	ledgerService := ledger.NewService(movementRepo, productService, view, nopTxManager{}, clk)

	sessionRepo := newMemSessionRepo()
	inventoryService := inventory.NewService(sessionRepo, ledgerService, productService, nopTxManager{}, clk, nil)

	engine := NewEngine(sessionRepo, ledgerService, nopTxManager{}, clk, nil)

	return &fixture{
		engine:    engine,
		inventory: inventoryService,
		ledger:    ledgerService,
		products:  productRepo,
		movements: movementRepo,
		view:      view,
		sessions:  sessionRepo,
		clk:       clk,
	}
}

func (f *fixture) addProduct(t *testing.T, name, sku string, stock int64) *product.Product {
	t.Helper()
	p := product.New(name, sku)
	if err := f.products.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if stock != 0 {
		_, err := f.ledger.Append(context.Background(), ledger.AppendRequest{
			ProductID: p.ID,
			Type:      ledger.TypeEntrada,
			Quantity:  types.NewQuantityFromInt(stock),
		})
		if err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}
	return p
}

// startedSession opens, starts, and fully counts a session with the given
// counted quantities per product.
func (f *fixture) startedSession(t *testing.T, counts map[id.ID]int64) *inventory.Session {
	t.Helper()
	ctx := context.Background()

	session, err := f.inventory.Open(ctx, "cycle count")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	f.clk.t = f.clk.t.Add(time.Hour)
	if _, err := f.inventory.Start(ctx, session.ID); err != nil {
		t.Fatalf("start session: %v", err)
	}
	for pid, counted := range counts {
		if _, err := f.inventory.RecordCount(ctx, session.ID, pid, types.NewQuantityFromInt(counted)); err != nil {
			t.Fatalf("record count: %v", err)
		}
	}
	return session
}

// --- Tests ---

func TestFinalizePostsAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	short := f.addProduct(t, "Brake pad", "BP-100", 10) // counted 8 -> -2
	over := f.addProduct(t, "Oil filter", "OF-200", 5)  // counted 8 -> +3
	exact := f.addProduct(t, "Spark plug", "SP-300", 4) // counted 4 -> nothing

	session := f.startedSession(t, map[id.ID]int64{
		short.ID: 8,
		over.ID:  8,
		exact.ID: 4,
	})

	f.clk.t = f.clk.t.Add(time.Hour)
	posted, err := f.engine.Finalize(ctx, session.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if len(posted) != 2 {
		t.Fatalf("posted %d adjustments, want 2 (zero divergence posts nothing)", len(posted))
	}
	byProduct := make(map[id.ID]ledger.StockMovement, len(posted))
	for _, m := range posted {
		if m.Type != ledger.TypeAjuste {
			t.Errorf("movement type = %s, want ajuste", m.Type)
		}
		if m.SessionID == nil || *m.SessionID != session.ID {
			t.Error("adjustment must be tagged with the session id")
		}
		byProduct[m.ProductID] = m
	}
	if got := byProduct[short.ID].Quantity; got != types.NewQuantityFromInt(-2) {
		t.Errorf("shortage adjustment = %s, want -2.0000", got)
	}
	if got := byProduct[over.ID].Quantity; got != types.NewQuantityFromInt(3) {
		t.Errorf("overage adjustment = %s, want 3.0000", got)
	}

	// Post-finalize the ledger balance equals the counted quantity, and the
	// stock view agrees.
	wantBalances := map[id.ID]int64{short.ID: 8, over.ID: 8, exact.ID: 4}
	for pid, want := range wantBalances {
		balance, err := f.ledger.Balance(ctx, pid)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if balance != types.NewQuantityFromInt(want) {
			t.Errorf("ledger balance for %s = %s, want %d.0000", pid, balance, want)
		}
		if f.view.balances[pid] != balance {
			t.Errorf("stock view for %s = %s, diverges from ledger %s", pid, f.view.balances[pid], balance)
		}
	}

	stored, err := f.sessions.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Status != inventory.StatusFinalized {
		t.Errorf("session status = %s, want finalized", stored.Status)
	}
}

func TestFinalizeIncompleteCountPostsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	counted := f.addProduct(t, "Brake pad", "BP-100", 10)
	f.addProduct(t, "Oil filter", "OF-200", 5) // never counted

	session := f.startedSession(t, map[id.ID]int64{counted.ID: 7})

	before := len(f.movements.movements)
	_, err := f.engine.Finalize(ctx, session.ID)
	if !apperror.IsIncompleteCount(err) {
		t.Fatalf("expected incomplete count, got %v", err)
	}
	if len(f.movements.movements) != before {
		t.Error("no movements may be posted when the count is incomplete")
	}

	stored, _ := f.sessions.GetByID(ctx, session.ID)
	if stored.Status != inventory.StatusInProgress {
		t.Errorf("session status = %s, want in_progress (retryable)", stored.Status)
	}

	// Count the missing product and retry.
	products, _ := f.products.ListActive(ctx)
	for _, p := range products {
		if p.ID != counted.ID {
			if _, err := f.inventory.RecordCount(ctx, session.ID, p.ID, types.NewQuantityFromInt(5)); err != nil {
				t.Fatalf("record count: %v", err)
			}
		}
	}
	if _, err := f.engine.Finalize(ctx, session.ID); err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
}

func TestFinalizeRequiresInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.inventory.Open(ctx, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := f.engine.Finalize(ctx, session.ID); !apperror.IsInvalidState(err) {
		t.Fatalf("finalize on planned session: expected invalid state, got %v", err)
	}

	// Finalized sessions reject a second finalize.
	p := f.addProduct(t, "Brake pad", "BP-100", 3)
	if err := f.inventory.Cancel(ctx, session.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	done := f.startedSession(t, map[id.ID]int64{p.ID: 3})
	if _, err := f.engine.Finalize(ctx, done.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := f.engine.Finalize(ctx, done.ID); !apperror.IsInvalidState(err) {
		t.Fatalf("double finalize: expected invalid state, got %v", err)
	}
}

func TestFinalizeZeroDivergenceSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.addProduct(t, "Brake pad", "BP-100", 10)
	session := f.startedSession(t, map[id.ID]int64{p.ID: 10})

	posted, err := f.engine.Finalize(ctx, session.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(posted) != 0 {
		t.Fatalf("posted %d adjustments, want 0", len(posted))
	}

	stored, _ := f.sessions.GetByID(ctx, session.ID)
	if stored.Status != inventory.StatusFinalized {
		t.Errorf("session status = %s, want finalized", stored.Status)
	}
}
