package transfer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/models"
	"stocktide-backend/internal/stock"
)

type stockKey struct {
	org     uint
	product uint
	branch  uint
}

type mockData struct {
	transfers  map[uint]*models.Transfer
	stocks     map[stockKey]int
	branches   map[uint]uint // branch id -> org id
	products   map[uint]uint // product id -> org id
	nextID     uint
	storeCalls int
}

// mockTx is the transaction-scoped view: no locking, mutations are direct.
type mockTx struct {
	d *mockData
}

func (t *mockTx) InTx(fn func(Store) error) error { return fn(t) }

func (t *mockTx) Create(tr *models.Transfer) error {
	t.d.storeCalls++
	t.d.nextID++
	tr.ID = t.d.nextID
	tr.CreatedAt = time.Now()
	cp := *tr
	t.d.transfers[tr.ID] = &cp
	return nil
}

func (t *mockTx) Get(orgID, id uint) (*models.Transfer, error) {
	t.d.storeCalls++
	tr, ok := t.d.transfers[id]
	if !ok || tr.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

func (t *mockTx) AdvanceStatus(orgID, id uint, from, to models.TransferStatus, completedAt *time.Time) (bool, error) {
	t.d.storeCalls++
	tr, ok := t.d.transfers[id]
	if !ok || tr.OrganizationID != orgID || tr.Status != from {
		return false, nil
	}
	tr.Status = to
	if completedAt != nil {
		tr.CompletedAt = completedAt
	}
	return true, nil
}

func (t *mockTx) List(orgID uint, status *models.TransferStatus) ([]models.Transfer, error) {
	t.d.storeCalls++
	var out []models.Transfer
	for _, tr := range t.d.transfers {
		if tr.OrganizationID != orgID {
			continue
		}
		if status != nil && tr.Status != *status {
			continue
		}
		out = append(out, *tr)
	}
	return out, nil
}

func (t *mockTx) BranchExists(orgID, branchID uint) (bool, error) {
	t.d.storeCalls++
	return t.d.branches[branchID] == orgID, nil
}

func (t *mockTx) ProductExists(orgID, productID uint) (bool, error) {
	t.d.storeCalls++
	return t.d.products[productID] == orgID, nil
}

func (t *mockTx) StockQuantity(orgID, productID, branchID uint) (int, error) {
	t.d.storeCalls++
	return t.d.stocks[stockKey{orgID, productID, branchID}], nil
}

func (t *mockTx) AdjustStock(orgID, productID, branchID uint, delta int, mode stock.AdjustMode) (int, error) {
	t.d.storeCalls++
	key := stockKey{orgID, productID, branchID}
	next, err := stock.ApplyDelta(t.d.stocks[key], delta, mode)
	if err != nil {
		return 0, err
	}
	t.d.stocks[key] = next
	return next, nil
}

// mockStore serializes transactions with a mutex, standing in for the
// database's row locking.
type mockStore struct {
	mu sync.Mutex
	tx mockTx
}

func newMockStore() *mockStore {
	return &mockStore{tx: mockTx{d: &mockData{
		transfers: make(map[uint]*models.Transfer),
		stocks:    make(map[stockKey]int),
		branches:  make(map[uint]uint),
		products:  make(map[uint]uint),
	}}}
}

func (m *mockStore) InTx(fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&m.tx)
}

func (m *mockStore) Create(tr *models.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.Create(tr)
}

func (m *mockStore) Get(orgID, id uint) (*models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.Get(orgID, id)
}

func (m *mockStore) AdvanceStatus(orgID, id uint, from, to models.TransferStatus, completedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.AdvanceStatus(orgID, id, from, to, completedAt)
}

func (m *mockStore) List(orgID uint, status *models.TransferStatus) ([]models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.List(orgID, status)
}

func (m *mockStore) BranchExists(orgID, branchID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.BranchExists(orgID, branchID)
}

func (m *mockStore) ProductExists(orgID, productID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.ProductExists(orgID, productID)
}

func (m *mockStore) StockQuantity(orgID, productID, branchID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.StockQuantity(orgID, productID, branchID)
}

func (m *mockStore) AdjustStock(orgID, productID, branchID uint, delta int, mode stock.AdjustMode) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.AdjustStock(orgID, productID, branchID, delta, mode)
}

func (m *mockStore) setStock(orgID, productID, branchID uint, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx.d.stocks[stockKey{orgID, productID, branchID}] = quantity
}

func (m *mockStore) stockOf(orgID, productID, branchID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.d.stocks[stockKey{orgID, productID, branchID}]
}

func (m *mockStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.d.storeCalls
}

const (
	testOrg     = uint(1)
	branchA     = uint(10)
	branchB     = uint(11)
	testProduct = uint(100)
)

func newTestStore() *mockStore {
	m := newMockStore()
	m.tx.d.branches[branchA] = testOrg
	m.tx.d.branches[branchB] = testOrg
	m.tx.d.products[testProduct] = testOrg
	return m
}

func ownerPrincipal() auth.Principal {
	return auth.Principal{UserID: 1, Name: "Owner", OrganizationID: testOrg, Role: models.RoleOwner}
}

func staffPrincipal(branchID uint) auth.Principal {
	return auth.Principal{UserID: 2, Name: "Staff", OrganizationID: testOrg, Role: models.RoleStaff, BranchID: &branchID}
}

func TestTransferLifecycle(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	tr, err := svc.Create(owner, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.Status != models.TransferPending {
		t.Fatalf("expected pending, got %s", tr.Status)
	}

	// No stock moves before completion.
	if got := store.stockOf(testOrg, testProduct, branchA); got != 20 {
		t.Fatalf("stock moved at creation: %d", got)
	}

	if _, err := svc.Approve(owner, tr.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := store.stockOf(testOrg, testProduct, branchA); got != 20 {
		t.Fatalf("stock moved at approval: %d", got)
	}

	done, err := svc.Complete(owner, tr.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.TransferCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}

	a := store.stockOf(testOrg, testProduct, branchA)
	b := store.stockOf(testOrg, testProduct, branchB)
	if a != 15 || b != 5 {
		t.Fatalf("expected A=15 B=5, got A=%d B=%d", a, b)
	}
	if a+b != 20 {
		t.Fatalf("conservation violated: %d", a+b)
	}
}

func TestCompleteInsufficientStock(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	tr, err := svc.Create(owner, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Approve(owner, tr.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Stock got consumed (e.g. by sales) between approval and completion.
	store.setStock(testOrg, testProduct, branchA, 3)

	_, err = svc.Complete(owner, tr.ID)
	var insufficient stock.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 3 || insufficient.Requested != 10 {
		t.Fatalf("wrong error detail: %+v", insufficient)
	}
	if msg := insufficient.Error(); msg != "insufficient stock: available 3, requested 10" {
		t.Fatalf("wrong message: %q", msg)
	}

	// Nothing moved, transfer stays approved for a later retry.
	if got := store.stockOf(testOrg, testProduct, branchA); got != 3 {
		t.Fatalf("source changed: %d", got)
	}
	if got := store.stockOf(testOrg, testProduct, branchB); got != 0 {
		t.Fatalf("destination changed: %d", got)
	}
	again, err := store.Get(testOrg, tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Status != models.TransferApproved {
		t.Fatalf("expected approved, got %s", again.Status)
	}
}

func TestCompleteTwice(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	tr, _ := svc.Create(owner, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})
	if _, err := svc.Approve(owner, tr.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Complete(owner, tr.ID); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	_, err := svc.Complete(owner, tr.ID)
	var conflict StatusConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StatusConflictError, got %v", err)
	}

	// Debited and credited exactly once.
	if a := store.stockOf(testOrg, testProduct, branchA); a != 15 {
		t.Fatalf("source debited more than once: %d", a)
	}
	if b := store.stockOf(testOrg, testProduct, branchB); b != 5 {
		t.Fatalf("destination credited more than once: %d", b)
	}
}

func TestCompleteSkippingApproval(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	tr, _ := svc.Create(owner, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})

	_, err := svc.Complete(owner, tr.ID)
	var conflict StatusConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StatusConflictError for pending transfer, got %v", err)
	}
	if got := store.stockOf(testOrg, testProduct, branchA); got != 20 {
		t.Fatalf("stock changed: %d", got)
	}
}

func TestCreateValidation(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	cases := []struct {
		name    string
		params  CreateParams
		wantErr error
	}{
		{"zero quantity", CreateParams{SourceBranchID: branchA, DestinationBranchID: branchB, ProductID: testProduct, Quantity: 0}, ErrInvalidQuantity},
		{"negative quantity", CreateParams{SourceBranchID: branchA, DestinationBranchID: branchB, ProductID: testProduct, Quantity: -4}, ErrInvalidQuantity},
		{"same branch", CreateParams{SourceBranchID: branchA, DestinationBranchID: branchA, ProductID: testProduct, Quantity: 1}, ErrSameBranch},
		{"unknown source branch", CreateParams{SourceBranchID: 99, DestinationBranchID: branchB, ProductID: testProduct, Quantity: 1}, ErrUnknownBranch},
		{"unknown product", CreateParams{SourceBranchID: branchA, DestinationBranchID: branchB, ProductID: 999, Quantity: 1}, ErrUnknownProduct},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(owner, tc.params)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateInsufficientStock(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 3)
	svc := NewService(store)

	_, err := svc.Create(ownerPrincipal(), CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            10,
	})
	var insufficient stock.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
}

func TestCreateAuthorizationBeforeStoreAccess(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)

	// Staff assigned to branch B tries to originate from branch A.
	_, err := svc.Create(staffPrincipal(branchB), CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            1,
	})
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
	if store.calls() != 0 {
		t.Fatalf("store was touched %d times before authorization", store.calls())
	}
}

func TestStaffCreatesFromOwnBranch(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)

	tr, err := svc.Create(staffPrincipal(branchA), CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.RequesterName != "Staff" {
		t.Fatalf("requester name not recorded: %q", tr.RequesterName)
	}
}

func TestStaffCannotApprove(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)

	tr, _ := svc.Create(ownerPrincipal(), CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})

	if _, err := svc.Approve(staffPrincipal(branchA), tr.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
	if _, err := svc.Reject(staffPrincipal(branchA), tr.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
}

func TestRejectLeavesStockUntouched(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	tr, _ := svc.Create(owner, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})

	rejected, err := svc.Reject(owner, tr.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.TransferRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if got := store.stockOf(testOrg, testProduct, branchA); got != 20 {
		t.Fatalf("stock changed on reject: %d", got)
	}

	// Terminal: cannot be completed afterwards.
	if _, err := svc.Complete(owner, tr.ID); err == nil {
		t.Fatal("expected conflict completing a rejected transfer")
	}
}

func TestCancel(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	staff := staffPrincipal(branchA)

	tr, err := svc.Create(staff, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A different staff member cannot cancel someone else's request.
	other := staffPrincipal(branchA)
	other.UserID = 42
	if _, err := svc.Cancel(other, tr.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}

	// The requester can.
	cancelled, err := svc.Cancel(staff, tr.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.TransferCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Terminal states cannot be cancelled again.
	var conflict StatusConflictError
	if _, err := svc.Cancel(staff, tr.ID); !errors.As(err, &conflict) {
		t.Fatalf("expected StatusConflictError, got %v", err)
	}
}

func TestConcurrentCompletion(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)
	owner := ownerPrincipal()

	tr, _ := svc.Create(owner, CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})
	if _, err := svc.Approve(owner, tr.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Complete(owner, tr.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var conflict StatusConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful completion, got %d", successes)
	}

	if a := store.stockOf(testOrg, testProduct, branchA); a != 15 {
		t.Fatalf("expected A=15, got %d", a)
	}
	if b := store.stockOf(testOrg, testProduct, branchB); b != 5 {
		t.Fatalf("expected B=5, got %d", b)
	}
}

func TestCrossOrganizationIsInvisible(t *testing.T) {
	store := newTestStore()
	store.setStock(testOrg, testProduct, branchA, 20)
	svc := NewService(store)

	tr, _ := svc.Create(ownerPrincipal(), CreateParams{
		SourceBranchID:      branchA,
		DestinationBranchID: branchB,
		ProductID:           testProduct,
		Quantity:            5,
	})

	outsider := ownerPrincipal()
	outsider.OrganizationID = 2
	if _, err := svc.Approve(outsider, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign org, got %v", err)
	}
}
