package wallet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ajopot/internal/apperr"
	"ajopot/internal/gateway"
	"ajopot/internal/membership"
	"ajopot/internal/models"
	"ajopot/internal/storage/sqlite"
)

// fakeGateway records provider calls and can be made to fail.
type fakeGateway struct {
	mu        sync.Mutex
	accounts  int
	transfers []float64
	fail      bool
}

func (g *fakeGateway) CreateAccount(context.Context, string) (*gateway.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, apperr.BadGateway(errors.New("boom"), "provider unavailable")
	}
	g.accounts++
	return &gateway.Account{ID: "acct_fake", Status: "active"}, nil
}

func (g *fakeGateway) CreateTransfer(_ context.Context, amount float64, dest string) (*gateway.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, apperr.BadGateway(errors.New("boom"), "provider unavailable")
	}
	g.transfers = append(g.transfers, amount)
	return &gateway.Transfer{ID: "tr_fake", Amount: amount, Destination: dest, Status: "paid"}, nil
}

func (g *fakeGateway) RetrieveAccount(_ context.Context, id string) (*gateway.Account, error) {
	return &gateway.Account{ID: id, Status: "active"}, nil
}

func (g *fakeGateway) transferCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.transfers)
}

type fixture struct {
	store   *sqlite.SQLiteStore
	gateway *fakeGateway
	wallets *Service
	owner   *models.User
	bob     *models.User
	group   *models.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ajopot-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	f := &fixture{
		store:   store,
		gateway: &fakeGateway{},
		owner:   models.NewUser("owner", "Owner", "hash"),
		bob:     models.NewUser("bob", "Bob", "hash"),
	}
	f.wallets = NewService(store, membership.NewStoreProvider(store), f.gateway)

	for _, u := range []*models.User{f.owner, f.bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	f.group = &models.Group{
		Name:         "Office Ajo",
		OwnerID:      f.owner.ID,
		Contribution: 5.0,
		Interval:     models.IntervalMonthly,
		MaxMembers:   12,
		InviteCode:   "WALLET01",
	}
	if err := store.CreateGroup(ctx, f.group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := store.AddGroupMember(ctx, f.group.ID, f.bob.ID); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}
	return f
}

func TestTopUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the wallet and provider account lazily", func(t *testing.T) {
		f := newFixture(t)

		w, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 20.0)
		if err != nil {
			t.Fatalf("TopUp failed: %v", err)
		}
		if w.Balance != 20.0 {
			t.Errorf("Balance = %v, want 20.0", w.Balance)
		}
		if w.ProviderAccount != "acct_fake" {
			t.Errorf("ProviderAccount = %q, want acct_fake", w.ProviderAccount)
		}
		if f.gateway.accounts != 1 {
			t.Errorf("CreateAccount calls = %d, want 1", f.gateway.accounts)
		}
	})

	t.Run("second top-up reuses the account", func(t *testing.T) {
		f := newFixture(t)

		if _, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 20.0); err != nil {
			t.Fatalf("TopUp failed: %v", err)
		}
		w, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 5.0)
		if err != nil {
			t.Fatalf("Second TopUp failed: %v", err)
		}
		if w.Balance != 25.0 {
			t.Errorf("Balance = %v, want 25.0", w.Balance)
		}
		if f.gateway.accounts != 1 {
			t.Errorf("CreateAccount calls = %d, want 1", f.gateway.accounts)
		}
		if f.gateway.transferCount() != 2 {
			t.Errorf("CreateTransfer calls = %d, want 2", f.gateway.transferCount())
		}
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		f := newFixture(t)
		for _, amount := range []float64{0, -5} {
			if _, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, amount); !apperr.Is(err, apperr.KindBadRequest) {
				t.Errorf("TopUp(%v): expected bad request, got %v", amount, err)
			}
		}
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.wallets.TopUp(ctx, f.group.ID, "stranger", 10.0)
		if !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("Expected forbidden, got %v", err)
		}
	})

	t.Run("provider failure surfaces as bad gateway", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.fail = true

		_, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 10.0)
		if !apperr.Is(err, apperr.KindBadGateway) {
			t.Errorf("Expected bad gateway, got %v", err)
		}
		// The balance is untouched when the provider call fails.
		if _, err := f.store.GetWallet(ctx, f.group.ID, f.bob.ID); err == nil {
			w, _ := f.store.GetWallet(ctx, f.group.ID, f.bob.ID)
			if w.Balance != 0 {
				t.Errorf("Balance = %v after failed top-up, want 0", w.Balance)
			}
		}
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("debits within balance", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 30.0); err != nil {
			t.Fatalf("TopUp failed: %v", err)
		}

		w, err := f.wallets.Withdraw(ctx, f.group.ID, f.bob.ID, 12.5)
		if err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
		if w.Balance != 17.5 {
			t.Errorf("Balance = %v, want 17.5", w.Balance)
		}
	})

	t.Run("insufficient funds skips the provider", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 10.0); err != nil {
			t.Fatalf("TopUp failed: %v", err)
		}
		before := f.gateway.transferCount()

		_, err := f.wallets.Withdraw(ctx, f.group.ID, f.bob.ID, 50.0)
		if !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("Expected bad request, got %v", err)
		}
		if f.gateway.transferCount() != before {
			t.Error("Provider transfer attempted despite insufficient funds")
		}

		w, err := f.store.GetWallet(ctx, f.group.ID, f.bob.ID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if w.Balance != 10.0 {
			t.Errorf("Balance = %v after failed withdraw, want 10.0", w.Balance)
		}
	})

	t.Run("withdraw from an empty wallet", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.wallets.Withdraw(ctx, f.group.ID, f.bob.ID, 1.0)
		if !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("Expected bad request, got %v", err)
		}
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.wallets.TopUp(ctx, f.group.ID, f.owner.ID, 5.0); err != nil {
		t.Fatalf("TopUp failed: %v", err)
	}
	if _, err := f.wallets.TopUp(ctx, f.group.ID, f.bob.ID, 7.0); err != nil {
		t.Fatalf("TopUp failed: %v", err)
	}

	t.Run("owner sees every wallet", func(t *testing.T) {
		wallets, err := f.wallets.Snapshot(ctx, f.group.ID, f.owner.ID)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(wallets) != 2 {
			t.Errorf("Owner sees %d wallets, want 2", len(wallets))
		}
	})

	t.Run("member sees their own", func(t *testing.T) {
		wallets, err := f.wallets.Snapshot(ctx, f.group.ID, f.bob.ID)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(wallets) != 1 || wallets[0].MemberID != f.bob.ID {
			t.Errorf("Member snapshot = %+v, want only their own wallet", wallets)
		}
	})

	t.Run("non-member sees nothing", func(t *testing.T) {
		wallets, err := f.wallets.Snapshot(ctx, f.group.ID, "stranger")
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(wallets) != 0 {
			t.Errorf("Stranger sees %d wallets, want 0", len(wallets))
		}
	})
}

func TestLockTable(t *testing.T) {
	t.Run("serializes same-key holders", func(t *testing.T) {
		locks := newLockTable()
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			holders int
			max     int
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release := locks.acquire(key("g1", "alice"))
				defer release()

				mu.Lock()
				holders++
				if holders > max {
					max = holders
				}
				mu.Unlock()

				mu.Lock()
				holders--
				mu.Unlock()
			}()
		}
		wg.Wait()
		if max != 1 {
			t.Errorf("Observed %d concurrent holders, want 1", max)
		}
	})

	t.Run("multi-key acquisition does not deadlock", func(t *testing.T) {
		locks := newLockTable()
		keys := []string{key("g1", "alice"), key("g1", "bob")}
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			// Half the goroutines ask in reverse order; sorted acquisition
			// keeps them from deadlocking.
			reversed := i%2 == 1
			go func() {
				defer wg.Done()
				ks := keys
				if reversed {
					ks = []string{keys[1], keys[0]}
				}
				release := locks.acquire(ks...)
				release()
			}()
		}
		wg.Wait()
	})
}
