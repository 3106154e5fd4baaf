package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"ajopot/internal/apperr"
	"ajopot/internal/models"
	"ajopot/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ajopot-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store *SQLiteStore, username string) *models.User {
	t.Helper()
	user := models.NewUser(username, username, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return user
}

func seedGroup(t *testing.T, store *SQLiteStore, owner *models.User, invite string) *models.Group {
	t.Helper()
	group := &models.Group{
		Name:         "Office Ajo",
		OwnerID:      owner.ID,
		Contribution: 5.0,
		Interval:     models.IntervalMonthly,
		MaxMembers:   12,
		InviteCode:   invite,
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "ada")

	t.Run("GetUserByUsername", func(t *testing.T) {
		got, err := store.GetUserByUsername(ctx, "ada")
		if err != nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, user.ID)
		}
		if got.PasswordHash != "hash" {
			t.Errorf("PasswordHash mismatch: got %s", got.PasswordHash)
		}
	})

	t.Run("GetUserByID", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.Username != "ada" {
			t.Errorf("Username mismatch: got %s", got.Username)
		}
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("ada", "Ada Again", "hash2"))
		if !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("Expected conflict error, got %v", err)
		}
	})

	t.Run("unknown user not found", func(t *testing.T) {
		_, err := store.GetUserByUsername(ctx, "nobody")
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})
}

func TestGroupsAndMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, store, "owner")
	bob := seedUser(t, store, "bob")
	group := seedGroup(t, store, owner, "A1B2C3D4")

	t.Run("create enrolls the owner", func(t *testing.T) {
		members, err := store.ListGroupMembers(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListGroupMembers failed: %v", err)
		}
		if len(members) != 1 || members[0].UserID != owner.ID {
			t.Errorf("Expected owner as sole member, got %v", members)
		}
	})

	t.Run("lookup by invite code", func(t *testing.T) {
		got, err := store.GetGroupByInviteCode(ctx, "A1B2C3D4")
		if err != nil {
			t.Fatalf("GetGroupByInviteCode failed: %v", err)
		}
		if got.ID != group.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, group.ID)
		}
		if got.Interval != models.IntervalMonthly {
			t.Errorf("Interval mismatch: got %s", got.Interval)
		}
	})

	t.Run("add and check members", func(t *testing.T) {
		if err := store.AddGroupMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		ok, err := store.IsGroupMember(ctx, group.ID, bob.ID)
		if err != nil || !ok {
			t.Errorf("Expected bob to be a member, got ok=%v err=%v", ok, err)
		}
		ok, err = store.IsGroupMember(ctx, group.ID, "stranger")
		if err != nil || ok {
			t.Errorf("Expected stranger not to be a member, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("duplicate membership conflicts", func(t *testing.T) {
		err := store.AddGroupMember(ctx, group.ID, bob.ID)
		if !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("Expected conflict error, got %v", err)
		}
	})

	t.Run("mark started inside a transaction", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.MarkGroupStarted(ctx, group.ID)
		})
		if err != nil {
			t.Fatalf("MarkGroupStarted failed: %v", err)
		}
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if !got.Started {
			t.Error("Expected group to be started")
		}
	})
}

func TestLegacyNumericIDFallback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, store, "owner")

	// A row migrated from the old numeric-id scheme carries the UUID
	// derived from its number.
	legacy, ok := legacyUUID("group", "42")
	if !ok {
		t.Fatal("legacyUUID rejected a numeric id")
	}
	group := &models.Group{
		ID:           legacy,
		Name:         "Migrated",
		OwnerID:      owner.ID,
		Contribution: 10.0,
		Interval:     models.IntervalWeekly,
		MaxMembers:   12,
		InviteCode:   "LEGACY42",
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("numeric id resolves", func(t *testing.T) {
		got, err := store.GetGroup(ctx, "42")
		if err != nil {
			t.Fatalf("GetGroup by numeric id failed: %v", err)
		}
		if got.ID != legacy {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, legacy)
		}
	})

	t.Run("uuid still resolves", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, legacy); err != nil {
			t.Errorf("GetGroup by uuid failed: %v", err)
		}
	})

	t.Run("non-numeric miss stays not found", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "not-a-number")
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})
}

func TestRoundsAndPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, store, "owner")
	bob := seedUser(t, store, "bob")
	group := seedGroup(t, store, owner, "ROUNDS01")
	if err := store.AddGroupMember(ctx, group.ID, bob.ID); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}

	round := &models.Round{
		ID:          uuid.New().String(),
		GroupID:     group.ID,
		CycleNumber: 1,
		StartDate:   1700000000,
		MemberOrder: []string{owner.ID, bob.ID},
		RecipientID: owner.ID,
	}
	if err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.CreateRound(ctx, round)
	}); err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}

	t.Run("round roundtrips with order intact", func(t *testing.T) {
		got, err := store.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if got.CycleNumber != 1 || got.RecipientID != owner.ID {
			t.Errorf("Round mismatch: %+v", got)
		}
		if len(got.MemberOrder) != 2 || got.MemberOrder[0] != owner.ID || got.MemberOrder[1] != bob.ID {
			t.Errorf("MemberOrder mismatch: %v", got.MemberOrder)
		}
	})

	t.Run("duplicate cycle number conflicts", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.CreateRound(ctx, &models.Round{
				ID:          uuid.New().String(),
				GroupID:     group.ID,
				CycleNumber: 1,
				MemberOrder: round.MemberOrder,
				RecipientID: bob.ID,
			})
		})
		if !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("Expected conflict error, got %v", err)
		}
	})

	t.Run("count rounds", func(t *testing.T) {
		n, err := store.CountRounds(ctx, group.ID)
		if err != nil {
			t.Fatalf("CountRounds failed: %v", err)
		}
		if n != 1 {
			t.Errorf("CountRounds = %d, want 1", n)
		}
	})

	t.Run("payment unique per payer and round", func(t *testing.T) {
		payment := &models.Payment{
			GroupID: group.ID,
			RoundID: round.ID,
			PayerID: bob.ID,
			Amount:  5.0,
			Status:  models.PaymentPayerConfirmed,
			PaidAt:  1700000100,
		}
		if err := store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.CreatePayment(ctx, payment)
		}); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
		if payment.ID == "" {
			t.Error("Expected payment ID to be generated")
		}

		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.CreatePayment(ctx, &models.Payment{
				GroupID: group.ID,
				RoundID: round.ID,
				PayerID: bob.ID,
				Amount:  5.0,
			})
		})
		if !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("Expected conflict error, got %v", err)
		}
	})

	t.Run("get payment by payer", func(t *testing.T) {
		var got *models.Payment
		err := store.RunInTx(ctx, func(tx storage.Tx) (err error) {
			got, err = tx.GetPaymentByPayer(ctx, group.ID, round.ID, bob.ID)
			return err
		})
		if err != nil {
			t.Fatalf("GetPaymentByPayer failed: %v", err)
		}
		if got.Amount != 5.0 || !got.PayerConfirmed() {
			t.Errorf("Payment mismatch: %+v", got)
		}
	})

	t.Run("update and settle", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			p, err := tx.GetPaymentByPayer(ctx, group.ID, round.ID, bob.ID)
			if err != nil {
				return err
			}
			p.Status = models.PaymentSettled
			p.ReceiptAt = 1700000200
			return tx.UpdatePayment(ctx, p)
		})
		if err != nil {
			t.Fatalf("UpdatePayment failed: %v", err)
		}

		payments, err := store.ListRoundPayments(ctx, group.ID, round.ID)
		if err != nil {
			t.Fatalf("ListRoundPayments failed: %v", err)
		}
		if len(payments) != 1 || !payments[0].Settled() {
			t.Errorf("Expected a single settled payment, got %+v", payments)
		}
	})

	t.Run("mark completed and acked", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			if err := tx.MarkRoundAcked(ctx, round.ID); err != nil {
				return err
			}
			return tx.MarkRoundCompleted(ctx, round.ID)
		})
		if err != nil {
			t.Fatalf("Mark round failed: %v", err)
		}
		got, err := store.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if !got.Completed || !got.RecipientAcked {
			t.Errorf("Expected completed and acked, got %+v", got)
		}
	})
}

func TestWallets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, store, "owner")
	group := seedGroup(t, store, owner, "WALLET01")

	t.Run("ensure is lazy and idempotent", func(t *testing.T) {
		_, err := store.GetWallet(ctx, group.ID, owner.ID)
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("Expected not found before ensure, got %v", err)
		}

		err = store.RunInTx(ctx, func(tx storage.Tx) error {
			w, err := tx.EnsureWallet(ctx, group.ID, owner.ID)
			if err != nil {
				return err
			}
			if w.Balance != 0 {
				t.Errorf("Fresh wallet balance = %v, want 0", w.Balance)
			}
			// A second ensure returns the same row.
			_, err = tx.EnsureWallet(ctx, group.ID, owner.ID)
			return err
		})
		if err != nil {
			t.Fatalf("EnsureWallet failed: %v", err)
		}
	})

	t.Run("credit and debit", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			if err := tx.CreditWallet(ctx, group.ID, owner.ID, 25.0); err != nil {
				return err
			}
			return tx.DebitWallet(ctx, group.ID, owner.ID, 10.0)
		})
		if err != nil {
			t.Fatalf("Credit/debit failed: %v", err)
		}

		w, err := store.GetWallet(ctx, group.ID, owner.ID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if w.Balance != 15.0 {
			t.Errorf("Balance = %v, want 15.0", w.Balance)
		}
	})

	t.Run("debit beyond balance fails and rolls back", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.DebitWallet(ctx, group.ID, owner.ID, 100.0)
		})
		if !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("Expected bad request, got %v", err)
		}

		w, err := store.GetWallet(ctx, group.ID, owner.ID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if w.Balance != 15.0 {
			t.Errorf("Balance changed on failed debit: %v", w.Balance)
		}
	})

	t.Run("provider account sticks", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.SetWalletProviderAccount(ctx, group.ID, owner.ID, "acct_123")
		})
		if err != nil {
			t.Fatalf("SetWalletProviderAccount failed: %v", err)
		}
		w, err := store.GetWallet(ctx, group.ID, owner.ID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if w.ProviderAccount != "acct_123" {
			t.Errorf("ProviderAccount = %q, want acct_123", w.ProviderAccount)
		}
	})

	t.Run("list group wallets", func(t *testing.T) {
		wallets, err := store.ListGroupWallets(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListGroupWallets failed: %v", err)
		}
		if len(wallets) != 1 || wallets[0].MemberID != owner.ID {
			t.Errorf("Unexpected wallets: %+v", wallets)
		}
	})
}
