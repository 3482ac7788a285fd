package store

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
)

func TestInstitutionFindOrCreateCapWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	store := NewInstitutionStore(client)
	uid := "cap-user-" + uniqueSuffix()
	opts := dto.InstitutionCreateOpts{MaxInstitutionsPerUser: 2}

	first, created, err := store.FindOrCreate(ctx, uid, "ins_1", "First Bank", opts)
	if err != nil || !created {
		t.Fatalf("first FindOrCreate = created %v, err %v", created, err)
	}
	if _, created, err = store.FindOrCreate(ctx, uid, "ins_2", "Second Bank", opts); err != nil || !created {
		t.Fatalf("second FindOrCreate = created %v, err %v", created, err)
	}

	// At the cap: a relink of an existing institution still resolves, a new
	// one is rejected without a partial write.
	same, created, err := store.FindOrCreate(ctx, uid, "ins_1", "First Bank", opts)
	if err != nil || created {
		t.Fatalf("relink FindOrCreate = created %v, err %v", created, err)
	}
	if same.ID != first.ID {
		t.Fatalf("relink resolved to a different record: %s vs %s", same.ID, first.ID)
	}

	_, _, err = store.FindOrCreate(ctx, uid, "ins_3", "Third Bank", opts)
	if _, ok := err.(*errs.CapacityError); !ok {
		t.Fatalf("FindOrCreate at cap error = %T (%v), want *errs.CapacityError", err, err)
	}

	count, err := store.CountForUser(ctx, uid)
	if err != nil {
		t.Fatalf("CountForUser error: %v", err)
	}
	if count != 2 {
		t.Fatalf("count after rejected create = %d, want 2", count)
	}
}

func TestInstitutionFindOrCreatePurgesSoftDeletedWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	store := NewInstitutionStore(client)
	uid := "revive-user-" + uniqueSuffix()

	// Seed a legacy soft-deleted institution with a dangling account and item.
	now := time.Now()
	deleted := now.Add(-time.Hour)
	stale := models.Institution{
		ID:                 "stale-inst",
		UserID:             uid,
		PlaidInstitutionID: "ins_9",
		Name:               "Old Bank",
		DeletedAt:          &deleted,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := client.Collection("users").Doc(uid).Collection("institutions").Doc(stale.ID).Set(ctx, stale); err != nil {
		t.Fatalf("seed institution error: %v", err)
	}
	staleAccount := models.Account{ID: "stale-acct", UserID: uid, InstitutionID: stale.ID, CreatedAt: now, UpdatedAt: now}
	if _, err := client.Collection("users").Doc(uid).Collection("accounts").Doc(staleAccount.ID).Set(ctx, staleAccount); err != nil {
		t.Fatalf("seed account error: %v", err)
	}
	staleItem := models.PlaidItem{PlaidItemID: "stale-item", UserID: uid, InstitutionID: stale.ID, CreatedAt: now, UpdatedAt: now}
	if _, err := client.Collection("users").Doc(uid).Collection("items").Doc(staleItem.PlaidItemID).Set(ctx, staleItem); err != nil {
		t.Fatalf("seed item error: %v", err)
	}

	fresh, created, err := store.FindOrCreate(ctx, uid, "ins_9", "Old Bank", dto.InstitutionCreateOpts{MaxInstitutionsPerUser: 2})
	if err != nil {
		t.Fatalf("FindOrCreate error: %v", err)
	}
	if !created || fresh.ID == stale.ID {
		t.Fatalf("soft-deleted institution should be recreated fresh, got created=%v id=%s", created, fresh.ID)
	}
	if fresh.DeletedAt != nil {
		t.Fatalf("recreated institution must not carry the delete marker")
	}

	accounts, err := client.Collection("users").Doc(uid).Collection("accounts").Documents(ctx).GetAll()
	if err != nil {
		t.Fatalf("accounts read error: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("stale accounts survived the purge: %d", len(accounts))
	}
	items, err := client.Collection("users").Doc(uid).Collection("items").Documents(ctx).GetAll()
	if err != nil {
		t.Fatalf("items read error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("stale items survived the purge: %d", len(items))
	}
}

func TestInstitutionDeleteCascadeWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	store := NewInstitutionStore(client)
	accounts := NewAccountStore(client)
	items := NewItemStore(client)
	uid := "cascade-user-" + uniqueSuffix()

	inst, _, err := store.FindOrCreate(ctx, uid, "ins_5", "Fifth Bank", dto.InstitutionCreateOpts{MaxInstitutionsPerUser: 2})
	if err != nil {
		t.Fatalf("FindOrCreate error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := accounts.Create(ctx, uid, &models.Account{InstitutionID: inst.ID}, 2); err != nil {
			t.Fatalf("account create error: %v", err)
		}
	}
	if err := items.Create(ctx, uid, &models.PlaidItem{PlaidItemID: "item-5", UserID: uid, InstitutionID: inst.ID}); err != nil {
		t.Fatalf("item create error: %v", err)
	}

	result, err := store.DeleteCascade(ctx, uid, inst.ID)
	if err != nil {
		t.Fatalf("DeleteCascade error: %v", err)
	}
	if result.AccountCount != 2 || result.ItemCount != 1 {
		t.Fatalf("cascade result = %+v, want 2 accounts and 1 item", result)
	}

	if got, err := store.FindByID(ctx, uid, inst.ID); err != nil || got != nil {
		t.Fatalf("institution should be gone, got %+v err %v", got, err)
	}
	remaining, err := accounts.ListByInstitution(ctx, uid, inst.ID)
	if err != nil {
		t.Fatalf("ListByInstitution error: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("accounts survived the cascade: %d", len(remaining))
	}
	if item, err := items.FindByPlaidItemID(ctx, uid, "item-5"); err != nil || item != nil {
		t.Fatalf("item should be gone, got %+v err %v", item, err)
	}

	_, err = store.DeleteCascade(ctx, uid, "no-such-institution")
	if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("DeleteCascade on unknown id error = %T, want *errs.NotFoundError", err)
	}
}
