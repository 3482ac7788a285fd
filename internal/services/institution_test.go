package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/helpers"
)

type fakeInstitutionStore struct {
	byID    map[string]*models.Institution
	list    []*models.Institution
	listErr error

	findOrCreateResult  *models.Institution
	findOrCreateCreated bool
	findOrCreateErr     error
	findOrCreateCalls   []string // plaidInstitutionID
	findOrCreateName    string
	findOrCreateOpts    dto.InstitutionCreateOpts

	cascade    dto.CascadeResult
	cascadeErr error
	deleted    []string
}

func (f *fakeInstitutionStore) FindByID(_ context.Context, _, institutionID string) (*models.Institution, error) {
	return f.byID[institutionID], nil
}

func (f *fakeInstitutionStore) FindOrCreate(_ context.Context, _, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, bool, error) {
	f.findOrCreateCalls = append(f.findOrCreateCalls, plaidInstitutionID)
	f.findOrCreateName = name
	f.findOrCreateOpts = opts
	return f.findOrCreateResult, f.findOrCreateCreated, f.findOrCreateErr
}

func (f *fakeInstitutionStore) ListForUser(_ context.Context, _ string) ([]*models.Institution, error) {
	return f.list, f.listErr
}

func (f *fakeInstitutionStore) DeleteCascade(_ context.Context, userID, institutionID string) (dto.CascadeResult, error) {
	f.deleted = append(f.deleted, userID+":"+institutionID)
	return f.cascade, f.cascadeErr
}

type fakeAccountLister struct {
	byInstitution map[string][]*models.Account
}

func (f *fakeAccountLister) ListByInstitution(_ context.Context, _, institutionID string) ([]*models.Account, error) {
	return f.byInstitution[institutionID], nil
}

const localInstID = "7f0c2c6e-3b53-4a9e-8f3f-2d8f2b9a1c55"

func TestInstitutionResolveLocalID(t *testing.T) {
	existing := &models.Institution{ID: localInstID, Name: "First Bank"}
	store := &fakeInstitutionStore{byID: map[string]*models.Institution{localInstID: existing}}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	inst, err := svc.Resolve(helpers.TestCtx(), "user-1", localInstID, "", "", dto.InstitutionCreateOpts{MaxInstitutionsPerUser: 2})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if inst != existing {
		t.Fatalf("Resolve = %+v, want existing institution", inst)
	}
	if len(store.findOrCreateCalls) != 0 {
		t.Fatalf("FindOrCreate should not be called for a local id")
	}
}

func TestInstitutionResolveLocalIDMissing(t *testing.T) {
	store := &fakeInstitutionStore{byID: map[string]*models.Institution{}}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	_, err := svc.Resolve(helpers.TestCtx(), "user-1", localInstID, "", "", dto.InstitutionCreateOpts{})
	if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("Resolve error = %T, want *errs.NotFoundError", err)
	}
}

func TestInstitutionResolveExternalID(t *testing.T) {
	created := &models.Institution{ID: localInstID, PlaidInstitutionID: "ins_1"}
	store := &fakeInstitutionStore{findOrCreateResult: created, findOrCreateCreated: true}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	inst, err := svc.Resolve(helpers.TestCtx(), "user-1", "", "ins_1", "First Bank", dto.InstitutionCreateOpts{MaxInstitutionsPerUser: 2})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if inst != created {
		t.Fatalf("Resolve = %+v, want created institution", inst)
	}
	if len(store.findOrCreateCalls) != 1 || store.findOrCreateCalls[0] != "ins_1" {
		t.Fatalf("unexpected FindOrCreate calls: %#v", store.findOrCreateCalls)
	}
	if store.findOrCreateOpts.MaxInstitutionsPerUser != 2 {
		t.Fatalf("institution cap not forwarded: %+v", store.findOrCreateOpts)
	}
}

func TestInstitutionResolveNonUUIDInstitutionIDTreatedAsExternal(t *testing.T) {
	created := &models.Institution{ID: localInstID, PlaidInstitutionID: "ins_2"}
	store := &fakeInstitutionStore{findOrCreateResult: created}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	if _, err := svc.Resolve(helpers.TestCtx(), "user-1", "ins_2", "", "Second Bank", dto.InstitutionCreateOpts{}); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(store.findOrCreateCalls) != 1 || store.findOrCreateCalls[0] != "ins_2" {
		t.Fatalf("unexpected FindOrCreate calls: %#v", store.findOrCreateCalls)
	}
}

func TestInstitutionResolveNoReference(t *testing.T) {
	svc := NewInstitutionService(&fakeInstitutionStore{}, &fakeAccountLister{})

	_, err := svc.Resolve(helpers.TestCtx(), "user-1", "", "", "", dto.InstitutionCreateOpts{})
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("Resolve error = %T, want *errs.ValidationError", err)
	}
}

func TestInstitutionResolveCapacityErrorPropagates(t *testing.T) {
	store := &fakeInstitutionStore{findOrCreateErr: errs.NewCapacityError("Institution limit (2) reached.")}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	_, err := svc.Resolve(helpers.TestCtx(), "user-1", "", "ins_3", "Third Bank", dto.InstitutionCreateOpts{MaxInstitutionsPerUser: 2})
	if _, ok := err.(*errs.CapacityError); !ok {
		t.Fatalf("Resolve error = %T, want *errs.CapacityError", err)
	}
}

func TestInstitutionFindOrCreateDefaultsName(t *testing.T) {
	store := &fakeInstitutionStore{findOrCreateResult: &models.Institution{ID: localInstID}}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	if _, err := svc.FindOrCreate(helpers.TestCtx(), "user-1", "ins_9", "", dto.InstitutionCreateOpts{}); err != nil {
		t.Fatalf("FindOrCreate returned error: %v", err)
	}
	if store.findOrCreateName != "Unknown Institution" {
		t.Fatalf("name = %q, want fallback", store.findOrCreateName)
	}
}

func TestInstitutionListWithAccounts(t *testing.T) {
	instA := &models.Institution{ID: "a"}
	instB := &models.Institution{ID: "b"}
	store := &fakeInstitutionStore{list: []*models.Institution{instA, instB}}
	accounts := &fakeAccountLister{byInstitution: map[string][]*models.Account{
		"a": {{ID: "acct-1"}, {ID: "acct-2"}},
	}}
	svc := NewInstitutionService(store, accounts)

	got, err := svc.ListWithAccounts(helpers.TestCtx(), "user-1")
	if err != nil {
		t.Fatalf("ListWithAccounts returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d institutions, want 2", len(got))
	}
	if len(got[0].Accounts) != 2 || len(got[1].Accounts) != 0 {
		t.Fatalf("unexpected account grouping: %d / %d", len(got[0].Accounts), len(got[1].Accounts))
	}
}

func TestInstitutionDelete(t *testing.T) {
	store := &fakeInstitutionStore{cascade: dto.CascadeResult{AccountCount: 3, ItemCount: 1}}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	result, err := svc.Delete(helpers.TestCtx(), "user-1", "inst-1")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if result.AccountCount != 3 || result.ItemCount != 1 {
		t.Fatalf("unexpected cascade result: %+v", result)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "user-1:inst-1" {
		t.Fatalf("unexpected delete calls: %#v", store.deleted)
	}
}

func TestInstitutionDeleteNotFound(t *testing.T) {
	store := &fakeInstitutionStore{cascadeErr: errs.NewNotFoundError("Institution not found")}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	_, err := svc.Delete(helpers.TestCtx(), "user-1", "unknown")
	if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("Delete error = %T, want *errs.NotFoundError", err)
	}
}

func TestInstitutionListErrorPropagates(t *testing.T) {
	expected := errors.New("firestore down")
	store := &fakeInstitutionStore{listErr: expected}
	svc := NewInstitutionService(store, &fakeAccountLister{})

	if _, err := svc.ListWithAccounts(helpers.TestCtx(), "user-1"); !errors.Is(err, expected) {
		t.Fatalf("ListWithAccounts error = %v, want %v", err, expected)
	}
}
