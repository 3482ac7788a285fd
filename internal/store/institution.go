package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
)

type institutionStore struct {
	client *firestore.Client
}

func NewInstitutionStore(client *firestore.Client) *institutionStore {
	return &institutionStore{client: client}
}

func (s *institutionStore) collection(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("institutions")
}

func (s *institutionStore) accounts(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("accounts")
}

func (s *institutionStore) items(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("items")
}

func (s *institutionStore) FindByID(ctx context.Context, userID, institutionID string) (*models.Institution, error) {
	doc, err := s.collection(userID).Doc(institutionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("institution.get", err.Error())
	}
	var inst models.Institution
	if err := doc.DataTo(&inst); err != nil {
		return nil, errs.NewDatabaseError("institution.decode", err.Error())
	}
	return &inst, nil
}

func (s *institutionStore) ListForUser(ctx context.Context, userID string) ([]*models.Institution, error) {
	docs, err := s.collection(userID).Where("deletedAt", "==", nil).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("institution.list", err.Error())
	}
	out := make([]*models.Institution, 0, len(docs))
	for _, d := range docs {
		var inst models.Institution
		if err := d.DataTo(&inst); err != nil {
			return nil, errs.NewDatabaseError("institution.decode", err.Error())
		}
		out = append(out, &inst)
	}
	return out, nil
}

func (s *institutionStore) CountForUser(ctx context.Context, userID string) (int, error) {
	docs, err := s.collection(userID).Where("deletedAt", "==", nil).Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("institution.count", err.Error())
	}
	return len(docs), nil
}

// FindOrCreate resolves one institution for (user, plaidInstitutionID).
// An existing active doc is returned unchanged, branding included; a legacy
// soft-deleted doc is purged with its dependents and recreated fresh. The
// lookup, cap check and create share one transaction, so concurrent link
// attempts cannot both slip past the per-user institution limit.
func (s *institutionStore) FindOrCreate(ctx context.Context, userID, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, bool, error) {
	var (
		inst    models.Institution
		created bool
	)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false

		docs, err := tx.Documents(s.collection(userID).Where("plaidInstitutionId", "==", plaidInstitutionID).Limit(1)).GetAll()
		if err != nil {
			return err
		}

		var stale *firestore.DocumentSnapshot
		if len(docs) > 0 {
			if err := docs[0].DataTo(&inst); err != nil {
				return err
			}
			if inst.DeletedAt == nil {
				return nil
			}
			// Soft-deleted leftover from the pre-hard-delete era: purge it
			// and everything hanging off it, then recreate below.
			stale = docs[0]
		}

		// All reads must precede writes in a Firestore transaction, so the
		// dependent lookups and the cap count happen before any delete.
		var staleAccounts, staleItems []*firestore.DocumentSnapshot
		if stale != nil {
			staleAccounts, err = tx.Documents(s.accounts(userID).Where("institutionId", "==", inst.ID)).GetAll()
			if err != nil {
				return err
			}
			staleItems, err = tx.Documents(s.items(userID).Where("institutionId", "==", inst.ID)).GetAll()
			if err != nil {
				return err
			}
		}

		active, err := tx.Documents(s.collection(userID).Where("deletedAt", "==", nil)).GetAll()
		if err != nil {
			return err
		}
		if len(active) >= opts.MaxInstitutionsPerUser {
			return errs.NewCapacityError(fmt.Sprintf("Institution limit (%d) reached.", opts.MaxInstitutionsPerUser))
		}

		for _, d := range staleAccounts {
			if err := tx.Delete(d.Ref); err != nil {
				return err
			}
		}
		for _, d := range staleItems {
			if err := tx.Delete(d.Ref); err != nil {
				return err
			}
		}
		if stale != nil {
			if err := tx.Delete(stale.Ref); err != nil {
				return err
			}
		}

		now := time.Now()
		inst = models.Institution{
			ID:                 uuid.NewString(),
			UserID:             userID,
			PlaidInstitutionID: plaidInstitutionID,
			Name:               name,
			Logo:               opts.Logo,
			PrimaryColor:       opts.PrimaryColor,
			URL:                opts.URL,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		created = true
		return tx.Create(s.collection(userID).Doc(inst.ID), inst)
	})
	if err != nil {
		switch err.(type) {
		case *errs.CapacityError:
			return nil, false, err
		default:
			return nil, false, errs.NewDatabaseError("institution.findOrCreate", err.Error())
		}
	}
	return &inst, created, nil
}

// DeleteCascade removes an institution together with its accounts and items
// in a single transaction: either everything goes or nothing does.
func (s *institutionStore) DeleteCascade(ctx context.Context, userID, institutionID string) (dto.CascadeResult, error) {
	var result dto.CascadeResult

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection(userID).Doc(institutionID)
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError("Institution not found")
			}
			return err
		}

		accounts, err := tx.Documents(s.accounts(userID).Where("institutionId", "==", institutionID)).GetAll()
		if err != nil {
			return err
		}
		items, err := tx.Documents(s.items(userID).Where("institutionId", "==", institutionID)).GetAll()
		if err != nil {
			return err
		}

		for _, d := range accounts {
			if err := tx.Delete(d.Ref); err != nil {
				return err
			}
		}
		for _, d := range items {
			if err := tx.Delete(d.Ref); err != nil {
				return err
			}
		}
		if err := tx.Delete(ref); err != nil {
			return err
		}

		result.AccountCount = len(accounts)
		result.ItemCount = len(items)
		return nil
	})
	if err != nil {
		if _, ok := err.(*errs.NotFoundError); ok {
			return dto.CascadeResult{}, err
		}
		return dto.CascadeResult{}, errs.NewDatabaseError("institution.deleteCascade", err.Error())
	}
	return result, nil
}

func (s *institutionStore) CountAll(ctx context.Context) (int, error) {
	docs, err := s.client.CollectionGroup("institutions").Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("institution.countAll", err.Error())
	}
	return len(docs), nil
}
