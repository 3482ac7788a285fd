package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
)

type accountStore struct {
	client *firestore.Client
}

func NewAccountStore(client *firestore.Client) *accountStore {
	return &accountStore{client: client}
}

func (s *accountStore) collection(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("accounts")
}

// Create inserts one account, counting the institution's existing accounts
// inside the transaction so the per-institution cap holds under concurrent
// linking.
func (s *accountStore) Create(ctx context.Context, userID string, account *models.Account, maxAccountsPerInstitution int) (*models.Account, error) {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(s.collection(userID).Where("institutionId", "==", account.InstitutionID)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) >= maxAccountsPerInstitution {
			return errs.NewCapacityError(fmt.Sprintf(
				"Account per institution limit (%d) reached for institution %s.",
				maxAccountsPerInstitution, account.InstitutionID))
		}

		now := time.Now()
		account.ID = uuid.NewString()
		account.UserID = userID
		account.CreatedAt = now
		account.UpdatedAt = now
		return tx.Create(s.collection(userID).Doc(account.ID), account)
	})
	if err != nil {
		if _, ok := err.(*errs.CapacityError); ok {
			return nil, err
		}
		return nil, errs.NewDatabaseError("account.create", err.Error())
	}
	return account, nil
}

// RemoveByID deletes an account owned by the user. A miss is an explicit
// not-found, applied uniformly with institution deletion.
func (s *accountStore) RemoveByID(ctx context.Context, userID, accountID string) error {
	_, err := s.collection(userID).Doc(accountID).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound || status.Code(err) == codes.FailedPrecondition {
		return errs.NewNotFoundError("Account not found")
	}
	if err != nil {
		return errs.NewDatabaseError("account.remove", err.Error())
	}
	return nil
}

func (s *accountStore) FindByPlaidItemID(ctx context.Context, userID, plaidItemID string) (*models.Account, error) {
	return s.findOne(ctx, s.collection(userID).Where("plaidItemId", "==", plaidItemID).Limit(1))
}

func (s *accountStore) FindByPlaidAccountID(ctx context.Context, userID, plaidAccountID string) (*models.Account, error) {
	return s.findOne(ctx, s.collection(userID).Where("plaidAccountId", "==", plaidAccountID).Limit(1))
}

func (s *accountStore) findOne(ctx context.Context, q firestore.Query) (*models.Account, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("account.find", err.Error())
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var a models.Account
	if err := docs[0].DataTo(&a); err != nil {
		return nil, errs.NewDatabaseError("account.decode", err.Error())
	}
	return &a, nil
}

func (s *accountStore) ListByInstitution(ctx context.Context, userID, institutionID string) ([]*models.Account, error) {
	return s.list(ctx, s.collection(userID).Where("institutionId", "==", institutionID))
}

func (s *accountStore) ListForUser(ctx context.Context, userID string) ([]*models.Account, error) {
	return s.list(ctx, s.collection(userID).Query)
}

func (s *accountStore) list(ctx context.Context, q firestore.Query) ([]*models.Account, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("account.list", err.Error())
	}
	out := make([]*models.Account, 0, len(docs))
	for _, d := range docs {
		var a models.Account
		if err := d.DataTo(&a); err != nil {
			return nil, errs.NewDatabaseError("account.decode", err.Error())
		}
		out = append(out, &a)
	}
	return out, nil
}

func (s *accountStore) CountForInstitution(ctx context.Context, userID, institutionID string) (int, error) {
	accounts, err := s.ListByInstitution(ctx, userID, institutionID)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}

func (s *accountStore) CountAll(ctx context.Context) (int, error) {
	docs, err := s.client.CollectionGroup("accounts").Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("account.countAll", err.Error())
	}
	return len(docs), nil
}
