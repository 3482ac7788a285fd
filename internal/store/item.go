package store

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
)

type itemStore struct {
	client *firestore.Client
}

func NewItemStore(client *firestore.Client) *itemStore {
	return &itemStore{client: client}
}

func (s *itemStore) collection(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("items")
}

// Create persists one token grant. The Plaid item id is the doc key, so a
// duplicate exchange for the same item surfaces as AlreadyExists instead of
// silently overwriting the stored ciphertext.
func (s *itemStore) Create(ctx context.Context, userID string, item *models.PlaidItem) error {
	_, err := s.collection(userID).Doc(item.PlaidItemID).Create(ctx, item)
	if status.Code(err) == codes.AlreadyExists {
		return errs.NewAlreadyExistsError("item already linked")
	}
	if err != nil {
		return errs.NewDatabaseError("item.create", err.Error())
	}
	return nil
}

func (s *itemStore) FindByPlaidItemID(ctx context.Context, userID, plaidItemID string) (*models.PlaidItem, error) {
	doc, err := s.collection(userID).Doc(plaidItemID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("item.get", err.Error())
	}
	var item models.PlaidItem
	if err := doc.DataTo(&item); err != nil {
		return nil, errs.NewDatabaseError("item.decode", err.Error())
	}
	return &item, nil
}

func (s *itemStore) ListForUser(ctx context.Context, userID string) ([]*models.PlaidItem, error) {
	docs, err := s.collection(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("item.list", err.Error())
	}
	out := make([]*models.PlaidItem, 0, len(docs))
	for _, d := range docs {
		var item models.PlaidItem
		if err := d.DataTo(&item); err != nil {
			return nil, errs.NewDatabaseError("item.decode", err.Error())
		}
		out = append(out, &item)
	}
	return out, nil
}

// FindByUserAndProduct returns the first item whose product list contains the
// given product. The comma-joined list is filtered in memory; Firestore has
// no substring operator.
func (s *itemStore) FindByUserAndProduct(ctx context.Context, userID, product string) (*models.PlaidItem, error) {
	items, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		for _, p := range strings.Split(item.Products, ",") {
			if strings.TrimSpace(p) == product {
				return item, nil
			}
		}
	}
	return nil, nil
}
