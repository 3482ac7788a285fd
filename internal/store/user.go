package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
)

type userStore struct {
	Client     *firestore.Client
	Collection *firestore.CollectionRef
}

func NewUserStore(client *firestore.Client) *userStore {
	return &userStore{
		Client:     client,
		Collection: client.Collection("users"),
	}
}

func (us *userStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := us.Collection.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("user.get", err.Error())
	}
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("user.decode", err.Error())
	}
	return &user, nil
}

func (us *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := us.Collection.Where("emailLower", "==", strings.ToLower(email)).Limit(1)
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("user.findByEmail", err.Error())
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var user models.User
	if err := docs[0].DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("user.decode", err.Error())
	}
	return &user, nil
}

// FindOrCreateByEmail provisions a user on first login. The lookup, the
// admin-exists check and the create run in one transaction, so two concurrent
// first logins with the same email resolve to a single user and only the
// first user ever created gets the admin flag.
func (us *userStore) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := us.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		lower := strings.ToLower(email)

		docs, err := tx.Documents(us.Collection.Where("emailLower", "==", lower).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return docs[0].DataTo(&user)
		}

		admins, err := tx.Documents(us.Collection.Where("isAdmin", "==", true).Limit(1)).GetAll()
		if err != nil {
			return err
		}

		now := time.Now()
		user = models.User{
			ID:         uuid.NewString(),
			Email:      email,
			EmailLower: lower,
			IsAdmin:    len(admins) == 0,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Create(us.Collection.Doc(user.ID), user)
	})
	if err != nil {
		return nil, errs.NewDatabaseError("user.findOrCreate", err.Error())
	}
	return &user, nil
}

func (us *userStore) AdminExists(ctx context.Context) (bool, error) {
	docs, err := us.Collection.Where("isAdmin", "==", true).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, errs.NewDatabaseError("user.adminExists", err.Error())
	}
	return len(docs) > 0, nil
}

// SetActive updates the activation flag; a nil value toggles the stored one.
// The read-modify-write runs transactionally so concurrent toggles don't
// lose updates.
func (us *userStore) SetActive(ctx context.Context, id string, active *bool) (*models.User, error) {
	var user models.User

	err := us.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(us.Collection.Doc(id))
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("user not found")
		}
		if err != nil {
			return err
		}
		if err := doc.DataTo(&user); err != nil {
			return err
		}

		next := !user.Active
		if active != nil {
			next = *active
		}
		user.Active = next
		user.UpdatedAt = time.Now()
		return tx.Set(us.Collection.Doc(id), user)
	})
	if err != nil {
		if _, ok := err.(*errs.NotFoundError); ok {
			return nil, err
		}
		return nil, errs.NewDatabaseError("user.setActive", err.Error())
	}
	return &user, nil
}

// List applies the admin directory filters. Firestore has no case-insensitive
// substring operator, so the search filter runs in memory over the fetched
// set; the directory is small enough that this beats maintaining an index.
func (us *userStore) List(ctx context.Context, q dto.UserListQuery) ([]*models.User, int, error) {
	docs, err := us.Collection.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errs.NewDatabaseError("user.list", err.Error())
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]*models.User, 0, len(docs))
	for _, d := range docs {
		var u models.User
		if err := d.DataTo(&u); err != nil {
			return nil, 0, errs.NewDatabaseError("user.decode", err.Error())
		}
		if search != "" && !strings.Contains(u.EmailLower, search) {
			continue
		}
		if q.Active == "active" && !u.Active {
			continue
		}
		if q.Active == "inactive" && u.Active {
			continue
		}
		if q.Role == "admin" && !u.IsAdmin {
			continue
		}
		if q.Role == "user" && u.IsAdmin {
			continue
		}
		matched = append(matched, &u)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (q.Page - 1) * q.PageSize
	if start >= total {
		return []*models.User{}, total, nil
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (us *userStore) CountAll(ctx context.Context) (int, error) {
	docs, err := us.Collection.Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("user.countAll", err.Error())
	}
	return len(docs), nil
}

func (us *userStore) settingsDoc(userID string) *firestore.DocumentRef {
	return us.Collection.Doc(userID).Collection("settings").Doc("preferences")
}

func (us *userStore) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	doc, err := us.settingsDoc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("settings.get", err.Error())
	}
	var s models.UserSettings
	if err := doc.DataTo(&s); err != nil {
		return nil, errs.NewDatabaseError("settings.decode", err.Error())
	}
	return &s, nil
}

// UpdateSettings merges only the flags present in the patch, creating the
// settings doc on first write.
func (us *userStore) UpdateSettings(ctx context.Context, userID string, patch dto.SettingsPatch) (*models.UserSettings, error) {
	var saved models.UserSettings

	err := us.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := us.settingsDoc(userID)
		doc, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			if err := doc.DataTo(&saved); err != nil {
				return err
			}
		}

		if patch.EnableActual != nil {
			saved.EnableActual = patch.EnableActual
		}
		if patch.EnableEmailExport != nil {
			saved.EnableEmailExport = patch.EnableEmailExport
		}
		saved.UpdatedAt = time.Now()
		return tx.Set(ref, saved)
	})
	if err != nil {
		return nil, errs.NewDatabaseError("settings.update", err.Error())
	}
	return &saved, nil
}
