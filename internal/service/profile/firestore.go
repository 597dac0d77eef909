package profile

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/freebies-japan/api/internal/platform/logging"
)

const profilesCollection = "profiles"

// firestoreProfile maps to Firestore document structure.
type firestoreProfile struct {
	DisplayName string    `firestore:"display_name"`
	Email       string    `firestore:"email"`
	PhoneNumber string    `firestore:"phone_number"`
	PostalCode  string    `firestore:"postal_code"`
	Prefecture  string    `firestore:"prefecture"`
	City        string    `firestore:"city"`
	Address     string    `firestore:"address"`
	Marketing   bool      `firestore:"marketing"`
	Terms       bool      `firestore:"terms"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func toFirestore(p *Profile) firestoreProfile {
	return firestoreProfile{
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		PostalCode:  p.PostalCode,
		Prefecture:  p.Prefecture,
		City:        p.City,
		Address:     p.Address,
		Marketing:   p.Marketing,
		Terms:       p.Terms,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromFirestore(userID string, fp firestoreProfile) *Profile {
	return &Profile{
		ID:          userID,
		DisplayName: fp.DisplayName,
		Email:       fp.Email,
		PhoneNumber: fp.PhoneNumber,
		PostalCode:  fp.PostalCode,
		Prefecture:  fp.Prefecture,
		City:        fp.City,
		Address:     fp.Address,
		Marketing:   fp.Marketing,
		Terms:       fp.Terms,
		CreatedAt:   fp.CreatedAt,
		UpdatedAt:   fp.UpdatedAt,
	}
}

// FirestoreStore implements Service using Firestore with transactions.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func audit(ctx context.Context, action, userID string, err error) {
	applog.AuditResult(ctx, applog.AuditEvent{
		Action:       action,
		ActorID:      userID,
		ResourceType: "profile",
		ResourceID:   userID,
	}, err, categorizeError)
}

// Create creates a new profile using a transaction to prevent duplicates.
func (s *FirestoreStore) Create(ctx context.Context, userID string, params CreateParams) (*Profile, error) {
	if !params.Terms {
		audit(ctx, "create", userID, ErrTermsRequired)
		return nil, ErrTermsRequired
	}

	docRef := s.client.Collection(profilesCollection).Doc(userID)
	result := newProfile(userID, params, time.Now().UTC())

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err == nil && doc.Exists() {
			return ErrAlreadyExists
		}
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		return tx.Set(docRef, toFirestore(result))
	})
	audit(ctx, "create", userID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a profile by user ID.
func (s *FirestoreStore) Get(ctx context.Context, userID string) (*Profile, error) {
	doc, err := s.client.Collection(profilesCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return nil, err
	}
	return fromFirestore(userID, fp), nil
}

// Update updates a profile using a transaction for atomicity.
func (s *FirestoreStore) Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error) {
	docRef := s.client.Collection(profilesCollection).Doc(userID)

	var result *Profile

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		var fp firestoreProfile
		if err := doc.DataTo(&fp); err != nil {
			return err
		}

		p := fromFirestore(userID, fp)
		applyUpdate(p, params, time.Now().UTC())
		if err := tx.Set(docRef, toFirestore(p)); err != nil {
			return err
		}
		result = p
		return nil
	})
	audit(ctx, "update", userID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a profile using a transaction to ensure it exists.
func (s *FirestoreStore) Delete(ctx context.Context, userID string) error {
	docRef := s.client.Collection(profilesCollection).Doc(userID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		return tx.Delete(docRef)
	})
	audit(ctx, "delete", userID, err)
	return err
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
