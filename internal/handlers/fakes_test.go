package handlers

import (
	"context"
	"io"
	"time"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the store interfaces, enough to drive the
// handlers through a real UserService.

type fakeStorage struct{}

func (f *fakeStorage) Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return "https://img.test/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error { return nil }

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email || u.Username == user.Username || u.Phone == user.Phone {
			return nil, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == identifier || u.Username == identifier {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for key, value := range fields {
		s, _ := value.(string)
		switch key {
		case "username":
			user.Username = s
		case "phone":
			user.Phone = s
		case "hashed_password":
			user.HashedPassword = s
		}
	}
	user.UpdatedAt = time.Now()
	return user, nil
}

func (f *fakeUserStore) SwapImageURL(ctx context.Context, id primitive.ObjectID, field, oldURL, newURL string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	current := user.Avatar
	if field == "cover_image" {
		current = user.CoverImage
	}
	if current != oldURL {
		return nil, repository.ErrNotFound
	}
	if field == "cover_image" {
		user.CoverImage = newURL
	} else {
		user.Avatar = newURL
	}
	return user, nil
}

func (f *fakeUserStore) AppendListing(ctx context.Context, userID, listingID primitive.ObjectID) error {
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Listings = append(user.Listings, listingID)
	return nil
}

func (f *fakeUserStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeTokenStore struct {
	tokens  map[primitive.ObjectID]string
	expires map[primitive.ObjectID]time.Time
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		tokens:  make(map[primitive.ObjectID]string),
		expires: make(map[primitive.ObjectID]time.Time),
	}
}

func (f *fakeTokenStore) Save(ctx context.Context, userID primitive.ObjectID, token string, expiresAt time.Time) error {
	f.tokens[userID] = token
	f.expires[userID] = expiresAt
	return nil
}

func (f *fakeTokenStore) Rotate(ctx context.Context, userID primitive.ObjectID, oldToken, newToken string, expiresAt time.Time) error {
	stored, ok := f.tokens[userID]
	if !ok || stored != oldToken || time.Now().After(f.expires[userID]) {
		return repository.ErrTokenMismatch
	}
	f.tokens[userID] = newToken
	f.expires[userID] = expiresAt
	return nil
}

func (f *fakeTokenStore) Delete(ctx context.Context, userID primitive.ObjectID) error {
	delete(f.tokens, userID)
	delete(f.expires, userID)
	return nil
}

type fakeNotificationStore struct{}

func (f *fakeNotificationStore) CreateNotification(ctx context.Context, notif *models.Notification) error {
	return nil
}

func (f *fakeNotificationStore) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationStore) MarkAsRead(ctx context.Context, notifID, userID primitive.ObjectID) error {
	return nil
}

func (f *fakeNotificationStore) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	return nil
}
