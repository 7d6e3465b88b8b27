package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- in-memory fakes for the store interfaces ---

type fakeStorage struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	saveErr error
	onSave  func()
}

func (f *fakeStorage) Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if f.onSave != nil {
		f.onSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://img.test/" + key
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeUserStore struct {
	users     map[primitive.ObjectID]*models.User
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
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
	user.UpdatedAt = time.Now()
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
	saveErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		tokens:  make(map[primitive.ObjectID]string),
		expires: make(map[primitive.ObjectID]time.Time),
	}
}

func (f *fakeTokenStore) Save(ctx context.Context, userID primitive.ObjectID, token string, expiresAt time.Time) error {
	if f.saveErr != nil {
		return f.saveErr
	}
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

type fakeListingStore struct {
	listings  map[primitive.ObjectID]*models.Listing
	createErr error
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: make(map[primitive.ObjectID]*models.Listing)}
}

func (f *fakeListingStore) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	listing.ID = primitive.NewObjectID()
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = time.Now()
	f.listings[listing.ID] = listing
	return listing, nil
}

func (f *fakeListingStore) GetListingByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	listing, ok := f.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return listing, nil
}

func (f *fakeListingStore) GetAvailableListings(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range f.listings {
		if l.Status == models.ListingStatusAvailable && l.ExpiryDate.After(time.Now()) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListingStore) ClaimListing(ctx context.Context, id, claimantID primitive.ObjectID) (*models.Listing, error) {
	listing, ok := f.listings[id]
	if !ok || listing.Status != models.ListingStatusAvailable || !listing.ExpiryDate.After(time.Now()) {
		return nil, repository.ErrNotAvailable
	}
	now := time.Now()
	listing.Status = models.ListingStatusClaimed
	listing.ClaimedBy = &claimantID
	listing.ClaimedAt = &now
	listing.UpdatedAt = now
	return listing, nil
}

func (f *fakeListingStore) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, l := range f.listings {
		if l.Status != models.ListingStatusExpired && !l.ExpiryDate.After(now) {
			l.Status = models.ListingStatusExpired
			l.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

type fakeNotificationStore struct {
	created   []*models.Notification
	createErr error
}

func (f *fakeNotificationStore) CreateNotification(ctx context.Context, notif *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	notif.ID = primitive.NewObjectID()
	f.created = append(f.created, notif)
	return nil
}

func (f *fakeNotificationStore) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkAsRead(ctx context.Context, notifID, userID primitive.ObjectID) error {
	for _, n := range f.created {
		if n.ID == notifID && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeNotificationStore) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	var kept []*models.Notification
	for _, n := range f.created {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	f.created = kept
	return nil
}

func upload(name string) *FileUpload {
	return &FileUpload{
		Name:        name,
		ContentType: "image/jpeg",
		Content:     strings.NewReader("image-bytes"),
	}
}

var errStoreDown = errors.New("store down")
