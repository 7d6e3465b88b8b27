package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/repository"
	"github.com/foodbridge/foodbridge/internal/storage"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	jwtutil "github.com/foodbridge/foodbridge/pkg/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService encapsulates account, session and profile-image logic.
type UserService struct {
	users         UserStore
	tokens        TokenStore
	notifications NotificationStore
	store         storage.Storage
	cfg           *config.Config
}

// NewUserService creates a new instance of UserService.
func NewUserService(users UserStore, tokens TokenStore, notifications NotificationStore, store storage.Storage, cfg *config.Config) *UserService {
	return &UserService{
		users:         users,
		tokens:        tokens,
		notifications: notifications,
		store:         store,
		cfg:           cfg,
	}
}

// RegisterInput carries the multipart registration payload.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	Role       string
	Phone      string
	Avatar     *FileUpload
	CoverImage *FileUpload
}

// TokenPair is an access/refresh token set issued at login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterUser validates the payload, stages the profile images on the
// image host and creates the account. Passwords are hashed here, as an
// explicit step before persistence. If the insert fails the staged
// uploads are reclaimed.
func (s *UserService) RegisterUser(ctx context.Context, input *RegisterInput) (*models.User, error) {
	logrus.Info("Registering new user")

	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.Phone)

	if username == "" || email == "" || input.Password == "" || input.Role == "" || phone == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, httpapi.BadRequest("All fields are required")
	}
	if !emailRegex.MatchString(email) {
		logrus.WithField("email", email).Warn("Invalid email format during registration")
		return nil, httpapi.BadRequest("Invalid email format")
	}
	if len(input.Password) < 6 {
		return nil, httpapi.BadRequest("Password must be at least 6 characters long")
	}
	if !models.ValidRole(input.Role) {
		return nil, httpapi.BadRequest("Role must be donor or recipient")
	}
	if input.Avatar == nil {
		return nil, httpapi.BadRequest("Avatar image is required")
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, email, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}
	if existing != nil {
		logrus.WithField("email", email).Warn("Email or username already in use")
		return nil, httpapi.Conflict("User with given email or username already exists")
	}

	avatarURL, err := s.store.Save(ctx, uploadKey("avatars", input.Avatar.Name), input.Avatar.Content, input.Avatar.ContentType)
	if err != nil {
		logrus.WithError(err).Error("Failed to upload avatar")
		return nil, httpapi.Internal("Error while uploading avatar image")
	}

	coverURL := ""
	if input.CoverImage != nil {
		coverURL, err = s.store.Save(ctx, uploadKey("covers", input.CoverImage.Name), input.CoverImage.Content, input.CoverImage.ContentType)
		if err != nil {
			logrus.WithError(err).Error("Failed to upload cover image")
			s.reclaim(ctx, avatarURL)
			return nil, httpapi.Internal("Error while uploading cover image")
		}
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		s.reclaim(ctx, avatarURL, coverURL)
		return nil, httpapi.Internal("Something went wrong while registering user")
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hashedPwd),
		Role:           input.Role,
		Phone:          phone,
		Avatar:         avatarURL,
		CoverImage:     coverURL,
	}

	createdUser, err := s.users.CreateUser(ctx, user)
	if err != nil {
		s.reclaim(ctx, avatarURL, coverURL)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, httpapi.Conflict("User with given email, username or phone already exists")
		}
		logrus.WithError(err).Error("User registration failed")
		return nil, httpapi.Internal("Something went wrong while registering user")
	}

	logrus.WithFields(logrus.Fields{
		"userID": createdUser.ID.Hex(),
		"role":   createdUser.Role,
	}).Info("User registered successfully")
	return createdUser, nil
}

// AuthenticateUser verifies the identifier (email or username) and
// password. Unknown identity and wrong password are indistinguishable to
// the caller.
func (s *UserService) AuthenticateUser(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	logrus.WithField("identifier", identifier).Info("Authenticating user")

	if identifier == "" || password == "" {
		return nil, httpapi.BadRequest("Username or email and password are required")
	}

	user, err := s.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		logrus.WithField("identifier", identifier).Warn("User not found")
		return nil, httpapi.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("identifier", identifier).Warn("Invalid credentials")
		return nil, httpapi.Unauthorized("Invalid credentials")
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// IssueTokens signs an access/refresh pair and persists the refresh token
// record, overwriting any prior one for this user.
func (s *UserService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := jwtutil.GenerateAccessToken(user.ID.Hex(), user.Email, user.Username, user.Role, s.cfg.JWTSecret, s.cfg.TokenExpiry)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate access token")
		return nil, httpapi.Internal("Something went wrong while generating tokens")
	}

	refreshToken, err := jwtutil.GenerateRefreshToken(user.ID.Hex(), s.cfg.RefreshSecret, s.cfg.RefreshExpiry)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate refresh token")
		return nil, httpapi.Internal("Something went wrong while generating tokens")
	}

	if err := s.tokens.Save(ctx, user.ID, refreshToken, time.Now().Add(s.cfg.RefreshExpiry)); err != nil {
		logrus.WithError(err).Error("Failed to persist refresh token")
		return nil, httpapi.Internal("Something went wrong while generating tokens")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshTokens rotates the presented refresh token for a new pair. The
// rotation is a single conditional write, so a stale or reused token is
// rejected even under concurrent refresh calls.
func (s *UserService) RefreshTokens(ctx context.Context, presented string) (*models.User, *TokenPair, error) {
	claims, err := jwtutil.ParseRefreshToken(presented, s.cfg.RefreshSecret)
	if err != nil {
		logrus.WithError(err).Warn("Invalid refresh token")
		return nil, nil, httpapi.Unauthorized("Invalid refresh token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, nil, httpapi.Unauthorized("Invalid refresh token")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logrus.WithField("userID", claims.UserID).Warn("Refresh token for unknown user")
		return nil, nil, httpapi.Unauthorized("Invalid refresh token - user not found")
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.ID.Hex(), user.Email, user.Username, user.Role, s.cfg.JWTSecret, s.cfg.TokenExpiry)
	if err != nil {
		return nil, nil, httpapi.Internal("Something went wrong while generating tokens")
	}
	newRefresh, err := jwtutil.GenerateRefreshToken(user.ID.Hex(), s.cfg.RefreshSecret, s.cfg.RefreshExpiry)
	if err != nil {
		return nil, nil, httpapi.Internal("Something went wrong while generating tokens")
	}

	err = s.tokens.Rotate(ctx, user.ID, presented, newRefresh, time.Now().Add(s.cfg.RefreshExpiry))
	if err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			logrus.WithField("userID", user.ID.Hex()).Warn("Refresh token is expired or already used")
			return nil, nil, httpapi.Unauthorized("Refresh token is expired or used")
		}
		return nil, nil, httpapi.Internal("Something went wrong while refreshing tokens")
	}

	return user, &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout invalidates the user's refresh token.
func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.tokens.Delete(ctx, userID); err != nil {
		logrus.WithError(err).Error("Failed to clear refresh token")
		return httpapi.Internal("Something went wrong while logging out")
	}
	logrus.WithField("userID", userID.Hex()).Info("User logged out")
	return nil
}

// GetUser retrieves a user by their hex ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, httpapi.BadRequest("Invalid user ID")
	}

	user, err := s.users.GetUserByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, httpapi.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the old password and stores a hash of the new
// one.
func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return httpapi.BadRequest("Old password and new password are required")
	}
	if oldPassword == newPassword {
		return httpapi.BadRequest("New password must be different from old password")
	}
	if len(newPassword) < 6 {
		return httpapi.BadRequest("Password must be at least 6 characters long")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return httpapi.Unauthorized("Unauthorized request")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(oldPassword)); err != nil {
		return httpapi.BadRequest("Old password is incorrect")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return httpapi.Internal("Something went wrong while changing password")
	}

	if _, err := s.users.UpdateUserFields(ctx, userID, map[string]interface{}{
		"hashed_password": string(hashedPwd),
	}); err != nil {
		logrus.WithError(err).Error("Failed to update password")
		return httpapi.Internal("Something went wrong while changing password")
	}

	logrus.WithField("userID", userID.Hex()).Info("Password changed")
	return nil
}

// UpdateDetails updates username and/or phone.
func (s *UserService) UpdateDetails(ctx context.Context, userID primitive.ObjectID, username, phone string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	phone = strings.TrimSpace(phone)

	if username == "" && phone == "" {
		return nil, httpapi.BadRequest("At least one field is required to update")
	}

	fields := map[string]interface{}{}
	if username != "" {
		fields["username"] = username
	}
	if phone != "" {
		fields["phone"] = phone
	}

	user, err := s.users.UpdateUserFields(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, httpapi.Conflict("Username or phone already in use")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, httpapi.NotFound("User not found")
		}
		return nil, httpapi.Internal("Something went wrong while updating user details")
	}
	return user, nil
}

// UpdateAvatar swaps the user's avatar in two phases: stage the new
// object, commit the reference, then reclaim the old object. On commit
// failure the staged object is reclaimed instead.
func (s *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, upload *FileUpload) (*models.User, error) {
	return s.swapImage(ctx, userID, upload, "avatar", "avatars")
}

// UpdateCoverImage swaps the user's cover image, same discipline as
// UpdateAvatar.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, upload *FileUpload) (*models.User, error) {
	return s.swapImage(ctx, userID, upload, "cover_image", "covers")
}

func (s *UserService) swapImage(ctx context.Context, userID primitive.ObjectID, upload *FileUpload, field, prefix string) (*models.User, error) {
	if upload == nil {
		return nil, httpapi.BadRequest("Image file is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, httpapi.Unauthorized("Unauthorized request")
	}

	oldURL := user.Avatar
	if field == "cover_image" {
		oldURL = user.CoverImage
	}

	newURL, err := s.store.Save(ctx, uploadKey(prefix, upload.Name), upload.Content, upload.ContentType)
	if err != nil {
		logrus.WithError(err).Error("Failed to upload image")
		return nil, httpapi.Internal("Error while uploading image")
	}

	// The commit only matches while the stored URL is still oldURL, so
	// of two concurrent swaps exactly one lands; the loser reclaims its
	// staged object.
	updated, err := s.users.SwapImageURL(ctx, userID, field, oldURL, newURL)
	if err != nil {
		s.reclaim(ctx, newURL)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, httpapi.Conflict("Image was updated by another request")
		}
		logrus.WithError(err).Error("Failed to commit image swap")
		return nil, httpapi.Internal("Something went wrong while updating image")
	}

	// Reclaim the replaced object; a failure here is logged, not surfaced.
	s.reclaim(ctx, oldURL)

	logrus.WithFields(logrus.Fields{
		"userID": userID.Hex(),
		"field":  field,
	}).Info("Profile image updated")
	return updated, nil
}

// DeleteUser removes the account, its hosted images, its refresh token
// record and its notifications. Listings are intentionally not cascaded.
func (s *UserService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpapi.NotFound("User not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	s.reclaim(ctx, user.Avatar, user.CoverImage)

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		logrus.WithError(err).Error("Failed to delete user")
		return httpapi.Internal("Something went wrong while deleting user")
	}

	if err := s.tokens.Delete(ctx, userID); err != nil {
		logrus.WithError(err).Warn("Failed to delete refresh token record")
	}
	if err := s.notifications.DeleteForUser(ctx, userID); err != nil {
		logrus.WithError(err).Warn("Failed to delete user notifications")
	}

	logrus.WithField("userID", userID.Hex()).Info("User deleted")
	return nil
}

// reclaim best-effort deletes hosted objects, logging failures.
func (s *UserService) reclaim(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.store.Delete(ctx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Warn("Failed to delete hosted image")
		}
	}
}

func uploadKey(prefix, filename string) string {
	return prefix + "/" + uuid.NewString() + filepath.Ext(filename)
}
