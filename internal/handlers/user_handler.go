package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/foodbridge/foodbridge/internal/services"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	"github.com/foodbridge/foodbridge/pkg/middleware"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxUploadSize = 10 << 20 // 10 MB multipart limit

// UserHandler handles HTTP requests related to accounts and sessions.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

// RegisterUserHandler handles user registration with an avatar upload.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("RegisterUserHandler called")

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.WithError(err).Warn("Failed to parse registration form")
		httpapi.Err(w, httpapi.BadRequest("Invalid multipart payload"))
		return
	}

	input := &services.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Role:     r.FormValue("role"),
		Phone:    r.FormValue("phone"),
	}

	avatar, closeAvatar, err := formFile(r, "avatar")
	if err != nil {
		httpapi.Err(w, httpapi.BadRequest("Avatar image is required"))
		return
	}
	defer closeAvatar()
	input.Avatar = avatar

	if cover, closeCover, err := formFile(r, "coverImage"); err == nil {
		defer closeCover()
		input.CoverImage = cover
	}

	createdUser, err := h.Service.RegisterUser(r.Context(), input)
	if err != nil {
		log.WithError(err).Warn("Failed to register user")
		httpapi.Err(w, err)
		return
	}

	log.WithField("userID", createdUser.ID.Hex()).Info("User registered successfully")
	httpapi.JSON(w, http.StatusCreated, createdUser, "User registered successfully")
}

// LoginUserHandler authenticates by email or username and issues the
// access/refresh pair as http-only cookies and in the body.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("LoginUserHandler called")
	var credentials struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		httpapi.Err(w, httpapi.BadRequest("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	identifier := credentials.Email
	if identifier == "" {
		identifier = credentials.Username
	}

	user, err := h.Service.AuthenticateUser(r.Context(), identifier, credentials.Password)
	if err != nil {
		log.WithField("identifier", identifier).Warn("Authentication failed")
		httpapi.Err(w, err)
		return
	}

	pair, err := h.Service.IssueTokens(r.Context(), user)
	if err != nil {
		httpapi.Err(w, err)
		return
	}

	h.setAuthCookies(w, pair)

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	httpapi.JSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

// LogoutUserHandler clears the stored refresh token and both cookies.
func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	if err := h.Service.Logout(r.Context(), userID); err != nil {
		httpapi.Err(w, err)
		return
	}

	h.clearAuthCookies(w)
	httpapi.JSON(w, http.StatusOK, map[string]interface{}{}, "User logged out successfully")
}

// RefreshTokenHandler rotates the refresh token from the cookie or body.
func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	incoming := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			incoming = body.RefreshToken
		}
	}
	if incoming == "" {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	_, pair, err := h.Service.RefreshTokens(r.Context(), incoming)
	if err != nil {
		httpapi.Err(w, err)
		return
	}

	h.setAuthCookies(w, pair)
	httpapi.JSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed successfully")
}

// ChangePasswordHandler verifies the old password and stores the new one.
func (h *UserHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpapi.Err(w, httpapi.BadRequest("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	if err := h.Service.ChangePassword(r.Context(), userID, body.OldPassword, body.NewPassword); err != nil {
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusOK, map[string]interface{}{}, "Password changed successfully")
}

// UpdateDetailsHandler updates username and/or phone.
func (h *UserHandler) UpdateDetailsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	var body struct {
		Username string `json:"username"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpapi.Err(w, httpapi.BadRequest("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	user, err := h.Service.UpdateDetails(r.Context(), userID, body.Username, body.Phone)
	if err != nil {
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusOK, user, "User details updated successfully")
}

// CurrentUserHandler returns the persisted identity of the caller.
func (h *UserHandler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	user, err := h.Service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		// A valid token whose identity no longer exists is unauthorized,
		// not a lookup miss.
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	httpapi.JSON(w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAvatarHandler swaps the avatar image.
func (h *UserHandler) UpdateAvatarHandler(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar")
}

// UpdateCoverImageHandler swaps the cover image.
func (h *UserHandler) UpdateCoverImageHandler(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage")
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpapi.Err(w, httpapi.BadRequest("Invalid multipart payload"))
		return
	}

	upload, closeFile, err := formFile(r, field)
	if err != nil {
		httpapi.Err(w, httpapi.BadRequest("Image file is required"))
		return
	}
	defer closeFile()

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	var user interface{}
	if field == "avatar" {
		user, err = h.Service.UpdateAvatar(r.Context(), userID, upload)
	} else {
		user, err = h.Service.UpdateCoverImage(r.Context(), userID, upload)
	}
	if err != nil {
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusOK, user, "Image updated successfully")
}

// DeleteUserHandler deletes the caller's account and hosted images.
func (h *UserHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	if err := h.Service.DeleteUser(r.Context(), userID); err != nil {
		httpapi.Err(w, err)
		return
	}

	h.clearAuthCookies(w)
	httpapi.JSON(w, http.StatusOK, map[string]interface{}{}, "User deleted successfully")
}

func (h *UserHandler) setAuthCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  time.Now().Add(h.Config.TokenExpiry),
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  time.Now().Add(h.Config.RefreshExpiry),
		HttpOnly: true,
		Secure:   true,
	})
}

func (h *UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
		})
	}
}

// formFile wraps a multipart file as a service upload. The returned
// close func must be deferred by the caller.
func formFile(r *http.Request, field string) (*services.FileUpload, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	return fileUpload(file, header), func() { file.Close() }, nil
}

func fileUpload(file multipart.File, header *multipart.FileHeader) *services.FileUpload {
	return &services.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
}
