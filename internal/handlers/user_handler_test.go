package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/services"
	"github.com/foodbridge/foodbridge/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "access-secret",
		RefreshSecret: "refresh-secret",
		TokenExpiry:   15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	}
}

func newTestUserHandler(t *testing.T) (*UserHandler, *services.UserService) {
	t.Helper()
	cfg := testConfig()
	svc := services.NewUserService(newFakeUserStore(), newFakeTokenStore(), &fakeNotificationStore{}, &fakeStorage{}, cfg)
	return NewUserHandler(svc, cfg), svc
}

func seedUser(t *testing.T, svc *services.UserService) *models.User {
	t.Helper()
	user, err := svc.RegisterUser(context.Background(), &services.RegisterInput{
		Username: "ann",
		Email:    "ann@x.com",
		Password: "secret1",
		Role:     models.RoleDonor,
		Phone:    "555-0100",
		Avatar: &services.FileUpload{
			Name:        "avatar.jpg",
			ContentType: "image/jpeg",
			Content:     strings.NewReader("image-bytes"),
		},
	})
	require.NoError(t, err)
	return user
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestRegisterUserHandler(t *testing.T) {
	h, _ := newTestUserHandler(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("username", "Ann"))
	require.NoError(t, form.WriteField("email", "ann@x.com"))
	require.NoError(t, form.WriteField("password", "secret1"))
	require.NoError(t, form.WriteField("role", models.RoleDonor))
	require.NoError(t, form.WriteField("phone", "555-0100"))
	file, err := form.CreateFormFile("avatar", "avatar.jpg")
	require.NoError(t, err)
	_, err = file.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		StatusCode int                    `json:"statusCode"`
		Data       map[string]interface{} `json:"data"`
		Success    bool                   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "ann", body.Data["username"])
	assert.NotContains(t, rec.Body.String(), "secret1")
}

func TestRegisterUserHandlerMissingAvatar(t *testing.T) {
	h, _ := newTestUserHandler(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("username", "Ann"))
	require.NoError(t, form.WriteField("email", "ann@x.com"))
	require.NoError(t, form.WriteField("password", "secret1"))
	require.NoError(t, form.WriteField("role", models.RoleDonor))
	require.NoError(t, form.WriteField("phone", "555-0100"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUserHandlerSetsCookies(t *testing.T) {
	h, svc := newTestUserHandler(t)
	seedUser(t, svc)

	payload := `{"email":"ann@x.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.LoginUserHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := cookieByName(t, rec, name)
		assert.NotEmpty(t, cookie.Value, "%s cookie carries the token", name)
		assert.True(t, cookie.HttpOnly, "%s cookie must be http-only", name)
		assert.True(t, cookie.Secure, "%s cookie must be secure", name)
		assert.Equal(t, "/", cookie.Path)
	}

	var body struct {
		Data struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, cookieByName(t, rec, "accessToken").Value, body.Data.AccessToken)
	assert.Equal(t, cookieByName(t, rec, "refreshToken").Value, body.Data.RefreshToken)
}

func TestLoginUserHandlerBadCredentials(t *testing.T) {
	h, svc := newTestUserHandler(t)
	seedUser(t, svc)

	payload := `{"email":"ann@x.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.LoginUserHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "no session cookies on a failed login")
}

func TestLogoutUserHandlerClearsCookies(t *testing.T) {
	h, svc := newTestUserHandler(t)
	user := seedUser(t, svc)

	pair, err := svc.IssueTokens(context.Background(), user)
	require.NoError(t, err)

	handler := middleware.AuthMiddleware(testConfig().JWTSecret, svc)(http.HandlerFunc(h.LogoutUserHandler))
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := cookieByName(t, rec, name)
		assert.Empty(t, cookie.Value, "%s cookie is emptied", name)
		assert.Less(t, cookie.MaxAge, 0, "%s cookie is expired", name)
	}

	// The stored refresh token is gone, so the pair is dead.
	_, _, err = svc.RefreshTokens(context.Background(), pair.RefreshToken)
	assert.Error(t, err)
}
