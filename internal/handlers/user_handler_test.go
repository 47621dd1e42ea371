package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/testutil"
)

type authResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func postJSON(t *testing.T, r http.Handler, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRegister(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	payload := map[string]string{
		"name":     "John",
		"email":    "john@x.com",
		"password": "Password123",
	}

	t.Run("Successful registration returns user and token", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/register", payload, "")
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

		var body authResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.True(t, body.Success)
		require.NotEmpty(t, body.Token)
		require.NotNil(t, body.User)
		require.Equal(t, "John", body.User.Name)
		require.Equal(t, "john@x.com", body.User.Email)
		require.Equal(t, "user", body.User.Role)
		require.NotContains(t, resp.Body.String(), "password", "パスワードがレスポンスに含まれないこと")
		require.NotContains(t, resp.Body.String(), "password_hash")
	})

	t.Run("Duplicate email is rejected", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/register", payload, "")
		require.Equal(t, http.StatusBadRequest, resp.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.False(t, body.Success)
		require.Equal(t, "User already exists with this email", body.Message)
	})

	t.Run("Missing fields are listed in validation errors", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/register", map[string]string{}, "")
		require.Equal(t, http.StatusBadRequest, resp.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, "Validation failed", body.Message)
		require.Len(t, body.Errors, 3) // name, email, password

		fields := make([]string, 0, len(body.Errors))
		for _, fe := range body.Errors {
			fields = append(fields, fe.Field)
		}
		require.Contains(t, fields, "name")
		require.Contains(t, fields, "email")
		require.Contains(t, fields, "password")
	})

	t.Run("Invalid email format is rejected", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/register", map[string]string{
			"name":     "Jane",
			"email":    "not-an-email",
			"password": "Password123",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestLogin(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	t.Run("Correct credentials return user and token", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/login", map[string]string{
			"email":    "normal_user@example.com",
			"password": "password123",
		}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var body authResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.True(t, body.Success)
		require.NotEmpty(t, body.Token)
		require.Equal(t, "normal_user@example.com", body.User.Email)
	})

	t.Run("Wrong password is 401", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/login", map[string]string{
			"email":    "normal_user@example.com",
			"password": "wrongpassword",
		}, "")
		require.Equal(t, http.StatusUnauthorized, resp.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, "Invalid email or password", body.Message)
	})

	t.Run("Unknown email gets the same message as wrong password", func(t *testing.T) {
		// メールアドレスの存在有無を攻撃者に漏らさない
		resp := postJSON(t, r, "/api/auth/login", map[string]string{
			"email":    "nonexistent@example.com",
			"password": "password123",
		}, "")
		require.Equal(t, http.StatusUnauthorized, resp.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, "Invalid email or password", body.Message)
	})
}

func TestProfile(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	t.Run("Valid token returns the profile", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)

		var user models.User
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &user))
		require.Equal(t, "normal_user@example.com", user.Email)
		require.NotContains(t, resp.Body.String(), "password_hash")
	})

	t.Run("Missing token is 401", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("Garbage token is 401", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	t.Run("Forgot password always returns 200", func(t *testing.T) {
		// 登録済みメール
		resp := postJSON(t, r, "/api/auth/forgot-password", map[string]string{
			"email": "normal_user@example.com",
		}, "")
		require.Equal(t, http.StatusOK, resp.Code)

		// 未登録メールでも同じレスポンス（存在有無を漏らさない）
		resp = postJSON(t, r, "/api/auth/forgot-password", map[string]string{
			"email": "unknown@example.com",
		}, "")
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Reset with valid token changes the password", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/forgot-password", map[string]string{
			"email": "normal_user@example.com",
		}, "")
		require.Equal(t, http.StatusOK, resp.Code)

		// テストではメールの代わりにデータベースからトークンを取り出す
		var token string
		err := db.QueryRow(
			"SELECT token FROM password_reset_tokens WHERE used_at IS NULL ORDER BY id DESC LIMIT 1",
		).Scan(&token)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		resp = postJSON(t, r, "/api/auth/reset-password/"+token, map[string]string{
			"password": "newpassword456",
		}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		// 新しいパスワードでログインできる
		_, err = testutil.LoginAndGetToken(t, r, "normal_user@example.com", "newpassword456")
		require.NoError(t, err)

		// 古いパスワードではログインできない
		_, err = testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
		require.Error(t, err)

		// 同じトークンは再利用できない
		resp = postJSON(t, r, "/api/auth/reset-password/"+token, map[string]string{
			"password": "anotherpassword789",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Reset with bogus token is rejected", func(t *testing.T) {
		resp := postJSON(t, r, "/api/auth/reset-password/bogus-token", map[string]string{
			"password": "whatever123",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestLogout(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	resp := postJSON(t, r, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "Logged out successfully", body.Message)
}
