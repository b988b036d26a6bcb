package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_ExpiresEntries(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestUserIDFromEmail(t *testing.T) {
	id := UserIDFromEmail("User@Example.com ")
	assert.Equal(t, id, UserIDFromEmail("user@example.com"))
	assert.True(t, strings.HasPrefix(id, "user-"))
	assert.Len(t, id, len("user-")+16)
	assert.NotEqual(t, id, UserIDFromEmail("other@example.com"))
}

func TestHTTPClient_GetBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("X-Mock-Data", "1")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(nil)
	body, err := client.GetBody(t.Context(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	_, err = client.GetBody(t.Context(), srv.URL+"/missing")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)

	resp, err := client.Get(t.Context(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Header.Get("X-Mock-Data"))
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

type signup struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func TestValidationFailed_FieldMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"123"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req signup
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	ValidationFailed(c, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "must be a valid email address", resp.Data["email"])
	assert.Equal(t, "password must be at least 6 characters", resp.Data["password"])
}
