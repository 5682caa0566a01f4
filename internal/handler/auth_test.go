package handler

import (
    "context"
    "database/sql"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/utils"
)

type memUsers struct {
    byEmail map[string]model.User
}

func (m *memUsers) Create(_ context.Context, name, email, password, role string, cost int) (uint64, error) {
    if _, taken := m.byEmail[email]; taken {
        return 0, repository.ErrEmailExists
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    id := uint64(len(m.byEmail) + 1)
    m.byEmail[email] = model.User{ID: id, Name: name, Email: email, PasswordHash: hash, Role: role}
    return id, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    u, found := m.byEmail[email]
    if !found {
        return model.User{}, sql.ErrNoRows
    }
    return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    for _, u := range m.byEmail {
        if u.ID == id {
            return u, nil
        }
    }
    return model.User{}, sql.ErrNoRows
}

type memTokens struct {
    owner   map[string]uint64
    revoked map[string]bool
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
    m.owner[hash] = userID
    return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string, _ time.Time) (uint64, error) {
    id, found := m.owner[hash]
    if !found || m.revoked[hash] {
        return 0, repository.ErrTokenInvalid
    }
    return id, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
    m.revoked[hash] = true
    return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    for h, id := range m.owner {
        if id == userID {
            m.revoked[h] = true
        }
    }
    return nil
}

func authRoutes(t *testing.T) (*echo.Echo, *memTokens) {
    t.Helper()
    cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
    tokens := &memTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
    h := NewAuthHandler(cfg, &memUsers{byEmail: map[string]model.User{}}, tokens)
    e := newEcho()
    e.POST("/v1/auth/register", h.Register)
    e.POST("/v1/auth/login", h.Login)
    e.POST("/v1/auth/refresh", h.Refresh)
    e.POST("/v1/auth/logout", h.Logout)
    e.GET("/v1/me", h.Me, middleware.JWTAuth(cfg.JWTSecret))
    return e, tokens
}

func TestRegisterLoginRefresh(t *testing.T) {
    e, _ := authRoutes(t)

    rec := do(e, http.MethodPost, "/v1/auth/register",
        `{"name":"Ada Lovelace","email":"Ada@Example.com","password":"correct-horse"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    user := decode(t, rec)["user"].(map[string]any)
    assert.Equal(t, model.RoleGuest, user["role"])
    assert.Equal(t, "ada@example.com", user["email"])

    rec = do(e, http.MethodPost, "/v1/auth/register",
        `{"name":"Ada","email":"ada@example.com","password":"correct-horse"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"wrong-horse"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"correct-horse"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    refresh := body["refresh"].(map[string]any)["token"].(string)

    rec = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
    require.Equal(t, http.StatusOK, rec.Code)

    // the rotated token is gone
    rec = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
    e, _ := authRoutes(t)
    rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"nobody@example.com","password":"x"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
    e, tokens := authRoutes(t)
    rec := do(e, http.MethodPost, "/v1/auth/register",
        `{"name":"Grace","email":"grace@example.com","password":"long-enough"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    access := decode(t, rec)["access"].(map[string]any)["token"].(string)

    req := func(method, path string) *http.Request {
        r, _ := http.NewRequest(method, path, nil)
        r.Header.Set("Authorization", "Bearer "+access)
        return r
    }

    rec = serveReq(e, req(http.MethodGet, "/v1/me"))
    require.Equal(t, http.StatusOK, rec.Code)
    me := decode(t, rec)
    assert.Equal(t, "Grace", me["name"])
    assert.Equal(t, model.RoleGuest, me["role"])

    rec = serveReq(e, req(http.MethodPost, "/v1/auth/logout"))
    assert.Equal(t, http.StatusNoContent, rec.Code)
    for h := range tokens.owner {
        assert.True(t, tokens.revoked[h])
    }

    rec = do(e, http.MethodPost, "/v1/auth/logout", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func serveReq(e *echo.Echo, r *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, r)
    return rec
}
