package handler

import (
    "context"      // bounds DB calls made by auth endpoints
    "database/sql" // sql.ErrNoRows from user lookups
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/logger"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/utils"
)

// UserStore is implemented by *repository.UserRepo.
type UserStore interface {
    Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is implemented by *repository.TokenRepo.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

const authTimeout = 5 * time.Second

// ----- DTOs -----

// registerReq creates a guest account.  Staff accounts are provisioned
// by an administrator directly in the database.
type registerReq struct {
    Name     string `json:"name" validate:"required,max=255"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=8"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    Success bool      `json:"success"`
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue signs an access token, stores a fresh refresh token and builds
// the response body.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.Name, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        Success: true,
        User:    userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register creates a guest account and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RoleGuest, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return fail(c, http.StatusConflict, codeConflict, "email already exists")
        }
        return writeError(c, err)
    }
    resp, err := h.issue(ctx, model.User{ID: uid, Name: strings.TrimSpace(req.Name), Email: req.Email, Role: model.RoleGuest})
    if err != nil {
        return writeError(c, err)
    }
    logger.L().Info("guest registered", logger.UserID(uid))
    return c.JSON(http.StatusCreated, resp)
}

// Login verifies the password and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
        }
        return writeError(c, err)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        logger.L().Info("login refused", logger.UserID(u.ID))
        return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash, time.Now().UTC())
    if err != nil {
        if errors.Is(err, repository.ErrTokenInvalid) {
            return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh")
        }
        return writeError(c, err)
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        logger.L().Warn("revoke rotated refresh token failed", logger.UserID(userID), zap.Error(err))
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh")
        }
        return writeError(c, err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash, time.Now().UTC())
    if err != nil {
        if errors.Is(err, repository.ErrTokenInvalid) {
            return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh")
        }
        return writeError(c, err)
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh")
        }
        return writeError(c, err)
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.Name, h.Cfg.AccessTTLMin)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "access":  tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes one session when a refresh_token is sent, or every
// session of the bearer when only an access token is present.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
            uid, _ = claims.UserID()
        }
    }
    var req refreshReq
    _ = c.Bind(&req) // a missing body is fine when a bearer is present
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
    defer cancel()

    switch {
    case refreshToken != "":
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash, time.Now().UTC()); err != nil {
            if errors.Is(err, repository.ErrTokenInvalid) {
                return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh token")
            }
            return writeError(c, err)
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return writeError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    case uid > 0:
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return writeError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }
    return fail(c, http.StatusBadRequest, codeInvalidRequest, "provide Authorization header or refresh_token")
}

// Me echoes the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "user_id": uid,
        "role":    middleware.Role(c),
        "name":    middleware.Name(c),
    })
}
