package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/pkg/config"
	"github.com/itsDrac/e-auc-live/pkg/jwt"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/itsDrac/e-auc-live/pkg/utils"
)

const usedRefreshKeyPrefix = "refresh:used:"

type AuthServicer interface {
	Register(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error)
	Login(ctx context.Context, username, password string) (jwt.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (jwt.Tokens, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	ValidateAccessToken(tokenString string) (*config.UserClaims, error)
}

type AuthService struct {
	users repository.UserRepository
	cache cache.Cacher
	JM    *jwt.JwtManager
	log   *logger.Logger
	now   func() time.Time
}

func NewAuthService(users repository.UserRepository, c cache.Cacher, jm *jwt.JwtManager, log *logger.Logger) *AuthService {
	return &AuthService{
		users: users,
		cache: c,
		JM:    jm,
		log:   log.Named("auth"),
		now:   time.Now,
	}
}

// Register
func (as *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error) {
	_, err := as.users.GetUserByUsername(ctx, req.Username)
	if err == nil {
		return uuid.Nil, conflict(ErrUserExists)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, unavailable("lookup user", err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return uuid.Nil, validationErr(err, "password could not be hashed")
	}

	u := model.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(req.Email),
		Username:  req.Username,
		Password:  hash,
		CreatedAt: as.now().UTC(),
	}
	if err := as.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return uuid.Nil, conflict(ErrUserExists)
		}
		return uuid.Nil, unavailable("create user", err)
	}
	return u.ID, nil
}

func (as *AuthService) Login(ctx context.Context, username, password string) (jwt.Tokens, error) {
	user, err := as.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return jwt.Tokens{}, newError(KindAuthentication, ErrInvalidCredentials, ErrInvalidCredentials.Error())
	}
	if err != nil {
		return jwt.Tokens{}, unavailable("lookup user", err)
	}

	if err := utils.ComparePassword(password, user.Password); err != nil {
		return jwt.Tokens{}, newError(KindAuthentication, ErrInvalidCredentials, ErrInvalidCredentials.Error())
	}
	tokens, err := as.JM.GenerateTokenPair(user.ID)
	if err != nil {
		return jwt.Tokens{}, unavailable("generate tokens", err)
	}
	return tokens, nil
}

// Refresh rotates a refresh token. Each refresh token can be used once while
// a cache is configured.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (jwt.Tokens, error) {
	claims, err := as.JM.ValidateRefreshToken(refreshToken)
	if err != nil {
		return jwt.Tokens{}, newError(KindAuthentication, err, "invalid refresh token")
	}

	key := usedRefreshKeyPrefix + claims.ID
	_, used, err := as.cache.Get(ctx, key)
	if err != nil {
		return jwt.Tokens{}, unavailable("check refresh token", err)
	}
	if used {
		return jwt.Tokens{}, newError(KindAuthentication, jwt.ErrTokenRevoked, "refresh token already used")
	}
	as.consumeRefresh(ctx, claims)

	tokens, err := as.JM.GenerateTokenPair(claims.UserID)
	if err != nil {
		return jwt.Tokens{}, unavailable("generate tokens", err)
	}
	return tokens, nil
}

// Logout revokes the access token and, when given, the refresh token.
func (as *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	accessClaims, err := as.JM.ValidateAccessToken(accessToken)
	if err != nil {
		return newError(KindAuthentication, err, "invalid access token")
	}
	if remaining := accessClaims.ExpiresAt.Sub(as.now()); remaining > 0 {
		if err := as.JM.AddToBlackList(accessClaims.ID, remaining); err != nil {
			return unavailable("blacklist access token", err)
		}
	}

	if refreshToken == "" {
		return nil
	}
	if refreshClaims, err := as.JM.ValidateRefreshToken(refreshToken); err == nil {
		as.consumeRefresh(ctx, refreshClaims)
	}
	return nil
}

func (as *AuthService) consumeRefresh(ctx context.Context, claims *config.RefreshClaims) {
	ttl := claims.ExpiresAt.Sub(as.now())
	if ttl <= 0 {
		return
	}
	if err := as.cache.Set(ctx, usedRefreshKeyPrefix+claims.ID, claims.UserID.String(), ttl); err != nil {
		as.log.Warnw("failed to record used refresh token", "token_id", claims.ID, "error", err)
	}
}

func (as *AuthService) ValidateAccessToken(tokenString string) (*config.UserClaims, error) {
	return as.JM.ValidateAccessToken(tokenString)
}
