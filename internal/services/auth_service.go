package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lost-persons/config"
	"lost-persons/internal/domain/user"
	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo  repository.UserRepository
	directory *Directory
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, directory *Directory, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		directory: directory,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryHours) * time.Hour,
	}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	ContactInfo string
	Role        user.Role
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           user.Role `json:"role"`
	Phone          string    `json:"phone,omitempty"`
	ContactInfo    string    `json:"contact_info,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type AccessClaims struct {
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return AuthResponse{}, fmt.Errorf("name, email and password are required: %w", lperrors.ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = user.RoleUser
	}
	// Admins are provisioned by the seed command only.
	if in.Role != user.RoleUser && in.Role != user.RoleVerifiedContact {
		return AuthResponse{}, fmt.Errorf("role %q cannot be self-assigned: %w", in.Role, lperrors.ErrInvalidInput)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        toNullString(in.Phone),
		ContactInfo:  toNullString(in.ContactInfo),
		Role:         in.Role,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, lperrors.ErrConflict) {
			return AuthResponse{}, fmt.Errorf("email already registered: %w", err)
		}
		return AuthResponse{}, err
	}

	return s.issue(*newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResponse{}, fmt.Errorf("email and password are required: %w", lperrors.ErrInvalidInput)
	}

	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, lperrors.ErrNotFound) {
			return AuthResponse{}, lperrors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, lperrors.ErrUnauthorized
	}

	return s.issue(u)
}

// Validate returns the profile behind an authenticated actor.
func (s *AuthService) Validate(ctx context.Context, actor proxy.Actor) (UserInfo, error) {
	u, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, lperrors.ErrNotFound) {
			return UserInfo{}, lperrors.ErrUnauthorized
		}
		return UserInfo{}, err
	}
	return toUserInfo(u), nil
}

// Refresh issues a new token for an already authenticated actor.
func (s *AuthService) Refresh(ctx context.Context, actor proxy.Actor) (AuthResponse, error) {
	u, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, lperrors.ErrNotFound) {
			return AuthResponse{}, lperrors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	return s.issue(u)
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, lperrors.ErrUnauthorized
	}
	claims := AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return AccessClaims{}, lperrors.ErrUnauthorized
	}
	return claims, nil
}

// Authenticate turns a bearer token into an actor. The role comes from the directory,
// so role changes apply without waiting for token expiry.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (proxy.Actor, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return proxy.Actor{}, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return proxy.Actor{}, lperrors.ErrUnauthorized
	}
	ident, err := s.directory.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, lperrors.ErrNotFound) {
			return proxy.Actor{}, lperrors.ErrUnauthorized
		}
		return proxy.Actor{}, err
	}
	return proxy.Actor{ID: ident.ID, Role: ident.Role}, nil
}

func (s *AuthService) issue(u user.User) (AuthResponse, error) {
	token, expiresIn, err := s.newAccessToken(u)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User:        toUserInfo(u),
	}, nil
}

func (s *AuthService) newAccessToken(u user.User) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := AccessClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.accessTTL.Seconds()), nil
}

type ctxKey string

var actorKey ctxKey = "actor"

// WithActor stores the authenticated actor and tags the context for request logging.
func WithActor(ctx context.Context, actor proxy.Actor) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return logger.WithUserID(ctx, actor.ID.String())
}

func ActorFromContext(ctx context.Context) (proxy.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(proxy.Actor)
	if !ok || actor.ID == uuid.Nil {
		return proxy.Actor{}, false
	}
	return actor, true
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	actor, ok := ActorFromContext(ctx)
	return actor.ID, ok
}

func toUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		Phone:          u.Phone.String,
		ContactInfo:    u.ContactInfo.String,
		ProfilePicture: u.ProfilePicture.String,
		CreatedAt:      u.CreatedAt,
	}
}

func toNullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
