package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"veira/backend/internal/domain"
	"veira/backend/internal/store"
)

// AuthManager issues and validates the bearer tokens the terminal uses
// after a PIN login. The PIN pad carries no username: a login attempt is
// matched against every staff member's PIN hash, so PIN uniqueness
// across the roster is what keeps identities distinct.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	repo     store.Repository
}

type posClaims struct {
	jwtlib.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, repo store.Repository) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		repo:     repo,
	}
}

var errInvalidCredentials = errors.New("invalid credentials")

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	pin := strings.TrimSpace(req.PIN)
	if pin == "" {
		return domain.LoginResponse{}, errInvalidCredentials
	}

	staff, err := a.repo.ListStaff(ctx)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	for _, member := range staff {
		if bcrypt.CompareHashAndPassword([]byte(member.PINHash), []byte(pin)) != nil {
			continue
		}
		expiresAt := time.Now().UTC().Add(a.tokenTTL)
		token, err := a.sign(member, expiresAt)
		if err != nil {
			return domain.LoginResponse{}, err
		}
		return domain.LoginResponse{
			AccessToken: token,
			StaffID:     member.ID,
			StaffName:   member.Name,
			Role:        member.Role,
			ExpiresAt:   expiresAt.Format(time.RFC3339),
		}, nil
	}

	return domain.LoginResponse{}, errInvalidCredentials
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.Actor{}, errors.New("invalid token role")
	}
	return domain.Actor{ID: sub, Name: claims.Name, Role: role}, nil
}

func (a *AuthManager) sign(member domain.StaffMember, expiresAt time.Time) (string, error) {
	claims := posClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   member.ID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "veira",
		},
		Name: member.Name,
		Role: string(member.Role),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
