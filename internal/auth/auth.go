package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	userAuthCookieName = "jwt"
	SecretKey          = "supersecretkey"
	TokenExp           = time.Hour * 3
)

// Claims carries the registered claims plus the user identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// UserAuth issues and verifies the session cookie.
type UserAuth struct {
	secret   string
	tokenExp time.Duration
}

// New creates a UserAuth with the given secret and token lifetime.
func New(secret string, tokenExp time.Duration) *UserAuth {
	return &UserAuth{
		secret:   secret,
		tokenExp: tokenExp,
	}
}

// GetUserID extracts the user identifier from the request's session cookie.
func (a *UserAuth) GetUserID(r *http.Request) (string, error) {
	const op = "get user id from request"
	cookie, err := r.Cookie(userAuthCookieName)

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	userID, err := a.ParseJWT(cookie.Value)

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return userID, nil
}

// ParseJWT parses the token and returns the user identifier on success.
func (a *UserAuth) ParseJWT(tokenString string) (string, error) {
	const op = "parse jwt"
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(a.secret), nil
		})

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	if !token.Valid {
		return "", errors.New(op + ": invalid token")
	}

	return claims.UserID, nil
}

// CreateCookie returns a session cookie for the user.
func (a *UserAuth) CreateCookie(userID string) (*http.Cookie, error) {
	const op = "create cookie"
	token, err := a.BuildJWT(userID)

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	cookie := http.Cookie{
		Name:     userAuthCookieName,
		Value:    token,
		MaxAge:   int(a.tokenExp / time.Second),
		HttpOnly: true,
	}
	return &cookie, nil
}

// ExpiredCookie returns a cookie that removes the session cookie.
func (a *UserAuth) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     userAuthCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
	}
}

// BuildJWT signs a token carrying the user identifier.
func (a *UserAuth) BuildJWT(userID string) (string, error) {
	const op = "build jwt"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenExp)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString([]byte(a.secret))

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return tokenString, nil
}
