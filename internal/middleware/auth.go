package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const SubjectKey contextKey = "subject"

// JWTAuth guards the clinic API with HS256 bearer tokens issued by the dashboard.
type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

// Middleware validates the bearer token and attaches its subject to the context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		tokenStr, ok := bearerToken(authHeader)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		j.serve(w, r, next, tokenStr)
	})
}

// WebSocketMiddleware is Middleware for upgrade requests. Browsers cannot set
// headers on a WebSocket handshake, so the token may come from the "token"
// query parameter; the Authorization header is still honoured when present.
func (j *JWTAuth) WebSocketMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Missing token")
				return
			}
			var ok bool
			if tokenStr, ok = bearerToken(authHeader); !ok {
				writeError(w, http.StatusUnauthorized, "Invalid authorization format")
				return
			}
		}

		j.serve(w, r, next, tokenStr)
	})
}

func (j *JWTAuth) serve(w http.ResponseWriter, r *http.Request, next http.Handler, tokenStr string) {
	subject, err := j.authenticate(tokenStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	ctx := context.WithValue(r.Context(), SubjectKey, subject)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// authenticate returns the token subject, or an error whose text is safe to
// send back to the client.
func (j *JWTAuth) authenticate(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("Token has expired")
		}
		return "", errors.New("Invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("Invalid token subject")
	}
	return subject, nil
}

func bearerToken(authHeader string) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// GetSubject extracts the authenticated subject, empty when auth is disabled.
func GetSubject(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)
	return sub
}
