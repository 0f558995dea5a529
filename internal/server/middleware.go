package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeyUserID contextKey = "user_id"
	contextKeyEmail  contextKey = "email"
	contextKeyName   contextKey = "name"
)

const cookieAccessTokenName = "finji_access_token"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth verifies the caller's access token and adds identity claims to
// the request context. Mobile clients send a Bearer header; the web client
// falls back to the encrypted cookie set at login.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := s.accessTokenFromRequest(r)
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "missing access token")
			return
		}

		set, err := s.jwksCache.Lookup(r.Context(), s.jwksURL)
		if err != nil {
			s.logger.WithError(err).Error("failed to fetch JWKS")
			s.respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		token, err := jwt.Parse(
			[]byte(accessToken),
			jwt.WithKeySet(set),
			jwt.WithValidate(true),
		)
		if err != nil {
			s.logger.WithError(err).Error("failed to parse JWT")
			s.respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		userID, ok := token.Subject()
		if !ok || userID == "" {
			s.logger.Error("no user ID in JWT subject claim")
			s.respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		var email string
		if err := token.Get("email", &email); err != nil {
			s.logger.WithError(err).Debug("no email claim in JWT")
		}

		var name string
		if err := token.Get("name", &name); err != nil {
			s.logger.WithError(err).Debug("no name claim in JWT")
		}

		s.syncIdentity(r.Context(), userID, email, name)

		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyUserID, userID)
		if email != "" {
			ctx = context.WithValue(ctx, contextKeyEmail, email)
		}
		if name != "" {
			ctx = context.WithValue(ctx, contextKeyName, name)
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"email":   email,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// syncIdentity mirrors token claims into the local users table so role
// lookups and dashboards have a row even for accounts created outside
// /auth/register. An existing row keeps its registered role. Failures are
// logged, never fatal to the request.
func (s *Service) syncIdentity(ctx context.Context, userID, email, name string) {
	if err := s.usersRepo.UpsertIdentity(ctx, userID, email, name, types.RoleApplicant); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to sync user identity")
	}
}

func (s *Service) accessTokenFromRequest(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, found := strings.CutPrefix(authz, "Bearer "); found && token != "" {
		return token, true
	}

	cookie, err := r.Cookie(cookieAccessTokenName)
	if err != nil {
		return "", false
	}

	var accessToken string
	if err := s.cookie.Decode(cookieAccessTokenName, cookie.Value, &accessToken); err != nil {
		s.logger.WithError(err).Error("failed to decrypt access token")
		return "", false
	}

	return accessToken, true
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newPath := strings.TrimSuffix(path, "/")
			newURL := *r.URL
			newURL.Path = newPath

			// Preserve query string
			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
