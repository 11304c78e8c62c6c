// Package httpmw contains the HTTP middleware used by stattrackd.
package httpmw

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpapi"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/sessionkey"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
)

type userIDContextKey struct{}

// SignedOutErrorMessage is the error message to display when the
// credential is missing or rejected.
const SignedOutErrorMessage = "Your session credential is missing or invalid. Check your plugin configuration."

// UserIDOptional may return the user resolved by ExtractSessionToken.
func UserIDOptional(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDContextKey{}).(uuid.UUID)
	return id, ok
}

// UserID returns the user resolved by ExtractSessionToken.
func UserID(r *http.Request) uuid.UUID {
	id, ok := UserIDOptional(r)
	if !ok {
		panic("developer error: ExtractSessionToken middleware not provided")
	}
	return id
}

// ExtractSessionTokenConfig configures the session-token middleware.
type ExtractSessionTokenConfig struct {
	Resolver sessionkey.Resolver
}

// ExtractSessionToken authenticates the request's session credential
// and stores the resolved user ID in the request context. One
// credential covers the whole request; there is no partial
// authorization.
func ExtractSessionToken(cfg ExtractSessionTokenConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := SessionTokenFromRequest(r)
			if token == "" {
				httpapi.Write(ctx, rw, http.StatusUnauthorized, stattracksdk.Response{
					Message: SignedOutErrorMessage,
					Detail:  "No session credential was provided.",
				})
				return
			}

			userID, err := cfg.Resolver.Resolve(ctx, token)
			if xerrors.Is(err, sessionkey.ErrVerifierUnavailable) {
				httpapi.Write(ctx, rw, http.StatusInternalServerError, stattracksdk.Response{
					Message: "Credential verification is temporarily unavailable. Retry the request.",
					Detail:  err.Error(),
				})
				return
			}
			if err != nil {
				httpapi.Write(ctx, rw, http.StatusUnauthorized, stattracksdk.Response{
					Message: SignedOutErrorMessage,
					Detail:  err.Error(),
				})
				return
			}

			ctx = context.WithValue(ctx, userIDContextKey{}, userID)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

// SessionTokenFromRequest returns the session credential from the
// request. Find the credential in:
// 1. The Authorization header, either "Bearer <token>" raw or
//    "Basic <base64(token)>" as older plugins send it.
// 2. The custom session token header.
// 3. The session_token query parameter.
func SessionTokenFromRequest(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	switch {
	case strings.HasPrefix(authorization, "Bearer "):
		return strings.TrimPrefix(authorization, "Bearer ")
	case strings.HasPrefix(authorization, "Basic "):
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authorization, "Basic "))
		if err != nil {
			return ""
		}
		return string(decoded)
	}

	headerValue := r.Header.Get(stattracksdk.SessionTokenHeader)
	if headerValue != "" {
		return headerValue
	}

	return r.URL.Query().Get("session_token")
}
