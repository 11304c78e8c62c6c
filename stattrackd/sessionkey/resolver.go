// Package sessionkey resolves the opaque session credential presented
// with a heartbeat batch to the owning user.
package sessionkey

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
)

var (
	// ErrInvalidCredential covers bad signatures, malformed tokens,
	// unknown users and suspended users. It is terminal for the batch.
	ErrInvalidCredential = xerrors.New("session credential is invalid")
	// ErrExpiredCredential is returned for a well-formed token whose
	// expiry has passed.
	ErrExpiredCredential = xerrors.New("session credential is expired")
	// ErrVerifierUnavailable is returned when the credential could not
	// be checked at all. It is retryable, unlike the other two.
	ErrVerifierUnavailable = xerrors.New("credential verifier is unavailable")
)

// DefaultVerifyTimeout bounds the user lookup during verification so a
// slow database surfaces as ErrVerifierUnavailable instead of stalling
// the whole batch.
const DefaultVerifyTimeout = 5 * time.Second

// Resolver maps a credential to the user identity it belongs to.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (uuid.UUID, error)
}

// Verifier validates HS256 session tokens whose subject claim carries
// the user ID, then confirms the user still exists and is active.
type Verifier struct {
	secret  []byte
	db      database.Store
	timeout time.Duration
}

type VerifierOption func(*Verifier)

// WithVerifyTimeout overrides the lookup timeout.
func WithVerifyTimeout(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.timeout = d
	}
}

func NewVerifier(db database.Store, secret []byte, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secret:  secret,
		db:      db,
		timeout: DefaultVerifyTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) Resolve(ctx context.Context, credential string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		if xerrors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredCredential
		}
		return uuid.Nil, ErrInvalidCredential
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidCredential
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	user, err := v.db.GetUserByID(ctx, userID)
	if xerrors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrInvalidCredential
	}
	if err != nil {
		// Includes deadline exceeded: the token may well be valid, we
		// just could not check it.
		return uuid.Nil, xerrors.Errorf("%w: get user %s: %s", ErrVerifierUnavailable, userID, err)
	}
	if user.Status != database.UserStatusActive {
		return uuid.Nil, ErrInvalidCredential
	}

	return user.ID, nil
}
