// Package stattrackdtest runs a full in-process StatTrack API against
// the in-memory database for tests.
package stattrackdtest

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbfake"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbgen"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
	"github.com/ymohit1603/StatTrack-Backend-sub000/testutil"
)

// DefaultSecret signs session tokens in tests.
var DefaultSecret = []byte("stattrackdtest-session-key-secret")

type Options struct {
	Database         database.Store
	SessionKeySecret []byte
	SessionKeyTTL    time.Duration
	IngestChunkSize  int
	APIRateLimit     int
}

// New starts an in-process API and returns a client pointed at it
// along with the backing store.
func New(t testing.TB, options *Options) (*stattracksdk.Client, database.Store) {
	t.Helper()
	if options == nil {
		options = &Options{}
	}
	if options.Database == nil {
		options.Database = dbfake.New()
	}
	if options.SessionKeySecret == nil {
		options.SessionKeySecret = DefaultSecret
	}

	api, err := stattrackd.New(&stattrackd.Options{
		Logger:           testutil.Logger(t),
		Database:         options.Database,
		SessionKeySecret: options.SessionKeySecret,
		SessionKeyTTL:    options.SessionKeyTTL,
		IngestChunkSize:  options.IngestChunkSize,
		APIRateLimit:     options.APIRateLimit,
	})
	require.NoError(t, err)

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	return stattracksdk.New(serverURL), options.Database
}

// CreateUser inserts an active user and attaches a fresh session
// token for them to the client.
func CreateUser(t testing.TB, client *stattracksdk.Client, db database.Store) database.User {
	t.Helper()
	user := dbgen.User(t, db, database.User{})
	client.SessionToken = MintSessionToken(t, DefaultSecret, user.ID)
	return user
}

// MintSessionToken signs a session token the way the account system
// does: HS256 with the user ID as subject.
func MintSessionToken(t testing.TB, secret []byte, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

// MintExpiredSessionToken signs a token whose expiry has already
// passed.
func MintExpiredSessionToken(t testing.TB, secret []byte, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}
