package storage

import (
	"context"
	"log/slog"
	"member-chat/errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var png = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "http://chat.local", []byte("secret"), logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return store
}

func TestDiskStore_Signed_Download(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	router := mux.NewRouter()
	store.Routes(router)

	req.NoError(store.PutObject(context.Background(), "rooms/r1/a.png", png, "image/png"))

	signed, err := store.SignedURL("rooms/r1/a.png", time.Minute)
	req.NoError(err)
	u, err := url.Parse(signed)
	req.NoError(err)
	req.Equal("/objects/rooms/r1/a.png", u.Path)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("image/png", rec.Header().Get("Content-Type"))
	req.Equal(png, rec.Body.Bytes())

	// A signature for another object is refused
	other, err := store.SignedURL("rooms/r1/b.png", time.Minute)
	req.NoError(err)
	o, err := url.Parse(other)
	req.NoError(err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/objects/rooms/r1/a.png?"+o.RawQuery, nil))
	req.Equal(http.StatusForbidden, rec.Code)
}

func TestDiskStore_Expired_Signature(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	past := time.Now().Add(-time.Hour)
	store.now = func() time.Time { return past }

	signed, err := store.SignedURL("rooms/r1/a.png", time.Minute)
	req.NoError(err)
	u, err := url.Parse(signed)
	req.NoError(err)

	store.now = time.Now
	req.ErrorIs(store.Verify("rooms/r1/a.png", u.Query().Get(signatureParam)), errors.ErrSignatureInvalid)
}

func TestDiskStore_Rejects_Path_Escape(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	err := store.PutObject(context.Background(), "../outside.txt", []byte("x"), "text/plain")
	req.ErrorIs(err, errors.ErrValidation)
	_, err = store.SignedURL("", time.Minute)
	req.ErrorIs(err, errors.ErrValidation)
}

func TestDiskStore_StatObject(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	ctx := context.Background()

	req.NoError(store.PutObject(ctx, "rooms/r1/a.png", png, "image/png"))
	req.NoError(store.PutObject(ctx, "rooms/r1/raw", png, "image/png"))

	contentType, size, err := store.StatObject(ctx, "rooms/r1/a.png")
	req.NoError(err)
	req.Equal("image/png", contentType)
	req.Equal(int64(len(png)), size)

	// Without a known extension the content decides
	contentType, _, err = store.StatObject(ctx, "rooms/r1/raw")
	req.NoError(err)
	req.Equal("image/png", contentType)

	_, _, err = store.StatObject(ctx, "rooms/r1/never-uploaded.png")
	req.ErrorIs(err, errors.ErrNotFound)
	_, _, err = store.StatObject(ctx, "rooms/r1")
	req.ErrorIs(err, errors.ErrNotFound)
}
