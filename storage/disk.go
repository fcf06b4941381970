// Package storage is the local object store holding attachment bytes.
// Objects are served back over HTTP through short-lived signed URLs.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/domain/mimetypes"
	"member-chat/errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const signatureParam = "sig"

type DiskStore struct {
	root    string
	baseURL string
	secret  []byte
	log     *slog.Logger
	now     func() time.Time
}

type objectClaims struct {
	jwt.RegisteredClaims
}

// NewDiskStore stores objects under root. Signed URLs point at baseURL,
// which must route /objects/ to Routes.
func NewDiskStore(root, baseURL string, secret []byte, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		log:     log,
		now:     time.Now,
	}, nil
}

// PutObject writes data at objectPath. The file is renamed into place so a
// reader never sees a partial object.
func (s *DiskStore) PutObject(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Transient(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return errors.Transient(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Transient(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Transient(err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.Transient(err)
	}
	s.log.Debug("Object stored", "path", objectPath, "size", len(data), "content_type", contentType)
	return nil
}

// StatObject reports the content type and size of a stored object. The type
// comes from the extension chosen at upload, else from the content itself.
func (s *DiskStore) StatObject(ctx context.Context, objectPath string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(target)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return "", 0, fmt.Errorf("%w: object %q", errors.ErrNotFound, objectPath)
	}
	if err != nil {
		return "", 0, errors.Transient(err)
	}
	if m, ok := mimetypes.FromExtension(objectPath); ok {
		return string(m), info.Size(), nil
	}
	mtype, err := mimetype.DetectFile(target)
	if err != nil {
		return "", 0, errors.Transient(err)
	}
	return mtype.String(), info.Size(), nil
}

// SignedURL returns a download link for objectPath valid for ttl.
func (s *DiskStore) SignedURL(objectPath string, ttl time.Duration) (string, error) {
	if _, err := s.resolve(objectPath); err != nil {
		return "", err
	}
	now := s.now()
	claims := objectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   objectPath,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/objects/%s?%s=%s", s.baseURL, objectPath, signatureParam, url.QueryEscape(signed)), nil
}

// Verify checks that signature grants access to objectPath.
func (s *DiskStore) Verify(objectPath, signature string) error {
	claims := &objectClaims{}
	token, err := jwt.ParseWithClaims(signature, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return errors.ErrSignatureInvalid
	}
	if claims.Subject != objectPath {
		return errors.ErrSignatureInvalid
	}
	return nil
}

func (s *DiskStore) Routes(r *mux.Router) {
	r.PathPrefix("/objects/").Methods(http.MethodGet).HandlerFunc(s.ServeObject)
}

func (s *DiskStore) ServeObject(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/objects/")
	if err := s.Verify(objectPath, r.URL.Query().Get(signatureParam)); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	mtype, err := mimetype.DetectFile(target)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", mtype.String())
	http.ServeFile(w, r, target)
}

// resolve maps an object path to a file under root, rejecting anything that
// would escape it.
func (s *DiskStore) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if objectPath == "" || clean == "/" || clean != "/"+objectPath {
		return "", fmt.Errorf("%w: invalid object path %q", errors.ErrValidation, objectPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
