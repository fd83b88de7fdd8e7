package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxObjectBytes = 5 << 20

var (
	ErrNotFound        = errors.New("object not found")
	ErrUnsupportedType = errors.New("only jpg, jpeg, png, gif and webp images are allowed")
	ErrTooLarge        = fmt.Errorf("file exceeds %d MiB", MaxObjectBytes>>20)
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type Object struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store interface {
	Put(ctx context.Context, name string, r io.Reader) (Object, error)
	Stat(ctx context.Context, id string) (Object, error)
	Delete(ctx context.Context, id string) error
}

// LocalStore keeps objects as flat files under root; they are served from /media/.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	ext := strings.ToLower(filepath.Ext(name))
	ctype, ok := allowedExt[ext]
	if !ok {
		return Object{}, ErrUnsupportedType
	}
	id := uuid.NewString() + ext
	path := filepath.Join(s.root, id)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, err
	}
	// read one byte past the limit to detect oversized uploads
	n, err := io.Copy(f, io.LimitReader(r, MaxObjectBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxObjectBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return Object{}, err
	}
	return Object{ID: id, URL: "/media/" + id, Size: n, ContentType: ctype, CreatedAt: time.Now().UTC()}, nil
}

func (s *LocalStore) Stat(ctx context.Context, id string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	path, ok := s.path(id)
	if !ok {
		return Object{}, ErrNotFound
	}
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, err
	}
	return Object{
		ID:          id,
		URL:         "/media/" + id,
		Size:        fi.Size(),
		ContentType: allowedExt[strings.ToLower(filepath.Ext(id))],
		CreatedAt:   fi.ModTime().UTC(),
	}, nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := s.path(id)
	if !ok {
		return ErrNotFound
	}
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// path resolves id inside root, rejecting anything that is not a bare file name.
func (s *LocalStore) path(id string) (string, bool) {
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") || strings.ContainsRune(id, 0) {
		return "", false
	}
	if _, ok := allowedExt[strings.ToLower(filepath.Ext(id))]; !ok {
		return "", false
	}
	return filepath.Join(s.root, id), true
}
