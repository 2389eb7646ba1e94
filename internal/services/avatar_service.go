package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image file")
	ErrUnauthorized  = errors.New("not the owner of this image")
)

// AvatarStore persists profile images and returns the URL to store on the
// profile record.
type AvatarStore interface {
	Upload(ctx context.Context, userID, filename string, file io.Reader) (string, error)
	Delete(ctx context.Context, userID, imageURL string) error
}

// LocalAvatarStore writes avatars to a directory served as /uploads/.
type LocalAvatarStore struct {
	mu        sync.RWMutex
	uploadDir string
	owners    map[string]string // filename -> userID
}

func NewLocalAvatarStore(uploadDir string) *LocalAvatarStore {
	os.MkdirAll(uploadDir, 0755)

	return &LocalAvatarStore{
		uploadDir: uploadDir,
		owners:    make(map[string]string),
	}
}

func (s *LocalAvatarStore) Upload(ctx context.Context, userID, filename string, file io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	newFilename := uuid.New().String() + ext
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.owners[newFilename] = userID
	return "/uploads/" + newFilename, nil
}

func (s *LocalAvatarStore) Delete(ctx context.Context, userID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filepath.Base(imageURL)
	owner, exists := s.owners[name]
	if !exists {
		return ErrImageNotFound
	}
	if owner != userID {
		return ErrUnauthorized
	}

	if err := os.Remove(filepath.Join(s.uploadDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	delete(s.owners, name)
	return nil
}

// GCSAvatarStore writes avatars to a Cloud Storage bucket and returns
// Firebase-style download URLs. Objects carry a download token in metadata,
// the same scheme the Firebase SDKs use.
type GCSAvatarStore struct {
	client *storage.Client
	bucket string
}

func NewGCSAvatarStore(ctx context.Context, bucket string) (*GCSAvatarStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSAvatarStore{client: client, bucket: bucket}, nil
}

func (s *GCSAvatarStore) Close() error {
	return s.client.Close()
}

func (s *GCSAvatarStore) Upload(ctx context.Context, userID, filename string, file io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	objectPath := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), ext)
	token := uuid.New().String()

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := io.Copy(w, file); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object: %w", err)
	}

	// https://firebasestorage.googleapis.com/v0/b/{bucket}/o/{path}?alt=media&token={token}
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucket, url.PathEscape(objectPath), token,
	), nil
}

func (s *GCSAvatarStore) Delete(ctx context.Context, userID, imageURL string) error {
	objectPath, err := objectPathFromURL(imageURL)
	if err != nil {
		return err
	}
	// Owners can only hold objects under their own prefix.
	if !isOwnedBy(objectPath, userID) {
		return ErrUnauthorized
	}
	err = s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrImageNotFound
	}
	return err
}

func objectPathFromURL(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", ErrImageNotFound
	}
	// Path is /v0/b/{bucket}/o/{escaped object path}
	const marker = "/o/"
	idx := strings.LastIndex(u.EscapedPath(), marker)
	if idx < 0 {
		return "", ErrImageNotFound
	}
	escaped := u.EscapedPath()[idx+len(marker):]
	objectPath, err := url.PathUnescape(escaped)
	if err != nil {
		return "", ErrImageNotFound
	}
	return objectPath, nil
}

func isOwnedBy(objectPath, userID string) bool {
	return strings.HasPrefix(objectPath, "avatars/"+userID+"/")
}
