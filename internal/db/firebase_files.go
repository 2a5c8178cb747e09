package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// firebaseDownloadTokenKey is the object metadata key Firebase reads download tokens from.
const firebaseDownloadTokenKey = "firebaseStorageDownloadTokens"

// FirebaseFiles implements FileStore on the project's Cloud Storage bucket.
// The admin credentials ignore storage rules, so Allowed is checked here.
type FirebaseFiles struct {
	verifier   TokenVerifier
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebaseFiles(verifier TokenVerifier, bucket *gcs.BucketHandle, bucketName string) *FirebaseFiles {
	return &FirebaseFiles{verifier: verifier, bucket: bucket, bucketName: bucketName}
}

func (f *FirebaseFiles) Put(ctx context.Context, token, path string, r io.Reader) (Upload, error) {
	uid, err := verifyToken(ctx, f.verifier, token)
	if err != nil {
		return Upload{}, err
	}
	if err := checkAccess(uid, path, true); err != nil {
		return Upload{}, err
	}

	downloadToken := uuid.NewString()
	w := f.bucket.Object(path).NewWriter(ctx)
	w.ContentType = mime.TypeByExtension(filepath.Ext(path))
	w.Metadata = map[string]string{firebaseDownloadTokenKey: downloadToken}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Upload{}, fmt.Errorf("upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return Upload{}, fmt.Errorf("upload %s: %w", path, err)
	}

	attrs := w.Attrs()
	if attrs == nil || attrs.Name == "" {
		return Upload{}, nil
	}
	return Upload{Name: attrs.Name, URL: DownloadURL(f.bucketName, attrs.Name, downloadToken)}, nil
}

func (f *FirebaseFiles) Get(ctx context.Context, token, path string) ([]byte, error) {
	uid, err := verifyToken(ctx, f.verifier, token)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(uid, path, false); err != nil {
		return nil, err
	}

	rd, err := f.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	defer rd.Close()
	return io.ReadAll(rd)
}
