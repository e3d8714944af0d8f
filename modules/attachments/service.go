package attachments

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	nanoid "github.com/jaevor/go-nanoid"

	"github.com/fillip1984/inveniam/modules/auth"
)

const (
	defaultContentType = "application/octet-stream"
	keyLength          = 21
)

// PresignedURL is the output of tasks.generateS3PresignedUrl. URL accepts a
// single PUT until the token expires; PublicURL serves the object afterwards.
type PresignedURL struct {
	URL        string `json:"url"`
	PublicURL  string `json:"publicUrl"`
	BucketName string `json:"bucketName"`
	Key        string `json:"key"`
}

// Object is a stored attachment.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Service issues signed upload URLs and moves bytes in and out of the
// object store bucket.
type Service struct {
	bucket     fsjetstream.FileStoragePort
	bucketName string
	baseURL    string
	expiry     time.Duration
	maxBytes   int64
	signer     auth.UploadSignerPort
	newKey     func() string
	logger     types.Logger
}

// NewService creates an attachment service.
func NewService(bucket fsjetstream.FileStoragePort, bucketName, baseURL string, expiry time.Duration, maxBytes int64, signer auth.UploadSignerPort, logger types.Logger) (*Service, error) {
	gen, err := nanoid.Standard(keyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create key generator: %w", err)
	}
	return &Service{
		bucket:     bucket,
		bucketName: bucketName,
		baseURL:    strings.TrimRight(baseURL, "/"),
		expiry:     expiry,
		maxBytes:   maxBytes,
		signer:     signer,
		newKey:     gen,
		logger:     logger,
	}, nil
}

func (s *Service) objectURL(key string) string {
	return s.baseURL + "/uploads/" + url.PathEscape(s.bucketName) + "/" + url.PathEscape(key)
}

// Presign reserves a fresh key for userID and signs an upload URL for it.
func (s *Service) Presign(ctx context.Context, userID string) (PresignedURL, error) {
	key := s.newKey()
	token, err := s.signer.SignUpload(ctx, userID, key, s.expiry)
	if err != nil {
		return PresignedURL{}, fmt.Errorf("failed to sign upload: %w", err)
	}
	public := s.objectURL(key)
	return PresignedURL{
		URL:        public + "?token=" + url.QueryEscape(token),
		PublicURL:  public,
		BucketName: s.bucketName,
		Key:        key,
	}, nil
}

func (s *Service) checkPath(bucketName, key string) error {
	if bucketName != s.bucketName {
		return ErrUnknownBucket
	}
	if key == "" || strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}

// Upload stores data under key after verifying the signed token. It returns
// the uploader's user id.
func (s *Service) Upload(ctx context.Context, bucketName, key, token string, data []byte, contentType string) (string, error) {
	if err := s.checkPath(bucketName, key); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrUploadDenied
	}
	userID, err := s.signer.VerifyUpload(ctx, token, key)
	if err != nil {
		s.logger.Warn("Upload token rejected", "key", key, "error", err)
		return "", ErrUploadDenied
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), s.maxBytes)
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	info, err := s.bucket.Put(ctx, key, data,
		fsjetstream.WithDescription("Attachment uploaded by "+userID),
		fsjetstream.WithHeaders(map[string]string{
			"Content-Type": contentType,
			"Owner":        userID,
			"Uploaded-At":  time.Now().Format(time.RFC3339),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}
	s.logger.Info("Attachment stored", "key", key, "size", info.Size, "user_id", userID)
	return userID, nil
}

// Download returns a stored object.
func (s *Service) Download(_ context.Context, bucketName, key string) (*Object, error) {
	if err := s.checkPath(bucketName, key); err != nil {
		return nil, err
	}
	infos, err := s.bucket.List(fsjetstream.WithPrefix(key))
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	var info *fsjetstream.ObjectInfo
	for i := range infos {
		if infos[i].Name == key {
			info = &infos[i]
			break
		}
	}
	if info == nil {
		return nil, ErrObjectNotFound
	}

	data, err := s.bucket.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	contentType := info.Headers["Content-Type"]
	if contentType == "" {
		contentType = defaultContentType
	}
	return &Object{Key: key, ContentType: contentType, Data: data}, nil
}
