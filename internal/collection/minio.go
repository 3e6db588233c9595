package collection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// object is the slice of an S3 object the store reads from.
type object interface {
	stat(ctx context.Context) (size int64, contentType string, err error)
	readRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

type minioObject struct {
	client *minio.Client
	bucket string
	key    string
}

func (o *minioObject) stat(ctx context.Context) (int64, string, error) {
	info, err := o.client.StatObject(ctx, o.bucket, o.key, minio.StatObjectOptions{})
	if err != nil {
		return 0, "", err
	}
	return info.Size, info.ContentType, nil
}

func (o *minioObject) readRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+length-1); err != nil {
		return nil, err
	}
	return o.client.GetObject(ctx, o.bucket, o.key, opts)
}

// ObjectStore serves snippets from a collection held in MinIO or any
// S3-compatible store, one ranged GET per snippet.
type ObjectStore struct {
	name    string
	obj     object
	size    int64
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// OpenMinio connects to the object store in cfg and validates the object
// key. A missing or compressed object is a configuration error.
func OpenMinio(ctx context.Context, cfg config.MinioConfig, key string, timeout time.Duration) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "creating minio client for %s: %v", cfg.Endpoint, err)
	}
	obj := &minioObject{client: client, bucket: cfg.Bucket, key: key}
	return openObject(ctx, cfg.Bucket+"/"+key, obj, cfg.RequestsPerSecond, timeout)
}

func openObject(ctx context.Context, name string, obj object, rps float64, timeout time.Duration) (*ObjectStore, error) {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	s := &ObjectStore{
		name:    name,
		obj:     obj,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default().With("component", "collection", "object", name),
	}

	statCtx, cancel := s.callContext(ctx)
	defer cancel()
	size, contentType, err := obj.stat(statCtx)
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket" {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, "collection object %s does not exist", name)
		}
		return nil, &apperrors.AppError{Err: apperrors.ErrConfiguration, Message: fmt.Sprintf("stat collection object %s: %v", name, err)}
	}
	if kind, ok := compressedContentType(contentType); ok {
		return nil, apperrors.Newf(apperrors.ErrConfiguration,
			"collection %s has content type %s (%s) and cannot be seeked", name, contentType, kind)
	}

	var header []byte
	if size > 0 {
		header, err = s.read(ctx, 0, min(int64(sniffHeaderLen), size))
		if err != nil {
			return nil, &apperrors.AppError{Err: apperrors.ErrConfiguration, Message: fmt.Sprintf("reading collection header: %v", err)}
		}
	}
	if err := checkSeekable(name, header); err != nil {
		return nil, err
	}

	s.size = size
	s.logger.Info("collection opened", "bytes", size)
	return s, nil
}

func compressedContentType(ct string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0])) {
	case "application/gzip", "application/x-gzip":
		return "gzip", true
	case "application/x-bzip2":
		return "bzip2", true
	case "application/zstd":
		return "zstd", true
	case "application/x-xz":
		return "xz", true
	case "application/zip":
		return "zip", true
	}
	return "", false
}

func (s *ObjectStore) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ObjectStore) read(ctx context.Context, off, length int64) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	rc, err := s.obj.readRange(ctx, off, length)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	buf := make([]byte, length)
	n, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}

func (s *ObjectStore) Snippet(ctx context.Context, id posting.DocumentID, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	off, done, err := checkOffset(s.name, id, s.size)
	if err != nil || done {
		return "", err
	}
	raw, err := s.read(ctx, off, maxLineBytes(maxLength, s.size-off))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w (limit: %v): %w", apperrors.ErrTimeout, s.timeout, err)
		}
		return "", apperrors.Retrieval(fmt.Sprintf("ranged get %s at %d", s.name, off), err)
	}
	line, err := readLine(bytes.NewReader(raw), maxLength)
	if err != nil {
		return "", apperrors.Retrieval(fmt.Sprintf("decoding %s at %d", s.name, off), err)
	}
	return line, nil
}

func (s *ObjectStore) Size() int64 {
	return s.size
}

// Ping re-stats the object.
func (s *ObjectStore) Ping(ctx context.Context) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	_, _, err := s.obj.stat(ctx)
	return err
}

func (s *ObjectStore) Close() error {
	return nil
}
