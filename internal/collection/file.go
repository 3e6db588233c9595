package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// FileStore serves snippets from a local uncompressed collection file.
// Reads go through ReadAt, so concurrent snippets never share a file offset.
type FileStore struct {
	path   string
	file   *os.File
	size   int64
	logger *slog.Logger
}

// OpenFile opens and validates a collection file. Anything that cannot be
// seeked line by line is a configuration error.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, apperrors.New(apperrors.ErrConfiguration, "collection path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &apperrors.AppError{Err: apperrors.ErrConfiguration, Message: fmt.Sprintf("opening collection: %v", err)}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &apperrors.AppError{Err: apperrors.ErrConfiguration, Message: fmt.Sprintf("stat collection: %v", err)}
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "collection %s is not a regular file", path)
	}

	header := make([]byte, sniffHeaderLen)
	n, err := f.ReadAt(header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, &apperrors.AppError{Err: apperrors.ErrConfiguration, Message: fmt.Sprintf("reading collection header: %v", err)}
	}
	if err := checkSeekable(path, header[:n]); err != nil {
		f.Close()
		return nil, err
	}

	s := &FileStore{
		path:   path,
		file:   f,
		size:   info.Size(),
		logger: slog.Default().With("component", "collection", "path", path),
	}
	s.logger.Info("collection opened", "bytes", s.size)
	return s, nil
}

func (s *FileStore) Snippet(ctx context.Context, id posting.DocumentID, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	off, done, err := checkOffset(s.path, id, s.size)
	if err != nil || done {
		return "", err
	}
	sr := io.NewSectionReader(s.file, off, maxLineBytes(maxLength, s.size-off))
	line, err := readLine(sr, maxLength)
	if err != nil {
		return "", apperrors.Retrieval(fmt.Sprintf("reading %s at %d", s.path, off), err)
	}
	return line, nil
}

func (s *FileStore) Size() int64 {
	return s.size
}

// Ping checks the file is still there and has not shrunk.
func (s *FileStore) Ping(context.Context) error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < s.size {
		return fmt.Errorf("collection %s shrank from %d to %d bytes", s.path, s.size, info.Size())
	}
	return nil
}

func (s *FileStore) Close() error {
	return s.file.Close()
}
