// Package collection reads document text out of a line-oriented collection.
// A DocumentID is the byte offset of a line start; this package is the only
// place that interprets it that way.
package collection

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// ErrOffsetOutOfRange is returned, wrapped with errors.ErrRetrieval, for an
// offset past the end of the collection. An offset equal to the size yields
// an empty snippet.
var ErrOffsetOutOfRange = errors.New("offset past end of collection")

// Store resolves a document id to (a prefix of) its line of text. Snippet
// returns at most maxLength characters; maxLength <= 0 returns the whole
// line. Implementations are safe for concurrent use.
type Store interface {
	Snippet(ctx context.Context, id posting.DocumentID, maxLength int) (string, error)
	Close() error
}

// Sizer is implemented by stores that know their length in bytes.
type Sizer interface {
	Size() int64
}

var compressedExtensions = map[string]string{
	".gz":  "gzip",
	".bz2": "bzip2",
	".zst": "zstd",
	".lz4": "lz4",
	".xz":  "xz",
	".zip": "zip",
}

var compressedMagic = []struct {
	kind  string
	magic []byte
}{
	{"gzip", []byte{0x1f, 0x8b}},
	{"bzip2", []byte("BZh")},
	{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{"lz4", []byte{0x04, 0x22, 0x4d, 0x18}},
	{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{"zip", []byte{'P', 'K', 0x03, 0x04}},
}

// sniffHeaderLen is enough bytes to recognise every entry in compressedMagic.
const sniffHeaderLen = 6

// checkSeekable rejects collections that are compressed, judged by name and
// by the first bytes of content.
func checkSeekable(name string, header []byte) error {
	if kind, ok := compressedExtensions[strings.ToLower(path.Ext(name))]; ok {
		return apperrors.Newf(apperrors.ErrConfiguration,
			"collection %s is %s-compressed and cannot be seeked; use the uncompressed collection", name, kind)
	}
	for _, m := range compressedMagic {
		if bytes.HasPrefix(header, m.magic) {
			return apperrors.Newf(apperrors.ErrConfiguration,
				"collection %s looks %s-compressed and cannot be seeked; use the uncompressed collection", name, m.kind)
		}
	}
	return nil
}

// checkOffset validates id against a collection of size bytes. done reports
// that the snippet is empty without reading.
func checkOffset(name string, id posting.DocumentID, size int64) (off int64, done bool, err error) {
	if uint64(id) > uint64(size) {
		return 0, false, apperrors.Retrieval(fmt.Sprintf("snippet at %s in %s (size %d)", id, name, size), ErrOffsetOutOfRange)
	}
	off = int64(id)
	return off, off == size, nil
}

// readLine reads one line from r, stopping at "\n", "\r", "\r\n" or end of
// input, and keeps at most maxLength runes.
func readLine(r io.Reader, maxLength int) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	var sb strings.Builder
	n := 0
	for maxLength <= 0 || n < maxLength {
		ch, size, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if ch == '\n' || ch == '\r' {
			break
		}
		if ch == utf8.RuneError && size == 1 {
			if err := br.UnreadRune(); err != nil {
				return "", err
			}
			b, err := br.ReadByte()
			if err != nil {
				return "", err
			}
			sb.WriteByte(b)
		} else {
			sb.WriteRune(ch)
		}
		n++
	}
	return sb.String(), nil
}

// maxLineBytes bounds how many bytes a snippet of maxLength runes can need,
// including a trailing "\r\n".
func maxLineBytes(maxLength int, remaining int64) int64 {
	if maxLength <= 0 {
		return remaining
	}
	want := int64(maxLength)*utf8.UTFMax + 2
	if want > remaining {
		return remaining
	}
	return want
}
