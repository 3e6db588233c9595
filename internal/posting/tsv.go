package posting

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadTSV parses postings in the form
//
//	term<TAB>doc[:tf] doc[:tf] ...
//
// calling fn once per term line. Blank lines and lines starting with '#' are
// skipped; a missing tf defaults to 1.
func ReadTSV(r io.Reader, fn func(term string, entries []Entry) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		term, entries, err := parseTSVLine(line)
		if err != nil {
			return fmt.Errorf("postings line %d: %w", lineNo, err)
		}
		if err := fn(term, entries); err != nil {
			return fmt.Errorf("postings line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading postings: %w", err)
	}
	return nil
}

func parseTSVLine(line string) (string, []Entry, error) {
	term, rest, ok := strings.Cut(line, "\t")
	if !ok || term == "" {
		return "", nil, fmt.Errorf("expected term<TAB>postings, got %q", line)
	}
	fields := strings.Fields(rest)
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		docPart, tfPart, hasTF := strings.Cut(f, ":")
		id, err := ParseDocumentID(docPart)
		if err != nil {
			return "", nil, fmt.Errorf("term %q: bad document id %q: %w", term, docPart, err)
		}
		tf := 1
		if hasTF {
			tf, err = strconv.Atoi(tfPart)
			if err != nil || tf < 0 {
				return "", nil, fmt.Errorf("term %q: bad term frequency %q", term, tfPart)
			}
		}
		entries = append(entries, Entry{DocID: id, TermFreq: tf})
	}
	return term, entries, nil
}

// LoadTSV reads a postings file into w and returns the number of terms stored.
func LoadTSV(ctx context.Context, path string, w Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening postings file: %w", err)
	}
	defer f.Close()

	terms := 0
	err = ReadTSV(f, func(term string, entries []Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Put(ctx, term, entries); err != nil {
			return fmt.Errorf("storing %q: %w", term, err)
		}
		terms++
		return nil
	})
	return terms, err
}
