package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultQueries is the reference batch used when nothing else is
// configured.
var DefaultQueries = []string{
	"outrageous fortune AND",
	"white rose AND",
	"means deceit AND",
	"white red OR rose AND pluck AND",
	"unhappy outrageous OR good your AND OR fortune AND",
}

// LoadQueries reads one query per line, skipping blank lines and lines
// starting with '#'.
func LoadQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries file: %w", err)
	}
	defer f.Close()

	queries := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries file %s: %w", path, err)
	}
	return queries, nil
}

// ResolveQueries picks the batch: explicit queries first, then a queries
// file, then configured queries, then DefaultQueries.
func ResolveQueries(explicit []string, file string, configured []string) ([]string, error) {
	switch {
	case len(explicit) > 0:
		return explicit, nil
	case file != "":
		return LoadQueries(file)
	case len(configured) > 0:
		return configured, nil
	default:
		return DefaultQueries, nil
	}
}
