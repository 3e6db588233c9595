package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/health"
)

const hamletLine = "To be, or not to be: that is the question: whether 'tis nobler in the mind to suffer the slings and arrows of outrageous fortune"

// fixture writes a collection whose second line starts at offset 3, a
// postings file pointing at it, and a config file using the given backend.
type fixture struct {
	dir        string
	postings   string
	collection string
	config     string
}

func newFixture(t *testing.T, backendYAML string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		postings:   filepath.Join(dir, "postings.tsv"),
		collection: filepath.Join(dir, "collection.txt"),
		config:     filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.WriteFile(f.collection, []byte("ab\n"+hamletLine+"\n"), 0o644))
	require.NoError(t, os.WriteFile(f.postings, []byte("outrageous\t3\nfortune\t3\nslings\t3\nmissing\t\n"), 0o644))

	if backendYAML == "" {
		backendYAML = fmt.Sprintf("postings:\n  backend: memory\n  path: %q\n", f.postings)
	}
	yaml := backendYAML + fmt.Sprintf("collection:\n  path: %q\nlogging:\n  level: debug\n", f.collection)
	require.NoError(t, os.WriteFile(f.config, []byte(yaml), 0o644))
	return f
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunPrintsResults(t *testing.T) {
	f := newFixture(t, "")
	stdout, stderr, err := execute(t, "--config", f.config, "run", "-q", "outrageous fortune AND", "-q", "slings missing OR")
	require.NoError(t, err)

	snippet := hamletLine[:100]
	want := "Query: outrageous fortune AND\n3\t" + snippet + "\n\n" +
		"Query: slings missing OR\n3\t" + snippet + "\n\n"
	assert.Equal(t, want, stdout)
	assert.Contains(t, stderr, "run_id=")
	assert.NotContains(t, stdout, "level=")
}

func TestRunMalformedQueryExitsTwo(t *testing.T) {
	f := newFixture(t, "")
	stdout, stderr, err := execute(t, "--config", f.config, "run", "-q", "fortune AND", "-q", "fortune")
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitQueryFailures, apperrors.ExitCode(err))
	assert.Equal(t, "Query: fortune AND\n\nQuery: fortune\n3\t"+hamletLine[:100]+"\n\n", stdout)
	assert.Contains(t, stderr, "skipping malformed query")
}

func TestRunQueriesFileAndJSON(t *testing.T) {
	f := newFixture(t, "")
	queries := filepath.Join(f.dir, "queries.txt")
	require.NoError(t, os.WriteFile(queries, []byte("# batch\noutrageous fortune AND\n"), 0o644))

	stdout, _, err := execute(t, "--config", f.config, "run", "--queries-file", queries, "--json", "--concurrency", "2")
	require.NoError(t, err)

	var rec struct {
		Query string `json:"query"`
		Hits  []struct {
			DocID   uint64 `json:"doc_id"`
			Snippet string `json:"snippet"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stdout)), &rec))
	assert.Equal(t, "outrageous fortune AND", rec.Query)
	require.Len(t, rec.Hits, 1)
	assert.Equal(t, uint64(3), rec.Hits[0].DocID)
}

func TestRunRejectsCompressedCollection(t *testing.T) {
	f := newFixture(t, "")
	gz := filepath.Join(f.dir, "collection.txt.gz")
	require.NoError(t, os.WriteFile(gz, []byte("ab\n"), 0o644))
	t.Setenv("BR_COLLECTION_PATH", gz)

	stdout, _, err := execute(t, "--config", f.config, "run", "-q", "fortune")
	assert.True(t, apperrors.IsConfiguration(err), "got %v", err)
	assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))
	assert.Empty(t, stdout)
}

func TestRunMissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "run")
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestLoadThenRun(t *testing.T) {
	backends := map[string]func(dir string) string{
		"sqlite": func(dir string) string {
			return fmt.Sprintf("postings:\n  backend: sqlite\nsqlite:\n  path: %q\n", filepath.Join(dir, "postings.db"))
		},
		"bolt": func(dir string) string {
			return fmt.Sprintf("postings:\n  backend: bolt\nbolt:\n  path: %q\n", filepath.Join(dir, "postings.bolt"))
		},
	}
	for name, yaml := range backends {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, yaml(t.TempDir()))

			stdout, _, err := execute(t, "--config", f.config, "load", f.postings)
			require.NoError(t, err)
			assert.Equal(t, "loaded 4 terms into "+name+"\n", stdout)

			stdout, _, err = execute(t, "--config", f.config, "run", "-q", "outrageous fortune AND")
			require.NoError(t, err)
			assert.Equal(t, "Query: outrageous fortune AND\n3\t"+hamletLine[:100]+"\n\n", stdout)
		})
	}
}

func TestLoadIntoMemoryIsRejected(t *testing.T) {
	f := newFixture(t, "")
	_, _, err := execute(t, "--config", f.config, "load", f.postings)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestPartitionKeys(t *testing.T) {
	f := newFixture(t, "")
	stdout, _, err := execute(t, "--config", f.config, "partition", "--nodes", "100", "--buckets", "4", "0", "25", "99", "130")
	require.NoError(t, err)
	assert.Equal(t, "0\t0\n25\t1\n99\t3\n130\t1\n", stdout)
}

func TestPartitionBounds(t *testing.T) {
	f := newFixture(t, "")
	stdout, _, err := execute(t, "--config", f.config, "partition", "--nodes", "10", "--buckets", "3")
	require.NoError(t, err)
	assert.Equal(t, "0\t0\t4\n1\t4\t7\n2\t7\t10\n", stdout)
}

func TestPartitionRejectsZeroNodes(t *testing.T) {
	f := newFixture(t, "")
	_, _, err := execute(t, "--config", f.config, "partition", "--nodes", "0", "--buckets", "3", "1")
	assert.True(t, apperrors.IsConfiguration(err))

	_, _, err = execute(t, "--config", f.config, "partition", "--nodes", "10", "--buckets", "0")
	assert.True(t, apperrors.IsConfiguration(err))

	_, _, err = execute(t, "--config", f.config, "partition", "--nodes", "10", "--buckets", "2", "x")
	assert.ErrorContains(t, err, `bad key "x"`)
}

func TestCheckHealthy(t *testing.T) {
	f := newFixture(t, "")
	stdout, _, err := execute(t, "--config", f.config, "check")
	require.NoError(t, err)

	var report health.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, health.StatusUp, report.Status)
	assert.Equal(t, []string{"collection", "postings"}, report.Names())
}

func TestCheckReportsMissingCollection(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, os.Remove(f.collection))

	stdout, _, err := execute(t, "--config", f.config, "check")
	require.Error(t, err)

	var report health.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, health.StatusDown, report.Status)
	assert.Equal(t, health.StatusDown, report.Components["collection"].Status)
	assert.Equal(t, health.StatusUp, report.Components["postings"].Status)
}
