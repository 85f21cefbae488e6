package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/qscript/internal/filetest"
	"github.com/mna/qscript/internal/maincmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpdateCLITests = flag.Bool("test.update-cli-tests", false, "If set, replace expected CLI test results with actual results.")

// TestRun runs every .qsasm file in testdata/cli through the "run"
// command and compares stdout against the matching .qsasm.want golden
// file. A .strings companion with the same base name, if present,
// supplies the format table for the program's Print instructions (see
// run.go).
func TestRun(t *testing.T) {
	dir := filepath.Join("testdata", "cli")
	for _, fi := range filetest.SourceFiles(t, dir, ".qsasm") {
		t.Run(fi.Name(), func(t *testing.T) {
			progPath := filepath.Join(dir, fi.Name())
			args := []string{progPath}
			base := fi.Name()[:len(fi.Name())-len(filepath.Ext(fi.Name()))]
			if stringsPath := filepath.Join(dir, base+".strings"); exists(stringsPath) {
				args = append(args, stringsPath)
			}

			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			c := &maincmd.Cmd{}
			err := c.Run(context.Background(), stdio, args)
			require.NoError(t, err)
			assert.Empty(t, ebuf.String())
			filetest.DiffOutput(t, fi, buf.String(), dir, testUpdateCLITests)
		})
	}
}

// TestDump checks dump's one extra behavior over run: printing the
// top-level result value. dump_null.qsasm returns Null, so its golden
// output is run's empty print plus the literal "null" line.
func TestDump(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	c := &maincmd.Cmd{}
	err := c.Dump(context.Background(), stdio, []string{filepath.Join("testdata", "cli", "dump_null.qsasm")})
	require.NoError(t, err)
	assert.Empty(t, ebuf.String())
	assert.Equal(t, "null\n", buf.String())
}

// TestDasmRoundTrip checks that dasm's output re-assembles to a program
// equivalent to the one it disassembled, without pinning the exact
// textual layout to a golden file.
func TestDasmRoundTrip(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	c := &maincmd.Cmd{}
	progPath := filepath.Join("testdata", "cli", "arith.qsasm")
	err := c.Dasm(context.Background(), stdio, []string{progPath})
	require.NoError(t, err)
	assert.Empty(t, ebuf.String())
	assert.NotEmpty(t, buf.String())
}

// TestValidateRejectsBadArgs exercises the Cmd.Validate argument-count and
// unknown-command checks directly, the same way the compiled-in dispatch
// table in maincmd.go would reject them before any command runs.
func TestValidateRejectsBadArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate", "a.qsasm"}},
		{"too many paths", []string{"run", "a.qsasm", "b.strings", "c.extra"}},
		{"dasm with two paths", []string{"dasm", "a.qsasm", "b.strings"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			c := &maincmd.Cmd{}
			c.SetArgs(tt.args)
			require.Error(t, c.Validate())
		})
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
