package main

import (
	"embed"
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeds the test programs
//
//go:embed testdata
var testSet embed.FS

const diagnosticsDirective = "# narrow:diagnostics "

// format is as follows:
//
//	# narrow:diagnostics E003,E008
//
// or `none` when the program is expected to check cleanly
func extractExpectedCodes(t *testing.T, content string) []string {
	firstLine, _, _ := strings.Cut(content, "\n")
	if !strings.HasPrefix(firstLine, diagnosticsDirective) {
		t.Fatalf("could not parse directive: '%v'", firstLine)
	}
	list := strings.TrimSpace(strings.TrimPrefix(firstLine, diagnosticsDirective))
	if list == "none" {
		return nil
	}
	codes := strings.Split(list, ",")
	for i, c := range codes {
		codes[i] = strings.TrimSpace(c)
		_, ok := ilerr.CodeFromShort(codes[i])
		require.True(t, ok, "unknown code %s", codes[i])
	}
	return codes
}

func TestProgramsEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("testdata")
	require.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !program.IsProgramFile(f.Name()) {
			continue
		}
		testFile(t, f)
	}
}

func testFile(t *testing.T, f fs.DirEntry) bool {
	return t.Run(f.Name(), func(t *testing.T) {
		name := path.Join("testdata", f.Name())
		content, err := testSet.ReadFile(name)
		require.NoError(t, err)
		expected := extractExpectedCodes(t, string(content))

		p, err := program.Load(testSet, name)
		require.NoError(t, err)
		report, err := p.Analyze()
		require.NoError(t, err)
		assert.Empty(t, report.Failures)

		actual := make([]string, 0, len(report.Errors.Errors()))
		for _, code := range report.Errors.Codes() {
			actual = append(actual, code.Short())
		}
		out := &strings.Builder{}
		_ = report.Print(out)
		assert.ElementsMatch(t, expected, actual, "report:\n%s", out.String())
	})
}
