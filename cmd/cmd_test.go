package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cottand/narrow/cmd"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetErr(out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

const clean = `functions:
  - name: f
    params: {x: string | number}
    body:
      - if: typeof x === "string"
        then:
          - probe: x
`

const broken = `functions:
  - name: g
    params: {x: string}
    body:
      - probe: x
        expect: number
`

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	file := writeProgram(t, dir, "clean.yaml", clean)

	out, err := execute(t, cmd.CheckCmd, file)
	require.NoError(t, err)
	assert.Contains(t, out, "clean.yaml:7:20: f: x: string")

	out, err = execute(t, cmd.CheckCmd, "--quiet", file)
	require.NoError(t, err)
	assert.Empty(t, out)

	writeProgram(t, dir, "broken.yml", broken)
	out, err = execute(t, cmd.CheckCmd, "-q", dir)
	assert.ErrorContains(t, err, "found 1 problems in 2 programs")
	assert.Contains(t, out, "broken.yml:5:16: (E009)")

	_, err = execute(t, cmd.CheckCmd, filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "could not load programs")
}

func TestEval(t *testing.T) {
	out, err := execute(t, cmd.EvalCmd, "--type", "string | number | null", "--guard", `typeof x === "string"`)
	require.NoError(t, err)
	assert.Equal(t, "x: string | number | null\ntrue:  x: string\nfalse: x: number | null\n", out)

	out, err = execute(t, cmd.EvalCmd, "--var", "v", "--type", "string | null", "--guard", "v && v !== \"a\"")
	require.NoError(t, err)
	assert.Contains(t, out, "true:  v: string\n")

	dir := t.TempDir()
	classes := writeProgram(t, dir, "animals.yaml", `
classes:
  - name: Fish
  - name: Bird
`)
	out, err = execute(t, cmd.EvalCmd, "--classes", classes, "--var", "x", "--type", "Fish | Bird", "--guard", "x instanceof Fish")
	require.NoError(t, err)
	assert.Contains(t, out, "true:  x: Fish\nfalse: x: Bird\n")

	_, err = execute(t, cmd.EvalCmd, "--classes", "", "--var", "x", "--type", "Strnig", "--guard", "x")
	assert.ErrorContains(t, err, "invalid type")

	out, err = execute(t, cmd.EvalCmd, "--var", "s", "--type", `{kind: "a"} | {kind: "b"}`, "--guard", `s.kind === "a" || Math.random() > 0.5`)
	require.NoError(t, err)
	assert.Contains(t, out, "false: s: {kind: \"b\"}\n")

	_, err = execute(t, cmd.EvalCmd, "--var", "y", "--type", "string", "--guard", "typeof x === \"string\"")
	assert.ErrorContains(t, err, "guard 'typeof x === \"string\"' does not test y")
}
