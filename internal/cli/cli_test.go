package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/render"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "post.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleDoc = `{"type":"doc","content":[
	{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Getting Started"}]},
	{"type":"paragraph","content":[{"type":"text","text":"Hello"}]}
]}`

func TestRenderCommand(t *testing.T) {
	path := writeFile(t, sampleDoc)

	out, err := run(t, "", "render", path)
	require.NoError(t, err)
	assert.Contains(t, out, `id="getting-started"`)
	assert.Contains(t, out, "Hello")

	preview, err := run(t, "", "render", "--variant", "preview", "--sanitize", path)
	require.NoError(t, err)
	assert.Contains(t, preview, "Hello")
	assert.NotEqual(t, out, preview)

	_, err = run(t, "", "render", "--variant", "poster", path)
	assert.Error(t, err)

	_, err = run(t, "", "render", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRenderCommandReadsStdin(t *testing.T) {
	out, err := run(t, "# From stdin\n", "render", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "From stdin")
}

func TestTOCCommand(t *testing.T) {
	out, err := run(t, "", "toc", writeFile(t, sampleDoc))
	require.NoError(t, err)

	var headings []render.Heading
	require.NoError(t, json.Unmarshal([]byte(out), &headings))
	assert.Equal(t, []render.Heading{{ID: "getting-started", Title: "Getting Started", Level: 2}}, headings)

	out, err = run(t, "", "toc", writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := run(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = run(t, "", "hash-password")
	assert.Error(t, err)
}
