package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dat "github.com/dep2p/go-dat"
	"github.com/dep2p/go-dat/tests/testutil"
)

// run 执行一次命令并返回标准输出
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var urlRe = regexp.MustCompile(`url: dat://([0-9a-f]{64})`)

func TestCLI_CreateLsCatSyncRm(t *testing.T) {
	dataDir := t.TempDir()
	pubdir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pubdir, "index.html"), []byte(testutil.IndexHTML), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(pubdir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pubdir, "docs", "a.txt"), []byte("a"), 0o644))

	out, err := run(t, "create", pubdir, "--data-dir", dataDir)
	require.NoError(t, err, out)
	m := urlRe.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	addr := m[1]
	assert.Contains(t, out, "secret: ")
	assert.Contains(t, out, "+ /index.html")

	out, err = run(t, "ls", addr, "--data-dir", dataDir, "-r")
	require.NoError(t, err, out)
	assert.Equal(t, "docs\ndocs/a.txt\nindex.html\n", out)

	out, err = run(t, "cat", "dat://"+addr+"/docs/a.txt", "--data-dir", dataDir)
	require.NoError(t, err, out)
	assert.Equal(t, "a", out)

	// 修改后同步，数据目录中的 dat 可写，无需私钥
	require.NoError(t, os.WriteFile(filepath.Join(pubdir, "docs", "a.txt"), []byte("b"), 0o644))
	out, err = run(t, "sync", addr, pubdir, "--data-dir", dataDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "~ /docs/a.txt")

	out, err = run(t, "cat", "dat://"+addr+"/docs/a.txt", "--data-dir", dataDir)
	require.NoError(t, err, out)
	assert.Equal(t, "b", out)

	out, err = run(t, "rm", addr, "--data-dir", dataDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "deleted "+addr)
}

func TestCLI_Args(t *testing.T) {
	_, err := run(t, "create")
	assert.Error(t, err)

	_, err = run(t, "sync", "only-one")
	assert.Error(t, err)

	_, err = run(t, "create", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, dat.VersionInfo()+"\n", out)
}
