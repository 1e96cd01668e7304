package fsbridge

import (
	"os"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree(t *testing.T) {
	src := memfs.New()
	require.NoError(t, util.WriteFile(src, "a.txt", []byte("a"), 0o644))
	require.NoError(t, util.WriteFile(src, "dir/b.txt", []byte("b"), 0o644))
	require.NoError(t, util.WriteFile(src, ".git/HEAD", []byte("ref: refs/heads/master\n"), 0o644))
	require.NoError(t, src.MkdirAll("empty", 0o755))
	require.NoError(t, src.Symlink("a.txt", "link"))

	dst := memfs.New()
	require.NoError(t, util.WriteFile(dst, "a.txt", []byte("old contents"), 0o644))
	require.NoError(t, util.WriteFile(dst, "keep.txt", []byte("mine"), 0o644))

	require.NoError(t, CopyTree(src, dst))

	for name, want := range map[string]string{
		"a.txt":     "a",
		"dir/b.txt": "b",
		".git/HEAD": "ref: refs/heads/master\n",
		"keep.txt":  "mine",
	} {
		got, err := util.ReadFile(dst, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got), name)
	}

	fi, err := dst.Stat("empty")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	target, err := dst.Readlink("link")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", target)
}

func TestCopyTreeMissingSource(t *testing.T) {
	src := memfs.New()
	sub, err := src.Chroot("missing")
	require.NoError(t, err)

	err = CopyTree(sub, memfs.New())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
