package fsbridge

import (
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// CopyTree copies every file, directory and symlink under src into dst,
// overwriting files that already exist in dst. Files in dst that are not
// in src are left alone.
func CopyTree(src, dst billy.Filesystem) error {
	return util.Walk(src, ".", func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		name := path.Clean(filepath.ToSlash(p))
		if name == "." {
			return nil
		}

		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			return copySymlink(src, dst, name)
		case fi.IsDir():
			return dst.MkdirAll(name, fi.Mode().Perm()|0o700)
		default:
			return copyFile(src, dst, name, fi.Mode().Perm())
		}
	})
}

func copyFile(src, dst billy.Filesystem, name string, perm os.FileMode) error {
	in, err := src.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := dst.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}

	if fi, err := dst.Lstat(name); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := dst.Remove(name); err != nil {
			return err
		}
	}

	out, err := dst.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copySymlink(src, dst billy.Filesystem, name string) error {
	target, err := src.Readlink(name)
	if err != nil {
		return err
	}

	if err := dst.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}

	if _, err := dst.Lstat(name); err == nil {
		if err := util.RemoveAll(dst, name); err != nil {
			return err
		}
	}
	return dst.Symlink(target, name)
}
