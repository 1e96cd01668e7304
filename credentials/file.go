package credentials

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// DefaultTokenFile is the token file name looked up under the root.
const DefaultTokenFile = "git.token"

// FileProvider reads the token from a file: the first whitespace-delimited
// word of its contents. The file is re-read on every call so a rotated
// token is picked up without a restart.
type FileProvider struct {
	fs   billy.Filesystem
	path string
}

// NewFileProvider reads path relative to fs. An empty path selects
// DefaultTokenFile.
func NewFileProvider(fs billy.Filesystem, path string) *FileProvider {
	if path == "" {
		path = DefaultTokenFile
	}
	return &FileProvider{fs: fs, path: path}
}

// NewOSFileProvider reads path relative to the directory root on disk.
func NewOSFileProvider(root, path string) *FileProvider {
	return NewFileProvider(osfs.New(root), path)
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file" }

// Token implements Provider. A missing file yields an empty token.
func (p *FileProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := p.fs.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		if errors.Is(err, os.ErrPermission) {
			return "", NewProviderError(p.Name(), p.path, ErrAccessDenied)
		}
		return "", NewProviderError(p.Name(), p.path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", NewProviderError(p.Name(), p.path, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}
