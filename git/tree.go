package git

import (
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// blobEntry is a non-directory tree entry.
type blobEntry struct {
	Hash plumbing.Hash
	Mode filemode.FileMode
}

// fileSet maps slash separated paths to their blob entries.
type fileSet map[string]blobEntry

// emptyTreeHash is the id of a tree with no entries.
var emptyTreeHash = plumbing.ComputeHash(plumbing.TreeObject, nil)

// flattenTree lists every non-directory entry reachable from t. A nil tree
// yields an empty set.
func flattenTree(t *object.Tree) (fileSet, error) {
	files := make(fileSet)
	if t == nil {
		return files, nil
	}

	w := object.NewTreeWalker(t, true, nil)
	defer w.Close()

	for {
		name, entry, err := w.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, WrapError(err, "failed to walk tree")
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		files[name] = blobEntry{Hash: entry.Hash, Mode: entry.Mode}
	}
}

// indexFiles lists the entries of idx that are not conflict stages.
func indexFiles(idx *index.Index) fileSet {
	files := make(fileSet, len(idx.Entries))
	for _, e := range idx.Entries {
		// index.Merged is declared as 1, but unconflicted entries decode as 0.
		if e.Stage != 0 {
			continue
		}
		files[e.Name] = blobEntry{Hash: e.Hash, Mode: e.Mode}
	}
	return files
}

type treeNode struct {
	files map[string]blobEntry
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{files: map[string]blobEntry{}, dirs: map[string]*treeNode{}}
}

// writeTree stores the tree objects for files and returns the root id.
func (r *Repo) writeTree(files fileSet) (plumbing.Hash, error) {
	root := newTreeNode()
	for p, e := range files {
		parts := strings.Split(p, "/")
		n := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := n.dirs[dir]
			if !ok {
				child = newTreeNode()
				n.dirs[dir] = child
			}
			n = child
		}
		n.files[parts[len(parts)-1]] = e
	}
	return r.writeTreeNode(root)
}

func (r *Repo) writeTreeNode(n *treeNode) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(n.files)+len(n.dirs))

	for name, child := range n.dirs {
		h, err := r.writeTreeNode(child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
	}
	for name, e := range n.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: e.Mode, Hash: e.Hash})
	}

	// Git orders directories as if their name ended in "/".
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := r.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to encode tree")
	}

	h, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to store tree")
	}
	return h, nil
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// headTree returns HEAD's commit and tree. On an unborn branch both are
// nil and err is nil.
func (r *Repo) headTree() (*object.Commit, *object.Tree, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil, nil
		}
		return nil, nil, WrapError(err, "failed to resolve HEAD")
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, nil, WrapError(err, "failed to read HEAD commit")
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, WrapError(err, "failed to read HEAD tree")
	}
	return commit, tree, nil
}

// treeHash returns t's id, or the empty tree id for nil.
func treeHash(t *object.Tree) plumbing.Hash {
	if t == nil {
		return emptyTreeHash
	}
	return t.Hash
}
