package extensions

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	// FileSuffix marks extension source files.
	FileSuffix = ".go"
	// ExcludePrefix marks private or disabled files.
	ExcludePrefix = "_"

	testSuffix = "_test.go"
)

// Discover lists the extensions found in fsys under root. Only files exactly
// one directory below root (root/<group>/<file>) are considered; files
// starting with ExcludePrefix and test files are skipped. The result holds
// dotted module paths in lexical order. A missing root holds no extensions.
func Discover(fsys fs.FS, root string) ([]string, error) {
	root = path.Clean(root)
	info, err := fs.Stat(fsys, root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("extensions root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("extensions root %s is not a directory", root)
	}

	matches, err := fs.Glob(fsys, path.Join(root, "*", "*"+FileSuffix))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	var paths []string
	for _, match := range matches {
		name := path.Base(match)
		if strings.HasPrefix(name, ExcludePrefix) || strings.HasSuffix(name, testSuffix) {
			continue
		}
		fi, err := fs.Stat(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", match, err)
		}
		if fi.IsDir() {
			continue
		}
		paths = append(paths, ModulePath(match))
	}
	sort.Strings(paths)
	return paths, nil
}

// ModulePath turns a slash separated file path into its dotted module path:
// "exts/utility/ping.go" becomes "exts.utility.ping".
func ModulePath(file string) string {
	file = strings.TrimSuffix(path.Clean(file), FileSuffix)
	file = strings.TrimPrefix(file, "./")
	return strings.ReplaceAll(file, "/", ".")
}
