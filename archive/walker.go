// Package archive walks style sources stored in zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// Entry is a file inside archive. Name is the path inside archive, decoded
// with Options.Names when the archive did not mark it as UTF-8.
type Entry struct {
	Name string
	File *zip.File
}

// WalkFunc is called for each file in archive visited by Walk. The archive
// argument contains path to archive passed to Walk. If an error is returned,
// processing stops.
type WalkFunc func(archive string, e Entry) error

// Options select which archive entries are visited.
type Options struct {
	// Prefix limits walk to entries under this path inside archive.
	Prefix string
	// Match, when set, must accept entry name for it to be visited.
	Match func(name string) bool
	// Names is legacy encoding of entry names without UTF-8 flag.
	Names encoding.Encoding
}

// Walk visits files in the archive in archive order. Entries with absolute
// paths or ".." components fail the walk.
func Walk(archive string, opts Options, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	prefix := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(opts.Prefix, `\`, "/")), "/")

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if opts.Names != nil && f.FileHeader.NonUTF8 {
			if n, err := opts.Names.NewDecoder().String(name); err == nil {
				name = n
			}
		}
		if !underPrefix(name, prefix) {
			continue
		}
		if opts.Match != nil && !opts.Match(name) {
			continue
		}
		if err := walkFn(archive, Entry{Name: name, File: f}); err != nil {
			return err
		}
	}
	return nil
}

// underPrefix reports whether name is prefix itself or lays in a directory
// named by prefix.
func underPrefix(name, prefix string) bool {
	if prefix == "" || name == prefix {
		return true
	}
	return strings.HasPrefix(name, strings.TrimSuffix(prefix, "/")+"/")
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
