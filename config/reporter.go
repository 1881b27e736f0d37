package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"atomcss/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination cannot be created report
// goes to a temporary file instead, Name tells where.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{index: make(map[string]int), started: time.Now()}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// item is a single archive member: either a file on disk, read when report
// is closed, or data captured at the time of the call.
type item struct {
	name  string
	path  string
	data  []byte
	stamp time.Time
}

func (it *item) kind() string {
	if it.path != "" {
		return "file"
	}
	return "data"
}

// Report collects style sources, their decoded trees, configuration, logs
// and produced stylesheet into a single zip archive. Members are written in
// the order they were stored.
// NOTE: presently not to be used concurrently!
type Report struct {
	items   []item
	index   map[string]int // name -> position in items
	started time.Time
	file    *os.File
}

// Close writes the archive. Report on nil or without file is a no-op, this
// means no report has been requested.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file to be put into archive under name. Storing the same
// name again for a different file is a programming error.
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}
	if p, err := filepath.Abs(file); err == nil {
		file = p
	}
	if i, exists := r.index[name]; exists {
		if r.items[i].path != file {
			panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, r.items[i].path, file))
		}
		return
	}
	r.add(item{name: name, path: file})
}

// StoreData puts data into archive under name. When name is taken the data
// is kept under a numbered name: "output.css" becomes "output.2.css".
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	unique := name
	for n := 2; ; n++ {
		if _, exists := r.index[unique]; !exists {
			break
		}
		unique = numbered(name, n)
	}
	r.add(item{name: unique, data: data, stamp: time.Now()})
}

func (r *Report) add(it item) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[it.name] = len(r.items)
	r.items = append(r.items, it)
}

func numbered(name string, n int) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + strconv.Itoa(n) + ext
}

func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	if err := saveFile(arc, "MANIFEST", time.Now(), r.manifest()); err != nil {
		arc.Close()
		return err
	}
	for i := range r.items {
		if err := r.items[i].save(arc); err != nil {
			arc.Close()
			return fmt.Errorf("unable to add %s to report: %w", r.items[i].name, err)
		}
	}
	return arc.Close()
}

func (it *item) save(arc *zip.Writer) error {
	if it.path == "" {
		return saveFile(arc, it.name, it.stamp, bytes.NewReader(it.data))
	}

	// absent files and anything which is not a regular file are skipped,
	// manifest still lists them
	info, err := os.Stat(it.path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(it.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(arc, it.name, info.ModTime(), f)
}

func (r *Report) manifest() io.Reader {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%s %s (%s)\n", misc.GetAppName(), misc.GetVersion(), misc.GetGitHash())
	fmt.Fprintf(buf, "started %s, %d entries\n\n", r.started.UTC().Format(time.RFC3339), len(r.items))
	for _, it := range r.items {
		switch it.kind() {
		case "file":
			fmt.Fprintf(buf, "%s\t%s\t%s\n", it.kind(), it.name, it.path)
		default:
			fmt.Fprintf(buf, "%s\t%s\t%d bytes at %s\n", it.kind(), it.name, len(it.data), it.stamp.UTC().Format(time.RFC3339Nano))
		}
	}
	return buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
