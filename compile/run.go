// Package compile implements compile subcommand: it finds style sources,
// runs them through the engine and writes resulting stylesheet.
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"atomcss/archive"
	"atomcss/atomic"
	"atomcss/css"
	"atomcss/state"
	"atomcss/style"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	srcs := cmd.Args().Slice()
	if len(srcs) == 0 {
		return errors.New("no input source has been specified")
	}

	env.Scope, env.Dedupe, env.Verify = cmd.StringSlice("scope"), cmd.Bool("dedupe"), cmd.Bool("verify")

	var cp encoding.Encoding
	if name := cmd.String("charset"); len(name) > 0 {
		cp, err = ianaindex.IANA.Encoding(name)
		if err != nil || cp == nil {
			log.Warn("Unknown character set name. Ignoring...", zap.String("charset", name), zap.Error(err))
			cp = nil
		} else {
			n, _ := ianaindex.IANA.Name(cp)
			log.Debug("Decoding sources without byte order mark", zap.String("charset", n))
		}
	}

	eng, err := env.PrepareEngine()
	if err != nil {
		return fmt.Errorf("unable to prepare engine: %w", err)
	}

	c := newCompiler(env, eng, cp, log)

	log.Info("Processing starting", zap.Strings("sources", srcs), zap.Strings("scope", env.Scope))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.Int("documents", c.documents), zap.Int("rules", c.rules.Len()))
	}(time.Now())

	for _, src := range srcs {
		if err := c.process(ctx, src); err != nil {
			c.fail(err)
		}
	}
	if c.errs != nil {
		return fmt.Errorf("compilation failed: %w", c.errs)
	}

	data, err := c.render()
	if err != nil {
		return err
	}
	return output(cmd.String("output"), data, log)
}

type compiler struct {
	env     *state.LocalEnv
	engine  *atomic.Engine
	charset encoding.Encoding
	log     *zap.Logger

	rules     *css.RuleSet
	documents int
	errs      error
}

func newCompiler(env *state.LocalEnv, eng *atomic.Engine, cp encoding.Encoding, log *zap.Logger) *compiler {
	return &compiler{env: env, engine: eng, charset: cp, log: log, rules: &css.RuleSet{}}
}

func (c *compiler) fail(err error) {
	c.log.Error("Unable to compile", zap.Error(err))
	c.errs = multierr.Append(c.errs, err)
}

// process determines the input type (directory, archive with optional path
// inside it, or single style file) and compiles everything it finds there.
func (c *compiler) process(ctx context.Context, src string) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return c.processDir(ctx, head)
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			return c.processArchive(ctx, head, filepath.ToSlash(tail), filepath.Base(head))
		}

		if isStyleFile(head) && len(tail) == 0 {
			return c.processFile(head, filepath.Base(head))
		}
		return fmt.Errorf("input was not recognized as style source (%s)", head)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processDir walks directory tree in lexical order finding style files and
// archives.
func (c *compiler) processDir(ctx context.Context, dir string) error {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			c.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			c.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if arc {
			count++
			if err := c.processArchive(ctx, path, "", rel); err != nil {
				c.fail(err)
			}
			return nil
		}
		if !isStyleFile(path) {
			c.log.Debug("Skipping file, not recognized as style source or archive", zap.String("file", path))
			return nil
		}

		count++
		if err := c.processFile(path, rel); err != nil {
			c.fail(err)
		}
		return nil
	})
	if err == nil && count == 0 {
		c.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return err
}

// processArchive compiles style files inside archive under "pathIn".
// "pathOut" names the archive in messages and in the report.
func (c *compiler) processArchive(ctx context.Context, path, pathIn, pathOut string) error {
	count := 0
	err := archive.Walk(path, archive.Options{Prefix: pathIn, Match: isStyleFile, Names: c.charset}, func(arc string, e archive.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		count++

		r, err := e.File.Open()
		if err != nil {
			c.fail(fmt.Errorf("unable to open %s in archive %s: %w", e.Name, arc, err))
			return nil
		}
		defer r.Close()

		if err := c.compileSource(pathOut+"/"+e.Name, r); err != nil {
			c.fail(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to process archive %s: %w", path, err)
	}
	if count == 0 {
		c.log.Debug("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
	}
	return nil
}

func (c *compiler) processFile(path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.compileSource(name, f)
}

// compileSource decodes every style document from r and appends produced
// rules. "name" identifies the source in errors and in the debug report.
func (c *compiler) compileSource(name string, r io.Reader) error {
	name = filepath.ToSlash(name)

	data, err := io.ReadAll(selectReader(r, c.charset))
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", name, err)
	}
	c.env.Rpt.StoreData("sources/"+name, data)

	docs, err := style.DecodeDocuments(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if c.env.Rpt != nil {
		var dump strings.Builder
		for i := range docs {
			fmt.Fprintf(&dump, "Document %d\n%s", i+1, docs[i].String())
		}
		c.env.Rpt.StoreData("trees/"+name+".txt", []byte(dump.String()))
	}

	rules := 0
	for i, doc := range docs {
		scope := append(slices.Clone(c.env.Scope), doc.Scope...)
		set, err := c.engine.Process(atomic.Options{Styles: doc.Styles, Scope: scope})
		if err != nil {
			return fmt.Errorf("%s: document %d: %w", name, i+1, err)
		}
		c.rules.Append(set.Rules...)
		rules += set.Len()
	}
	c.documents += len(docs)

	c.log.Debug("Source compiled", zap.String("source", name), zap.Int("documents", len(docs)), zap.Int("rules", rules))
	return nil
}

// render produces final stylesheet text, optionally deduplicated and checked
// by parsing it back.
func (c *compiler) render() ([]byte, error) {
	rules := c.rules
	if c.env.Dedupe {
		rules = rules.Dedupe()
		c.log.Debug("Rules deduplicated", zap.Int("before", c.rules.Len()), zap.Int("after", rules.Len()))
	}

	var buf bytes.Buffer
	if _, err := rules.WriteTo(&buf); err != nil {
		return nil, err
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}

	if c.env.Verify {
		parsed, err := css.NewParser(c.log).Parse(buf.Bytes(), "output")
		if err != nil {
			return nil, fmt.Errorf("unable to parse produced stylesheet: %w", err)
		}
		if err := css.Compare(rules, parsed); err != nil {
			return nil, fmt.Errorf("produced stylesheet does not match compiled rules: %w", err)
		}
		c.log.Debug("Output verified", zap.Int("rules", parsed.Len()))
	}

	c.env.Rpt.StoreData("output.css", buf.Bytes())
	return buf.Bytes(), nil
}

func output(fname string, data []byte, log *zap.Logger) error {
	if len(fname) == 0 {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	log.Info("Stylesheet written", zap.String("file", fname), zap.Int("bytes", len(data)))
	return nil
}
