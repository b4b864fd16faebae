package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/demystify/internal/dump"
	"github.com/standardbeagle/demystify/internal/watch"
)

func defaultJobs() int {
	return runtime.NumCPU()
}

// expandArgs resolves glob arguments, keeping argument order. Literal paths
// pass through unchanged so a missing file is reported when it is loaded.
func expandArgs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, arg := range args {
		if !hasMeta(arg) {
			if !seen[arg] {
				seen[arg] = true
				files = append(files, arg)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			base, _ := doublestar.SplitPattern(filepath.ToSlash(arg))
			return nil, fmt.Errorf("no dumps match %q (under %s)", arg, base)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func hasMeta(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// renderedDump is the outcome of rendering one file
type renderedDump struct {
	Path  string `json:"path"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func renderCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one dump file or pattern is required")
	}

	cfg, err := loadConfigWithOverrides(c, ".")
	if err != nil {
		return err
	}
	traceCfg := cfg.Demystifier()

	files, err := expandArgs(c.Args().Slice())
	if err != nil {
		return err
	}

	results := make([]renderedDump, len(files))
	g := new(errgroup.Group)
	if jobs := c.Int("jobs"); jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range files {
		g.Go(func() error {
			results[i].Path = path
			d, err := dump.Load(path)
			if err != nil {
				// one bad dump must not hide the others
				results[i].Error = err.Error()
				return nil
			}
			results[i].Text = watch.RenderDump(d, traceCfg)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			log.Printf("Failed to render %s: %s", r.Path, r.Error)
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		writeRendered(c, results)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d dump(s) failed to render", failed, len(results))
	}
	return nil
}

// writeRendered prints results in argument order, with a header per file
// when there is more than one
func writeRendered(c *cli.Context, results []renderedDump) {
	first := true
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		if len(results) > 1 {
			if !first {
				fmt.Fprintln(c.App.Writer)
			}
			fmt.Fprintf(c.App.Writer, "==> %s <==\n", r.Path)
		}
		fmt.Fprint(c.App.Writer, r.Text)
		first = false
	}
}
