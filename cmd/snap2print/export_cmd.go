package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	snap2print "github.com/alnah/go-snap2print"
)

// runExport assembles page files into one document without calling the
// model. Pages are read in name order; *.solution.html files are answer keys.
func runExport(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("%w: pass page files or a directory", ErrNoInput)
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := resolveConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeDocumentFlags(&f.documentFlags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(env.Stderr, &f.common, envCfg)
	if err != nil {
		return err
	}

	files, err := collectPageFiles(positional)
	if err != nil {
		return err
	}
	doc, err := readPageFiles(files)
	if err != nil {
		return err
	}
	doc = newDocument(cfg, doc)
	logger.Debug("pages loaded", "pages", len(doc.Pages), "solutions", len(doc.Solutions))

	output := f.output
	if output == "" {
		output = defaultOutputName
		if cfg.Output.DefaultDir != "" {
			output = filepath.Join(cfg.Output.DefaultDir, output)
		}
	}
	format, err := snap2print.FormatFromPath(output)
	if err != nil {
		return err
	}

	opts, err := exporterOptions(cfg, f.export.pdfTimeout, env.Now)
	if err != nil {
		return err
	}
	// Edited pages may reference images next to them.
	imageDir, err := filepath.Abs(filepath.Dir(files[0]))
	if err != nil {
		return err
	}
	opts = append(opts, snap2print.WithImageDir(imageDir))

	if err := exportDocument(ctx, doc, format, output, opts); err != nil {
		return err
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Wrote %s (%d pages)\n", output, len(doc.Pages)+len(doc.Solutions))
	}
	return nil
}

// collectPageFiles expands arguments into .html files. Directories
// contribute their .html files sorted by name (non-recursive).
func collectPageFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		if !info.IsDir() {
			if !isPageFile(arg) {
				return nil, fmt.Errorf("%w: %s: expected an .html file", ErrUsage, arg)
			}
			out = append(out, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && isPageFile(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no .html files found", ErrNoInput)
	}
	return out, nil
}

func isPageFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), pageSuffix)
}

// readPageFiles parses every file, routing answer keys by suffix.
func readPageFiles(files []string) (*snap2print.Document, error) {
	doc := &snap2print.Document{}
	for _, path := range files {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReadInput, path, err)
		}
		name := filepath.Base(path)
		page, err := snap2print.ParsePage(name, string(data))
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(strings.ToLower(name), solutionSuffix) {
			doc.Solutions = append(doc.Solutions, page)
		} else {
			doc.Pages = append(doc.Pages, page)
		}
	}
	return doc, nil
}
