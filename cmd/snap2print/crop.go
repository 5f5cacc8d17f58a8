package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	snap2print "github.com/alnah/go-snap2print"
)

// runCrop cuts a rectangle out of one image.
func runCrop(args []string, env *Environment) error {
	f, positional, err := parseCropFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: crop takes exactly one image", ErrUsage)
	}
	if f.rect == "" {
		return fmt.Errorf("%w: --rect is required", ErrUsage)
	}

	rect, err := snap2print.ParseRect(f.rect)
	if err != nil {
		return err
	}

	input := positional[0]
	data, err := os.ReadFile(input) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadInput, input, err)
	}
	img, err := snap2print.Crop(data, rect)
	if err != nil {
		return err
	}

	output := f.output
	if output == "" {
		output = cropOutputPath(input, img.MIMEType)
	}
	if err := writeOutput(output, img.Data); err != nil {
		return err
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Wrote %s (%dx%d)\n", output, img.Width, img.Height)
	}
	return nil
}

// cropOutputPath derives "<name>-crop.<ext>" next to the input, using the
// extension of the encoded format.
func cropOutputPath(input, mimeType string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/jpeg":
		if !strings.EqualFold(ext, ".jpg") && !strings.EqualFold(ext, ".jpeg") {
			ext = ".jpg"
		}
	}
	return stem + "-crop" + ext
}
