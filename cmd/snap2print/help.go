package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snap2print <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Turn page photos into printable documents")
	fmt.Fprintln(w, "  export      Assemble edited HTML pages into a document")
	fmt.Fprintln(w, "  crop        Crop an image before converting it")
	fmt.Fprintln(w, "  doctor      Check system configuration")
	fmt.Fprintln(w, "  config      Print the effective configuration")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'snap2print help <command>' for details on a specific command.")
}

// printDocumentUsage prints the flag groups shared by convert and export.
func printDocumentUsage(w io.Writer) {
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>           Title; {date} and {date:FORMAT} are expanded")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w, "      --header <s>          Markdown header above the first page")
	fmt.Fprintln(w, "      --header-file <path>  Read the header from a Markdown file")
	fmt.Fprintln(w, "      --style <s>           CSS style name or file path")
	fmt.Fprintln(w, "      --solutions <s>       Answer keys: none, append, only")
	fmt.Fprintln(w, "      --page-numbers        Print page numbers (PDF only)")
	fmt.Fprintln(w, "      --pdf-timeout <d>     PDF rendering timeout (default 60s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watermark:")
	fmt.Fprintln(w, "      --wm-text <s>         Watermark text")
	fmt.Fprintln(w, "      --wm-color <s>        Watermark color (hex)")
	fmt.Fprintln(w, "      --wm-opacity <f>      Watermark opacity (0.0-1.0)")
	fmt.Fprintln(w, "      --wm-angle <f>        Watermark angle in degrees")
	fmt.Fprintln(w, "      --no-watermark        Disable watermark")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
	fmt.Fprintln(w, "      --log-level <s>       Log level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snap2print convert <image|dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recreate each image as HTML with the model, then export the pages.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  image    PNG, JPEG, GIF or WebP file, or a directory of them")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file; format from extension (default snap2print.pdf)")
	fmt.Fprintln(w, "  -f, --format <s>          Format when the output has no extension: pdf, html, doc, md")
	fmt.Fprintln(w, "      --split               One output file per image (--output is a directory)")
	fmt.Fprintln(w, "      --pages-dir <dir>     Also write editable HTML page files")
	fmt.Fprintln(w, "      --report <path>       Write a job report (.xlsx)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Model:")
	fmt.Fprintln(w, "  -m, --model <s>           Model name")
	fmt.Fprintln(w, "      --remix               Alter the questions instead of copying them")
	fmt.Fprintln(w, "      --instructions <s>    Extra instructions for every prompt")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-request timeout (e.g., 90s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Processing:")
	fmt.Fprintln(w, "      --parallel            Send requests concurrently")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --delay <d>           Pause between sequential requests")
	fmt.Fprintln(w, "      --max-dimension <n>   Longest image side before upload")
	fmt.Fprintln(w, "      --retries <n>         Extra passes over failed images")
	fmt.Fprintln(w)
	printDocumentUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  SNAP2PRINT_API_KEY, GEMINI_API_KEY or GOOGLE_API_KEY must hold an API key.")
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snap2print export <file.html|dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assemble page files written by 'convert --pages-dir' into one document.")
	fmt.Fprintln(w, "Files ending in .solution.html are treated as answer keys.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file; format from extension (default snap2print.pdf)")
	fmt.Fprintln(w)
	printDocumentUsage(w)
}

// printCropUsage prints usage for the crop command.
func printCropUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snap2print crop <image> --rect X,Y,W,H [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cut a region out of an image, e.g. one exercise from a full page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -r, --rect <x,y,w,h>      Crop rectangle in pixels")
	fmt.Fprintln(w, "  -o, --output <path>       Output image (default <name>-crop.<ext>)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "export":
		printExportUsage(env.Stdout)
	case "crop":
		printCropUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: snap2print version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: snap2print help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
