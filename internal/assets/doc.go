// Package assets provides the CSS styles used by printable exports.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles compiled into the binary
//	    ├── FilesystemLoader  - styles from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// Built-in styles: print (default), exam, compact, and word (used for
// Word-compatible exports).
//
// # Directory Structure
//
//	{basePath}/
//	└── styles/
//	    └── {name}.css
//
// Style names are validated to prevent path traversal, and FilesystemLoader
// resolves symlinks before checking that a file stays inside basePath.
package assets
