// Package pipeline holds the HTML building blocks shared by the exporters:
//   - Markdown header rendering via Goldmark
//   - CSS injection into HTML documents
//   - Rewriting relative image paths in edited pages to file:// URLs
//
// Page layout and PDF rendering live in the root snap2print package.
package pipeline
