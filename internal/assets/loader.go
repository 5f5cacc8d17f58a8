package assets

// Names of the built-in styles.
const (
	DefaultStyle = "print"
	WordStyle    = "word"
)

// AssetLoader loads CSS styles by name.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist and
	// ErrInvalidAssetName if the name is unsafe.
	LoadStyle(name string) (string, error)
}
