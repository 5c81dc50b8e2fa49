// Package appstate reads and writes the editor state held in the flat
// key-value store.
//
// Capture turns the store into a domain.Snapshot; Apply writes a snapshot
// back. Structured entries (documents, style configuration) are stored as
// JSON, booleans as the strings "true" and "false", everything else as
// plain text.
package appstate

// DefaultKeyPrefix namespaces the editor's own entries.
const DefaultKeyPrefix = "MD"

// Keys names every store entry a snapshot covers.
type Keys struct {
	Posts          string
	StyleConfig    string
	Theme          string
	FontFamily     string
	FontSize       string
	PrimaryColor   string
	CodeBlockTheme string
	Legend         string
	IsMacCodeBlock string
	IsCiteStatus   string
	IsCountStatus  string
	IsUseIndent    string
	IsEditOnLeft   string
}

// KeysFor returns the key set for prefix. Documents, style configuration
// and the indent flag are prefixed; the other settings use bare names.
func KeysFor(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{
		Posts:          AddPrefix(prefix, "posts"),
		StyleConfig:    AddPrefix(prefix, "css_content_config"),
		Theme:          "theme",
		FontFamily:     "fonts",
		FontSize:       "size",
		PrimaryColor:   "color",
		CodeBlockTheme: "codeBlockTheme",
		Legend:         "legend",
		IsMacCodeBlock: "isMacCodeBlock",
		IsCiteStatus:   "isCiteStatus",
		IsCountStatus:  "isCountStatus",
		IsUseIndent:    AddPrefix(prefix, "use_indent"),
		IsEditOnLeft:   "isEditOnLeft",
	}
}

// AddPrefix joins prefix and name as prefix__name.
func AddPrefix(prefix, name string) string {
	return prefix + "__" + name
}

// All returns every key in write order.
func (k Keys) All() []string {
	return []string{
		k.Posts,
		k.StyleConfig,
		k.Theme,
		k.FontFamily,
		k.FontSize,
		k.PrimaryColor,
		k.CodeBlockTheme,
		k.Legend,
		k.IsMacCodeBlock,
		k.IsCiteStatus,
		k.IsCountStatus,
		k.IsUseIndent,
		k.IsEditOnLeft,
	}
}

// Has reports whether key belongs to the snapshot key set.
func (k Keys) Has(key string) bool {
	for _, name := range k.All() {
		if name == key {
			return true
		}
	}
	return false
}
