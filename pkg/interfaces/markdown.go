package interfaces

// MarkdownParser converts raw Markdown bytes into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps" json:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode" json:"safe_mode"`
}

// PolicyDocument is a governed Markdown file split into metadata and body.
type PolicyDocument struct {
	Path        string
	FrontMatter FrontMatter
	Body        []byte
	// Checksum is the hex SHA-256 of the source file, used to correlate
	// published artifacts with a revision.
	Checksum string
}

// FrontMatter carries the governance metadata of a policy document. Unknown
// keys land in Custom.
type FrontMatter struct {
	Title         string         `yaml:"title" json:"title"`
	Owner         string         `yaml:"owner" json:"owner"`
	Domain        string         `yaml:"domain" json:"domain"`
	Version       string         `yaml:"version" json:"version"`
	EffectiveDate string         `yaml:"effective_date" json:"effective_date"`
	ReviewDate    string         `yaml:"review_date" json:"review_date"`
	Status        string         `yaml:"status" json:"status"`
	Custom        map[string]any `yaml:",inline" json:"custom"`
}
