package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"path"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// ParseFrontMatter splits source into governance metadata and the Markdown
// body without delimiters. Files without frontmatter yield an empty envelope.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta interfaces.FrontMatter

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta.Custom == nil {
		meta.Custom = map[string]any{}
	} else {
		meta.Custom = maps.Clone(meta.Custom)
	}
	return meta, body, nil
}

// ParsePolicyDocument builds a PolicyDocument for the file at docPath. The
// title falls back to the first level-one heading, then to the file name.
func ParsePolicyDocument(docPath string, source []byte) (*interfaces.PolicyDocument, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = firstHeading(body)
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = strings.TrimSuffix(path.Base(docPath), path.Ext(docPath))
	}
	meta.Title = strings.TrimSpace(meta.Title)

	sum := sha256.Sum256(source)
	return &interfaces.PolicyDocument{
		Path:        docPath,
		FrontMatter: meta,
		Body:        body,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

func firstHeading(body []byte) string {
	inFence := false
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
