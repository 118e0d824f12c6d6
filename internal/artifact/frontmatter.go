package artifact

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("artifact: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block was not closed.
	ErrMalformedFrontMatter = errors.New("artifact: malformed frontmatter")
)

// ParseFrontMatter extracts the metadata block and body from a document that
// starts with `---` YAML fences.
func ParseFrontMatter(content []byte) (map[string]any, []byte, error) {
	if len(content) == 0 {
		return nil, nil, ErrMissingFrontMatter
	}
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	var metaBytes, body []byte
	if bytes.HasPrefix(rest, []byte("---\n")) {
		body = rest[4:]
	} else {
		parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
		if len(parts) < 2 {
			return nil, nil, ErrMalformedFrontMatter
		}
		metaBytes, body = parts[0], parts[1]
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return nil, nil, fmt.Errorf("artifact: parse frontmatter: %w", err)
	}
	return meta, body, nil
}

// DocumentBody returns the document text without its frontmatter block.
// Documents without (or with broken) frontmatter are returned whole.
func DocumentBody(content []byte) []byte {
	_, body, err := ParseFrontMatter(content)
	if err != nil {
		return normalizeNewlines(content)
	}
	return body
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
