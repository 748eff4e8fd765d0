package parser

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// ErrNoFrontmatter is returned when a document does not open with a
// frontmatter fence.
var ErrNoFrontmatter = errors.New("parser: missing frontmatter")

// Frontmatter is the metadata block stored at the top of a note document.
type Frontmatter struct {
	ID           string    `yaml:"id"`
	Title        string    `yaml:"title"`
	LastModified time.Time `yaml:"last_modified"`
}

// EncodeDocument renders meta as YAML frontmatter followed by body.
func EncodeDocument(meta Frontmatter, body string) ([]byte, error) {
	out, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(out) + len(body) + 2*len(delim) + 2)
	buf.WriteString(delim + "\n")
	buf.Write(out)
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// DecodeDocument separates the YAML frontmatter from the body. The body is
// returned verbatim, including any leading newlines.
func DecodeDocument(data []byte) (Frontmatter, string, error) {
	var meta Frontmatter

	if !bytes.HasPrefix(data, []byte(delim+"\n")) {
		return meta, "", ErrNoFrontmatter
	}

	rest := data[len(delim)+1:]
	var yamlBlock, body []byte
	if bytes.HasPrefix(rest, []byte(delim+"\n")) {
		body = rest[len(delim)+1:]
	} else {
		idx := bytes.Index(rest, []byte("\n"+delim+"\n"))
		if idx < 0 {
			return meta, "", ErrNoFrontmatter
		}
		yamlBlock = rest[:idx+1]
		body = rest[idx+len(delim)+2:]
	}

	if err := yaml.Unmarshal(yamlBlock, &meta); err != nil {
		return meta, "", fmt.Errorf("parser: decode frontmatter: %w", err)
	}
	return meta, string(body), nil
}
