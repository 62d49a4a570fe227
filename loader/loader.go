// Package loader parses the YAML/Markdown apply-batch documents consumed
// by the external stigctl CLI into an apply.Request the core can run.
// A bare YAML document decodes directly; a Markdown
// document is scanned for its first fenced ```yaml block, matching the
// convention stigctl uses for human-authored batch files that mix prose
// with operations.
package loader

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/stigctl/engine/apply"
)

// ParseYAML decodes a YAML document directly into an apply.Request. The
// document's top-level shape is identical to the JSON wire form
// ({"operations": [...]}) because Operation's UnmarshalJSON is reused via
// YAMLToJSON.
func ParseYAML(data []byte) (apply.Request, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return apply.Request{}, fmt.Errorf("loader: convert yaml to json: %w", err)
	}

	var req apply.Request
	if err := unmarshalRequest(jsonBytes, &req); err != nil {
		return apply.Request{}, err
	}
	return req, nil
}

// ParseMarkdown extracts the first fenced ```yaml (or plain ```) code
// block from a Markdown document and parses it as a batch. A document
// with no fenced block is an error: the loader has nothing to run.
func ParseMarkdown(data []byte) (apply.Request, error) {
	block, err := extractFencedYAML(data)
	if err != nil {
		return apply.Request{}, err
	}
	return ParseYAML(block)
}

var errNoFencedBlock = fmt.Errorf("loader: no fenced yaml block found")

func extractFencedYAML(data []byte) ([]byte, error) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var inBlock bool
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && (trimmed == "```yaml" || trimmed == "```yml" || trimmed == "```"):
			inBlock = true
		case inBlock && trimmed == "```":
			return []byte(strings.Join(lines, "\n")), nil
		case inBlock:
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: scan markdown: %w", err)
	}
	return nil, errNoFencedBlock
}

// unmarshalRequest decodes the JSON-converted document so apply.Operation's
// custom UnmarshalJSON (internally-tagged union decode) runs exactly as it
// does for the HTTP /apply endpoint.
func unmarshalRequest(jsonBytes []byte, req *apply.Request) error {
	if err := json.Unmarshal(jsonBytes, req); err != nil {
		return fmt.Errorf("loader: decode operations: %w", err)
	}
	return nil
}
