package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	chatschema "github.com/juburr/openai-chat-schema"
	"github.com/juburr/openai-chat-schema/internal/config"
)

// readDocument reads the single positional argument (or stdin for "-" or
// none) and returns a value the schemas accept.
func readDocument(cmd *cobra.Command, args []string, format string) (any, error) {
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if format == "" {
		format = detectFormat(path)
	}

	switch format {
	case config.InputFormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode YAML %s: %w", path, err)
		}
		doc, err := yamlValue(&root, map[*yaml.Node]bool{})
		if err != nil {
			return nil, fmt.Errorf("decode YAML %s: %w", path, err)
		}
		return doc, nil
	default:
		return json.RawMessage(data), nil
	}
}

// yamlValue converts a YAML node into a JSON-shaped tree. Only null, bool,
// int and float scalars are resolved; every other scalar (timestamps,
// binary, custom tags) keeps its source text so a date stays a string.
func yamlValue(n *yaml.Node, expanding map[*yaml.Node]bool) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0], expanding)

	case yaml.AliasNode:
		if expanding[n.Alias] {
			return nil, fmt.Errorf("line %d: alias %q refers to itself", n.Line, n.Value)
		}
		expanding[n.Alias] = true
		defer delete(expanding, n.Alias)
		return yamlValue(n.Alias, expanding)

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := yamlValue(item, expanding)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := yamlValue(value, expanding)
			if err != nil {
				return nil, err
			}
			if key.ShortTag() == "!!merge" {
				if err := mergeYAML(out, v, key.Line); err != nil {
					return nil, err
				}
				continue
			}
			out[key.Value] = v
		}
		return out, nil

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool", "!!int", "!!float":
			var v any
			if err := n.Decode(&v); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return v, nil
		default:
			return n.Value, nil
		}
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// mergeYAML applies a "<<" merge value. Keys already present win.
func mergeYAML(dst map[string]any, src any, line int) error {
	switch src := src.(type) {
	case map[string]any:
		for k, v := range src {
			if _, ok := dst[k]; !ok {
				dst[k] = v
			}
		}
		return nil
	case []any:
		for _, item := range src {
			if err := mergeYAML(dst, item, line); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("line %d: merge value must be a mapping", line)
}

func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.InputFormatYAML
	default:
		return config.InputFormatJSON
	}
}

// printIssues writes one issue per line, or the error itself when it carries
// no issues.
func printIssues(w io.Writer, err error) {
	var mismatch *chatschema.ShapeMismatchError
	if !errors.As(err, &mismatch) {
		fmt.Fprintln(w, err)
		return
	}
	for _, issue := range mismatch.Issues {
		fmt.Fprintln(w, issue.String())
	}
}
