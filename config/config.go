package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the root of the declarative route configuration.
type Document struct {
	Router Router `yaml:"router"`
}

// Router holds the route table and binding options.
type Router struct {
	// Routes maps host patterns to their path entries, in declaration
	// order. Host keys surrounded by "/" are regular expressions.
	Routes []HostEntry

	// Verbose enables per-route logging while binding.
	Verbose bool
}

// HostEntry is one host pattern with its ordered path entries.
type HostEntry struct {
	Host  string
	Paths []PathEntry
}

// PathEntry is one path pattern with its route fields. Handler order
// follows the document.
type PathEntry struct {
	Path string

	// Redirect, when set, installs a terminal redirect with Code.
	Redirect string
	Code     int

	// Rewrites are (src, dest) substitutions applied before handlers.
	Rewrites [][2]string

	// Handlers are the named handler entries with their raw configs.
	Handlers []Handler
}

// Handler is a named handler reference with its configuration value:
// a scalar (usually the short form, e.g. a root or upstream string) or a
// mapping decoded to map[string]any.
type Handler struct {
	Name   string
	Config any
}

// Load reads and parses a configuration file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a configuration document. Mapping order in the YAML
// source is preserved: hosts, paths and handlers bind in declaration
// order.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	doc := &Document{}
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config: top level must be a mapping")
	}
	for key, val := range mappingPairs(top) {
		if key.Value != "router" {
			continue
		}
		if err := decodeRouter(val, &doc.Router); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func decodeRouter(n *yaml.Node, r *Router) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("config: router must be a mapping")
	}
	for key, val := range mappingPairs(n) {
		switch key.Value {
		case "verbose":
			if err := val.Decode(&r.Verbose); err != nil {
				return fmt.Errorf("config: router.verbose: %w", err)
			}
		case "routes":
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("config: router.routes must be a mapping")
			}
			for host, paths := range mappingPairs(val) {
				entry := HostEntry{Host: host.Value}
				if err := decodePaths(paths, &entry); err != nil {
					return err
				}
				r.Routes = append(r.Routes, entry)
			}
		}
	}
	return nil
}

func decodePaths(n *yaml.Node, host *HostEntry) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("config: routes for %q must be a mapping", host.Host)
	}
	for key, val := range mappingPairs(n) {
		entry := PathEntry{Path: key.Value}
		if err := decodePathEntry(val, &entry); err != nil {
			return fmt.Errorf("config: route %q %q: %w", host.Host, key.Value, err)
		}
		host.Paths = append(host.Paths, entry)
	}
	return nil
}

func decodePathEntry(n *yaml.Node, entry *PathEntry) error {
	// A bare string is shorthand for a single handler name with no config.
	if n.Kind == yaml.ScalarNode {
		var name string
		if err := n.Decode(&name); err != nil {
			return err
		}
		entry.Handlers = append(entry.Handlers, Handler{Name: name})
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("entry must be a string or a mapping")
	}

	for key, val := range mappingPairs(n) {
		switch key.Value {
		case "redirect":
			if err := val.Decode(&entry.Redirect); err != nil {
				return fmt.Errorf("redirect: %w", err)
			}
		case "code":
			if err := val.Decode(&entry.Code); err != nil {
				return fmt.Errorf("code: %w", err)
			}
		case "rewrite":
			if err := val.Decode(&entry.Rewrites); err != nil {
				return fmt.Errorf("rewrite: %w", err)
			}
		default:
			var cfg any
			if err := val.Decode(&cfg); err != nil {
				return fmt.Errorf("handler %q: %w", key.Value, err)
			}
			entry.Handlers = append(entry.Handlers, Handler{Name: key.Value, Config: normalize(cfg)})
		}
	}
	return nil
}

// normalize rewrites yaml's map[string]any values recursively so handler
// factories can type-assert without caring about yaml internals.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

// mappingPairs iterates a mapping node's key/value pairs in document
// order.
func mappingPairs(n *yaml.Node) func(yield func(*yaml.Node, *yaml.Node) bool) {
	return func(yield func(*yaml.Node, *yaml.Node) bool) {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if !yield(n.Content[i], n.Content[i+1]) {
				return
			}
		}
	}
}
