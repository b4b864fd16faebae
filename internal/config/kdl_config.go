package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from .demystify.kdl in dir. It
// returns nil without error when the file does not exist.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, KDLFileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KDLFileName, err)
	}

	return parseKDL(string(content))
}

// parseKDL overlays a KDL document on the defaults:
//
//	resolve { max_depth 10 }
//	filter { collapse "System." "UnityEngine." }
//	render { parameters "full" }
//
// The first list node of a key replaces the default list, later ones append.
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "resolve":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Resolve.MaxDepth = v
					}
				case "lambda_ordinals":
					assignBool(cn, &cfg.Resolve.LambdaOrdinals)
				case "state_machines":
					assignBool(cn, &cfg.Resolve.StateMachines)
				case "cctor_delegates":
					assignBool(cn, &cfg.Resolve.CctorDelegates)
				case "async_prefix":
					assignBool(cn, &cfg.Resolve.AsyncPrefix)
				default:
					warnUnknown(n, cn)
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					assignBool(cn, &cfg.Cache.Enabled)
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.MaxEntries = v
					}
				case "shards":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.Shards = v
					}
				default:
					warnUnknown(n, cn)
				}
			}
		case "filter":
			seen := make(map[string]bool)
			list := func(cn *document.Node, target *[]string) {
				key := nodeName(cn)
				if !seen[key] {
					*target = nil
					seen[key] = true
				}
				*target = append(*target, collectStringArgs(cn)...)
			}
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "collapse":
					list(cn, &cfg.Filter.Collapse)
				case "hidden_namespace":
					list(cn, &cfg.Filter.HiddenNamespaces)
				case "hidden_type":
					list(cn, &cfg.Filter.HiddenTypes)
				case "hidden_method":
					list(cn, &cfg.Filter.HiddenMethods)
				case "exclude_from_collapse":
					list(cn, &cfg.Filter.ExcludeFromCollapse)
				case "hidden_attribute":
					assignSimpleString(cn, "hidden_attribute", func(v string) { cfg.Filter.HiddenAttribute = v })
				default:
					warnUnknown(n, cn)
				}
			}
		case "render":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "parameters":
					assignSimpleString(cn, "parameters", func(v string) { cfg.Render.Parameters = v })
				case "markers":
					assignBool(cn, &cfg.Render.Markers)
				case "frame_prefix":
					assignSimpleString(cn, "frame_prefix", func(v string) { cfg.Render.FramePrefix = v })
				case "locations":
					assignBool(cn, &cfg.Render.Locations)
				case "omit_location_prefix":
					assignSimpleString(cn, "omit_location_prefix", func(v string) { cfg.Render.OmitLocationPrefix = v })
				case "max_exception_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Render.MaxExceptionDepth = v
					}
				default:
					warnUnknown(n, cn)
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "pattern":
					assignSimpleString(cn, "pattern", func(v string) { cfg.Watch.Pattern = v })
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				case "output_suffix":
					assignSimpleString(cn, "output_suffix", func(v string) { cfg.Watch.OutputSuffix = v })
				default:
					warnUnknown(n, cn)
				}
			}
		default:
			log.Printf("WARNING: unknown section '%s' in %s", nodeName(n), KDLFileName)
		}
	}

	return cfg, nil
}

func warnUnknown(section, n *document.Node) {
	log.Printf("WARNING: unknown key '%s' in section '%s' of %s", nodeName(n), nodeName(section), KDLFileName)
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		log.Printf("WARNING: invalid integer value for '%s' in KDL config, got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func assignBool(n *document.Node, target *bool) {
	if b, ok := firstBoolArg(n); ok {
		*target = b
	}
}

// collectStringArgs accepts both inline arguments and block children:
//
//	collapse "System." "Boo.Lang."
//	collapse { "System."; "Boo.Lang." }
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// in block format the node name itself is the string value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
