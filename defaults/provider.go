// Package defaults resolves argument default values from layered sources:
// built-in maps, configuration files and environment variables. A Provider
// plugs into a command through CommandSpec.SetDefaultValueProvider
package defaults

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/dzonerzy/go-argspec/argspec"
)

// SourceType orders the layers of a Provider. Higher values win
type SourceType int

const (
	SourceTypeDefaults SourceType = iota
	SourceTypeFile
	SourceTypeEnv
)

func (t SourceType) String() string {
	switch t {
	case SourceTypeDefaults:
		return "Defaults"
	case SourceTypeFile:
		return "Files"
	case SourceTypeEnv:
		return "Environment"
	default:
		return "Unknown"
	}
}

type source struct {
	typ    SourceType
	origin string
	data   map[string]any
}

// Provider resolves default values with the precedence Defaults < File < Env.
// Within one layer, sources added later override earlier ones
type Provider struct {
	mu        sync.Mutex
	sources   []source
	envPrefix string
	envOn     bool
	lookupEnv func(string) (string, bool)
	resolved  map[string]any
}

// New returns an empty Provider
func New() *Provider {
	return &Provider{lookupEnv: os.LookupEnv}
}

// FromMap adds a built-in defaults layer. Nested maps are addressed with
// dotted keys
func (p *Provider) FromMap(data map[string]any) *Provider {
	return p.AddSource(SourceTypeDefaults, "map", data)
}

// FromEnv enables environment lookups. Key "server.port" with prefix
// "APP" reads APP_SERVER_PORT
func (p *Provider) FromEnv(prefix string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envOn = true
	p.envPrefix = prefix
	return p
}

// AddSource adds data as a layer of the given type
func (p *Provider) AddSource(t SourceType, origin string, data map[string]any) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = append(p.sources, source{typ: t, origin: origin, data: data})
	p.resolved = nil
	return p
}

// Resolve merges the added layers in precedence order and returns the
// flattened result. Live environment lookups are not included
func (p *Provider) Resolve() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolveLocked()
}

func (p *Provider) resolveLocked() map[string]any {
	if p.resolved != nil {
		return p.resolved
	}
	merged := make(map[string]any)
	for t := SourceTypeDefaults; t <= SourceTypeEnv; t++ {
		for _, src := range p.sources {
			if src.typ == t {
				mergeInto(merged, src.data)
			}
		}
	}
	flat := make(map[string]any)
	flattenMap("", merged, flat)
	p.resolved = flat
	return flat
}

// flattenMap converts nested maps to dotted keys ({"a":{"b":1}} => {"a.b":1})
func flattenMap(prefix string, src map[string]any, dst map[string]any) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flattenMap(key, sub, dst)
			continue
		}
		dst[key] = v
	}
}

func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		if existing, ok := dst[key].(map[string]any); ok {
			if incoming, ok := value.(map[string]any); ok {
				mergeInto(existing, incoming)
				continue
			}
		}
		if incoming, ok := value.(map[string]any); ok {
			copied := make(map[string]any, len(incoming))
			mergeInto(copied, incoming)
			value = copied
		}
		dst[key] = value
	}
}

// Lookup returns the value stored under key. The environment wins over
// files and maps. A key naming a table yields its entries as
// "k1=v1,k2=v2" sorted by key
func (p *Provider) Lookup(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.envOn {
		if v, ok := p.lookupEnv(EnvKey(p.envPrefix, key)); ok {
			return v, true
		}
	}

	flat := p.resolveLocked()
	if v, ok := flat[key]; ok {
		return stringify(v), true
	}

	var entries []string
	prefix := key + "."
	for k, v := range flat {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			entries = append(entries, rest+"="+stringify(v))
		}
	}
	if len(entries) == 0 {
		return "", false
	}
	slices.Sort(entries)
	return strings.Join(entries, ","), true
}

// DefaultValue implements argspec.DefaultValueProvider. See Keys for the
// keys consulted
func (p *Provider) DefaultValue(arg argspec.ArgSpec) (string, bool, error) {
	for _, key := range Keys(arg) {
		if v, ok := p.Lookup(key); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Keys returns the lookup keys for arg, most specific first: the
// subcommand path below the root joined with dots and followed by the
// argument name, then the bare argument name. Option names lose their
// prefix; positional parameters use their label without angle brackets
func Keys(arg argspec.ArgSpec) []string {
	name := argName(arg)
	if name == "" {
		return nil
	}
	path := commandPath(arg.Command())
	if path == "" {
		return []string{name}
	}
	return []string{path + "." + name, name}
}

func argName(arg argspec.ArgSpec) string {
	if o, ok := arg.(*argspec.OptionSpec); ok {
		return strings.TrimLeft(o.LongestName(), "-/")
	}
	return strings.Trim(arg.ParamLabel(), "<>")
}

func commandPath(cmd *argspec.CommandSpec) string {
	var names []string
	for c := cmd; c != nil && c.Parent() != nil; c = c.Parent() {
		names = append(names, c.Name())
	}
	slices.Reverse(names)
	return strings.Join(names, ".")
}

// EnvKey formats key as an environment variable name:
// database.host-name with prefix APP becomes APP_DATABASE_HOST_NAME
func EnvKey(prefix, key string) string {
	envKey := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if prefix != "" {
		envKey = strings.ToUpper(prefix) + "_" + envKey
	}
	return envKey
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case map[string]any:
		entries := make([]string, 0, len(val))
		for k, item := range val {
			entries = append(entries, k+"="+stringify(item))
		}
		slices.Sort(entries)
		return strings.Join(entries, ",")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// DebugPrecedence describes the layers in resolution order
func (p *Provider) DebugPrecedence() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var debug strings.Builder
	debug.WriteString("Default value sources (in resolution order):\n")
	for t := SourceTypeDefaults; t <= SourceTypeEnv; t++ {
		for _, src := range p.sources {
			if src.typ == t {
				fmt.Fprintf(&debug, "  %s (%s): %d keys\n", t, src.origin, len(src.data))
			}
		}
	}
	if p.envOn {
		fmt.Fprintf(&debug, "  %s: prefix %q\n", SourceTypeEnv, p.envPrefix)
	}
	return debug.String()
}
