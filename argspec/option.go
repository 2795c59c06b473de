package argspec

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// OptionSpec is a named argument such as -v, --verbose or /x
type OptionSpec struct {
	argCore

	names       []string
	usageHelp   bool
	versionHelp bool
}

// OptionBuilder builds an OptionSpec
type OptionBuilder struct {
	argBuilder[*OptionBuilder]

	names       []string
	usageHelp   bool
	versionHelp bool
}

// NewOption starts an option with the given names
func NewOption(name string, more ...string) *OptionBuilder {
	b := &OptionBuilder{names: append([]string{name}, more...)}
	b.argBuilder = newArgBuilder(b)
	return b
}

// Names replaces the option names
func (b *OptionBuilder) Names(names ...string) *OptionBuilder {
	b.names = slices.Clone(names)
	return b
}

// UsageHelp marks the option as the usage help request. It must be boolean
func (b *OptionBuilder) UsageHelp(enabled bool) *OptionBuilder {
	b.usageHelp = enabled
	return b
}

// VersionHelp marks the option as the version request. It must be boolean
func (b *OptionBuilder) VersionHelp(enabled bool) *OptionBuilder {
	b.versionHelp = enabled
	return b
}

// Build validates the builder and returns the option
func (b *OptionBuilder) Build() (*OptionSpec, error) {
	if len(b.names) == 0 {
		return nil, initErrorf("option must have at least one name")
	}
	seen := make(map[string]struct{}, len(b.names))
	for _, n := range b.names {
		if strings.TrimSpace(n) == "" {
			return nil, initErrorf("option names must not be blank: %v", b.names)
		}
		if _, dup := seen[n]; dup {
			return nil, initErrorf("option name '%s' is listed twice", n)
		}
		seen[n] = struct{}{}
	}

	core, err := b.buildCore(true)
	if err != nil {
		return nil, err
	}
	return &OptionSpec{
		argCore:     core,
		names:       slices.Clone(b.names),
		usageHelp:   b.usageHelp,
		versionHelp: b.versionHelp,
	}, nil
}

// MustBuild is like Build but panics on error
func (b *OptionBuilder) MustBuild() *OptionSpec {
	o, err := b.Build()
	if err != nil {
		panic(err)
	}
	return o
}

// ToBuilder returns a builder initialized from o. The binding is shared
func (o *OptionSpec) ToBuilder() *OptionBuilder {
	b := NewOption(o.names[0], o.names[1:]...)
	copyIntoBuilder(&b.argBuilder, &o.argCore)
	b.usageHelp = o.usageHelp
	b.versionHelp = o.versionHelp
	return b
}

func copyIntoBuilder[B any](b *argBuilder[B], c *argCore) {
	b.typ = c.typ
	b.auxTypes = slices.Clone(c.auxTypes)
	if c.aritySet {
		b.arityText = c.arityRange.String()
	}
	b.required = c.required
	b.defValue, b.hasDefault = c.defaultValue, c.hasDefault
	b.fallback = c.fallback
	b.initial, b.hasInitial = c.initial, c.hasInitial
	b.converters = slices.Clone(c.converters)
	b.splitRegex = c.splitRegex
	b.paramLabel = c.paramLabel
	b.desc = slices.Clone(c.description)
	b.descKey = c.descKey
	b.hidden = c.hidden
	b.enumValues = slices.Clone(c.enumValues)
	b.getter, b.setter = c.getter, c.setter
}

// Names returns the option names in declaration order
func (o *OptionSpec) Names() []string { return slices.Clone(o.names) }

// LongestName returns the longest name; the first wins among equals
func (o *OptionSpec) LongestName() string {
	longest := o.names[0]
	for _, n := range o.names[1:] {
		if utf8.RuneCountInString(n) > utf8.RuneCountInString(longest) {
			longest = n
		}
	}
	return longest
}

// ShortestName returns the shortest name; the first wins among equals
func (o *OptionSpec) ShortestName() string {
	shortest := o.names[0]
	for _, n := range o.names[1:] {
		if utf8.RuneCountInString(n) < utf8.RuneCountInString(shortest) {
			shortest = n
		}
	}
	return shortest
}

// UsageHelp reports whether matching this option requests usage help
func (o *OptionSpec) UsageHelp() bool { return o.usageHelp }

// VersionHelp reports whether matching this option requests version info
func (o *OptionSpec) VersionHelp() bool { return o.versionHelp }

// IsOption returns true
func (o *OptionSpec) IsOption() bool { return true }

// IsPositional returns false
func (o *OptionSpec) IsPositional() bool { return false }

func (o *OptionSpec) String() string {
	return fmt.Sprintf("option '%s'", o.LongestName())
}

// posixChar returns the rune of a one-character name like -x
func posixChar(name string) (rune, bool) {
	if len(name) < 2 || name[0] != '-' || name[1] == '-' {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(name[1:])
	if 1+size != len(name) {
		return 0, false
	}
	return r, true
}

// namePrefix returns the leading non-alphanumeric run of an option name
func namePrefix(name string) string {
	for i, r := range name {
		if r == '?' || isAlnum(r) {
			return name[:i]
		}
	}
	return name
}

// stripPrefix drops leading dashes or slashes: "--dry-run" becomes "dry-run"
func stripPrefix(name string) string {
	return name[len(namePrefix(name)):]
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r > utf8.RuneSelf
}
