package argspec

import (
	"slices"
)

// ParserSpec holds the parser behavior switches of one command
type ParserSpec struct {
	// Separator joins an option name and its value in one token: --name=value.
	Separator             string
	// EndOfOptionsDelimiter makes every following token positional.
	EndOfOptionsDelimiter string

	OptionsCaseInsensitive              bool
	CaseInsensitiveEnumValuesAllowed    bool
	PosixClusteredShortOptionsAllowed   bool
	OverwrittenOptionsAllowed           bool
	UnmatchedArgumentsAllowed           bool
	UnmatchedOptionsArePositionalParams bool
	StopAtPositional                    bool
	StopAtUnmatched                     bool

	// CollectErrors records parse failures on the ParseResult and keeps going.
	CollectErrors bool

	// ExpandAtFiles replaces @path tokens with the contents of the file.
	ExpandAtFiles     bool
	AtFileCommentChar rune
}

// NewParserSpec returns the default parser settings
func NewParserSpec() *ParserSpec {
	return &ParserSpec{
		Separator:                         "=",
		EndOfOptionsDelimiter:             "--",
		PosixClusteredShortOptionsAllowed: true,
		ExpandAtFiles:                     true,
		AtFileCommentChar:                 '#',
	}
}

// UsageMessageWidthMin is the narrowest accepted usage message width
const UsageMessageWidthMin = 55

// UsageMessageSpec carries the usage message attributes of a command.
// Rendering is left to callers
type UsageMessageSpec struct {
	Header             []string
	Description        []string
	Footer             []string
	CustomSynopsis     []string
	Hidden             bool
	CommandListHeading string

	width int
}

const defaultCommandListHeading = "Commands:%n"

// NewUsageMessageSpec returns usage settings with an 80 column width
func NewUsageMessageSpec() *UsageMessageSpec {
	return &UsageMessageSpec{
		CommandListHeading: defaultCommandListHeading,
		width:              80,
	}
}

// Width returns the usage message width in columns
func (u *UsageMessageSpec) Width() int { return u.width }

// SetWidth sets the usage message width. Values below 55 are rejected
func (u *UsageMessageSpec) SetWidth(width int) error {
	if width < UsageMessageWidthMin {
		return initErrorf("Invalid usage message width %d. Minimum value is %d", width, UsageMessageWidthMin)
	}
	u.width = width
	return nil
}

// InitFromMixin adopts every attribute u has not set itself
func (u *UsageMessageSpec) InitFromMixin(mixin *UsageMessageSpec) {
	if mixin == nil {
		return
	}
	if len(u.Header) == 0 {
		u.Header = slices.Clone(mixin.Header)
	}
	if len(u.Description) == 0 {
		u.Description = slices.Clone(mixin.Description)
	}
	if len(u.Footer) == 0 {
		u.Footer = slices.Clone(mixin.Footer)
	}
	if len(u.CustomSynopsis) == 0 {
		u.CustomSynopsis = slices.Clone(mixin.CustomSynopsis)
	}
	if u.CommandListHeading == defaultCommandListHeading {
		u.CommandListHeading = mixin.CommandListHeading
	}
	u.Hidden = u.Hidden || mixin.Hidden
}

// ResourceBundle is a named set of localized messages
type ResourceBundle struct {
	name     string
	messages map[string]string
}

// NewResourceBundle returns a bundle holding a copy of messages
func NewResourceBundle(name string, messages map[string]string) *ResourceBundle {
	m := make(map[string]string, len(messages))
	for k, v := range messages {
		m[k] = v
	}
	return &ResourceBundle{name: name, messages: m}
}

// Name returns the bundle name
func (b *ResourceBundle) Name() string { return b.name }

// Message returns the message stored under key
func (b *ResourceBundle) Message(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	m, ok := b.messages[key]
	return m, ok
}

// VersionProvider supplies version lines on demand
type VersionProvider interface {
	Version() ([]string, error)
}

// VersionProviderFunc adapts a function to VersionProvider
type VersionProviderFunc func() ([]string, error)

// Version calls f
func (f VersionProviderFunc) Version() ([]string, error) { return f() }

// DefaultValueProvider supplies raw default values for arguments that were
// not matched. ok is false when the provider has no value for arg
type DefaultValueProvider interface {
	DefaultValue(arg ArgSpec) (value string, ok bool, err error)
}

// DefaultValueProviderFunc adapts a function to DefaultValueProvider
type DefaultValueProviderFunc func(arg ArgSpec) (string, bool, error)

// DefaultValue calls f(arg)
func (f DefaultValueProviderFunc) DefaultValue(arg ArgSpec) (string, bool, error) { return f(arg) }
