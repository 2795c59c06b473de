package argspec

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MapEntry is one KEY=VALUE pair bound to a map-typed argument
type MapEntry struct {
	Key   any
	Value any
}

// MatchedArg records what one ArgSpec received during a parse
type MatchedArg struct {
	arg                  ArgSpec
	stringValues         []string
	originalStringValues []string
	typedValues          []any
	value                any
	count                int
}

// Arg returns the matched option or positional parameter
func (m *MatchedArg) Arg() ArgSpec { return m.arg }

// Option returns the matched option, or nil for a positional parameter
func (m *MatchedArg) Option() *OptionSpec {
	o, _ := m.arg.(*OptionSpec)
	return o
}

// Positional returns the matched positional parameter, or nil for an option
func (m *MatchedArg) Positional() *PositionalParamSpec {
	p, _ := m.arg.(*PositionalParamSpec)
	return p
}

// StringValues returns the raw values after splitting, in match order
func (m *MatchedArg) StringValues() []string { return slices.Clone(m.stringValues) }

// OriginalStringValues returns the raw values as they appeared on the command line
func (m *MatchedArg) OriginalStringValues() []string { return slices.Clone(m.originalStringValues) }

// TypedValues returns one converted value per string value. Map arguments
// yield MapEntry items
func (m *MatchedArg) TypedValues() []any { return slices.Clone(m.typedValues) }

// Value returns the value bound to the argument when the parse finished
func (m *MatchedArg) Value() any { return m.value }

// Count returns how many times the argument matched
func (m *MatchedArg) Count() int { return m.count }

// TypedMap returns the KEY=VALUE entries in the order they were matched,
// or nil when the argument is not map-typed. A repeated key keeps its
// first position and its last value
func (m *MatchedArg) TypedMap() *orderedmap.OrderedMap[any, any] {
	if m.arg.core().shape() != shapeMap {
		return nil
	}
	om := orderedmap.New[any, any]()
	for _, item := range m.typedValues {
		if e, ok := item.(MapEntry); ok {
			om.Set(e.Key, e.Value)
		}
	}
	return om
}

// ParseResult is an immutable record of one command's parse. Subcommand
// results are chained through Subcommand
type ParseResult struct {
	command      *CommandSpec
	originalArgs []string
	matched      []*MatchedArg
	byArg        map[ArgSpec]*MatchedArg
	unmatched    []string
	subcommand   *ParseResult
	parent       *ParseResult
	errs         []error
	missing      []ArgSpec
	usageHelp    bool
	versionHelp  bool
}

func newParseResult(cmd *CommandSpec, originalArgs []string) *ParseResult {
	return &ParseResult{
		command:      cmd,
		originalArgs: originalArgs,
		byArg:        make(map[ArgSpec]*MatchedArg),
	}
}

// CommandSpec returns the command this result belongs to
func (r *ParseResult) CommandSpec() *CommandSpec { return r.command }

// OriginalArgs returns the arguments passed to Parse, before @file expansion
func (r *ParseResult) OriginalArgs() []string { return slices.Clone(r.originalArgs) }

// MatchedArgs returns every matched argument in first-match order
func (r *ParseResult) MatchedArgs() []*MatchedArg { return slices.Clone(r.matched) }

// MatchedOptions returns the matched options in first-match order
func (r *ParseResult) MatchedOptions() []*MatchedArg {
	var out []*MatchedArg
	for _, m := range r.matched {
		if m.arg.IsOption() {
			out = append(out, m)
		}
	}
	return out
}

// MatchedPositionals returns the matched positional parameters in first-match order
func (r *ParseResult) MatchedPositionals() []*MatchedArg {
	var out []*MatchedArg
	for _, m := range r.matched {
		if m.arg.IsPositional() {
			out = append(out, m)
		}
	}
	return out
}

// MatchedOption returns the match record of the option with the given
// name. Bare names like "x" or "verbose" are accepted
func (r *ParseResult) MatchedOption(name string) *MatchedArg {
	o := r.command.FindOption(name)
	if o == nil {
		return nil
	}
	return r.byArg[o]
}

// HasMatchedOption reports whether the named option was matched
func (r *ParseResult) HasMatchedOption(name string) bool {
	return r.MatchedOption(name) != nil
}

// MatchedOptionValue returns the value bound to the named option, or def
// when it was not matched
func (r *ParseResult) MatchedOptionValue(name string, def any) any {
	if m := r.MatchedOption(name); m != nil {
		return m.value
	}
	return def
}

// MatchedPositional returns the match record of the first matched
// positional parameter whose index range contains index
func (r *ParseResult) MatchedPositional(index int) *MatchedArg {
	for _, m := range r.matched {
		if p, ok := m.arg.(*PositionalParamSpec); ok && p.index.Contains(index) {
			return m
		}
	}
	return nil
}

// HasMatchedPositional reports whether a positional parameter covering
// index was matched
func (r *ParseResult) HasMatchedPositional(index int) bool {
	return r.MatchedPositional(index) != nil
}

// MatchedPositionalValue returns the value bound to the positional
// parameter covering index, or def when none was matched
func (r *ParseResult) MatchedPositionalValue(index int, def any) any {
	if m := r.MatchedPositional(index); m != nil {
		return m.value
	}
	return def
}

// Matched returns the match record of arg, or nil
func (r *ParseResult) Matched(arg ArgSpec) *MatchedArg {
	return r.byArg[arg]
}

// UnmatchedArgs returns the tokens no argument or subcommand accepted
func (r *ParseResult) UnmatchedArgs() []string { return slices.Clone(r.unmatched) }

// Subcommand returns the result of the subcommand that was matched, or nil
func (r *ParseResult) Subcommand() *ParseResult { return r.subcommand }

// HasSubcommand reports whether a subcommand was matched
func (r *ParseResult) HasSubcommand() bool { return r.subcommand != nil }

// Parent returns the result of the enclosing command, or nil at the root
func (r *ParseResult) Parent() *ParseResult { return r.parent }

// Chain returns this result followed by every nested subcommand result
func (r *ParseResult) Chain() []*ParseResult {
	var chain []*ParseResult
	for cur := r; cur != nil; cur = cur.subcommand {
		chain = append(chain, cur)
	}
	return chain
}

// Errors returns the failures recorded in error-collection mode for this
// command and its subcommands
func (r *ParseResult) Errors() []error {
	var all []error
	for _, res := range r.Chain() {
		all = append(all, res.errs...)
	}
	return all
}

// MissingRequired returns the required arguments that were not matched
func (r *ParseResult) MissingRequired() []ArgSpec { return slices.Clone(r.missing) }

// IsUsageHelpRequested reports whether a usageHelp option was matched
func (r *ParseResult) IsUsageHelpRequested() bool { return r.usageHelp }

// IsVersionHelpRequested reports whether a versionHelp option was matched
func (r *ParseResult) IsVersionHelpRequested() bool { return r.versionHelp }

// OptionValue returns the named option's value as T, or def when the option
// was not matched or holds a value of another type
func OptionValue[T any](r *ParseResult, name string, def T) T {
	if v, ok := r.MatchedOptionValue(name, nil).(T); ok {
		return v
	}
	return def
}

// PositionalValue returns the value of the positional parameter covering
// index as T, or def
func PositionalValue[T any](r *ParseResult, index int, def T) T {
	if v, ok := r.MatchedPositionalValue(index, nil).(T); ok {
		return v
	}
	return def
}
