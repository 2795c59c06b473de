package argspec

import (
	"reflect"
	"slices"
)

// CommandLine parses argument lists against a CommandSpec tree.
//
// A CommandLine and its specs are not safe for concurrent use: parsing
// writes the bound values into the specs
type CommandLine struct {
	spec     *CommandSpec
	registry *Registry
	last     *ParseResult
}

// NewCommandLine wraps spec. A nil spec yields an empty unnamed command
func NewCommandLine(spec *CommandSpec) *CommandLine {
	if spec == nil {
		spec = NewCommandSpec()
	}
	return &CommandLine{spec: spec, registry: NewRegistry()}
}

// Spec returns the root command model
func (cl *CommandLine) Spec() *CommandSpec { return cl.spec }

// Name returns the root command name
func (cl *CommandLine) Name() string { return cl.spec.name }

// SetName names the root command
func (cl *CommandLine) SetName(name string) *CommandLine {
	cl.spec.SetName(name)
	return cl
}

// Registry returns the converter registry used by Parse
func (cl *CommandLine) Registry() *Registry { return cl.registry }

// RegisterConverter installs c for values of type t
func (cl *CommandLine) RegisterConverter(t reflect.Type, c Converter) *CommandLine {
	cl.registry.Register(t, c)
	return cl
}

// AddSubcommand attaches sub to the root command
func (cl *CommandLine) AddSubcommand(name string, sub *CommandSpec) error {
	return cl.spec.AddSubcommand(name, sub)
}

// Subcommands returns the root command's subcommands
func (cl *CommandLine) Subcommands() []*CommandSpec { return cl.spec.Subcommands() }

// Parse matches args against the command tree, binds values and returns
// the result. In error-collection mode the result is returned together
// with a *multierror.Error holding every failure
func (cl *CommandLine) Parse(args ...string) (*ParseResult, error) {
	original := slices.Clone(args)
	tokens := slices.Clone(args)

	root := cl.spec
	if root.parser.ExpandAtFiles {
		expanded, err := expandAtFiles(tokens, root.parser.AtFileCommentChar, root.tracer)
		if err != nil {
			return nil, err
		}
		tokens = expanded
	}
	root.tracer.Debug("Parsing %d command line args %v", len(tokens), tokens)

	state := &parseState{
		registry:     cl.registry,
		tokens:       tokens,
		originalArgs: original,
	}
	result, err := state.parseCommand(root)
	if err != nil {
		return nil, err
	}
	cl.last = result
	return result, state.errs.ErrorOrNil()
}

// ParseResult returns the result of the last successful Parse
func (cl *CommandLine) ParseResult() *ParseResult { return cl.last }

// UnmatchedArgs returns the root command's unmatched tokens from the last parse
func (cl *CommandLine) UnmatchedArgs() []string {
	if cl.last == nil {
		return nil
	}
	return cl.last.UnmatchedArgs()
}

// each applies fn to the root command and every subcommand below it
func (cl *CommandLine) each(fn func(*CommandSpec)) *CommandLine {
	seen := make(map[*CommandSpec]bool)
	var walk func(*CommandSpec)
	walk = func(c *CommandSpec) {
		if seen[c] {
			return
		}
		seen[c] = true
		fn(c)
		for _, sub := range c.Subcommands() {
			walk(sub)
		}
	}
	walk(cl.spec)
	return cl
}

// SetSeparator sets the name/value separator of the whole command tree
func (cl *CommandLine) SetSeparator(sep string) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.Separator = sep })
}

// SetEndOfOptionsDelimiter sets the end-of-options token of the whole command tree
func (cl *CommandLine) SetEndOfOptionsDelimiter(delim string) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.EndOfOptionsDelimiter = delim })
}

// SetOverwrittenOptionsAllowed lets single-value options match repeatedly; the last value wins
func (cl *CommandLine) SetOverwrittenOptionsAllowed(allowed bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.OverwrittenOptionsAllowed = allowed })
}

// SetUnmatchedArgumentsAllowed records unmatched tokens instead of failing
func (cl *CommandLine) SetUnmatchedArgumentsAllowed(allowed bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.UnmatchedArgumentsAllowed = allowed })
}

// SetUnmatchedOptionsArePositionalParams treats unknown option-like tokens as positional values
func (cl *CommandLine) SetUnmatchedOptionsArePositionalParams(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.UnmatchedOptionsArePositionalParams = enabled })
}

// SetPosixClusteredShortOptionsAllowed toggles -abc clustering
func (cl *CommandLine) SetPosixClusteredShortOptionsAllowed(allowed bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.PosixClusteredShortOptionsAllowed = allowed })
}

// SetOptionsCaseInsensitive makes option name matching ignore case
func (cl *CommandLine) SetOptionsCaseInsensitive(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.OptionsCaseInsensitive = enabled })
}

// SetCaseInsensitiveEnumValuesAllowed makes enum value matching ignore case
func (cl *CommandLine) SetCaseInsensitiveEnumValuesAllowed(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.CaseInsensitiveEnumValuesAllowed = enabled })
}

// SetStopAtPositional treats everything after the first positional value as positional
func (cl *CommandLine) SetStopAtPositional(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.StopAtPositional = enabled })
}

// SetStopAtUnmatched treats everything after the first unmatched token as unmatched
func (cl *CommandLine) SetStopAtUnmatched(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.StopAtUnmatched = enabled })
}

// SetCollectErrors records failures on the result instead of aborting
func (cl *CommandLine) SetCollectErrors(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.CollectErrors = enabled })
}

// SetExpandAtFiles toggles @file expansion
func (cl *CommandLine) SetExpandAtFiles(enabled bool) *CommandLine {
	return cl.each(func(c *CommandSpec) { c.parser.ExpandAtFiles = enabled })
}

// SetTraceLevel changes the level of the root command's tracer
func (cl *CommandLine) SetTraceLevel(level TraceLevel) *CommandLine {
	cl.spec.tracer.SetLevel(level)
	return cl
}
