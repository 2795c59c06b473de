package argspec

import (
	"fmt"
	"os"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UnnamedCommand is the name of a command that was never given one
const UnnamedCommand = "<unnamed command>"

const standardHelpMixinName = "mixinStandardHelpOptions"

// CommandSpec is the model of one command: its options, positional
// parameters, subcommands and mixins
type CommandSpec struct {
	name    string
	named   bool
	aliases []string
	parent  *CommandSpec

	args          []ArgSpec
	options       []*OptionSpec
	optionsByName *orderedmap.OrderedMap[string, *OptionSpec]
	posix         map[rune]*OptionSpec
	positionals   []*PositionalParamSpec

	// keyed by subcommand name and by every alias
	subcommands *orderedmap.OrderedMap[string, *CommandSpec]
	mixins      *orderedmap.OrderedMap[string, *CommandSpec]

	helpCommand     bool
	version         []string
	versionProvider VersionProvider
	defaultProvider DefaultValueProvider
	bundle          *ResourceBundle
	parser          *ParserSpec
	usage           *UsageMessageSpec
	tracer          *Tracer
	tracerSet       bool
}

// NewCommandSpec returns an empty, unnamed command
func NewCommandSpec() *CommandSpec {
	return &CommandSpec{
		name:          UnnamedCommand,
		optionsByName: orderedmap.New[string, *OptionSpec](),
		posix:         make(map[rune]*OptionSpec),
		subcommands:   orderedmap.New[string, *CommandSpec](),
		mixins:        orderedmap.New[string, *CommandSpec](),
		parser:        NewParserSpec(),
		usage:         NewUsageMessageSpec(),
		tracer:        NewTracer(TraceWarn, os.Stderr),
	}
}

// Name returns the command name, UnnamedCommand if none was assigned
func (c *CommandSpec) Name() string { return c.name }

// SetName assigns the command name. An assigned name survives attachment
// under a different subcommand key
func (c *CommandSpec) SetName(name string) *CommandSpec {
	c.name = name
	c.named = true
	return c
}

// Aliases returns the alternative names of the command
func (c *CommandSpec) Aliases() []string { return slices.Clone(c.aliases) }

// SetAliases replaces the alternative names of the command
func (c *CommandSpec) SetAliases(aliases ...string) *CommandSpec {
	c.aliases = slices.Clone(aliases)
	return c
}

// Names returns the name followed by the aliases, without duplicates
func (c *CommandSpec) Names() []string {
	names := []string{c.name}
	for _, a := range c.aliases {
		if !slices.Contains(names, a) {
			names = append(names, a)
		}
	}
	return names
}

// Parent returns the command this one is a subcommand of
func (c *CommandSpec) Parent() *CommandSpec { return c.parent }

// Root returns the top of the command tree
func (c *CommandSpec) Root() *CommandSpec {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// QualifiedName joins the names from the root down to c with sep
func (c *CommandSpec) QualifiedName(sep string) string {
	var names []string
	for cmd := c; cmd != nil; cmd = cmd.parent {
		names = append(names, cmd.name)
	}
	slices.Reverse(names)
	return strings.Join(names, sep)
}

// Add attaches options and positional parameters in order, stopping at
// the first failure
func (c *CommandSpec) Add(args ...ArgSpec) error {
	for _, a := range args {
		var err error
		switch v := a.(type) {
		case *OptionSpec:
			err = c.AddOption(v)
		case *PositionalParamSpec:
			err = c.AddPositional(v)
		default:
			err = initErrorf("unsupported argument %T", a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AddOption attaches o. Name collisions and help options with a
// non-boolean type fail without modifying c
func (c *CommandSpec) AddOption(o *OptionSpec) error {
	if o == nil {
		return initErrorf("option must not be nil")
	}
	if slices.Contains(c.options, o) {
		return nil
	}
	if err := c.validateOption(o); err != nil {
		return err
	}
	c.attachOption(o)
	return nil
}

func (c *CommandSpec) validateOption(o *OptionSpec) error {
	for _, n := range o.names {
		if existing, ok := c.optionsByName.Get(n); ok && existing != o {
			return initErrorf("Option name '%s' is used by both %s and %s", n, existing.LongestName(), o.LongestName())
		}
	}
	if o.usageHelp && !o.isBoolean() {
		return initErrorf("Non-boolean options like [%s] should not be marked as 'usageHelp=true'. "+
			"Usually a command has one --help boolean flag that triggers display of the usage help message.", o.LongestName())
	}
	if o.versionHelp && !o.isBoolean() {
		return initErrorf("Non-boolean options like [%s] should not be marked as 'versionHelp=true'. "+
			"Usually a command has one --version boolean flag that triggers display of the version information.", o.LongestName())
	}
	return nil
}

func (c *CommandSpec) attachOption(o *OptionSpec) {
	if o.usageHelp {
		c.warnMultipleHelp(o, (*OptionSpec).UsageHelp, "usageHelp",
			"Usually a command has only one --help option that triggers display of the usage help message.")
	}
	if o.versionHelp {
		c.warnMultipleHelp(o, (*OptionSpec).VersionHelp, "versionHelp",
			"Usually a command has only one --version option that triggers display of the version information.")
	}

	c.options = append(c.options, o)
	c.args = append(c.args, o)
	for _, n := range o.names {
		c.optionsByName.Set(n, o)
		if r, ok := posixChar(n); ok {
			c.posix[r] = o
		}
	}
	o.command = c
}

func (c *CommandSpec) warnMultipleHelp(o *OptionSpec, flagged func(*OptionSpec) bool, attr, advice string) {
	var names []string
	for _, existing := range c.options {
		if flagged(existing) {
			names = append(names, existing.LongestName())
		}
	}
	if len(names) == 0 {
		return
	}
	names = append(names, o.LongestName())
	c.tracer.Warn("Multiple options [%s] are marked as '%s=true'. %s "+
		"Alternatively, consider using MixinStandardHelpOptions(true) on your command instead.",
		strings.Join(names, ", "), attr, advice)
}

// RemoveOption detaches o. It reports whether o was attached
func (c *CommandSpec) RemoveOption(o *OptionSpec) bool {
	i := slices.Index(c.options, o)
	if i < 0 {
		return false
	}
	c.options = slices.Delete(c.options, i, i+1)
	if j := slices.Index(c.args, ArgSpec(o)); j >= 0 {
		c.args = slices.Delete(c.args, j, j+1)
	}
	for _, n := range o.names {
		if existing, ok := c.optionsByName.Get(n); ok && existing == o {
			c.optionsByName.Delete(n)
		}
		if r, ok := posixChar(n); ok && c.posix[r] == o {
			delete(c.posix, r)
		}
	}
	return true
}

// AddPositional attaches p. A parameter without an index gets the next
// free position, or all remaining positions when it is multi-value
func (c *CommandSpec) AddPositional(p *PositionalParamSpec) error {
	if p == nil {
		return initErrorf("positional parameter must not be nil")
	}
	if slices.Contains(c.positionals, p) {
		return nil
	}
	if !p.indexSet {
		next := len(c.positionals)
		if p.IsMultiValue() {
			p.index = AtLeast(next)
		} else {
			p.index = Exactly(next)
		}
		p.indexSet = true
	}
	c.positionals = append(c.positionals, p)
	c.args = append(c.args, p)
	p.command = c
	return nil
}

func (c *CommandSpec) removePositional(p *PositionalParamSpec) {
	if i := slices.Index(c.positionals, p); i >= 0 {
		c.positionals = slices.Delete(c.positionals, i, i+1)
	}
	if j := slices.Index(c.args, ArgSpec(p)); j >= 0 {
		c.args = slices.Delete(c.args, j, j+1)
	}
}

// Options returns the attached options in attachment order
func (c *CommandSpec) Options() []*OptionSpec { return slices.Clone(c.options) }

// Positionals returns the attached positional parameters in attachment order
func (c *CommandSpec) Positionals() []*PositionalParamSpec { return slices.Clone(c.positionals) }

// Args returns options and positional parameters in attachment order
func (c *CommandSpec) Args() []ArgSpec { return slices.Clone(c.args) }

// RequiredArgs returns the arguments that must be matched
func (c *CommandSpec) RequiredArgs() []ArgSpec {
	var required []ArgSpec
	for _, a := range c.args {
		if a.Required() {
			required = append(required, a)
		}
	}
	return required
}

// OptionNames returns every option name in attachment order
func (c *CommandSpec) OptionNames() []string {
	names := make([]string, 0, c.optionsByName.Len())
	for pair := c.optionsByName.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// PosixOption returns the option named by a dash and the single rune r
func (c *CommandSpec) PosixOption(r rune) *OptionSpec {
	return c.posix[r]
}

// FindOption resolves a full option name, or a bare name like "x" or
// "verbose" by trying the - and -- prefixes
func (c *CommandSpec) FindOption(name string) *OptionSpec {
	if o := c.lookupOption(name); o != nil {
		return o
	}
	if namePrefix(name) != "" {
		return nil
	}
	if o := c.lookupOption("-" + name); o != nil {
		return o
	}
	return c.lookupOption("--" + name)
}

// lookupOption matches a token exactly, or ignoring case when configured
func (c *CommandSpec) lookupOption(name string) *OptionSpec {
	if o, ok := c.optionsByName.Get(name); ok {
		return o
	}
	if !c.parser.OptionsCaseInsensitive {
		return nil
	}
	for pair := c.optionsByName.Oldest(); pair != nil; pair = pair.Next() {
		if strings.EqualFold(pair.Key, name) {
			return pair.Value
		}
	}
	return nil
}

// AddSubcommand attaches sub under name and its aliases. Collisions with
// existing names or aliases fail without modifying c
func (c *CommandSpec) AddSubcommand(name string, sub *CommandSpec) error {
	if sub == nil {
		return initErrorf("subcommand must not be nil")
	}
	if name == "" {
		name = sub.name
	}
	if err := c.validateSubcommand(name, sub); err != nil {
		return err
	}
	c.attachSubcommand(name, sub)
	return nil
}

func (c *CommandSpec) validateSubcommand(name string, sub *CommandSpec) error {
	if _, exists := c.subcommands.Get(name); exists {
		return initErrorf("Another subcommand named '%s' already exists for command '%s'", name, c.name)
	}
	for _, alias := range sub.aliases {
		if alias == name {
			continue
		}
		if _, exists := c.subcommands.Get(alias); exists {
			return initErrorf("Alias '%s' for subcommand '%s' is already used by another subcommand of '%s'", alias, name, c.name)
		}
	}
	return nil
}

func (c *CommandSpec) attachSubcommand(name string, sub *CommandSpec) {
	if !sub.named {
		sub.name = name
	}
	sub.parent = c
	if sub.bundle == nil {
		sub.bundle = c.bundle
	}
	if !sub.tracerSet {
		sub.tracer = c.tracer
		sub.propagateTracer(c.tracer)
	}

	c.subcommands.Set(name, sub)
	for _, alias := range sub.aliases {
		c.subcommands.Set(alias, sub)
	}
	c.tracer.Debug("Added subcommand '%s' to command '%s'", name, c.name)
}

// Subcommands returns the attached subcommands in attachment order
func (c *CommandSpec) Subcommands() []*CommandSpec {
	var subs []*CommandSpec
	for pair := c.subcommands.Oldest(); pair != nil; pair = pair.Next() {
		if !slices.Contains(subs, pair.Value) {
			subs = append(subs, pair.Value)
		}
	}
	return subs
}

// Subcommand resolves a subcommand by name or alias
func (c *CommandSpec) Subcommand(name string) (*CommandSpec, bool) {
	return c.subcommands.Get(name)
}

// SubcommandKeys returns every name and alias subcommands answer to
func (c *CommandSpec) SubcommandKeys() []string {
	keys := make([]string, 0, c.subcommands.Len())
	for pair := c.subcommands.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// HelpCommand reports whether matching this command suppresses the
// parent's required-argument checks. Mixins flagged as help commands
// make the host one too
func (c *CommandSpec) HelpCommand() bool {
	if c.helpCommand {
		return true
	}
	for pair := c.mixins.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.HelpCommand() {
			return true
		}
	}
	return false
}

// SetHelpCommand flags the command as a help command
func (c *CommandSpec) SetHelpCommand(help bool) *CommandSpec {
	c.helpCommand = help
	return c
}

// Version returns the static version lines
func (c *CommandSpec) Version() []string { return slices.Clone(c.version) }

// SetVersion replaces the static version lines
func (c *CommandSpec) SetVersion(lines ...string) *CommandSpec {
	c.version = slices.Clone(lines)
	return c
}

// VersionProvider returns the dynamic version source, if any
func (c *CommandSpec) VersionProvider() VersionProvider { return c.versionProvider }

// SetVersionProvider installs a dynamic version source
func (c *CommandSpec) SetVersionProvider(p VersionProvider) *CommandSpec {
	c.versionProvider = p
	return c
}

// ResolveVersion returns the provider's lines when a provider is set, the
// static lines otherwise
func (c *CommandSpec) ResolveVersion() ([]string, error) {
	if c.versionProvider != nil {
		lines, err := c.versionProvider.Version()
		if err != nil {
			return nil, fmt.Errorf("version provider for command '%s': %w", c.name, err)
		}
		return lines, nil
	}
	return c.Version(), nil
}

// DefaultValueProvider returns the provider consulted for unmatched arguments
func (c *CommandSpec) DefaultValueProvider() DefaultValueProvider { return c.defaultProvider }

// SetDefaultValueProvider installs the provider consulted for unmatched arguments
func (c *CommandSpec) SetDefaultValueProvider(p DefaultValueProvider) *CommandSpec {
	c.defaultProvider = p
	return c
}

// effectiveDefaultProvider walks up to the nearest command with a provider
func (c *CommandSpec) effectiveDefaultProvider() DefaultValueProvider {
	for cmd := c; cmd != nil; cmd = cmd.parent {
		if cmd.defaultProvider != nil {
			return cmd.defaultProvider
		}
	}
	return nil
}

// ResourceBundle returns the message bundle of the command
func (c *CommandSpec) ResourceBundle() *ResourceBundle { return c.bundle }

// SetResourceBundle sets the message bundle. Subcommands attached later
// without their own bundle inherit it
func (c *CommandSpec) SetResourceBundle(b *ResourceBundle) *CommandSpec {
	c.bundle = b
	return c
}

// Parser returns the live parser settings of the command
func (c *CommandSpec) Parser() *ParserSpec { return c.parser }

// SetParser copies p into the command's parser settings
func (c *CommandSpec) SetParser(p *ParserSpec) *CommandSpec {
	*c.parser = *p
	return c
}

// UsageMessage returns the live usage settings of the command
func (c *CommandSpec) UsageMessage() *UsageMessageSpec { return c.usage }

// SetUsageMessage copies u into the command's usage settings
func (c *CommandSpec) SetUsageMessage(u *UsageMessageSpec) *CommandSpec {
	*c.usage = *u
	return c
}

// Tracer returns the diagnostics sink of the command
func (c *CommandSpec) Tracer() *Tracer { return c.tracer }

// SetTracer replaces the diagnostics sink of c and of every subcommand that
// has not been given its own
func (c *CommandSpec) SetTracer(t *Tracer) *CommandSpec {
	c.tracer = t
	c.tracerSet = true
	c.propagateTracer(t)
	return c
}

func (c *CommandSpec) propagateTracer(t *Tracer) {
	for _, sub := range c.Subcommands() {
		if !sub.tracerSet {
			sub.tracer = t
			sub.propagateTracer(t)
		}
	}
}

// ResemblesOption reports whether an unrecognized token looks like an
// option of this command rather than a positional value
func (c *CommandSpec) ResemblesOption(arg string) bool {
	if c.parser.UnmatchedOptionsArePositionalParams {
		c.tracer.Debug("Parser is configured to treat all unmatched options as positional parameter")
		return false
	}
	if len(arg) < 2 {
		return false
	}
	if c.lookupOption(arg) != nil {
		return true
	}
	if isNumeric(arg) {
		return false
	}
	if len(c.options) == 0 {
		resembles := strings.HasPrefix(arg, "-")
		c.tracer.Debug("'%s' %s an option", arg, resemblesWord(resembles))
		return resembles
	}
	for _, o := range c.options {
		for _, n := range o.names {
			prefix := namePrefix(n)
			if prefix != "" && strings.HasPrefix(arg, prefix) {
				c.tracer.Debug("'%s' resembles an option: it starts with '%s'", arg, prefix)
				return true
			}
		}
	}
	c.tracer.Debug("'%s' does not resemble an option", arg)
	return false
}

func resemblesWord(ok bool) string {
	if ok {
		return "resembles"
	}
	return "does not resemble"
}

func (c *CommandSpec) String() string {
	return fmt.Sprintf("CommandSpec(%s)", c.QualifiedName(" "))
}
