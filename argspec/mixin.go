package argspec

import (
	"reflect"
	"slices"
)

// AddMixin merges the arguments, subcommands and attributes of mixin into
// c and records it under name. Attributes already set on c win. A failed
// attach leaves c unchanged
func (c *CommandSpec) AddMixin(name string, mixin *CommandSpec) error {
	if mixin == nil {
		return initErrorf("mixin must not be nil")
	}
	if _, exists := c.mixins.Get(name); exists {
		return initErrorf("Mixin '%s' is already attached to command '%s'", name, c.name)
	}
	if err := c.validateMixin(mixin); err != nil {
		return err
	}

	mergeMixinAttributes(c, mixin)
	for _, o := range mixin.options {
		if !slices.Contains(c.options, o) {
			c.attachOption(o)
		}
	}
	for _, p := range mixin.positionals {
		if !slices.Contains(c.positionals, p) {
			c.positionals = append(c.positionals, p)
			c.args = append(c.args, p)
			p.command = c
		}
	}
	for _, sub := range mixin.Subcommands() {
		c.attachSubcommand(sub.name, sub)
	}
	c.mixins.Set(name, mixin)
	c.tracer.Debug("Added mixin '%s' to command '%s'", name, c.name)
	return nil
}

func (c *CommandSpec) validateMixin(mixin *CommandSpec) error {
	for _, o := range mixin.options {
		if err := c.validateOption(o); err != nil {
			return err
		}
	}
	for _, sub := range mixin.Subcommands() {
		if err := c.validateSubcommand(sub.name, sub); err != nil {
			return err
		}
	}
	return nil
}

// mergeMixinAttributes copies every attribute the host has not set
func mergeMixinAttributes(host, mixin *CommandSpec) {
	if len(host.version) == 0 {
		host.version = slices.Clone(mixin.version)
	}
	if host.versionProvider == nil {
		host.versionProvider = mixin.versionProvider
	}
	if host.defaultProvider == nil {
		host.defaultProvider = mixin.defaultProvider
	}
	if host.bundle == nil {
		host.bundle = mixin.bundle
	}
	host.usage.InitFromMixin(mixin.usage)
}

// RemoveMixin detaches the mixin recorded under name together with the
// options and positional parameters it contributed. Merged attributes stay
func (c *CommandSpec) RemoveMixin(name string) bool {
	mixin, ok := c.mixins.Get(name)
	if !ok {
		return false
	}
	for _, o := range mixin.options {
		c.RemoveOption(o)
		o.command = mixin
	}
	for _, p := range mixin.positionals {
		c.removePositional(p)
		p.command = mixin
	}
	c.mixins.Delete(name)
	return true
}

// Mixins returns the attached mixins keyed by name in attachment order
func (c *CommandSpec) Mixins() []*CommandSpec {
	mixins := make([]*CommandSpec, 0, c.mixins.Len())
	for pair := c.mixins.Oldest(); pair != nil; pair = pair.Next() {
		mixins = append(mixins, pair.Value)
	}
	return mixins
}

// Mixin returns the mixin recorded under name
func (c *CommandSpec) Mixin(name string) (*CommandSpec, bool) {
	return c.mixins.Get(name)
}

// MixinStandardHelpOptions adds (true) or removes (false) the standard
// -h/--help and -V/--version options
func (c *CommandSpec) MixinStandardHelpOptions(enable bool) error {
	_, present := c.mixins.Get(standardHelpMixinName)
	switch {
	case enable && !present:
		return c.AddMixin(standardHelpMixinName, newStandardHelpMixin())
	case !enable && present:
		c.RemoveMixin(standardHelpMixinName)
	}
	return nil
}

// StandardHelpOptionsEnabled reports whether the standard help mixin is attached
func (c *CommandSpec) StandardHelpOptionsEnabled() bool {
	_, present := c.mixins.Get(standardHelpMixinName)
	return present
}

func newStandardHelpMixin() *CommandSpec {
	mixin := NewCommandSpec()
	help := NewOption("-h", "--help").
		Type(reflect.TypeFor[bool]()).
		UsageHelp(true).
		Description("Show this help message and exit.").
		MustBuild()
	version := NewOption("-V", "--version").
		Type(reflect.TypeFor[bool]()).
		VersionHelp(true).
		Description("Print version information and exit.").
		MustBuild()
	mixin.attachOption(help)
	mixin.attachOption(version)
	return mixin
}
