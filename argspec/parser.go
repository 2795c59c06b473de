package argspec

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"github.com/dzonerzy/go-argspec/internal/fuzzy"
	"github.com/dzonerzy/go-argspec/internal/pool"
)

// parseState is shared by every command of one Parse call
type parseState struct {
	registry     *Registry
	tokens       []string
	originalArgs []string
	pos          int
	errs         *multierror.Error
}

// commandParser matches tokens for a single command
type commandParser struct {
	*parseState

	cmd      *CommandSpec
	result   *ParseResult
	tracer   *Tracer
	position int
	claimed  int

	endOfOptions   bool
	firstUnmatched int
	*scratch
}

// scratch is the per-command matching state recycled across parses
type scratch struct {
	accum     map[*argCore]*accumulator
	defaulted map[*argCore]bool
	// next is the first position each positional has not yet consumed.
	next map[*argCore]int
}

var scratchPool = pool.NewPoolWithReset(
	func() *scratch {
		return &scratch{
			accum:     make(map[*argCore]*accumulator, 8),
			defaulted: make(map[*argCore]bool, 8),
			next:      make(map[*argCore]int, 4),
		}
	},
	func(s *scratch) {
		pool.ClearMap(s.accum)
		pool.ClearMap(s.defaulted)
		pool.ClearMap(s.next)
	},
)

// accumulator holds the converted items bound to one argument so far in
// this parse. The first match of a parse always starts from empty
type accumulator struct {
	items []any
	value any
}

func (s *parseState) parseCommand(cmd *CommandSpec) (*ParseResult, error) {
	p := &commandParser{
		parseState:     s,
		cmd:            cmd,
		result:         newParseResult(cmd, s.originalArgs),
		tracer:         cmd.tracer,
		firstUnmatched: -1,
		scratch:        scratchPool.Get(),
	}
	defer scratchPool.Put(p.scratch)

	if err := p.resetArgs(); err != nil {
		return nil, err
	}

	for s.pos < len(s.tokens) {
		token := s.tokens[s.pos]

		if !p.endOfOptions {
			if token == cmd.parser.EndOfOptionsDelimiter && token != "" {
				p.tracer.Debug("Found end-of-options delimiter '%s'. Treating remainder as positional parameters.", token)
				s.pos++
				p.endOfOptions = true
				continue
			}
			if sub, ok := cmd.Subcommand(token); ok {
				s.pos++
				return p.descend(sub)
			}
		}

		if err := p.processToken(token); err != nil {
			return nil, err
		}
	}

	if err := p.finish(false); err != nil {
		return nil, err
	}
	return p.result, nil
}

// descend completes the current command and parses the rest as sub
func (p *commandParser) descend(sub *CommandSpec) (*ParseResult, error) {
	p.tracer.Info("Found subcommand '%s' (%s)", sub.name, sub.QualifiedName(" "))
	if err := p.finish(sub.HelpCommand()); err != nil {
		return nil, err
	}
	child, err := p.parseCommand(sub)
	if err != nil {
		return nil, err
	}
	child.parent = p.result
	p.result.subcommand = child
	return p.result, nil
}

// resetArgs restores every argument with an initial value and clears the
// per-parse value lists
func (p *commandParser) resetArgs() error {
	for _, a := range p.cmd.args {
		c := a.core()
		c.resetParseState()
		if !c.hasInitial {
			continue
		}
		if err := c.setter.Set(c.initial); err != nil {
			return newParameterError(p.cmd, a, "", err, "Could not reset %s: %v", describeArg(a), err)
		}
	}
	return nil
}

// fail records err in collection mode and returns nil, or returns err
func (p *commandParser) fail(err error) error {
	if !p.cmd.parser.CollectErrors {
		return err
	}
	p.tracer.Debug("Collecting error: %v", err)
	p.result.errs = append(p.result.errs, err)
	p.errs = multierror.Append(p.errs, err)
	return nil
}

func (p *commandParser) processToken(token string) error {
	if p.endOfOptions {
		return p.processPositional()
	}

	cmd := p.cmd
	if o := cmd.lookupOption(token); o != nil {
		p.tracer.Debug("Found option named '%s': %s", token, o)
		p.pos++
		return p.processOption(o, token, nil)
	}

	if sep := cmd.parser.Separator; sep != "" {
		if name, value, ok := strings.Cut(token, sep); ok {
			if o := cmd.lookupOption(name); o != nil {
				p.tracer.Debug("Separated '%s' option from '%s' option parameter", name, value)
				p.pos++
				return p.processOption(o, name, &value)
			}
		}
	}

	if p.isClusterCandidate(token) {
		p.tracer.Debug("Trying to process '%s' as clustered short options", token)
		p.pos++
		return p.processCluster(token, p.pos-1)
	}

	if cmd.ResemblesOption(token) {
		p.pos++
		p.addUnmatched(p.pos-1, token)
		return nil
	}

	return p.processPositional()
}

func (p *commandParser) isClusterCandidate(token string) bool {
	if !p.cmd.parser.PosixClusteredShortOptionsAllowed {
		return false
	}
	if len(token) <= 2 || token[0] != '-' || token[1] == '-' {
		return false
	}
	r, _ := utf8.DecodeRuneInString(token[1:])
	return p.cmd.posixLookup(r) != nil
}

// processCluster handles -abc and -fVALUE forms
func (p *commandParser) processCluster(token string, index int) error {
	sep := p.cmd.parser.Separator
	rest := token[1:]
	for rest != "" {
		r, size := utf8.DecodeRuneInString(rest)
		o := p.cmd.posixLookup(r)
		if o == nil {
			p.addUnmatched(index, "-"+rest)
			return nil
		}
		rest = rest[size:]
		name := "-" + string(r)

		if o.isBoolean() || o.arityRange.Max == 0 {
			var attached *string
			if o.arityRange.Max > 0 && sep != "" && strings.HasPrefix(rest, sep) {
				v := rest[len(sep):]
				attached, rest = &v, ""
			}
			if err := p.processOption(o, name, attached); err != nil {
				return err
			}
			continue
		}

		var attached *string
		if rest != "" {
			v := rest
			if sep != "" {
				v = strings.TrimPrefix(v, sep)
			}
			attached = &v
		}
		return p.processOption(o, name, attached)
	}
	return nil
}

func (c *CommandSpec) posixLookup(r rune) *OptionSpec {
	if o := c.posix[r]; o != nil {
		return o
	}
	if !c.parser.OptionsCaseInsensitive {
		return nil
	}
	if o := c.posix[unicode.ToLower(r)]; o != nil {
		return o
	}
	return c.posix[unicode.ToUpper(r)]
}

// isOptionToken reports whether token would be matched as an option of
// the current command
func (p *commandParser) isOptionToken(token string) bool {
	if p.cmd.lookupOption(token) != nil {
		return true
	}
	if sep := p.cmd.parser.Separator; sep != "" {
		if name, _, ok := strings.Cut(token, sep); ok && p.cmd.lookupOption(name) != nil {
			return true
		}
	}
	return p.isClusterCandidate(token)
}

// stopsValues reports whether token ends the values of the previous argument
func (p *commandParser) stopsValues(token string, mandatory bool) bool {
	if p.endOfOptions {
		return false
	}
	if token == p.cmd.parser.EndOfOptionsDelimiter {
		return true
	}
	if _, ok := p.cmd.Subcommand(token); ok {
		return true
	}
	if p.isOptionToken(token) {
		return true
	}
	return !mandatory && p.cmd.ResemblesOption(token)
}

func (p *commandParser) processOption(o *OptionSpec, name string, attached *string) error {
	if o.usageHelp {
		p.result.usageHelp = true
	}
	if o.versionHelp {
		p.result.versionHelp = true
	}
	if o.isBoolean() {
		return p.processBooleanOption(o, name, attached)
	}

	arity := o.arityRange
	limit, minNeeded := arity.Max, arity.Min
	if o.shape() == shapeScalar {
		limit, minNeeded = min(limit, 1), min(minNeeded, 1)
	}

	var raw []string
	if attached != nil {
		raw = append(raw, *attached)
	}
	for len(raw) < minNeeded {
		if p.pos >= len(p.tokens) {
			return p.fail(p.missingValue(o, name, raw, minNeeded, ""))
		}
		if next := p.tokens[p.pos]; p.stopsValues(next, true) {
			return p.fail(p.missingValue(o, name, raw, minNeeded, next))
		}
		raw = append(raw, p.tokens[p.pos])
		p.pos++
	}
	for len(raw) < limit && p.pos < len(p.tokens) && !p.stopsValues(p.tokens[p.pos], false) {
		raw = append(raw, p.tokens[p.pos])
		p.pos++
	}

	if len(raw) == 0 && (o.shape() == shapeScalar || o.fallback != "") {
		p.tracer.Debug("Option %s has no value, using fallback value '%s'", name, o.fallback)
		raw = []string{o.fallback}
	}
	return p.bind(o, raw)
}

func (p *commandParser) processBooleanOption(o *OptionSpec, name string, attached *string) error {
	arity := o.arityRange
	var raw string
	switch {
	case attached != nil:
		if arity.Max == 0 {
			return p.fail(newParameterError(p.cmd, o, *attached, nil,
				"option '%s' should be specified without '%s' parameter", name, *attached))
		}
		raw = *attached
	case arity.Min > 0:
		if p.pos >= len(p.tokens) || p.stopsValues(p.tokens[p.pos], true) {
			found := ""
			if p.pos < len(p.tokens) {
				found = p.tokens[p.pos]
			}
			return p.fail(p.missingValue(o, name, nil, 1, found))
		}
		raw = p.tokens[p.pos]
		p.pos++
	case arity.Max > 0 && p.pos < len(p.tokens) && isBoolLiteral(p.tokens[p.pos]):
		raw = p.tokens[p.pos]
		p.pos++
	case o.fallback != "":
		raw = o.fallback
	default:
		raw = "true"
	}
	return p.bind(o, []string{raw})
}

func (p *commandParser) missingValue(o *OptionSpec, name string, got []string, need int, found string) *MissingParameterError {
	switch {
	case found != "" && len(got) == 0:
		return newMissingValue(p.cmd, o, "Expected parameter for option '%s' but found '%s'", name, found)
	case len(got) == 0:
		return newMissingValue(p.cmd, o, "Missing required parameter for option '%s' (%s)", name, o.paramLabel)
	default:
		return newMissingValue(p.cmd, o, "option '%s' (%s) requires at least %d values, but only %d were specified: [%s]",
			name, o.paramLabel, need, len(got), strings.Join(got, ", "))
	}
}

func (p *commandParser) processPositional() error {
	if p.cmd.parser.StopAtPositional && !p.endOfOptions {
		p.tracer.Debug("Parser is configured to stop at the first positional parameter")
		p.endOfOptions = true
	}

	var candidates []*PositionalParamSpec
	for _, ps := range p.cmd.positionals {
		if ps.index.Contains(p.position) && p.next[ps.core()] <= p.position {
			candidates = append(candidates, ps)
		}
	}
	if len(candidates) == 0 {
		p.pos++
		if p.position < p.claimed {
			p.tracer.Debug("Token '%s' already consumed by a positional parameter", p.tokens[p.pos-1])
			p.position++
			return nil
		}
		p.addUnmatched(p.pos-1, p.tokens[p.pos-1])
		return nil
	}

	// Each candidate consumes from here on its own; the cursor moves by
	// the smallest consumption.
	advance := 0
	for _, ps := range candidates {
		values, err := p.positionalValues(ps)
		if err != nil {
			if ferr := p.fail(err); ferr != nil {
				return ferr
			}
			continue
		}
		p.tracer.Debug("Positional parameter at position %d matched %v", p.position, values)
		if err := p.bind(ps, values); err != nil {
			return err
		}
		p.next[ps.core()] = p.position + len(values)
		p.claimed = max(p.claimed, p.position+len(values))
		if advance == 0 || len(values) < advance {
			advance = len(values)
		}
	}
	if advance == 0 {
		advance = 1
	}
	p.pos += advance
	p.position += advance
	return nil
}

// positionalValues looks ahead without consuming. The first token is
// already known to be positional
func (p *commandParser) positionalValues(ps *PositionalParamSpec) ([]string, error) {
	limit := max(ps.maxConsumable(p.position), 1)
	minNeeded := ps.arityRange.Min
	if ps.shape() == shapeScalar {
		minNeeded = min(minNeeded, 1)
	}

	values := []string{p.tokens[p.pos]}
	for i := p.pos + 1; i < len(p.tokens) && len(values) < limit; i++ {
		if p.stopsValues(p.tokens[i], len(values) < minNeeded) {
			break
		}
		values = append(values, p.tokens[i])
	}
	if len(values) < minNeeded {
		return nil, newMissingValue(p.cmd, ps, "%s requires at least %d values, but only %d were specified: [%s]",
			describeArg(ps), minNeeded, len(values), strings.Join(values, ", "))
	}
	return values, nil
}

func (p *commandParser) addUnmatched(index int, token string) {
	if p.firstUnmatched < 0 {
		p.firstUnmatched = index
	}
	p.result.unmatched = append(p.result.unmatched, token)
	p.tracer.Debug("Unmatched argument at index %d: '%s'", index, token)

	if p.cmd.parser.StopAtUnmatched && p.pos < len(p.tokens) {
		p.tracer.Debug("Parser is configured to stop at the first unmatched argument")
		p.result.unmatched = append(p.result.unmatched, p.tokens[p.pos:]...)
		p.pos = len(p.tokens)
	}
}

// bind converts raw values, merges them into the argument's accumulated
// value and writes the result through the setter
func (p *commandParser) bind(arg ArgSpec, raw []string) error {
	c := arg.core()
	acc, seen := p.accum[c]

	if seen && c.shape() == shapeScalar && arg.IsOption() && !p.cmd.parser.OverwrittenOptionsAllowed {
		return p.fail(newOverwritten(p.cmd, arg.(*OptionSpec), strings.Join(raw, " ")))
	}

	split, items, err := p.convertRaw(arg, raw)
	if err != nil {
		return p.fail(err)
	}

	if !seen {
		acc = &accumulator{}
	}
	next := append(slices.Clone(acc.items), items...)
	value, err := assemble(c, next)
	if err != nil {
		return p.fail(newConversionFailure(p.cmd, arg, strings.Join(raw, " "), err))
	}
	if err := c.setter.Set(value); err != nil {
		return p.fail(newParameterError(p.cmd, arg, strings.Join(raw, " "), err,
			"Could not set value for %s: %v", describeArg(arg), err))
	}
	acc.items, acc.value = next, value
	p.accum[c] = acc

	c.stringValues = append(c.stringValues, split...)
	c.originalStringValues = append(c.originalStringValues, raw...)
	c.typedValues = append(c.typedValues, items...)

	m := p.result.byArg[arg]
	if m == nil {
		m = &MatchedArg{arg: arg}
		p.result.byArg[arg] = m
		p.result.matched = append(p.result.matched, m)
	}
	m.count++
	m.stringValues = append(m.stringValues, split...)
	m.originalStringValues = append(m.originalStringValues, raw...)
	m.typedValues = append(m.typedValues, items...)
	m.value = value
	return nil
}

// convertRaw splits raw values and converts each piece. Map targets
// produce MapEntry items
func (p *commandParser) convertRaw(arg ArgSpec, raw []string) ([]string, []any, error) {
	c := arg.core()
	var split []string
	for _, r := range raw {
		if c.split != nil && r != "" {
			split = append(split, c.split.Split(r, -1)...)
		} else {
			split = append(split, r)
		}
	}

	items := make([]any, 0, len(split))
	for _, s := range split {
		if c.shape() == shapeMap {
			k, v, ok := strings.Cut(s, "=")
			if !ok {
				return nil, nil, newParameterError(p.cmd, arg, s, nil,
					"Value for %s should be in KEY=VALUE format but was %s", describeArg(arg), s)
			}
			key, err := p.convertOne(arg, c.keyType(), k, 0)
			if err != nil {
				return nil, nil, err
			}
			val, err := p.convertOne(arg, c.mapValueType(), v, 1)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, MapEntry{Key: key, Value: val})
			continue
		}
		v, err := p.convertOne(arg, c.elemType(), s, 0)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, v)
	}
	return split, items, nil
}

// convertOne applies enum restrictions, then the argument's own converter
// at slot, falling back to the registry
func (p *commandParser) convertOne(arg ArgSpec, t reflect.Type, s string, slot int) (any, error) {
	c := arg.core()
	if len(c.enumValues) > 0 && slot == 0 {
		canonical, ok := matchEnum(c.enumValues, s, p.cmd.parser.CaseInsensitiveEnumValuesAllowed)
		if !ok {
			return nil, newParameterError(p.cmd, arg, s, nil, "Invalid value for %s: expected one of [%s] but was '%s'",
				describeArg(arg), strings.Join(c.enumValues, ", "), s)
		}
		s = canonical
	}

	if slot < len(c.converters) && c.converters[slot] != nil {
		v, err := c.converters[slot].Convert(s)
		if err != nil {
			return nil, newConversionFailure(p.cmd, arg, s, &ConversionError{Type: t, Value: s, Cause: err})
		}
		return v, nil
	}
	v, err := p.registry.Convert(t, s)
	if err != nil {
		return nil, newConversionFailure(p.cmd, arg, s, err)
	}
	return v, nil
}

func matchEnum(candidates []string, s string, caseInsensitive bool) (string, bool) {
	for _, c := range candidates {
		if c == s || caseInsensitive && strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

// assemble builds the value handed to the setter from every item bound so
// far: the last item for scalars, a fresh slice or map for collections
func assemble(c *argCore, items []any) (any, error) {
	switch c.shape() {
	case shapeSlice:
		out := reflect.MakeSlice(c.typ, 0, len(items))
		for _, it := range items {
			v, err := assignableValue(it, c.typ.Elem())
			if err != nil {
				return nil, err
			}
			out = reflect.Append(out, v)
		}
		return out.Interface(), nil
	case shapeMap:
		out := reflect.MakeMapWithSize(c.typ, len(items))
		for _, it := range items {
			e := it.(MapEntry)
			k, err := assignableValue(e.Key, c.typ.Key())
			if err != nil {
				return nil, err
			}
			v, err := assignableValue(e.Value, c.typ.Elem())
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(k, v)
		}
		return out.Interface(), nil
	default:
		if len(items) == 0 {
			return nil, nil
		}
		return items[len(items)-1], nil
	}
}

func assignableValue(item any, t reflect.Type) (reflect.Value, error) {
	if item == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(item)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	stringMismatch := (t.Kind() == reflect.String) != (v.Kind() == reflect.String)
	if !stringMismatch && v.Type().ConvertibleTo(t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %v (%T) as %s", item, item, t)
}

// finish applies defaults, validates required arguments and reports
// unmatched tokens. skipRequired is set when a help subcommand follows
func (p *commandParser) finish(skipRequired bool) error {
	if err := p.applyDefaults(); err != nil {
		return err
	}

	helpRequested := skipRequired || p.result.usageHelp || p.result.versionHelp
	var missing []ArgSpec
	for _, a := range p.cmd.args {
		c := a.core()
		if a.Required() && p.result.byArg[a] == nil && !p.defaulted[c] {
			missing = append(missing, a)
		}
	}
	p.result.missing = missing
	if len(missing) > 0 && !helpRequested {
		if err := p.fail(newMissingRequired(p.cmd, missing)); err != nil {
			return err
		}
	}

	if len(p.result.unmatched) > 0 {
		if p.cmd.parser.UnmatchedArgumentsAllowed {
			p.tracer.Info("Unmatched arguments %v ignored", p.result.unmatched)
		} else if err := p.fail(newUnmatched(p.cmd, p.firstUnmatched, p.result.UnmatchedArgs(), p.suggest())); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults binds default values to every argument that did not
// match, without recording them as matches
func (p *commandParser) applyDefaults() error {
	provider := p.cmd.effectiveDefaultProvider()
	for _, a := range p.cmd.args {
		if p.result.byArg[a] != nil {
			continue
		}

		var value string
		var ok bool
		if provider != nil {
			v, found, err := provider.DefaultValue(a)
			if err != nil {
				if ferr := p.fail(newParameterError(p.cmd, a, "", err,
					"Could not get default value for %s: %v", describeArg(a), err)); ferr != nil {
					return ferr
				}
				continue
			}
			value, ok = v, found
		}
		if !ok {
			value, ok = a.DefaultValue()
		}
		if !ok {
			continue
		}

		if err := p.applyDefault(a, value); err != nil {
			if ferr := p.fail(err); ferr != nil {
				return ferr
			}
		}
	}
	return nil
}

func (p *commandParser) applyDefault(a ArgSpec, value string) error {
	c := a.core()
	_, items, err := p.convertRaw(a, []string{value})
	if err != nil {
		return err
	}
	v, err := assemble(c, items)
	if err != nil {
		return newConversionFailure(p.cmd, a, value, err)
	}
	if err := c.setter.Set(v); err != nil {
		return newParameterError(p.cmd, a, value, err, "Could not set default value for %s: %v", describeArg(a), err)
	}
	p.defaulted[c] = true
	p.tracer.Debug("Applied default value '%s' to %s", value, describeArg(a))
	return nil
}

// suggest returns close option or subcommand names for the first
// unmatched token
func (p *commandParser) suggest() []string {
	if len(p.result.unmatched) == 0 {
		return nil
	}
	first := p.result.unmatched[0]
	var candidates []string
	if p.cmd.ResemblesOption(first) {
		candidates = p.cmd.OptionNames()
	} else {
		candidates = p.cmd.SubcommandKeys()
	}
	return fuzzy.Suggest(first, candidates, 2, 3)
}
