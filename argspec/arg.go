package argspec

import (
	"reflect"
	"regexp"
	"slices"
)

// Getter reads the current value of an argument's binding target
type Getter interface {
	Get() any
}

// Setter receives every value assigned to an argument, including the
// initial value written when a parse starts
type Setter interface {
	Set(value any) error
}

// GetterFunc adapts a function to Getter
type GetterFunc func() any

// Get calls f
func (f GetterFunc) Get() any { return f() }

// SetterFunc adapts a function to Setter
type SetterFunc func(value any) error

// Set calls f(value)
func (f SetterFunc) Set(value any) error { return f(value) }

// ValueBinding is the default in-memory binding target
type ValueBinding struct {
	value any
}

// Get returns the stored value
func (b *ValueBinding) Get() any { return b.value }

// Set stores value
func (b *ValueBinding) Set(value any) error {
	b.value = value
	return nil
}

// ArgSpec is the behavior shared by options and positional parameters.
// It is implemented only by *OptionSpec and *PositionalParamSpec
type ArgSpec interface {
	Type() reflect.Type
	AuxiliaryTypes() []reflect.Type
	Arity() Range
	IsMultiValue() bool
	Required() bool
	DefaultValue() (string, bool)
	FallbackValue() string
	InitialValue() any
	HasInitialValue() bool
	Converters() []Converter
	SplitRegex() string
	ParamLabel() string
	Description() []string
	DescriptionKey() string
	Hidden() bool
	EnumValues() []string
	Command() *CommandSpec
	Getter() Getter
	Setter() Setter
	Value() any
	SetValue(value any) error
	StringValues() []string
	OriginalStringValues() []string
	TypedValues() []any
	IsOption() bool
	IsPositional() bool

	core() *argCore
}

type valueShape int

const (
	shapeScalar valueShape = iota
	shapeSlice
	shapeMap
)

// argCore holds the state common to both ArgSpec variants. Fields are
// fixed after Build except the per-parse value lists and the command link
type argCore struct {
	typ          reflect.Type
	auxTypes     []reflect.Type
	arityRange   Range
	aritySet     bool
	required     bool
	defaultValue string
	hasDefault   bool
	fallback     string
	initial      any
	hasInitial   bool
	converters   []Converter
	splitRegex   string
	split        *regexp.Regexp
	paramLabel   string
	description  []string
	descKey      string
	hidden       bool
	enumValues   []string
	getter       Getter
	setter       Setter
	command      *CommandSpec

	stringValues         []string
	originalStringValues []string
	typedValues          []any
}

func (a *argCore) Type() reflect.Type { return a.typ }
func (a *argCore) AuxiliaryTypes() []reflect.Type { return slices.Clone(a.auxTypes) }
func (a *argCore) Arity() Range { return a.arityRange }
func (a *argCore) Required() bool { return a.required }
func (a *argCore) DefaultValue() (string, bool) { return a.defaultValue, a.hasDefault }
func (a *argCore) FallbackValue() string { return a.fallback }
func (a *argCore) InitialValue() any { return a.initial }
func (a *argCore) HasInitialValue() bool { return a.hasInitial }
func (a *argCore) Converters() []Converter { return slices.Clone(a.converters) }
func (a *argCore) SplitRegex() string { return a.splitRegex }
func (a *argCore) ParamLabel() string { return a.paramLabel }
func (a *argCore) Description() []string { return slices.Clone(a.description) }
func (a *argCore) DescriptionKey() string { return a.descKey }
func (a *argCore) Hidden() bool { return a.hidden }
func (a *argCore) EnumValues() []string { return slices.Clone(a.enumValues) }
func (a *argCore) Command() *CommandSpec { return a.command }
func (a *argCore) Getter() Getter { return a.getter }
func (a *argCore) Setter() Setter { return a.setter }
func (a *argCore) StringValues() []string { return slices.Clone(a.stringValues) }
func (a *argCore) OriginalStringValues() []string { return slices.Clone(a.originalStringValues) }
func (a *argCore) TypedValues() []any { return slices.Clone(a.typedValues) }
func (a *argCore) core() *argCore { return a }

// IsMultiValue reports whether the type is a slice or a map. Arity never
// makes a scalar multi-value
func (a *argCore) IsMultiValue() bool {
	return a.shape() != shapeScalar
}

// Value returns the current value of the binding target
func (a *argCore) Value() any {
	return a.getter.Get()
}

// SetValue writes value through the setter
func (a *argCore) SetValue(value any) error {
	return a.setter.Set(value)
}

func (a *argCore) shape() valueShape {
	if a.typ == nil {
		return shapeScalar
	}
	switch a.typ.Kind() { //nolint:exhaustive // everything else is a scalar
	case reflect.Slice:
		return shapeSlice
	case reflect.Map:
		return shapeMap
	}
	return shapeScalar
}

// elemType is the conversion target for one raw value of a scalar or
// slice argument. Generic element types convert to string
func (a *argCore) elemType() reflect.Type {
	if len(a.auxTypes) > 0 {
		return a.auxTypes[0]
	}
	if a.shape() != shapeSlice {
		return a.typ
	}
	return concreteOrString(a.typ.Elem())
}

func (a *argCore) keyType() reflect.Type {
	if len(a.auxTypes) > 0 {
		return a.auxTypes[0]
	}
	return concreteOrString(a.typ.Key())
}

func (a *argCore) mapValueType() reflect.Type {
	if len(a.auxTypes) > 1 {
		return a.auxTypes[1]
	}
	return concreteOrString(a.typ.Elem())
}

func concreteOrString(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Interface {
		return typeString
	}
	return t
}

func isBoolType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Bool
}

func (a *argCore) isBoolean() bool {
	return a.shape() == shapeScalar && isBoolType(a.typ)
}

// resetParseState clears the per-parse raw and typed value lists
func (a *argCore) resetParseState() {
	a.stringValues = nil
	a.originalStringValues = nil
	a.typedValues = nil
}

// argBuilder collects the shared ArgSpec attributes. B is the concrete
// builder type returned by every fluent method
type argBuilder[B any] struct {
	self B

	typ        reflect.Type
	auxTypes   []reflect.Type
	arityText  string
	required   bool
	defValue   string
	hasDefault bool
	fallback   string
	initial    any
	hasInitial bool
	converters []Converter
	splitRegex string
	paramLabel string
	desc       []string
	descKey    string
	hidden     bool
	enumValues []string
	getter     Getter
	setter     Setter
}

func newArgBuilder[B any](self B) argBuilder[B] {
	return argBuilder[B]{self: self, hasInitial: true}
}

// Type sets the value type
func (b *argBuilder[B]) Type(t reflect.Type) B {
	b.typ = t
	return b.self
}

// AuxiliaryTypes sets the element type of a slice, or the key and value
// types of a map
func (b *argBuilder[B]) AuxiliaryTypes(types ...reflect.Type) B {
	b.auxTypes = slices.Clone(types)
	return b.self
}

// Arity sets the accepted value count as a range string such as "0..1"
func (b *argBuilder[B]) Arity(arity string) B {
	b.arityText = arity
	return b.self
}

// Required marks the argument as mandatory. A default value overrides it
func (b *argBuilder[B]) Required(required bool) B {
	b.required = required
	return b.self
}

// DefaultValue sets the raw default applied when the argument is not matched
func (b *argBuilder[B]) DefaultValue(value string) B {
	b.defValue = value
	b.hasDefault = true
	return b.self
}

// FallbackValue sets the raw value used when an optional value is omitted
func (b *argBuilder[B]) FallbackValue(value string) B {
	b.fallback = value
	return b.self
}

// InitialValue sets the value written to the binding when a parse starts
func (b *argBuilder[B]) InitialValue(value any) B {
	b.initial = value
	return b.self
}

// HasInitialValue controls whether a parse resets the binding. When false,
// the value from the previous parse survives until the argument matches again
func (b *argBuilder[B]) HasInitialValue(has bool) B {
	b.hasInitial = has
	return b.self
}

// Converters sets per-argument converters. They take precedence over the
// registry; for maps the first converts keys and the second values
func (b *argBuilder[B]) Converters(converters ...Converter) B {
	b.converters = slices.Clone(converters)
	return b.self
}

// SplitRegex splits each raw value into several before conversion
func (b *argBuilder[B]) SplitRegex(regex string) B {
	b.splitRegex = regex
	return b.self
}

// ParamLabel sets the placeholder name used in messages
func (b *argBuilder[B]) ParamLabel(label string) B {
	b.paramLabel = label
	return b.self
}

// Description sets the description lines
func (b *argBuilder[B]) Description(lines ...string) B {
	b.desc = slices.Clone(lines)
	return b.self
}

// DescriptionKey sets the resource bundle key for the description
func (b *argBuilder[B]) DescriptionKey(key string) B {
	b.descKey = key
	return b.self
}

// Hidden hides the argument from usage listings
func (b *argBuilder[B]) Hidden(hidden bool) B {
	b.hidden = hidden
	return b.self
}

// EnumValues restricts accepted raw values to the given candidates
func (b *argBuilder[B]) EnumValues(values ...string) B {
	b.enumValues = slices.Clone(values)
	return b.self
}

// Getter replaces the read side of the binding
func (b *argBuilder[B]) Getter(g Getter) B {
	b.getter = g
	return b.self
}

// Setter replaces the write side of the binding
func (b *argBuilder[B]) Setter(s Setter) B {
	b.setter = s
	return b.self
}

// Binding installs one target as both getter and setter
func (b *argBuilder[B]) Binding(target interface {
	Getter
	Setter
}) B {
	b.getter = target
	b.setter = target
	return b.self
}

// buildCore resolves defaults. isOption selects the option rules for the
// implicit type and arity
func (b *argBuilder[B]) buildCore(isOption bool) (argCore, error) {
	var explicit *Range
	if b.arityText != "" {
		r, err := ParseRange(b.arityText)
		if err != nil {
			return argCore{}, &InitializationError{Message: "invalid arity: " + err.Error(), Cause: err}
		}
		explicit = &r
	}

	c := argCore{
		typ:          b.typ,
		auxTypes:     slices.Clone(b.auxTypes),
		required:     b.required && !b.hasDefault,
		defaultValue: b.defValue,
		hasDefault:   b.hasDefault,
		fallback:     b.fallback,
		initial:      b.initial,
		hasInitial:   b.hasInitial,
		converters:   slices.Clone(b.converters),
		splitRegex:   b.splitRegex,
		paramLabel:   b.paramLabel,
		description:  slices.Clone(b.desc),
		descKey:      b.descKey,
		hidden:       b.hidden,
		enumValues:   slices.Clone(b.enumValues),
		getter:       b.getter,
		setter:       b.setter,
	}

	if c.typ == nil {
		c.typ = inferType(b.initial, explicit, isOption)
	}

	switch {
	case explicit != nil:
		c.arityRange, c.aritySet = *explicit, true
	case isOption && c.isBoolean():
		c.arityRange = Exactly(0)
	case !isOption && c.IsMultiValue():
		c.arityRange = AtLeast(0)
	default:
		c.arityRange = Exactly(1)
	}

	if c.splitRegex != "" {
		re, err := regexp.Compile(c.splitRegex)
		if err != nil {
			return argCore{}, &InitializationError{Message: "invalid split regex: " + err.Error(), Cause: err}
		}
		c.split = re
	}
	if c.paramLabel == "" {
		c.paramLabel = "PARAM"
	}

	vb := &ValueBinding{value: c.initial}
	if c.getter == nil {
		c.getter = vb
	}
	if c.setter == nil {
		c.setter = vb
	}
	return c, nil
}

func inferType(initial any, arity *Range, isOption bool) reflect.Type {
	switch {
	case initial != nil:
		return reflect.TypeOf(initial)
	case arity != nil && arity.Max == 0:
		return typeBool
	case arity != nil && arity.Max > 1:
		return typeStrSlice
	case arity != nil || !isOption:
		return typeString
	default:
		return typeBool
	}
}
