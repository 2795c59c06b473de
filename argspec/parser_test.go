package argspec

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func newTestCommandLine(t *testing.T, args ...ArgSpec) *CommandLine {
	t.Helper()
	spec := NewCommandSpec()
	if err := spec.Add(args...); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return NewCommandLine(spec)
}

func mustParse(t *testing.T, cl *CommandLine, args ...string) *ParseResult {
	t.Helper()
	r, err := cl.Parse(args...)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", args, err)
	}
	return r
}

func parseError(t *testing.T, cl *CommandLine, args ...string) error {
	t.Helper()
	r, err := cl.Parse(args...)
	if err == nil {
		t.Fatalf("Parse(%q) should fail", args)
	}
	if r != nil {
		t.Errorf("a failed parse should not return a result")
	}
	return err
}

// TestScalarConsumesOneValuePerOccurrence tests that a scalar takes one value per occurrence
func TestScalarConsumesOneValuePerOccurrence(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[int]()).Arity("3").MustBuild()
	cl := newTestCommandLine(t, x)

	err := parseError(t, cl, "-x", "1", "2", "3")
	if err.Error() != "Unmatched arguments from index 2: '2', '3'" {
		t.Errorf("unexpected error: %v", err)
	}
	var ue *UnmatchedArgumentError
	if !errors.As(err, &ue) || ue.Index != 2 || !slices.Equal(ue.Unmatched, []string{"2", "3"}) {
		t.Errorf("unexpected unmatched error %+v", ue)
	}
}

// TestSingleUnmatchedArgument tests the single unmatched argument message
func TestSingleUnmatchedArgument(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[int]()).MustBuild()
	cl := newTestCommandLine(t, x)

	err := parseError(t, cl, "-x", "1", "2")
	if err.Error() != "Unmatched argument at index 2: '2'" {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestSliceOptions tests slice options and value accumulation
func TestSliceOptions(t *testing.T) {
	t.Run("one value per occurrence", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[[]int]()).MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "1", "-x", "2")
		if got := x.Value(); !reflect.DeepEqual(got, []int{1, 2}) {
			t.Errorf("Value() = %#v", got)
		}
	})

	t.Run("variable arity", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[[]int]()).Arity("1..*").MustBuild()
		v := NewOption("-v").MustBuild()
		cl := newTestCommandLine(t, x, v)
		mustParse(t, cl, "-x", "1", "2", "3", "-v")
		if got := x.Value(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
			t.Errorf("Value() = %#v", got)
		}
		if v.Value() != true {
			t.Error("-v should stop the value list and match")
		}
	})

	t.Run("generic elements stay strings", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[[]any]()).Arity("2").MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "1", "2")
		if got := x.Value(); !reflect.DeepEqual(got, []any{"1", "2"}) {
			t.Errorf("Value() = %#v", got)
		}
	})

	t.Run("auxiliary element type", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[[]any]()).AuxiliaryTypes(reflect.TypeFor[int]()).Arity("2").MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "1", "2")
		if got := x.Value(); !reflect.DeepEqual(got, []any{1, 2}) {
			t.Errorf("Value() = %#v", got)
		}
	})

	t.Run("too few values", func(t *testing.T) {
		x := NewOption("-x").Arity("2").MustBuild()
		cl := newTestCommandLine(t, x)
		err := parseError(t, cl, "-x", "a")
		want := "option '-x' (PARAM) requires at least 2 values, but only 1 were specified: [a]"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err.Error(), want)
		}
		var me *MissingParameterError
		if !errors.As(err, &me) || len(me.Missing) != 1 || me.Missing[0] != x {
			t.Errorf("expected MissingParameterError for -x, got %T", err)
		}
	})
}

// TestMapOptions tests KEY=VALUE map options
func TestMapOptions(t *testing.T) {
	t.Run("typed map keeps order", func(t *testing.T) {
		d := NewOption("-D").Type(reflect.TypeFor[map[string]int]()).MustBuild()
		cl := newTestCommandLine(t, d)
		r := mustParse(t, cl, "-D", "b=2", "-D", "a=1")
		if got := d.Value(); !reflect.DeepEqual(got, map[string]int{"a": 1, "b": 2}) {
			t.Errorf("Value() = %#v", got)
		}

		om := r.MatchedOption("-D").TypedMap()
		if om == nil || om.Len() != 2 {
			t.Fatalf("TypedMap() = %v", om)
		}
		var keys []any
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		if !reflect.DeepEqual(keys, []any{"b", "a"}) {
			t.Errorf("TypedMap keys = %v, want match order [b a]", keys)
		}
		if v, _ := om.Get("a"); v != 1 {
			t.Errorf("TypedMap[a] = %v", v)
		}
	})

	t.Run("generic map stays strings", func(t *testing.T) {
		d := NewOption("-D").Type(reflect.TypeFor[map[any]any]()).MustBuild()
		cl := newTestCommandLine(t, d)
		mustParse(t, cl, "-D", "k=1")
		if got := d.Value(); !reflect.DeepEqual(got, map[any]any{"k": "1"}) {
			t.Errorf("Value() = %#v", got)
		}
	})

	t.Run("auxiliary key and value types", func(t *testing.T) {
		d := NewOption("-D").Type(reflect.TypeFor[map[any]any]()).
			AuxiliaryTypes(reflect.TypeFor[int](), reflect.TypeFor[bool]()).MustBuild()
		cl := newTestCommandLine(t, d)
		mustParse(t, cl, "-D", "1=true")
		if got := d.Value(); !reflect.DeepEqual(got, map[any]any{1: true}) {
			t.Errorf("Value() = %#v", got)
		}
	})

	t.Run("missing separator", func(t *testing.T) {
		d := NewOption("-D").Type(reflect.TypeFor[map[string]string]()).MustBuild()
		cl := newTestCommandLine(t, d)
		err := parseError(t, cl, "-D", "a")
		want := "Value for option '-D' (PARAM) should be in KEY=VALUE format but was a"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err.Error(), want)
		}
	})

	t.Run("non-map option has no typed map", func(t *testing.T) {
		x := NewOption("-x").MustBuild()
		cl := newTestCommandLine(t, x)
		r := mustParse(t, cl, "-x")
		if r.MatchedOption("-x").TypedMap() != nil {
			t.Error("TypedMap should be nil for scalars")
		}
	})
}

// TestPerArgumentConverters tests converters attached to one argument
func TestPerArgumentConverters(t *testing.T) {
	constant := ConverterFunc(func(string) (any, error) { return 99, nil })
	x := NewOption("-x").Type(reflect.TypeFor[int]()).Converters(constant).MustBuild()
	cl := newTestCommandLine(t, x)
	cl.RegisterConverter(reflect.TypeFor[int](), ConverterFunc(func(string) (any, error) { return 1, nil }))

	mustParse(t, cl, "-x", "5")
	if x.Value() != 99 {
		t.Errorf("per-argument converter should win, got %v", x.Value())
	}

	upper := ConverterFunc(func(s string) (any, error) { return strings.ToUpper(s), nil })
	double := ConverterFunc(func(s string) (any, error) { return s + s, nil })
	d := NewOption("-D").Type(reflect.TypeFor[map[string]string]()).Converters(upper, double).MustBuild()
	cl = newTestCommandLine(t, d)
	mustParse(t, cl, "-D", "k=v")
	if got := d.Value(); !reflect.DeepEqual(got, map[string]string{"K": "vv"}) {
		t.Errorf("map converters not applied per slot: %#v", got)
	}
}

// TestRegisteredConverter tests converters registered on the command line
func TestRegisteredConverter(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[int]()).MustBuild()
	cl := newTestCommandLine(t, x)
	cl.RegisterConverter(reflect.TypeFor[int](), ConverterFunc(func(s string) (any, error) { return len(s), nil }))
	mustParse(t, cl, "-x", "abc")
	if x.Value() != 3 {
		t.Errorf("registry converter not used: %v", x.Value())
	}
}

// TestConversionFailure tests errors for values that fail conversion
func TestConversionFailure(t *testing.T) {
	n := NewOption("-n").Type(reflect.TypeFor[int]()).MustBuild()
	cl := newTestCommandLine(t, n)
	err := parseError(t, cl, "-n", "abc")
	if !strings.HasPrefix(err.Error(), "Invalid value for option '-n' (PARAM): 'abc' is not a valid int") {
		t.Errorf("unexpected message %q", err.Error())
	}
	pe, ok := AsParameterError(err)
	if !ok || pe.Type != ErrorTypeConversion || pe.Arg != n || pe.Value != "abc" {
		t.Errorf("unexpected parameter error %+v", pe)
	}
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Error("conversion cause not wrapped")
	}
}

// TestOverwrittenOptions tests repeated single-value options
func TestOverwrittenOptions(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[int]()).MustBuild()
	cl := newTestCommandLine(t, x)

	err := parseError(t, cl, "-x", "1", "-x", "2")
	if err.Error() != "option '-x' (PARAM) should be specified only once" {
		t.Errorf("unexpected message %q", err.Error())
	}
	var oe *OverwrittenOptionError
	if !errors.As(err, &oe) || oe.Option != x {
		t.Errorf("expected OverwrittenOptionError, got %T", err)
	}

	cl.SetOverwrittenOptionsAllowed(true)
	r := mustParse(t, cl, "-x", "1", "-x", "2")
	if x.Value() != 2 {
		t.Errorf("last value should win, got %v", x.Value())
	}
	m := r.MatchedOption("x")
	if m.Count() != 2 || !reflect.DeepEqual(m.TypedValues(), []any{1, 2}) {
		t.Errorf("count %d typed values %v", m.Count(), m.TypedValues())
	}
	if !reflect.DeepEqual(x.TypedValues(), []any{1, 2}) || !slices.Equal(x.StringValues(), []string{"1", "2"}) {
		t.Errorf("live value lists not recorded: %v %v", x.TypedValues(), x.StringValues())
	}
}

// TestOptionalValueFallback tests fallback values for optional-value options
func TestOptionalValueFallback(t *testing.T) {
	newCL := func() (*CommandLine, *OptionSpec, *OptionSpec) {
		x := NewOption("-x").Arity("0..1").FallbackValue("fb").MustBuild()
		y := NewOption("-y").MustBuild()
		return newTestCommandLine(t, x, y), x, y
	}

	cl, x, _ := newCL()
	mustParse(t, cl, "-x")
	if x.Value() != "fb" {
		t.Errorf("omitted value should use the fallback, got %v", x.Value())
	}

	cl, x, y := newCL()
	mustParse(t, cl, "-x", "-y")
	if x.Value() != "fb" || y.Value() != true {
		t.Errorf("an option should end the optional value: x=%v y=%v", x.Value(), y.Value())
	}

	cl, x, _ = newCL()
	mustParse(t, cl, "-x", "val")
	if x.Value() != "val" {
		t.Errorf("explicit value should win, got %v", x.Value())
	}

	z := NewOption("-z").Arity("0..1").MustBuild()
	cl = newTestCommandLine(t, z)
	mustParse(t, cl, "-z")
	if z.Value() != "" {
		t.Errorf("fallback defaults to the empty string, got %#v", z.Value())
	}
}

// TestOptionalIntFallback tests fallback conversion for an optional int value
func TestOptionalIntFallback(t *testing.T) {
	newCL := func() (*CommandLine, *OptionSpec, *OptionSpec) {
		foo := NewOption("--foo").Type(reflect.TypeFor[int]()).Arity("0..1").FallbackValue("123").MustBuild()
		x := NewOption("-x").MustBuild()
		return newTestCommandLine(t, foo, x), foo, x
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no value", []string{"--foo"}, 123},
		{"explicit value", []string{"--foo", "999"}, 999},
		{"followed by option", []string{"--foo", "-x"}, 123},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, foo, _ := newCL()
			r := mustParse(t, cl, tt.args...)
			if foo.Value() != tt.want {
				t.Errorf("value = %#v, want %d", foo.Value(), tt.want)
			}
			if got := r.MatchedOption("--foo").TypedValues(); !reflect.DeepEqual(got, []any{tt.want}) {
				t.Errorf("TypedValues() = %v", got)
			}
			if len(tt.args) == 2 && tt.args[1] == "-x" && !r.HasMatchedOption("-x") {
				t.Error("-x should still match after the optional value")
			}
		})
	}

	bare := NewOption("--foo").Type(reflect.TypeFor[int]()).Arity("0..1").MustBuild()
	cl := newTestCommandLine(t, bare)
	err := parseError(t, cl, "--foo")
	if !strings.Contains(err.Error(), "'' is not a valid int") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// TestRoundTripStringValues tests that rebuilt arguments parse to the same values
func TestRoundTripStringValues(t *testing.T) {
	newCL := func() *CommandLine {
		x := NewOption("-x").Type(reflect.TypeFor[[]int]()).Arity("1").MustBuild()
		y := NewOption("-y").Type(reflect.TypeFor[string]()).MustBuild()
		rest := NewPositional().Type(reflect.TypeFor[[]string]()).MustBuild()
		return newTestCommandLine(t, x, y, rest)
	}

	first := mustParse(t, newCL(), "-x", "1", "-x", "2", "-y", "hi", "a", "b")

	var rebuilt []string
	for _, m := range first.MatchedArgs() {
		for _, v := range m.StringValues() {
			if o := m.Option(); o != nil {
				rebuilt = append(rebuilt, o.LongestName())
			}
			rebuilt = append(rebuilt, v)
		}
	}
	second := mustParse(t, newCL(), rebuilt...)

	a, b := first.MatchedArgs(), second.MatchedArgs()
	if len(a) != len(b) {
		t.Fatalf("matched %d args, then %d from %q", len(a), len(b), rebuilt)
	}
	for i := range a {
		if !reflect.DeepEqual(a[i].TypedValues(), b[i].TypedValues()) {
			t.Errorf("arg %d: %v then %v", i, a[i].TypedValues(), b[i].TypedValues())
		}
	}
}

// TestBooleanOptions tests boolean option value forms
func TestBooleanOptions(t *testing.T) {
	v := NewOption("-v").MustBuild()
	cl := newTestCommandLine(t, v)
	err := parseError(t, cl, "-v=true")
	if err.Error() != "option '-v' should be specified without 'true' parameter" {
		t.Errorf("unexpected message %q", err.Error())
	}

	b := NewOption("-b").Type(reflect.TypeFor[bool]()).Arity("0..1").MustBuild()
	cl = newTestCommandLine(t, b)
	mustParse(t, cl, "-b", "false")
	if b.Value() != false {
		t.Errorf("explicit false not consumed: %v", b.Value())
	}
	mustParse(t, cl, "-b")
	if b.Value() != true {
		t.Errorf("bare flag should be true: %v", b.Value())
	}
	mustParse(t, cl, "-b=off")
	if b.Value() != false {
		t.Errorf("attached value not converted: %v", b.Value())
	}
}

// TestMissingOptionValue tests errors for options missing their value
func TestMissingOptionValue(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[string]()).MustBuild()
	y := NewOption("-y").MustBuild()
	cl := newTestCommandLine(t, x, y)

	err := parseError(t, cl, "-x")
	if err.Error() != "Missing required parameter for option '-x' (PARAM)" {
		t.Errorf("unexpected message %q", err.Error())
	}
	err = parseError(t, cl, "-x", "-y")
	if err.Error() != "Expected parameter for option '-x' but found '-y'" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// TestDefaultsAreNotMatches tests that defaults are not recorded as matches
func TestDefaultsAreNotMatches(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[int]()).DefaultValue("5").MustBuild()
	cl := newTestCommandLine(t, x)
	r := mustParse(t, cl)
	if x.Value() != 5 {
		t.Errorf("default not applied: %v", x.Value())
	}
	if r.HasMatchedOption("-x") || len(r.MatchedArgs()) != 0 {
		t.Error("defaults must not be recorded as matches")
	}
	if OptionValue(r, "-x", -1) != -1 {
		t.Error("OptionValue should fall back for unmatched options")
	}
}

// TestDefaultReplacedByCommandLine tests that matched values replace defaults
func TestDefaultReplacedByCommandLine(t *testing.T) {
	t.Run("slice", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[[]int]()).SplitRegex(",").DefaultValue("1,2").MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl)
		if got := x.Value(); !reflect.DeepEqual(got, []int{1, 2}) {
			t.Errorf("default = %#v", got)
		}
		r := mustParse(t, cl, "-x", "3,4", "-x", "5")
		if got := x.Value(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
			t.Errorf("command line should replace the default, got %#v", got)
		}
		m := r.MatchedOption("-x")
		if !slices.Equal(m.StringValues(), []string{"3", "4", "5"}) || !slices.Equal(m.OriginalStringValues(), []string{"3,4", "5"}) {
			t.Errorf("string values %v original %v", m.StringValues(), m.OriginalStringValues())
		}
	})

	t.Run("map", func(t *testing.T) {
		d := NewOption("-D").Type(reflect.TypeFor[map[string]string]()).SplitRegex(",").DefaultValue("a=1,b=2").MustBuild()
		cl := newTestCommandLine(t, d)
		mustParse(t, cl)
		if got := d.Value(); !reflect.DeepEqual(got, map[string]string{"a": "1", "b": "2"}) {
			t.Errorf("default = %#v", got)
		}
		mustParse(t, cl, "-D", "c=3")
		if got := d.Value(); !reflect.DeepEqual(got, map[string]string{"c": "3"}) {
			t.Errorf("command line should replace the default, got %#v", got)
		}
	})
}

// TestDefaultValueProvider tests default value providers and inheritance
func TestDefaultValueProvider(t *testing.T) {
	x := NewOption("-x").Type(reflect.TypeFor[int]()).Required(true).MustBuild()
	y := NewOption("-y").Type(reflect.TypeFor[int]()).DefaultValue("1").MustBuild()
	spec := NewCommandSpec()
	if err := spec.Add(x, y); err != nil {
		t.Fatal(err)
	}
	spec.SetDefaultValueProvider(DefaultValueProviderFunc(func(arg ArgSpec) (string, bool, error) {
		if arg == x {
			return "9", true, nil
		}
		return "", false, nil
	}))

	cl := NewCommandLine(spec)
	mustParse(t, cl)
	if x.Value() != 9 {
		t.Errorf("provider default not applied: %v", x.Value())
	}
	if y.Value() != 1 {
		t.Errorf("declared default should apply when the provider has none: %v", y.Value())
	}

	sub := NewCommandSpec()
	z := NewOption("-z").Type(reflect.TypeFor[string]()).DefaultValue("own").MustBuild()
	if err := sub.AddOption(z); err != nil {
		t.Fatal(err)
	}
	if err := spec.AddSubcommand("sub", sub); err != nil {
		t.Fatal(err)
	}
	spec.SetDefaultValueProvider(DefaultValueProviderFunc(func(arg ArgSpec) (string, bool, error) {
		return "from-parent", arg == ArgSpec(z), nil
	}))
	mustParse(t, cl, "-x", "1", "sub")
	if z.Value() != "from-parent" {
		t.Errorf("subcommands should use the nearest provider: %v", z.Value())
	}
}

// TestResetBetweenParses tests value reset between parses
func TestResetBetweenParses(t *testing.T) {
	t.Run("initial value restored", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[int]()).InitialValue(0).MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "3")
		mustParse(t, cl)
		if x.Value() != 0 {
			t.Errorf("value not reset: %v", x.Value())
		}
		if len(x.StringValues()) != 0 {
			t.Errorf("per-parse lists not cleared: %v", x.StringValues())
		}
	})

	t.Run("scalar without initial value survives", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[int]()).HasInitialValue(false).MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "1")
		mustParse(t, cl)
		if x.Value() != 1 {
			t.Errorf("old value should survive: %v", x.Value())
		}
	})

	t.Run("collection without initial value starts fresh on match", func(t *testing.T) {
		x := NewOption("-x").Type(reflect.TypeFor[[]int]()).HasInitialValue(false).MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "1", "-x", "2", "-x", "3")
		mustParse(t, cl, "-x", "4", "-x", "5")
		if got := x.Value(); !reflect.DeepEqual(got, []int{4, 5}) {
			t.Errorf("Value() = %#v, want [4 5]", got)
		}
		mustParse(t, cl)
		if got := x.Value(); !reflect.DeepEqual(got, []int{4, 5}) {
			t.Errorf("unmatched parse should keep the old value, got %#v", got)
		}
	})

	t.Run("setter sees reset then value", func(t *testing.T) {
		var seen []any
		x := NewOption("-x").Type(reflect.TypeFor[string]()).Setter(SetterFunc(func(v any) error {
			seen = append(seen, v)
			return nil
		})).MustBuild()
		cl := newTestCommandLine(t, x)
		mustParse(t, cl, "-x", "1")
		if !reflect.DeepEqual(seen, []any{nil, "1"}) {
			t.Errorf("setter calls = %#v, want [nil 1]", seen)
		}
	})
}

// TestRequiredValidation tests missing required arguments
func TestRequiredValidation(t *testing.T) {
	tests := []struct {
		name string
		args []ArgSpec
		want string
	}{
		{
			name: "single option",
			args: []ArgSpec{NewOption("-r").Arity("1").Required(true).MustBuild()},
			want: "Missing required option '-r=PARAM'",
		},
		{
			name: "boolean option",
			args: []ArgSpec{NewOption("--force").Required(true).MustBuild()},
			want: "Missing required option '--force'",
		},
		{
			name: "several options",
			args: []ArgSpec{
				NewOption("-a").Arity("1").Required(true).MustBuild(),
				NewOption("-b").Arity("1").Required(true).MustBuild(),
			},
			want: "Missing required options [-a=PARAM, -b=PARAM]",
		},
		{
			name: "positional",
			args: []ArgSpec{NewPositional().ParamLabel("FILE").Required(true).MustBuild()},
			want: "Missing required parameter: 'FILE'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := newTestCommandLine(t, tt.args...)
			err := parseError(t, cl)
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			var me *MissingParameterError
			if !errors.As(err, &me) || len(me.Missing) != len(tt.args) {
				t.Errorf("expected MissingParameterError listing %d args, got %v", len(tt.args), err)
			}
		})
	}
}

// TestHelpSkipsRequiredValidation tests that help requests skip required checks
func TestHelpSkipsRequiredValidation(t *testing.T) {
	req := NewOption("-r").Arity("1").Required(true).MustBuild()
	spec := NewCommandSpec()
	if err := spec.AddOption(req); err != nil {
		t.Fatal(err)
	}
	if err := spec.MixinStandardHelpOptions(true); err != nil {
		t.Fatal(err)
	}
	if err := spec.AddSubcommand("help", NewCommandSpec().SetHelpCommand(true)); err != nil {
		t.Fatal(err)
	}
	cl := NewCommandLine(spec)

	r := mustParse(t, cl, "--help")
	if !r.IsUsageHelpRequested() {
		t.Error("usage help not reported")
	}
	r = mustParse(t, cl, "-V")
	if !r.IsVersionHelpRequested() {
		t.Error("version help not reported")
	}

	r = mustParse(t, cl, "help")
	if !r.HasSubcommand() || r.Subcommand().CommandSpec().Name() != "help" {
		t.Error("help subcommand not matched")
	}
	if len(r.MissingRequired()) != 1 {
		t.Errorf("missing arguments should still be reported: %v", r.MissingRequired())
	}

	parseError(t, cl)
}

// TestUnmatchedArgumentsAllowed tests parsing with unmatched arguments allowed
func TestUnmatchedArgumentsAllowed(t *testing.T) {
	cl := newTestCommandLine(t)
	cl.SetUnmatchedArgumentsAllowed(true)
	r := mustParse(t, cl, "-p", "123", "abc")
	if got := r.UnmatchedArgs(); !slices.Equal(got, []string{"-p", "123", "abc"}) {
		t.Errorf("UnmatchedArgs() = %v", got)
	}
	if got := cl.UnmatchedArgs(); !slices.Equal(got, []string{"-p", "123", "abc"}) {
		t.Errorf("CommandLine.UnmatchedArgs() = %v", got)
	}
}

// TestUnknownOptionSuggestions tests suggestions for unknown options
func TestUnknownOptionSuggestions(t *testing.T) {
	cl := newTestCommandLine(t, NewOption("-v", "--verbose").MustBuild())
	err := parseError(t, cl, "--verbos")
	if err.Error() != "Unknown option: '--verbos'" {
		t.Errorf("unexpected message %q", err.Error())
	}
	var ue *UnmatchedArgumentError
	if !errors.As(err, &ue) || !slices.Equal(ue.Suggestions, []string{"--verbose"}) {
		t.Errorf("expected suggestion --verbose, got %+v", ue)
	}

	spec := NewCommandSpec()
	if err := spec.AddSubcommand("commit", NewCommandSpec()); err != nil {
		t.Fatal(err)
	}
	err = parseError(t, NewCommandLine(spec), "comit")
	if err.Error() != "Unmatched argument at index 0: 'comit'" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.As(err, &ue) || !slices.Equal(ue.Suggestions, []string{"commit"}) {
		t.Errorf("expected suggestion commit, got %+v", ue)
	}
}

// TestClusteredShortOptions tests POSIX clustered short options
func TestClusteredShortOptions(t *testing.T) {
	newCL := func() (*CommandLine, *OptionSpec, *OptionSpec, *OptionSpec) {
		a := NewOption("-a").MustBuild()
		b := NewOption("-b").MustBuild()
		f := NewOption("-f").Type(reflect.TypeFor[string]()).MustBuild()
		return newTestCommandLine(t, a, b, f), a, b, f
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"attached value", []string{"-abfvalue"}, "value"},
		{"attached with separator", []string{"-abf=value"}, "value"},
		{"separate value", []string{"-abf", "value"}, "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, a, b, f := newCL()
			mustParse(t, cl, tt.args...)
			if a.Value() != true || b.Value() != true || f.Value() != tt.want {
				t.Errorf("a=%v b=%v f=%v", a.Value(), b.Value(), f.Value())
			}
		})
	}

	t.Run("disabled", func(t *testing.T) {
		cl, _, _, _ := newCL()
		cl.SetPosixClusteredShortOptionsAllowed(false)
		err := parseError(t, cl, "-ab")
		if err.Error() != "Unknown option: '-ab'" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

// TestSeparator tests custom option value separators
func TestSeparator(t *testing.T) {
	name := NewOption("--name").Type(reflect.TypeFor[string]()).MustBuild()
	cl := newTestCommandLine(t, name)
	mustParse(t, cl, "--name=value")
	if name.Value() != "value" {
		t.Errorf("Value() = %v", name.Value())
	}

	sub := NewCommandSpec()
	if err := cl.AddSubcommand("sub", sub); err != nil {
		t.Fatal(err)
	}
	cl.SetSeparator(":")
	if sub.Parser().Separator != ":" {
		t.Error("SetSeparator should reach subcommands")
	}
	mustParse(t, cl, "--name:other")
	if name.Value() != "other" {
		t.Errorf("Value() = %v", name.Value())
	}
}

// TestEndOfOptionsDelimiter tests the end of options delimiter
func TestEndOfOptionsDelimiter(t *testing.T) {
	x := NewOption("-x").MustBuild()
	rest := NewPositional().Type(reflect.TypeFor[[]string]()).MustBuild()
	cl := newTestCommandLine(t, x, rest)
	mustParse(t, cl, "--", "-x", "--")
	if got := rest.Value(); !reflect.DeepEqual(got, []string{"-x", "--"}) {
		t.Errorf("positional = %#v", got)
	}
	if x.Value() != nil && x.Value() != false {
		t.Errorf("-x should not match after the delimiter, got %v", x.Value())
	}
}

// TestPositionalParameters tests positional parameters mixed with options
func TestPositionalParameters(t *testing.T) {
	name := NewPositional().MustBuild()
	count := NewPositional().Type(reflect.TypeFor[int]()).MustBuild()
	rest := NewPositional().Type(reflect.TypeFor[[]string]()).MustBuild()
	v := NewOption("-v").MustBuild()
	cl := newTestCommandLine(t, name, count, rest, v)

	r := mustParse(t, cl, "a", "2", "x", "-v", "y")
	if PositionalValue(r, 0, "") != "a" || PositionalValue(r, 1, 0) != 2 {
		t.Errorf("positional values %v %v", name.Value(), count.Value())
	}
	if got := rest.Value(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("rest = %#v", got)
	}
	if len(r.MatchedPositionals()) != 3 || len(r.MatchedOptions()) != 1 {
		t.Errorf("matched %d positionals and %d options", len(r.MatchedPositionals()), len(r.MatchedOptions()))
	}
	if !r.HasMatchedPositional(5) || r.MatchedPositionalValue(0, nil) != "a" {
		t.Error("positional lookups by index failed")
	}
	if !slices.Equal(r.OriginalArgs(), []string{"a", "2", "x", "-v", "y"}) {
		t.Errorf("OriginalArgs() = %v", r.OriginalArgs())
	}
}

// TestOverlappingPositionals tests positionals whose index ranges overlap
func TestOverlappingPositionals(t *testing.T) {
	host := NewPositional().Index("0").Type(reflect.TypeFor[string]()).MustBuild()
	files := NewPositional().Index("1..*").Type(reflect.TypeFor[[]string]()).MustBuild()
	all := NewPositional().Index("0..*").Type(reflect.TypeFor[[]string]()).MustBuild()
	cl := newTestCommandLine(t, host, files, all)

	r := mustParse(t, cl, "a", "b", "c")
	if host.Value() != "a" {
		t.Errorf("host = %#v", host.Value())
	}
	if got := files.Value(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("files = %#v", got)
	}
	if got := all.Value(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("all = %#v", got)
	}
	if r.Matched(files) == nil || len(r.UnmatchedArgs()) != 0 {
		t.Errorf("files matched %v, unmatched %v", r.Matched(files) != nil, r.UnmatchedArgs())
	}
}

// TestPositionalArityTooFew tests positionals given fewer values than their arity
func TestPositionalArityTooFew(t *testing.T) {
	pair := NewPositional().Type(reflect.TypeFor[[]string]()).Arity("2").MustBuild()
	cl := newTestCommandLine(t, pair)
	err := parseError(t, cl, "a")
	if !strings.Contains(err.Error(), "requires at least 2 values, but only 1 were specified: [a]") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// TestStopAtPositional tests stopping option parsing at the first positional
func TestStopAtPositional(t *testing.T) {
	x := NewOption("-x").MustBuild()
	rest := NewPositional().Type(reflect.TypeFor[[]string]()).MustBuild()
	cl := newTestCommandLine(t, x, rest)
	cl.SetStopAtPositional(true)

	r := mustParse(t, cl, "a", "-x")
	if got := rest.Value(); !reflect.DeepEqual(got, []string{"a", "-x"}) {
		t.Errorf("rest = %#v", got)
	}
	if r.HasMatchedOption("-x") {
		t.Error("-x should be positional after the first positional")
	}
}

// TestStopAtUnmatched tests stopping at the first unmatched argument
func TestStopAtUnmatched(t *testing.T) {
	x := NewOption("-x").MustBuild()
	cl := newTestCommandLine(t, x)
	cl.SetStopAtUnmatched(true).SetUnmatchedArgumentsAllowed(true)

	r := mustParse(t, cl, "-y", "-x")
	if got := r.UnmatchedArgs(); !slices.Equal(got, []string{"-y", "-x"}) {
		t.Errorf("UnmatchedArgs() = %v", got)
	}
	if r.HasMatchedOption("-x") {
		t.Error("-x should be unmatched after the first unmatched token")
	}
}

// TestUnmatchedOptionsArePositional tests unknown options treated as positionals
func TestUnmatchedOptionsArePositional(t *testing.T) {
	x := NewOption("-x").MustBuild()
	rest := NewPositional().Type(reflect.TypeFor[[]string]()).MustBuild()
	cl := newTestCommandLine(t, x, rest)
	cl.SetUnmatchedOptionsArePositionalParams(true)

	mustParse(t, cl, "-y", "a")
	if got := rest.Value(); !reflect.DeepEqual(got, []string{"-y", "a"}) {
		t.Errorf("rest = %#v", got)
	}
}

// TestCaseInsensitiveMatching tests case insensitive options and enum values
func TestCaseInsensitiveMatching(t *testing.T) {
	verbose := NewOption("--verbose").MustBuild()
	color := NewOption("--color").Type(reflect.TypeFor[string]()).EnumValues("red", "green").MustBuild()
	cl := newTestCommandLine(t, verbose, color)

	err := parseError(t, cl, "--color", "RED")
	want := "Invalid value for option '--color' (PARAM): expected one of [red, green] but was 'RED'"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}

	cl.SetOptionsCaseInsensitive(true).SetCaseInsensitiveEnumValuesAllowed(true)
	mustParse(t, cl, "--VERBOSE", "--Color", "RED")
	if verbose.Value() != true || color.Value() != "red" {
		t.Errorf("verbose=%v color=%v", verbose.Value(), color.Value())
	}
}

// TestCollectErrors tests error collection mode
func TestCollectErrors(t *testing.T) {
	n := NewOption("-n").Type(reflect.TypeFor[int]()).MustBuild()
	cl := newTestCommandLine(t, n)
	cl.SetCollectErrors(true)

	r, err := cl.Parse("-n", "abc", "--bogus")
	if r == nil {
		t.Fatal("collect mode should return a result")
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 2 {
		t.Fatalf("expected 2 collected errors, got %v", err)
	}
	if len(r.Errors()) != 2 {
		t.Errorf("Errors() = %v", r.Errors())
	}
	var ue *UnmatchedArgumentError
	if !errors.As(merr.Errors[1], &ue) || ue.Error() != "Unknown option: '--bogus'" {
		t.Errorf("second error = %v", merr.Errors[1])
	}
}

// TestSubcommandParsing tests dispatch to subcommands
func TestSubcommandParsing(t *testing.T) {
	v := NewOption("-v").MustBuild()
	m := NewOption("-m").Type(reflect.TypeFor[string]()).MustBuild()
	root := NewCommandSpec().SetName("git")
	if err := root.AddOption(v); err != nil {
		t.Fatal(err)
	}
	commit := NewCommandSpec().SetAliases("ci")
	if err := commit.AddOption(m); err != nil {
		t.Fatal(err)
	}
	if err := root.AddSubcommand("commit", commit); err != nil {
		t.Fatal(err)
	}
	cl := NewCommandLine(root)

	r := mustParse(t, cl, "-v", "ci", "-m", "msg")
	if !r.HasMatchedOption("v") || !r.HasSubcommand() {
		t.Fatal("root option or subcommand not matched")
	}
	sub := r.Subcommand()
	if sub.CommandSpec() != commit || sub.Parent() != r {
		t.Error("subcommand result not linked")
	}
	if OptionValue(sub, "-m", "") != "msg" {
		t.Errorf("-m = %v", sub.MatchedOptionValue("-m", nil))
	}
	if len(r.Chain()) != 2 || cl.ParseResult() != r {
		t.Error("result chain not recorded")
	}

	err := parseError(t, cl, "commit", "-v")
	if err.Error() != "Unknown option: '-v'" {
		t.Errorf("options of the parent should not match in the subcommand: %v", err)
	}
}

// TestParseNilSpec tests command lines built without a spec
func TestParseNilSpec(t *testing.T) {
	cl := NewCommandLine(nil)
	if cl.Name() != UnnamedCommand {
		t.Errorf("Name() = %q", cl.Name())
	}
	cl.SetName("tool")
	if cl.Spec().Name() != "tool" {
		t.Error("SetName should rename the root command")
	}
	r := mustParse(t, cl)
	if len(r.MatchedArgs()) != 0 {
		t.Error("nothing should match")
	}
}
