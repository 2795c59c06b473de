package argspec

import (
	"errors"
	"fmt"
	"testing"
)

// TestMissingRequiredMessages tests missing required message formats
func TestMissingRequiredMessages(t *testing.T) {
	a := NewOption("-a").Arity("1").MustBuild()
	f := NewPositional().ParamLabel("FILE").MustBuild()
	g := NewPositional().ParamLabel("DIR").MustBuild()

	tests := []struct {
		name    string
		missing []ArgSpec
		want    string
	}{
		{"positionals", []ArgSpec{f, g}, "Missing required parameters: 'FILE', 'DIR'"},
		{"mixed", []ArgSpec{a, f}, "Missing required options [-a=PARAM] and parameters: 'FILE'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newMissingRequired(nil, tt.missing)
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			if err.ErrorType() != ErrorTypeMissingParameter {
				t.Errorf("ErrorType() = %s", err.ErrorType())
			}
		})
	}
}

// TestAsParameterError tests extraction of parameter errors
func TestAsParameterError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", newUnmatched(nil, 0, []string{"x"}, nil))
	pe, ok := AsParameterError(wrapped)
	if !ok || pe.Type != ErrorTypeUnmatchedArgument {
		t.Errorf("AsParameterError() = %+v, %v", pe, ok)
	}

	if _, ok := AsParameterError(errors.New("plain")); ok {
		t.Error("plain errors are not parameter errors")
	}
	if _, ok := AsParameterError(initErrorf("bad model")); ok {
		t.Error("initialization errors are not parameter errors")
	}
}

// TestConversionErrorMessage tests the conversion error message
func TestConversionErrorMessage(t *testing.T) {
	err := &ConversionError{Value: "x"}
	if err.Error() != "'x' is not a valid <nil>" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("no cause expected")
	}
}

// TestDescribeArg tests argument descriptions used in messages
func TestDescribeArg(t *testing.T) {
	p := NewPositional().Index("1..2").ParamLabel("SRC").MustBuild()
	if got := describeArg(p); got != "positional parameter at index 1..2 (SRC)" {
		t.Errorf("describeArg() = %q", got)
	}
	o := NewOption("-q", "--quiet").MustBuild()
	if got := optionLabel(o); got != "--quiet" {
		t.Errorf("optionLabel() = %q", got)
	}
}
