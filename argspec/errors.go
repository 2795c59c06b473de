package argspec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrorType represents error categories for model construction and parsing
type ErrorType string

const (
	ErrorTypeInitialization    ErrorType = "initialization"
	ErrorTypeParameter         ErrorType = "parameter"
	ErrorTypeMissingParameter  ErrorType = "missing_parameter"
	ErrorTypeUnmatchedArgument ErrorType = "unmatched_argument"
	ErrorTypeOverwrittenOption ErrorType = "overwritten_option"
	ErrorTypeConversion        ErrorType = "conversion"
)

// InitializationError reports an invalid model: bad attachments, name
// collisions, misconfigured help options or usage settings
type InitializationError struct {
	Message string
	Cause   error
}

func (e *InitializationError) Error() string { return e.Message }

func (e *InitializationError) Unwrap() error { return e.Cause }

// ErrorType returns ErrorTypeInitialization
func (e *InitializationError) ErrorType() ErrorType { return ErrorTypeInitialization }

func initErrorf(format string, args ...any) *InitializationError {
	return &InitializationError{Message: fmt.Sprintf(format, args...)}
}

// ParameterError is the base of every user-input failure raised while parsing
type ParameterError struct {
	Type    ErrorType
	Message string
	Command *CommandSpec
	Arg     ArgSpec
	Value   string
	Cause   error
}

func (e *ParameterError) Error() string { return e.Message }

func (e *ParameterError) Unwrap() error { return e.Cause }

// ErrorType returns the category of the failure
func (e *ParameterError) ErrorType() ErrorType { return e.Type }

func (e *ParameterError) parameterError() *ParameterError { return e }

// MissingParameterError reports required arguments that were not supplied,
// or an option that ran out of mandatory values
type MissingParameterError struct {
	ParameterError
	Missing []ArgSpec
}

// UnmatchedArgumentError reports tokens no ArgSpec or subcommand accepted
type UnmatchedArgumentError struct {
	ParameterError
	Index       int
	Unmatched   []string
	Suggestions []string
}

// OverwrittenOptionError reports a single-value option matched twice
type OverwrittenOptionError struct {
	ParameterError
	Option *OptionSpec
}

// ConversionError reports a converter that rejected a raw value. Parse
// wraps it in a ParameterError naming the argument
type ConversionError struct {
	Type  reflect.Type
	Value string
	Cause error
}

func (e *ConversionError) Error() string {
	name := "<nil>"
	if e.Type != nil {
		name = e.Type.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("'%s' is not a valid %s: %v", e.Value, name, e.Cause)
	}
	return fmt.Sprintf("'%s' is not a valid %s", e.Value, name)
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// ErrorType returns ErrorTypeConversion
func (e *ConversionError) ErrorType() ErrorType { return ErrorTypeConversion }

// AsParameterError returns the ParameterError view of any parse-time error
// in err's chain
func AsParameterError(err error) (*ParameterError, bool) {
	var pe interface{ parameterError() *ParameterError }
	if errors.As(err, &pe) {
		return pe.parameterError(), true
	}
	return nil, false
}

func newParameterError(cmd *CommandSpec, arg ArgSpec, value string, cause error, format string, args ...any) *ParameterError {
	return &ParameterError{
		Type:    ErrorTypeParameter,
		Message: fmt.Sprintf(format, args...),
		Command: cmd,
		Arg:     arg,
		Value:   value,
		Cause:   cause,
	}
}

func newConversionFailure(cmd *CommandSpec, arg ArgSpec, value string, cause error) *ParameterError {
	pe := newParameterError(cmd, arg, value, cause, "Invalid value for %s: %v", describeArg(arg), cause)
	pe.Type = ErrorTypeConversion
	return pe
}

func newMissingRequired(cmd *CommandSpec, missing []ArgSpec) *MissingParameterError {
	var options, positionals []string
	for _, a := range missing {
		if o, ok := a.(*OptionSpec); ok {
			options = append(options, optionLabel(o))
		} else {
			positionals = append(positionals, "'"+a.ParamLabel()+"'")
		}
	}

	var msg string
	switch {
	case len(positionals) == 0 && len(options) == 1:
		msg = fmt.Sprintf("Missing required option '%s'", options[0])
	case len(positionals) == 0:
		msg = fmt.Sprintf("Missing required options [%s]", strings.Join(options, ", "))
	case len(options) == 0 && len(positionals) == 1:
		msg = "Missing required parameter: " + positionals[0]
	case len(options) == 0:
		msg = "Missing required parameters: " + strings.Join(positionals, ", ")
	default:
		msg = fmt.Sprintf("Missing required options [%s] and parameters: %s",
			strings.Join(options, ", "), strings.Join(positionals, ", "))
	}

	return &MissingParameterError{
		ParameterError: ParameterError{
			Type:    ErrorTypeMissingParameter,
			Message: msg,
			Command: cmd,
		},
		Missing: missing,
	}
}

func newMissingValue(cmd *CommandSpec, arg ArgSpec, format string, args ...any) *MissingParameterError {
	return &MissingParameterError{
		ParameterError: ParameterError{
			Type:    ErrorTypeMissingParameter,
			Message: fmt.Sprintf(format, args...),
			Command: cmd,
			Arg:     arg,
		},
		Missing: []ArgSpec{arg},
	}
}

func newUnmatched(cmd *CommandSpec, index int, unmatched []string, suggestions []string) *UnmatchedArgumentError {
	quoted := make([]string, len(unmatched))
	for i, u := range unmatched {
		quoted[i] = "'" + u + "'"
	}

	var msg string
	switch {
	case len(unmatched) == 1 && cmd != nil && cmd.ResemblesOption(unmatched[0]):
		msg = "Unknown option: " + quoted[0]
	case len(unmatched) == 1:
		msg = fmt.Sprintf("Unmatched argument at index %d: %s", index, quoted[0])
	default:
		msg = fmt.Sprintf("Unmatched arguments from index %d: %s", index, strings.Join(quoted, ", "))
	}

	return &UnmatchedArgumentError{
		ParameterError: ParameterError{
			Type:    ErrorTypeUnmatchedArgument,
			Message: msg,
			Command: cmd,
		},
		Index:       index,
		Unmatched:   unmatched,
		Suggestions: suggestions,
	}
}

func newOverwritten(cmd *CommandSpec, opt *OptionSpec, value string) *OverwrittenOptionError {
	return &OverwrittenOptionError{
		ParameterError: ParameterError{
			Type:    ErrorTypeOverwrittenOption,
			Message: fmt.Sprintf("option '%s' (%s) should be specified only once", opt.LongestName(), opt.ParamLabel()),
			Command: cmd,
			Arg:     opt,
			Value:   value,
		},
		Option: opt,
	}
}

func optionLabel(o *OptionSpec) string {
	if o.Arity().Max == 0 {
		return o.LongestName()
	}
	return o.LongestName() + "=" + o.ParamLabel()
}

func describeArg(arg ArgSpec) string {
	switch a := arg.(type) {
	case *OptionSpec:
		return fmt.Sprintf("option '%s' (%s)", a.LongestName(), a.ParamLabel())
	case *PositionalParamSpec:
		return fmt.Sprintf("positional parameter at index %s (%s)", a.Index(), a.ParamLabel())
	default:
		return "argument"
	}
}
