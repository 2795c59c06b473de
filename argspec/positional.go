package argspec

import "fmt"

// PositionalParamSpec is an argument identified by its position among the
// non-option tokens
type PositionalParamSpec struct {
	argCore

	index    Range
	indexSet bool
}

// PositionalBuilder builds a PositionalParamSpec
type PositionalBuilder struct {
	argBuilder[*PositionalBuilder]

	indexText string
}

// NewPositional starts a positional parameter
func NewPositional() *PositionalBuilder {
	b := &PositionalBuilder{}
	b.argBuilder = newArgBuilder(b)
	return b
}

// Index sets the positions this parameter captures, e.g. "0", "1..2", "2..*".
// Without an index the command assigns one when the parameter is attached
func (b *PositionalBuilder) Index(index string) *PositionalBuilder {
	b.indexText = index
	return b
}

// Build validates the builder and returns the positional parameter
func (b *PositionalBuilder) Build() (*PositionalParamSpec, error) {
	core, err := b.buildCore(false)
	if err != nil {
		return nil, err
	}
	p := &PositionalParamSpec{argCore: core}
	if b.indexText != "" {
		r, err := ParseRange(b.indexText)
		if err != nil {
			return nil, &InitializationError{Message: "invalid index: " + err.Error(), Cause: err}
		}
		p.index, p.indexSet = r, true
	}
	return p, nil
}

// MustBuild is like Build but panics on error
func (b *PositionalBuilder) MustBuild() *PositionalParamSpec {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// ToBuilder returns a builder initialized from p. The binding is shared
func (p *PositionalParamSpec) ToBuilder() *PositionalBuilder {
	b := NewPositional()
	copyIntoBuilder(&b.argBuilder, &p.argCore)
	if p.indexSet {
		b.indexText = p.index.String()
	}
	return b
}

// Index returns the positions captured by this parameter
func (p *PositionalParamSpec) Index() Range { return p.index }

// IsOption returns false
func (p *PositionalParamSpec) IsOption() bool { return false }

// IsPositional returns true
func (p *PositionalParamSpec) IsPositional() bool { return true }

func (p *PositionalParamSpec) String() string {
	return fmt.Sprintf("positional parameter[%s]", p.index)
}

// maxConsumable is how many values this parameter may take starting at
// position. An implicit arity stops at the index boundary
func (p *PositionalParamSpec) maxConsumable(position int) int {
	if p.shape() == shapeScalar {
		return 1
	}
	limit := p.arityRange.Max
	if !p.aritySet && !p.index.IsUnbounded() {
		limit = min(limit, p.index.Max-position+1)
	}
	return limit
}
