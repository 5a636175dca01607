package uri

import (
	"strings"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
)

// Segment is one resolved path component of a resource URI
type Segment interface {
	// HasPrecedingSlash reports whether the segment is separated from the
	// previous one by a "/" when rendered
	HasPrecedingSlash() bool
	String() string

	isSegment()
}

// SegmentPath is a "/" separated sequence of segments used by $expand and $select
type SegmentPath []Segment

func (p SegmentPath) String() string {
	parts := make([]string, 0, len(p))
	for _, s := range p {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "/")
}

type ServiceRootSegment struct {
	URI string
}

func ServiceRoot(uri string) *ServiceRootSegment {
	return &ServiceRootSegment{URI: strings.TrimRight(uri, "/")}
}

func (*ServiceRootSegment) HasPrecedingSlash() bool { return false }
func (s *ServiceRootSegment) String() string       { return s.URI }
func (*ServiceRootSegment) isSegment()             {}

type EntitySetSegment struct {
	EntitySet *edm.EntitySet
	// QualifyWithContainer renders the set as Container.Set
	QualifyWithContainer bool
}

func EntitySet(es *edm.EntitySet) *EntitySetSegment {
	return &EntitySetSegment{EntitySet: es}
}

func (*EntitySetSegment) HasPrecedingSlash() bool { return true }
func (*EntitySetSegment) isSegment()             {}

func (s *EntitySetSegment) String() string {
	if s.QualifyWithContainer && s.EntitySet.Container != nil {
		return s.EntitySet.Container.Name + "." + s.EntitySet.Name
	}
	return s.EntitySet.Name
}

// KeyValue is a named literal used by keys and parameters
type KeyValue struct {
	Name  string
	Value any
}

// KeyPair is shorthand for creating a KeyValue
func KeyPair(name string, value any) KeyValue {
	return KeyValue{Name: name, Value: value}
}

type KeySegment struct {
	Values []KeyValue
}

func Key(values ...KeyValue) *KeySegment {
	return &KeySegment{Values: values}
}

// IsComposite is true for keys made up of more than one property
func (s *KeySegment) IsComposite() bool {
	return len(s.Values) > 1
}

func (*KeySegment) HasPrecedingSlash() bool { return false }
func (*KeySegment) isSegment()             {}

func (s *KeySegment) String() string {
	if len(s.Values) == 1 {
		return "(" + FormatLiteral(s.Values[0].Value) + ")"
	}
	return "(" + formatNamedValues(s.Values) + ")"
}

func formatNamedValues(values []KeyValue) string {
	parts := make([]string, 0, len(values))
	for _, kv := range values {
		parts = append(parts, kv.Name+"="+FormatLiteral(kv.Value))
	}
	return strings.Join(parts, ",")
}

type NavigationSegment struct {
	Property *edm.NavigationProperty
}

func Navigation(np *edm.NavigationProperty) *NavigationSegment {
	return &NavigationSegment{Property: np}
}

func (*NavigationSegment) HasPrecedingSlash() bool { return true }
func (s *NavigationSegment) String() string       { return s.Property.Name }
func (*NavigationSegment) isSegment()             {}

// IsCollection is true when the far end of the navigation is many
func (s *NavigationSegment) IsCollection() bool {
	return s.Property.ToMultiplicity == edm.Many
}

// PropertyKind is the shape of a declared property, derived from its type
type PropertyKind int

const (
	PrimitivePropertyKind PropertyKind = iota
	ComplexPropertyKind
	PrimitiveCollectionPropertyKind
	ComplexCollectionPropertyKind
	StreamPropertyKind
)

type PropertySegment struct {
	Property *edm.Property
	Kind     PropertyKind
}

// Property creates a property segment. Stream properties should be wrapped with
// NamedStream instead.
func Property(p *edm.Property) *PropertySegment {
	return &PropertySegment{Property: p, Kind: propertyKindOf(p.Type)}
}

func propertyKindOf(dt edm.DataType) PropertyKind {
	switch t := dt.(type) {
	case edm.ComplexDataType:
		return ComplexPropertyKind
	case edm.CollectionDataType:
		if _, ok := t.ElementType.(edm.ComplexDataType); ok {
			return ComplexCollectionPropertyKind
		}
		return PrimitiveCollectionPropertyKind
	case edm.PrimitiveDataType:
		if t.IsStream() {
			return StreamPropertyKind
		}
	}
	return PrimitivePropertyKind
}

func (*PropertySegment) HasPrecedingSlash() bool { return true }
func (s *PropertySegment) String() string       { return s.Property.Name }
func (*PropertySegment) isSegment()             {}

// OpenPropertySegment is a property that is not declared on an open type
type OpenPropertySegment struct {
	Name string
}

func OpenProperty(name string) *OpenPropertySegment {
	return &OpenPropertySegment{Name: name}
}

func (*OpenPropertySegment) HasPrecedingSlash() bool { return true }
func (s *OpenPropertySegment) String() string       { return s.Name }
func (*OpenPropertySegment) isSegment()             {}

type TypeCastSegment struct {
	EntityType *edm.EntityType
}

func TypeCast(et *edm.EntityType) *TypeCastSegment {
	return &TypeCastSegment{EntityType: et}
}

func (*TypeCastSegment) HasPrecedingSlash() bool { return true }
func (s *TypeCastSegment) String() string       { return s.EntityType.FullName() }
func (*TypeCastSegment) isSegment()             {}

// FunctionSegment invokes a service operation, action or function
type FunctionSegment struct {
	Function             *edm.FunctionImport
	UseParentheses       bool
	QualifyWithContainer bool
}

type FunctionOption func(*FunctionSegment)

func WithParentheses() FunctionOption {
	return func(fs *FunctionSegment) {
		fs.UseParentheses = true
	}
}

func WithContainerName() FunctionOption {
	return func(fs *FunctionSegment) {
		fs.QualifyWithContainer = true
	}
}

func Function(f *edm.FunctionImport, options ...FunctionOption) *FunctionSegment {
	fs := &FunctionSegment{Function: f}
	for _, opt := range options {
		opt(fs)
	}
	return fs
}

func (*FunctionSegment) HasPrecedingSlash() bool { return true }
func (*FunctionSegment) isSegment()             {}

func (s *FunctionSegment) String() string {
	name := s.Function.Name
	if s.QualifyWithContainer {
		name = s.Function.FullName()
	}
	if s.UseParentheses {
		name += "()"
	}
	return name
}

// ParametersSegment renders inline function parameters, e.g. (count=5)
type ParametersSegment struct {
	Values []KeyValue
}

func Parameters(values ...KeyValue) *ParametersSegment {
	return &ParametersSegment{Values: values}
}

func (*ParametersSegment) HasPrecedingSlash() bool { return false }
func (s *ParametersSegment) String() string       { return "(" + formatNamedValues(s.Values) + ")" }
func (*ParametersSegment) isSegment()             {}

type NamedStreamSegment struct {
	Property *edm.Property
}

func NamedStream(p *edm.Property) *NamedStreamSegment {
	return &NamedStreamSegment{Property: p}
}

func (*NamedStreamSegment) HasPrecedingSlash() bool { return true }
func (s *NamedStreamSegment) String() string       { return s.Property.Name }
func (*NamedStreamSegment) isSegment()             {}

// UnrecognizedSegment is a path component that could not be resolved
type UnrecognizedSegment struct {
	Value string
}

func Unrecognized(value string) *UnrecognizedSegment {
	return &UnrecognizedSegment{Value: value}
}

func (*UnrecognizedSegment) HasPrecedingSlash() bool { return true }
func (s *UnrecognizedSegment) String() string       { return s.Value }
func (*UnrecognizedSegment) isSegment()             {}

// SystemSegment is one of the fixed endpoint segments such as $batch or $count.
// Instances are shared and must be compared by identity.
type SystemSegment struct {
	literal string
}

func (*SystemSegment) HasPrecedingSlash() bool { return true }
func (s *SystemSegment) String() string       { return s.literal }
func (*SystemSegment) isSegment()             {}

var (
	Batch    = &SystemSegment{literal: "$batch"}
	Count    = &SystemSegment{literal: "$count"}
	Ref      = &SystemSegment{literal: "$ref"}
	Links    = &SystemSegment{literal: "$links"}
	Metadata = &SystemSegment{literal: "$metadata"}
	Value    = &SystemSegment{literal: "$value"}
	All      = &SystemSegment{literal: "*"}
)

// systemSegments is read-only after package initialization
var systemSegments = map[string]*SystemSegment{
	Batch.literal:    Batch,
	Count.literal:    Count,
	Ref.literal:      Ref,
	Links.literal:    Links,
	Metadata.literal: Metadata,
	Value.literal:    Value,
	All.literal:      All,
}

// LookupSystemSegment returns the shared system segment for an endpoint literal
func LookupSystemSegment(literal string) (*SystemSegment, bool) {
	s, ok := systemSegments[literal]
	return s, ok
}
