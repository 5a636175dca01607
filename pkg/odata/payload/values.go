package payload

import (
	"fmt"
	"sync/atomic"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
)

// PrimitiveValue holds a single primitive value such as a string, number or date
type PrimitiveValue struct {
	elementBase
	TypedValue

	Value any
}

func NewPrimitiveValue(fullTypeName string, value any) *PrimitiveValue {
	return &PrimitiveValue{
		TypedValue: TypedValue{FullTypeName: fullTypeName, IsNull: value == nil},
		Value:      value,
	}
}

func (*PrimitiveValue) Kind() Kind { return KindPrimitiveValue }

func (pv *PrimitiveValue) Accept(v Visitor) { v.VisitPrimitiveValue(pv) }

// PropertyInstance is implemented by every named member of a structured value
type PropertyInstance interface {
	Element
	PropertyName() string
}

type propertyBase struct {
	elementBase
	name string
}

func (p *propertyBase) PropertyName() string {
	return p.name
}

// propertyIndexThreshold is the number of properties a structured value can
// hold before lookups switch from a linear scan to a name index
const propertyIndexThreshold int = 5

// onPropertyIndexBuilt is invoked every time a property index is computed
var onPropertyIndexBuilt = func(size int) {}

type structuredValue struct {
	properties []PropertyInstance
	index      atomic.Pointer[map[string]PropertyInstance]
}

func (s *structuredValue) Properties() []PropertyInstance {
	return s.properties
}

// Add appends properties and invalidates any memoized index
func (s *structuredValue) Add(properties ...PropertyInstance) {
	s.properties = append(s.properties, properties...)
	s.index.Store(nil)
}

// Property looks up a property by name. Concurrent readers may race to build
// the index, in which case each computes the same map and the first one stored
// wins.
func (s *structuredValue) Property(name string) (PropertyInstance, bool) {
	if len(s.properties) <= propertyIndexThreshold {
		for _, p := range s.properties {
			if p.PropertyName() == name {
				return p, true
			}
		}
		return nil, false
	}

	idx := s.index.Load()
	if idx == nil {
		built := make(map[string]PropertyInstance, len(s.properties))
		for _, p := range s.properties {
			if _, exists := built[p.PropertyName()]; !exists {
				built[p.PropertyName()] = p
			}
		}
		onPropertyIndexBuilt(len(built))

		if !s.index.CompareAndSwap(nil, &built) {
			idx = s.index.Load()
		} else {
			idx = &built
		}
	}

	p, ok := (*idx)[name]
	return p, ok
}

// ComplexInstance is an instance of a complex type
type ComplexInstance struct {
	elementBase
	TypedValue
	structuredValue
}

func NewComplexInstance(fullTypeName string, properties ...PropertyInstance) *ComplexInstance {
	ci := &ComplexInstance{TypedValue: TypedValue{FullTypeName: fullTypeName}}
	ci.Add(properties...)
	return ci
}

// NewNullComplexInstance creates a typed null complex value
func NewNullComplexInstance(fullTypeName string) *ComplexInstance {
	return &ComplexInstance{TypedValue: TypedValue{FullTypeName: fullTypeName, IsNull: true}}
}

func (*ComplexInstance) Kind() Kind { return KindComplexInstance }

func (ci *ComplexInstance) Accept(v Visitor) { v.VisitComplexInstance(ci) }

// EntityInstance is a single entity, optionally a media link entry
type EntityInstance struct {
	elementBase
	TypedValue
	structuredValue

	ID string

	StreamSourceLink  string
	StreamEditLink    string
	StreamContentType string
	StreamETag        string
}

func NewEntityInstance(fullTypeName, id string, properties ...PropertyInstance) *EntityInstance {
	ei := &EntityInstance{TypedValue: TypedValue{FullTypeName: fullTypeName}, ID: id}
	ei.Add(properties...)
	return ei
}

func (*EntityInstance) Kind() Kind { return KindEntityInstance }

func (ei *EntityInstance) Accept(v Visitor) { v.VisitEntityInstance(ei) }

// IsMediaLinkEntry is true when the entity carries a default stream
func (ei *EntityInstance) IsMediaLinkEntry() bool {
	return ei.StreamSourceLink != "" || ei.StreamEditLink != ""
}

type PrimitiveProperty struct {
	propertyBase
	value Once[*PrimitiveValue]
}

func NewPrimitiveProperty(name string, value *PrimitiveValue) *PrimitiveProperty {
	p := &PrimitiveProperty{propertyBase: propertyBase{name: name}}
	if value != nil {
		p.value.Set(value)
	}
	return p
}

func (*PrimitiveProperty) Kind() Kind { return KindPrimitiveProperty }

func (p *PrimitiveProperty) Accept(v Visitor) { v.VisitPrimitiveProperty(p) }

func (p *PrimitiveProperty) Value() *PrimitiveValue { return p.value.Value() }

func (p *PrimitiveProperty) SetValue(value *PrimitiveValue) error { return p.value.Set(value) }

type ComplexProperty struct {
	propertyBase
	value Once[*ComplexInstance]
}

func NewComplexProperty(name string, value *ComplexInstance) *ComplexProperty {
	p := &ComplexProperty{propertyBase: propertyBase{name: name}}
	if value != nil {
		p.value.Set(value)
	}
	return p
}

func (*ComplexProperty) Kind() Kind { return KindComplexProperty }

func (p *ComplexProperty) Accept(v Visitor) { v.VisitComplexProperty(p) }

func (p *ComplexProperty) Value() *ComplexInstance { return p.value.Value() }

func (p *ComplexProperty) SetValue(value *ComplexInstance) error { return p.value.Set(value) }

type PrimitiveCollectionProperty struct {
	propertyBase
	value Once[*PrimitiveCollection]
}

func NewPrimitiveCollectionProperty(name string, value *PrimitiveCollection) *PrimitiveCollectionProperty {
	p := &PrimitiveCollectionProperty{propertyBase: propertyBase{name: name}}
	if value != nil {
		p.value.Set(value)
	}
	return p
}

func (*PrimitiveCollectionProperty) Kind() Kind { return KindPrimitiveCollectionProperty }

func (p *PrimitiveCollectionProperty) Accept(v Visitor) { v.VisitPrimitiveCollectionProperty(p) }

func (p *PrimitiveCollectionProperty) Value() *PrimitiveCollection { return p.value.Value() }

func (p *PrimitiveCollectionProperty) SetValue(value *PrimitiveCollection) error {
	return p.value.Set(value)
}

type ComplexCollectionProperty struct {
	propertyBase
	value Once[*ComplexInstanceCollection]
}

func NewComplexCollectionProperty(name string, value *ComplexInstanceCollection) *ComplexCollectionProperty {
	p := &ComplexCollectionProperty{propertyBase: propertyBase{name: name}}
	if value != nil {
		p.value.Set(value)
	}
	return p
}

func (*ComplexCollectionProperty) Kind() Kind { return KindComplexCollectionProperty }

func (p *ComplexCollectionProperty) Accept(v Visitor) { v.VisitComplexCollectionProperty(p) }

func (p *ComplexCollectionProperty) Value() *ComplexInstanceCollection { return p.value.Value() }

func (p *ComplexCollectionProperty) SetValue(value *ComplexInstanceCollection) error {
	return p.value.Set(value)
}

// NamedStreamInstance describes a stream valued property of an entity
type NamedStreamInstance struct {
	propertyBase

	SourceLink  string
	EditLink    string
	ContentType string
	ETag        string
}

func NewNamedStreamInstance(name, sourceLink string) *NamedStreamInstance {
	return &NamedStreamInstance{propertyBase: propertyBase{name: name}, SourceLink: sourceLink}
}

func (*NamedStreamInstance) Kind() Kind { return KindNamedStreamInstance }

func (ns *NamedStreamInstance) Accept(v Visitor) { v.VisitNamedStreamInstance(ns) }

// NullPropertyInstance is a property whose value is null, optionally typed
type NullPropertyInstance struct {
	propertyBase
	FullTypeName string
}

func NewNullPropertyInstance(name, fullTypeName string) *NullPropertyInstance {
	return &NullPropertyInstance{propertyBase: propertyBase{name: name}, FullTypeName: fullTypeName}
}

func (*NullPropertyInstance) Kind() Kind { return KindNullPropertyInstance }

func (np *NullPropertyInstance) Accept(v Visitor) { v.VisitNullPropertyInstance(np) }

// NavigationPropertyInstance holds a deferred link, an expanded link or a link collection
type NavigationPropertyInstance struct {
	propertyBase
	value Once[Element]
}

// NewNavigationPropertyInstance creates a navigation property. A nil value
// leaves it unassigned.
func NewNavigationPropertyInstance(name string, value Element) (*NavigationPropertyInstance, error) {
	np := &NavigationPropertyInstance{propertyBase: propertyBase{name: name}}
	if value != nil {
		if err := np.SetValue(value); err != nil {
			return nil, err
		}
	}
	return np, nil
}

func (*NavigationPropertyInstance) Kind() Kind { return KindNavigationPropertyInstance }

func (np *NavigationPropertyInstance) Accept(v Visitor) { v.VisitNavigationPropertyInstance(np) }

func (np *NavigationPropertyInstance) Value() Element { return np.value.Value() }

func (np *NavigationPropertyInstance) SetValue(value Element) error {
	if value == nil || !value.Kind().IsLink() {
		return errors.NewInvalidOperationError(
			fmt.Sprintf("navigation property %s cannot hold a value of kind %s", np.name, kindOf(value)),
		)
	}
	return np.value.Set(value)
}

func kindOf(e Element) Kind {
	if e == nil {
		return KindUnknown
	}
	return e.Kind()
}
