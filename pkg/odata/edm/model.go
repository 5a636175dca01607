package edm

import (
	"fmt"
	"strings"
)

const (
	EdmNamespace string = "Edm"

	EdmBinary         string = "Edm.Binary"
	EdmBoolean        string = "Edm.Boolean"
	EdmByte           string = "Edm.Byte"
	EdmDateTime       string = "Edm.DateTime"
	EdmDateTimeOffset string = "Edm.DateTimeOffset"
	EdmDecimal        string = "Edm.Decimal"
	EdmDouble         string = "Edm.Double"
	EdmGuid           string = "Edm.Guid"
	EdmInt16          string = "Edm.Int16"
	EdmInt32          string = "Edm.Int32"
	EdmInt64          string = "Edm.Int64"
	EdmSByte          string = "Edm.SByte"
	EdmSingle         string = "Edm.Single"
	EdmStream         string = "Edm.Stream"
	EdmString         string = "Edm.String"
	EdmTime           string = "Edm.Time"
)

// Multiplicity describes the far end of a navigation property
type Multiplicity int

const (
	ZeroOrOne Multiplicity = iota
	One
	Many
)

func (m Multiplicity) String() string {
	switch m {
	case ZeroOrOne:
		return "0..1"
	case One:
		return "1"
	case Many:
		return "*"
	}
	return fmt.Sprintf("Multiplicity(%d)", int(m))
}

// DataType is the declared type of a property, parameter or function return value
type DataType interface {
	String() string
	isDataType()
}

type PrimitiveDataType struct {
	Name     string
	Nullable bool
}

func (p PrimitiveDataType) String() string { return p.Name }
func (PrimitiveDataType) isDataType()      {}

// IsStream is true for the Edm.Stream type used by named streams
func (p PrimitiveDataType) IsStream() bool { return p.Name == EdmStream }

type ComplexDataType struct {
	Type *ComplexType
}

func (c ComplexDataType) String() string { return c.Type.FullName() }
func (ComplexDataType) isDataType()      {}

type EntityDataType struct {
	Type *EntityType
}

func (e EntityDataType) String() string { return e.Type.FullName() }
func (EntityDataType) isDataType()      {}

type CollectionDataType struct {
	ElementType DataType
}

func (c CollectionDataType) String() string { return "Collection(" + c.ElementType.String() + ")" }
func (CollectionDataType) isDataType()      {}

// Property is a declared structural property of an entity or complex type
type Property struct {
	Name string
	Type DataType
}

// IsStream reports whether this property is a named stream
func (p *Property) IsStream() bool {
	prim, ok := p.Type.(PrimitiveDataType)
	return ok && prim.IsStream()
}

type NavigationProperty struct {
	Name           string
	DeclaringType  *EntityType
	TargetType     *EntityType
	ToMultiplicity Multiplicity
}

// StructuralType is implemented by entity and complex types
type StructuralType interface {
	FullName() string
	IsOpen() bool
	Property(name string) (*Property, bool)
}

type EntityType struct {
	Namespace            string
	Name                 string
	BaseType             *EntityType
	Abstract             bool
	OpenType             bool
	HasStream            bool
	Keys                 []string
	Properties           []*Property
	NavigationProperties []*NavigationProperty
}

func (et *EntityType) FullName() string {
	return qualify(et.Namespace, et.Name)
}

// IsOpen is true when this type, or any type it derives from, is declared open
func (et *EntityType) IsOpen() bool {
	for t := et; t != nil; t = t.BaseType {
		if t.OpenType {
			return true
		}
	}
	return false
}

// IsMediaLinkEntry is true when instances of the type carry a default stream
func (et *EntityType) IsMediaLinkEntry() bool {
	for t := et; t != nil; t = t.BaseType {
		if t.HasStream {
			return true
		}
	}
	return false
}

func (et *EntityType) Property(name string) (*Property, bool) {
	for t := et; t != nil; t = t.BaseType {
		for _, p := range t.Properties {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

func (et *EntityType) NavigationProperty(name string) (*NavigationProperty, bool) {
	for t := et; t != nil; t = t.BaseType {
		for _, np := range t.NavigationProperties {
			if np.Name == name {
				return np, true
			}
		}
	}
	return nil, false
}

// AllProperties returns the declared properties of the whole type hierarchy,
// base type properties first
func (et *EntityType) AllProperties() []*Property {
	if et.BaseType == nil {
		return et.Properties
	}

	props := append([]*Property{}, et.BaseType.AllProperties()...)
	return append(props, et.Properties...)
}

// KeyProperties resolves the key property names against the type hierarchy
func (et *EntityType) KeyProperties() []*Property {
	root := et
	for root.BaseType != nil {
		root = root.BaseType
	}

	keys := make([]*Property, 0, len(root.Keys))
	for _, k := range root.Keys {
		if p, ok := root.Property(k); ok {
			keys = append(keys, p)
		}
	}
	return keys
}

// IsAssignableFrom reports whether other equals et or derives from it
func (et *EntityType) IsAssignableFrom(other *EntityType) bool {
	for t := other; t != nil; t = t.BaseType {
		if t == et {
			return true
		}
	}
	return false
}

type ComplexType struct {
	Namespace  string
	Name       string
	OpenType   bool
	Properties []*Property
}

func (ct *ComplexType) FullName() string {
	return qualify(ct.Namespace, ct.Name)
}

func (ct *ComplexType) IsOpen() bool {
	return ct.OpenType
}

func (ct *ComplexType) Property(name string) (*Property, bool) {
	for _, p := range ct.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

type EntitySet struct {
	Name       string
	Container  *EntityContainer
	EntityType *EntityType

	navigationTargets map[string]*EntitySet
}

// RelatedEntitySet returns the entity set reached by following the navigation
// property from this set. Explicit navigation targets win, otherwise the first
// set in the container whose type can hold the navigation target is used.
func (es *EntitySet) RelatedEntitySet(np *NavigationProperty) (*EntitySet, bool) {
	if np == nil {
		return nil, false
	}

	if target, ok := es.navigationTargets[np.Name]; ok {
		return target, true
	}

	if es.Container == nil {
		return nil, false
	}

	for _, candidate := range es.Container.EntitySets {
		if candidate.EntityType == np.TargetType {
			return candidate, true
		}
	}

	for _, candidate := range es.Container.EntitySets {
		if candidate.EntityType.IsAssignableFrom(np.TargetType) {
			return candidate, true
		}
	}

	return nil, false
}

// SetNavigationTarget binds a navigation property of this set to a target set
func (es *EntitySet) SetNavigationTarget(navigationProperty string, target *EntitySet) {
	if es.navigationTargets == nil {
		es.navigationTargets = map[string]*EntitySet{}
	}
	es.navigationTargets[navigationProperty] = target
}

type FunctionKind int

const (
	ServiceOperation FunctionKind = iota
	Action
	Function
)

func (k FunctionKind) String() string {
	switch k {
	case ServiceOperation:
		return "ServiceOperation"
	case Action:
		return "Action"
	case Function:
		return "Function"
	}
	return fmt.Sprintf("FunctionKind(%d)", int(k))
}

type FunctionParameter struct {
	Name string
	Type DataType
}

// FunctionImport describes a service operation, action or function
type FunctionImport struct {
	Name       string
	Container  *EntityContainer
	Kind       FunctionKind
	ReturnType DataType
	// ReturnEntitySet is the statically declared entity set of the results, if any
	ReturnEntitySet *EntitySet
	// EntitySetPath derives the result set from the binding parameter, e.g. "order/Customer"
	EntitySetPath string
	IsBindable    bool
	IsComposable  bool
	// HTTPMethod is the verb a service operation is invoked with ("GET" or "POST")
	HTTPMethod string
	Parameters []*FunctionParameter
}

// FullName returns the container qualified name of the function
func (f *FunctionImport) FullName() string {
	if f.Container == nil {
		return f.Name
	}
	return qualify(f.Container.Name, f.Name)
}

// BindingParameter returns the first parameter of a bindable function
func (f *FunctionImport) BindingParameter() (*FunctionParameter, bool) {
	if !f.IsBindable || len(f.Parameters) == 0 {
		return nil, false
	}
	return f.Parameters[0], true
}

// ResultEntitySet infers the entity set of the function results. The binding
// set is only consulted when the function declares an entity set path.
func (f *FunctionImport) ResultEntitySet(binding *EntitySet) (*EntitySet, bool) {
	if f.ReturnEntitySet != nil {
		return f.ReturnEntitySet, true
	}

	if f.EntitySetPath == "" || binding == nil {
		return nil, false
	}

	parts := strings.Split(f.EntitySetPath, "/")
	current := binding

	// the first part names the binding parameter itself
	for _, navName := range parts[1:] {
		np, ok := current.EntityType.NavigationProperty(navName)
		if !ok {
			return nil, false
		}

		current, ok = current.RelatedEntitySet(np)
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// ReturnsEntities is true when the return type is an entity or a collection of entities
func (f *FunctionImport) ReturnsEntities() bool {
	rt := f.ReturnType
	if c, ok := rt.(CollectionDataType); ok {
		rt = c.ElementType
	}
	_, ok := rt.(EntityDataType)
	return ok
}

type EntityContainer struct {
	Name       string
	IsDefault  bool
	EntitySets []*EntitySet
	Functions  []*FunctionImport
}

func (c *EntityContainer) EntitySet(name string) (*EntitySet, bool) {
	for _, es := range c.EntitySets {
		if es.Name == name {
			return es, true
		}
	}
	return nil, false
}

func (c *EntityContainer) Function(name string) (*FunctionImport, bool) {
	for _, f := range c.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Model is a read-only, in-memory entity data model
type Model struct {
	Namespace    string
	Containers   []*EntityContainer
	EntityTypes  []*EntityType
	ComplexTypes []*ComplexType
}

// DefaultContainer returns the container flagged as default, or the first one
func (m *Model) DefaultContainer() (*EntityContainer, bool) {
	for _, c := range m.Containers {
		if c.IsDefault {
			return c, true
		}
	}
	if len(m.Containers) > 0 {
		return m.Containers[0], true
	}
	return nil, false
}

// EntitySet finds a set by name. Names qualified with a container name
// ("Container.Set") are looked up in that container only.
func (m *Model) EntitySet(name string) (*EntitySet, bool) {
	if container, local, ok := m.splitContainerName(name); ok {
		return container.EntitySet(local)
	}

	if dc, ok := m.DefaultContainer(); ok {
		if es, ok := dc.EntitySet(name); ok {
			return es, true
		}
	}

	for _, c := range m.Containers {
		if es, ok := c.EntitySet(name); ok {
			return es, true
		}
	}

	return nil, false
}

// Function finds a function import by name, optionally container qualified
func (m *Model) Function(name string) (*FunctionImport, bool) {
	if container, local, ok := m.splitContainerName(name); ok {
		return container.Function(local)
	}

	if dc, ok := m.DefaultContainer(); ok {
		if f, ok := dc.Function(name); ok {
			return f, true
		}
	}

	for _, c := range m.Containers {
		if f, ok := c.Function(name); ok {
			return f, true
		}
	}

	return nil, false
}

func (m *Model) EntityType(fullName string) (*EntityType, bool) {
	for _, et := range m.EntityTypes {
		if et.FullName() == fullName || (et.Namespace == m.Namespace && et.Name == fullName) {
			return et, true
		}
	}
	return nil, false
}

func (m *Model) ComplexType(fullName string) (*ComplexType, bool) {
	for _, ct := range m.ComplexTypes {
		if ct.FullName() == fullName || (ct.Namespace == m.Namespace && ct.Name == fullName) {
			return ct, true
		}
	}
	return nil, false
}

func (m *Model) splitContainerName(name string) (*EntityContainer, string, bool) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return nil, "", false
	}

	containerName := name[:idx]
	for _, c := range m.Containers {
		if c.Name == containerName {
			return c, name[idx+1:], true
		}
	}

	return nil, "", false
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
