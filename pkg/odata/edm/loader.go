package edm

import (
	"fmt"
	"io"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

type PropertyInfo struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable"`
}

type NavigationPropertyInfo struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Multiplicity string `yaml:"multiplicity"`
}

type EntityTypeInfo struct {
	Name                 string                   `yaml:"name"`
	BaseType             string                   `yaml:"baseType"`
	Abstract             bool                     `yaml:"abstract"`
	Open                 bool                     `yaml:"open"`
	HasStream            bool                     `yaml:"hasStream"`
	Key                  []string                 `yaml:"key"`
	Properties           []PropertyInfo           `yaml:"properties"`
	NavigationProperties []NavigationPropertyInfo `yaml:"navigationProperties"`
}

type ComplexTypeInfo struct {
	Name       string         `yaml:"name"`
	Open       bool           `yaml:"open"`
	Properties []PropertyInfo `yaml:"properties"`
}

type EntitySetInfo struct {
	Name              string            `yaml:"name"`
	EntityType        string            `yaml:"entityType"`
	NavigationTargets map[string]string `yaml:"navigationTargets"`
}

type FunctionInfo struct {
	Name          string         `yaml:"name"`
	Kind          string         `yaml:"kind"`
	ReturnType    string         `yaml:"returnType"`
	EntitySet     string         `yaml:"entitySet"`
	EntitySetPath string         `yaml:"entitySetPath"`
	Bindable      bool           `yaml:"bindable"`
	Composable    bool           `yaml:"composable"`
	Method        string         `yaml:"method"`
	Parameters    []PropertyInfo `yaml:"parameters"`
}

type ContainerInfo struct {
	Name       string          `yaml:"name"`
	Default    bool            `yaml:"default"`
	EntitySets []EntitySetInfo `yaml:"entitySets"`
	Functions  []FunctionInfo  `yaml:"functions"`
}

// ModelInfo is the YAML description of a model
type ModelInfo struct {
	Namespace    string            `yaml:"namespace"`
	EntityTypes  []EntityTypeInfo  `yaml:"entityTypes"`
	ComplexTypes []ComplexTypeInfo `yaml:"complexTypes"`
	Containers   []ContainerInfo   `yaml:"containers"`
}

// LoadModel reads a YAML model description and resolves all type references
func LoadModel(data io.Reader) (*Model, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	info := &ModelInfo{}
	err = yaml.Unmarshal(buf, info)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model description: %w", err)
	}

	return NewModel(*info)
}

// NewModel builds a model from its description
func NewModel(info ModelInfo) (*Model, error) {
	m := &Model{Namespace: info.Namespace}

	// declare all named types before resolving any references between them
	for _, cti := range info.ComplexTypes {
		m.ComplexTypes = append(m.ComplexTypes, &ComplexType{
			Namespace: info.Namespace, Name: cti.Name, OpenType: cti.Open,
		})
	}

	for _, eti := range info.EntityTypes {
		m.EntityTypes = append(m.EntityTypes, &EntityType{
			Namespace: info.Namespace, Name: eti.Name, Abstract: eti.Abstract,
			OpenType: eti.Open, HasStream: eti.HasStream, Keys: eti.Key,
		})
	}

	for idx, cti := range info.ComplexTypes {
		props, err := m.resolveProperties(cti.Properties)
		if err != nil {
			return nil, fmt.Errorf("complex type %s: %w", cti.Name, err)
		}
		m.ComplexTypes[idx].Properties = props
	}

	for idx, eti := range info.EntityTypes {
		et := m.EntityTypes[idx]

		if eti.BaseType != "" {
			base, ok := m.EntityType(eti.BaseType)
			if !ok {
				return nil, fmt.Errorf("entity type %s: unknown base type %s", eti.Name, eti.BaseType)
			}
			et.BaseType = base
		}

		props, err := m.resolveProperties(eti.Properties)
		if err != nil {
			return nil, fmt.Errorf("entity type %s: %w", eti.Name, err)
		}
		et.Properties = props

		for _, npi := range eti.NavigationProperties {
			target, ok := m.EntityType(npi.Type)
			if !ok {
				return nil, fmt.Errorf("navigation property %s.%s: unknown target type %s", eti.Name, npi.Name, npi.Type)
			}

			multiplicity, err := parseMultiplicity(npi.Multiplicity)
			if err != nil {
				return nil, fmt.Errorf("navigation property %s.%s: %w", eti.Name, npi.Name, err)
			}

			et.NavigationProperties = append(et.NavigationProperties, &NavigationProperty{
				Name: npi.Name, DeclaringType: et, TargetType: target, ToMultiplicity: multiplicity,
			})
		}
	}

	for _, ci := range info.Containers {
		c := &EntityContainer{Name: ci.Name, IsDefault: ci.Default}
		m.Containers = append(m.Containers, c)

		for _, esi := range ci.EntitySets {
			et, ok := m.EntityType(esi.EntityType)
			if !ok {
				return nil, fmt.Errorf("entity set %s: unknown entity type %s", esi.Name, esi.EntityType)
			}
			c.EntitySets = append(c.EntitySets, &EntitySet{Name: esi.Name, Container: c, EntityType: et})
		}

		for idx, esi := range ci.EntitySets {
			for navName, targetName := range esi.NavigationTargets {
				target, ok := c.EntitySet(targetName)
				if !ok {
					return nil, fmt.Errorf("entity set %s: unknown navigation target %s", esi.Name, targetName)
				}
				c.EntitySets[idx].SetNavigationTarget(navName, target)
			}
		}

		for _, fi := range ci.Functions {
			f, err := m.resolveFunction(c, fi)
			if err != nil {
				return nil, fmt.Errorf("function %s: %w", fi.Name, err)
			}
			c.Functions = append(c.Functions, f)
		}
	}

	return m, nil
}

func (m *Model) resolveFunction(c *EntityContainer, fi FunctionInfo) (*FunctionImport, error) {
	f := &FunctionImport{
		Name:          fi.Name,
		Container:     c,
		EntitySetPath: fi.EntitySetPath,
		IsBindable:    fi.Bindable,
		IsComposable:  fi.Composable,
		HTTPMethod:    strings.ToUpper(fi.Method),
	}

	switch strings.ToLower(fi.Kind) {
	case "", "serviceoperation":
		f.Kind = ServiceOperation
		if f.HTTPMethod == "" {
			f.HTTPMethod = "GET"
		}
	case "action":
		f.Kind = Action
		f.HTTPMethod = "POST"
	case "function":
		f.Kind = Function
		f.HTTPMethod = "GET"
	default:
		return nil, fmt.Errorf("unknown function kind %q", fi.Kind)
	}

	if fi.ReturnType != "" {
		rt, err := m.ResolveType(fi.ReturnType, true)
		if err != nil {
			return nil, err
		}
		f.ReturnType = rt
	}

	if fi.EntitySet != "" {
		es, ok := c.EntitySet(fi.EntitySet)
		if !ok {
			return nil, fmt.Errorf("unknown entity set %s", fi.EntitySet)
		}
		f.ReturnEntitySet = es
	}

	for _, pi := range fi.Parameters {
		pt, err := m.ResolveType(pi.Type, nullable(pi.Nullable))
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", pi.Name, err)
		}
		f.Parameters = append(f.Parameters, &FunctionParameter{Name: pi.Name, Type: pt})
	}

	return f, nil
}

func (m *Model) resolveProperties(infos []PropertyInfo) ([]*Property, error) {
	props := make([]*Property, 0, len(infos))

	for _, pi := range infos {
		dt, err := m.ResolveType(pi.Type, nullable(pi.Nullable))
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", pi.Name, err)
		}
		props = append(props, &Property{Name: pi.Name, Type: dt})
	}

	return props, nil
}

// ResolveType turns a type reference such as "Edm.Int32", "Collection(NS.Address)"
// or "NS.Order" into a DataType
func (m *Model) ResolveType(ref string, isNullable bool) (DataType, error) {
	ref = strings.TrimSpace(ref)

	if strings.HasPrefix(ref, "Collection(") && strings.HasSuffix(ref, ")") {
		element, err := m.ResolveType(ref[len("Collection("):len(ref)-1], isNullable)
		if err != nil {
			return nil, err
		}
		return CollectionDataType{ElementType: element}, nil
	}

	if strings.HasPrefix(ref, EdmNamespace+".") {
		return PrimitiveDataType{Name: ref, Nullable: isNullable}, nil
	}

	if ct, ok := m.ComplexType(ref); ok {
		return ComplexDataType{Type: ct}, nil
	}

	if et, ok := m.EntityType(ref); ok {
		return EntityDataType{Type: et}, nil
	}

	return nil, fmt.Errorf("unknown type %q", ref)
}

func parseMultiplicity(s string) (Multiplicity, error) {
	switch strings.TrimSpace(s) {
	case "0..1", "":
		return ZeroOrOne, nil
	case "1":
		return One, nil
	case "*", "many":
		return Many, nil
	}
	return ZeroOrOne, fmt.Errorf("unknown multiplicity %q", s)
}

func nullable(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
