package uri

import (
	"net/http"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
)

func lastSegment(segments []Segment) (Segment, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	return segments[len(segments)-1], true
}

func endsWith(segments []Segment, system *SystemSegment) bool {
	last, ok := lastSegment(segments)
	return ok && last == system
}

func contains(segments []Segment, system *SystemSegment) bool {
	for _, s := range segments {
		if s == system {
			return true
		}
	}
	return false
}

// containsReferenceLink is true for paths holding $ref or its $links spelling
func containsReferenceLink(segments []Segment) bool {
	return contains(segments, Ref) || contains(segments, Links)
}

// lastFunction returns the function invoked by the path, looking past any
// trailing parameters segment
func lastFunction(segments []Segment) (*FunctionSegment, bool) {
	for i := len(segments) - 1; i >= 0; i-- {
		switch s := segments[i].(type) {
		case *ParametersSegment:
			continue
		case *FunctionSegment:
			return s, true
		}
		return nil, false
	}
	return nil, false
}

func returnShape(f *edm.FunctionImport) (dt edm.DataType, isCollection bool) {
	if c, ok := f.ReturnType.(edm.CollectionDataType); ok {
		return c.ElementType, true
	}
	return f.ReturnType, false
}

// IsEntity is true when the path addresses a single entity. Reference link
// paths are never entities.
func IsEntity(segments []Segment) bool {
	if containsReferenceLink(segments) {
		return false
	}
	return isEntity(segments)
}

func isEntity(segments []Segment) bool {
	last, ok := lastSegment(segments)
	if !ok {
		return false
	}

	switch s := last.(type) {
	case *KeySegment:
		return true
	case *NavigationSegment:
		return !s.IsCollection()
	case *TypeCastSegment, *ParametersSegment:
		return isEntity(segments[:len(segments)-1])
	case *FunctionSegment:
		dt, isCollection := returnShape(s.Function)
		_, isEntityType := dt.(edm.EntityDataType)
		return isEntityType && !isCollection
	}

	return false
}

// IsEntitySet is true when the path addresses a collection of entities. A path
// ending in a key is never a set.
func IsEntitySet(segments []Segment) bool {
	if containsReferenceLink(segments) {
		return false
	}
	return isEntitySet(segments)
}

func isEntitySet(segments []Segment) bool {
	last, ok := lastSegment(segments)
	if !ok {
		return false
	}

	switch s := last.(type) {
	case *EntitySetSegment:
		return true
	case *NavigationSegment:
		return s.IsCollection()
	case *TypeCastSegment, *ParametersSegment:
		return isEntitySet(segments[:len(segments)-1])
	case *FunctionSegment:
		dt, isCollection := returnShape(s.Function)
		_, isEntityType := dt.(edm.EntityDataType)
		return isEntityType && isCollection
	}

	return false
}

// IsProperty is true when the path ends in a declared or open property
func IsProperty(segments []Segment) bool {
	last, ok := lastSegment(segments)
	if !ok {
		return false
	}

	switch s := last.(type) {
	case *PropertySegment:
		return s.Kind != StreamPropertyKind
	case *OpenPropertySegment:
		return true
	}

	return false
}

// IsPropertyValue is true for the raw $value of a property
func IsPropertyValue(segments []Segment) bool {
	return endsWith(segments, Value) && IsProperty(segments[:len(segments)-1])
}

// IsMediaResource is true for the $value of a media link entry
func IsMediaResource(segments []Segment) bool {
	return endsWith(segments, Value) && IsEntity(segments[:len(segments)-1])
}

func IsNamedStream(segments []Segment) bool {
	last, ok := lastSegment(segments)
	if !ok {
		return false
	}

	switch s := last.(type) {
	case *NamedStreamSegment:
		return true
	case *PropertySegment:
		return s.Kind == StreamPropertyKind
	}

	return false
}

func IsCount(segments []Segment) bool {
	return endsWith(segments, Count)
}

func IsMetadata(segments []Segment) bool {
	return endsWith(segments, Metadata)
}

func IsBatch(segments []Segment) bool {
	return endsWith(segments, Batch)
}

// IsServiceDocument is true for an empty path or one made up of the service root only
func IsServiceDocument(segments []Segment) bool {
	for _, s := range segments {
		if _, ok := s.(*ServiceRootSegment); !ok {
			return false
		}
	}
	return true
}

func IsEntityReferenceLink(segments []Segment) bool {
	return containsReferenceLink(segments)
}

func IsAction(segments []Segment) bool {
	f, ok := lastFunction(segments)
	return ok && f.Function.Kind == edm.Action
}

// IsFunction is true for paths invoking a function or a service operation
func IsFunction(segments []Segment) bool {
	f, ok := lastFunction(segments)
	return ok && f.Function.Kind != edm.Action
}

// IsWebInvokeServiceOperation is true for service operations invoked with POST
func IsWebInvokeServiceOperation(segments []Segment) bool {
	f, ok := lastFunction(segments)
	return ok && f.Function.Kind == edm.ServiceOperation && f.Function.HTTPMethod == http.MethodPost
}

func HasUnrecognizedSegment(segments []Segment) bool {
	for _, s := range segments {
		if _, ok := s.(*UnrecognizedSegment); ok {
			return true
		}
	}
	return false
}
