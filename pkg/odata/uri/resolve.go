package uri

import (
	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
)

// ExpectedPayloadKind infers the kind of payload a response to the path
// carries. Several predicates overlap, the order of the checks decides.
func ExpectedPayloadKind(segments []Segment) payload.Kind {
	switch {
	case HasUnrecognizedSegment(segments):
		return payload.KindUnknown
	case IsMetadata(segments):
		return payload.KindMetadataPayload
	case IsBatch(segments):
		return payload.KindBatchResponsePayload
	case IsCount(segments), IsPropertyValue(segments), IsMediaResource(segments), IsNamedStream(segments):
		return payload.KindPrimitiveValue
	case IsEntity(segments):
		return payload.KindEntityInstance
	case IsEntitySet(segments):
		return payload.KindEntitySetInstance
	case IsEntityReferenceLink(segments):
		return expectedLinkKind(segments)
	case IsProperty(segments):
		return expectedPropertyKind(segments)
	case IsFunction(segments), IsAction(segments):
		return expectedFunctionKind(segments)
	case IsServiceDocument(segments):
		return payload.KindServiceDocumentInstance
	}

	return payload.KindUnknown
}

// expectedLinkKind tracks the last navigation and whether a key follows it. A
// keyed or single valued navigation yields a single link.
func expectedLinkKind(segments []Segment) payload.Kind {
	var lastNav *NavigationSegment
	keyed := false

	for _, s := range segments {
		switch seg := s.(type) {
		case *NavigationSegment:
			lastNav = seg
			keyed = false
		case *KeySegment:
			keyed = true
		}
	}

	if lastNav != nil && lastNav.IsCollection() && !keyed {
		return payload.KindLinkCollection
	}

	return payload.KindDeferredLink
}

func expectedPropertyKind(segments []Segment) payload.Kind {
	last, _ := lastSegment(segments)

	prop, ok := last.(*PropertySegment)
	if !ok {
		// undeclared properties have no known shape
		return payload.KindUnknown
	}

	switch prop.Kind {
	case ComplexPropertyKind:
		return payload.KindComplexProperty
	case PrimitiveCollectionPropertyKind:
		return payload.KindPrimitiveCollectionProperty
	case ComplexCollectionPropertyKind:
		return payload.KindComplexCollectionProperty
	}

	return payload.KindPrimitiveProperty
}

func expectedFunctionKind(segments []Segment) payload.Kind {
	f, _ := lastFunction(segments)
	if f.Function.ReturnType == nil {
		return payload.KindUnknown
	}

	dt, isCollection := returnShape(f.Function)

	switch dt.(type) {
	case edm.EntityDataType:
		if isCollection {
			return payload.KindEntitySetInstance
		}
		return payload.KindEntityInstance
	case edm.ComplexDataType:
		if isCollection {
			return payload.KindComplexInstanceCollection
		}
		return payload.KindComplexProperty
	}

	if isCollection {
		return payload.KindPrimitiveCollection
	}
	return payload.KindPrimitiveProperty
}

// ExpectedEntitySetAndType walks the path and returns the entity set and type
// in effect at its end. It returns false if no entity set could be established.
func ExpectedEntitySetAndType(segments []Segment) (*edm.EntitySet, *edm.EntityType, bool) {
	var set *edm.EntitySet
	var typ *edm.EntityType

	for _, s := range segments {
		switch seg := s.(type) {
		case *EntitySetSegment:
			set = seg.EntitySet
			typ = set.EntityType
		case *NavigationSegment:
			typ = seg.Property.TargetType
			if set != nil {
				set, _ = set.RelatedEntitySet(seg.Property)
			}
		case *FunctionSegment:
			if rs, ok := seg.Function.ResultEntitySet(set); ok {
				set = rs
				typ = rs.EntityType
				if et, ok := returnedEntityType(seg.Function); ok {
					typ = et
				}
			} else {
				set, typ = nil, nil
			}
		case *TypeCastSegment:
			typ = seg.EntityType
		}
	}

	if set == nil {
		return nil, nil, false
	}

	return set, typ, true
}

func returnedEntityType(f *edm.FunctionImport) (*edm.EntityType, bool) {
	dt, _ := returnShape(f)
	if e, ok := dt.(edm.EntityDataType); ok {
		return e.Type, true
	}
	return nil, false
}

// HasOpenProperties is true if the path accesses a property that is not
// declared on an open entity or complex type
func HasOpenProperties(segments []Segment) bool {
	var current edm.StructuralType

	for _, s := range segments {
		switch seg := s.(type) {
		case *EntitySetSegment:
			current = seg.EntitySet.EntityType
		case *NavigationSegment:
			current = seg.Property.TargetType
		case *TypeCastSegment:
			current = seg.EntityType
		case *FunctionSegment:
			current = structuralReturnType(seg.Function)
		case *PropertySegment:
			if current != nil && current.IsOpen() {
				if _, declared := current.Property(seg.Property.Name); !declared {
					return true
				}
			}
			current = structuralTypeOf(seg.Property.Type)
		case *OpenPropertySegment, *UnrecognizedSegment:
			if current != nil && current.IsOpen() {
				return true
			}
			current = nil
		}
	}

	return false
}

func structuralTypeOf(dt edm.DataType) edm.StructuralType {
	if c, ok := dt.(edm.CollectionDataType); ok {
		dt = c.ElementType
	}

	switch t := dt.(type) {
	case edm.ComplexDataType:
		return t.Type
	case edm.EntityDataType:
		return t.Type
	}

	return nil
}

func structuralReturnType(f *edm.FunctionImport) edm.StructuralType {
	if f.ReturnType == nil {
		return nil
	}
	return structuralTypeOf(f.ReturnType)
}
