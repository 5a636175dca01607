package payload

// Visitor has one method per concrete element kind. Elements call back into it
// from Accept with their own static type.
type Visitor interface {
	VisitEntityInstance(e *EntityInstance)
	VisitEntitySetInstance(e *EntitySetInstance)
	VisitComplexInstance(e *ComplexInstance)
	VisitPrimitiveValue(e *PrimitiveValue)
	VisitPrimitiveCollection(e *PrimitiveCollection)
	VisitComplexInstanceCollection(e *ComplexInstanceCollection)
	VisitPrimitiveProperty(e *PrimitiveProperty)
	VisitComplexProperty(e *ComplexProperty)
	VisitPrimitiveCollectionProperty(e *PrimitiveCollectionProperty)
	VisitComplexCollectionProperty(e *ComplexCollectionProperty)
	VisitNamedStreamInstance(e *NamedStreamInstance)
	VisitNullPropertyInstance(e *NullPropertyInstance)
	VisitNavigationPropertyInstance(e *NavigationPropertyInstance)
	VisitDeferredLink(e *DeferredLink)
	VisitExpandedLink(e *ExpandedLink)
	VisitLinkCollection(e *LinkCollection)
	VisitErrorPayload(e *ErrorPayload)
	VisitServiceDocumentInstance(e *ServiceDocumentInstance)
	VisitWorkspaceInstance(e *WorkspaceInstance)
	VisitResourceCollectionInstance(e *ResourceCollectionInstance)
	VisitBatchRequestPayload(e *BatchRequestPayload)
	VisitBatchResponsePayload(e *BatchResponsePayload)
}

// ResultVisitor is the value producing counterpart of Visitor
type ResultVisitor[T any] interface {
	VisitEntityInstance(e *EntityInstance) T
	VisitEntitySetInstance(e *EntitySetInstance) T
	VisitComplexInstance(e *ComplexInstance) T
	VisitPrimitiveValue(e *PrimitiveValue) T
	VisitPrimitiveCollection(e *PrimitiveCollection) T
	VisitComplexInstanceCollection(e *ComplexInstanceCollection) T
	VisitPrimitiveProperty(e *PrimitiveProperty) T
	VisitComplexProperty(e *ComplexProperty) T
	VisitPrimitiveCollectionProperty(e *PrimitiveCollectionProperty) T
	VisitComplexCollectionProperty(e *ComplexCollectionProperty) T
	VisitNamedStreamInstance(e *NamedStreamInstance) T
	VisitNullPropertyInstance(e *NullPropertyInstance) T
	VisitNavigationPropertyInstance(e *NavigationPropertyInstance) T
	VisitDeferredLink(e *DeferredLink) T
	VisitExpandedLink(e *ExpandedLink) T
	VisitLinkCollection(e *LinkCollection) T
	VisitErrorPayload(e *ErrorPayload) T
	VisitServiceDocumentInstance(e *ServiceDocumentInstance) T
	VisitWorkspaceInstance(e *WorkspaceInstance) T
	VisitResourceCollectionInstance(e *ResourceCollectionInstance) T
	VisitBatchRequestPayload(e *BatchRequestPayload) T
	VisitBatchResponsePayload(e *BatchResponsePayload) T
}

// Dispatch calls the method of rv matching the concrete kind of e and returns its result
func Dispatch[T any](e Element, rv ResultVisitor[T]) T {
	d := &dispatcher[T]{rv: rv}
	e.Accept(d)
	return d.result
}

type dispatcher[T any] struct {
	rv     ResultVisitor[T]
	result T
}

func (d *dispatcher[T]) VisitEntityInstance(e *EntityInstance) {
	d.result = d.rv.VisitEntityInstance(e)
}

func (d *dispatcher[T]) VisitEntitySetInstance(e *EntitySetInstance) {
	d.result = d.rv.VisitEntitySetInstance(e)
}

func (d *dispatcher[T]) VisitComplexInstance(e *ComplexInstance) {
	d.result = d.rv.VisitComplexInstance(e)
}

func (d *dispatcher[T]) VisitPrimitiveValue(e *PrimitiveValue) {
	d.result = d.rv.VisitPrimitiveValue(e)
}

func (d *dispatcher[T]) VisitPrimitiveCollection(e *PrimitiveCollection) {
	d.result = d.rv.VisitPrimitiveCollection(e)
}

func (d *dispatcher[T]) VisitComplexInstanceCollection(e *ComplexInstanceCollection) {
	d.result = d.rv.VisitComplexInstanceCollection(e)
}

func (d *dispatcher[T]) VisitPrimitiveProperty(e *PrimitiveProperty) {
	d.result = d.rv.VisitPrimitiveProperty(e)
}

func (d *dispatcher[T]) VisitComplexProperty(e *ComplexProperty) {
	d.result = d.rv.VisitComplexProperty(e)
}

func (d *dispatcher[T]) VisitPrimitiveCollectionProperty(e *PrimitiveCollectionProperty) {
	d.result = d.rv.VisitPrimitiveCollectionProperty(e)
}

func (d *dispatcher[T]) VisitComplexCollectionProperty(e *ComplexCollectionProperty) {
	d.result = d.rv.VisitComplexCollectionProperty(e)
}

func (d *dispatcher[T]) VisitNamedStreamInstance(e *NamedStreamInstance) {
	d.result = d.rv.VisitNamedStreamInstance(e)
}

func (d *dispatcher[T]) VisitNullPropertyInstance(e *NullPropertyInstance) {
	d.result = d.rv.VisitNullPropertyInstance(e)
}

func (d *dispatcher[T]) VisitNavigationPropertyInstance(e *NavigationPropertyInstance) {
	d.result = d.rv.VisitNavigationPropertyInstance(e)
}

func (d *dispatcher[T]) VisitDeferredLink(e *DeferredLink) {
	d.result = d.rv.VisitDeferredLink(e)
}

func (d *dispatcher[T]) VisitExpandedLink(e *ExpandedLink) {
	d.result = d.rv.VisitExpandedLink(e)
}

func (d *dispatcher[T]) VisitLinkCollection(e *LinkCollection) {
	d.result = d.rv.VisitLinkCollection(e)
}

func (d *dispatcher[T]) VisitErrorPayload(e *ErrorPayload) {
	d.result = d.rv.VisitErrorPayload(e)
}

func (d *dispatcher[T]) VisitServiceDocumentInstance(e *ServiceDocumentInstance) {
	d.result = d.rv.VisitServiceDocumentInstance(e)
}

func (d *dispatcher[T]) VisitWorkspaceInstance(e *WorkspaceInstance) {
	d.result = d.rv.VisitWorkspaceInstance(e)
}

func (d *dispatcher[T]) VisitResourceCollectionInstance(e *ResourceCollectionInstance) {
	d.result = d.rv.VisitResourceCollectionInstance(e)
}

func (d *dispatcher[T]) VisitBatchRequestPayload(e *BatchRequestPayload) {
	d.result = d.rv.VisitBatchRequestPayload(e)
}

func (d *dispatcher[T]) VisitBatchResponsePayload(e *BatchResponsePayload) {
	d.result = d.rv.VisitBatchResponsePayload(e)
}

// Children returns the elements directly owned by e, in order. Batch payload
// parts are not elements, but the payloads attached to their operations are.
func Children(e Element) []Element {
	return Dispatch[[]Element](e, childCollector{})
}

// Walk visits e and its descendants depth first. Returning false from fn skips
// the children of the current element.
func Walk(e Element, fn func(Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

type childCollector struct{}

func propertiesAsElements(props []PropertyInstance) []Element {
	result := make([]Element, 0, len(props))
	for _, p := range props {
		result = append(result, p)
	}
	return result
}

func itemsAsElements[T Element](items []T) []Element {
	result := make([]Element, 0, len(items))
	for _, i := range items {
		result = append(result, i)
	}
	return result
}

func nonNil(elements ...Element) []Element {
	result := []Element{}
	for _, e := range elements {
		if e != nil {
			result = append(result, e)
		}
	}
	return result
}

func (childCollector) VisitEntityInstance(e *EntityInstance) []Element {
	return propertiesAsElements(e.Properties())
}

func (childCollector) VisitEntitySetInstance(e *EntitySetInstance) []Element {
	return itemsAsElements(e.Items())
}

func (childCollector) VisitComplexInstance(e *ComplexInstance) []Element {
	return propertiesAsElements(e.Properties())
}

func (childCollector) VisitPrimitiveValue(*PrimitiveValue) []Element { return nil }

func (childCollector) VisitPrimitiveCollection(e *PrimitiveCollection) []Element {
	return itemsAsElements(e.Items())
}

func (childCollector) VisitComplexInstanceCollection(e *ComplexInstanceCollection) []Element {
	return itemsAsElements(e.Items())
}

func (childCollector) VisitPrimitiveProperty(e *PrimitiveProperty) []Element {
	if v := e.Value(); v != nil {
		return []Element{v}
	}
	return nil
}

func (childCollector) VisitComplexProperty(e *ComplexProperty) []Element {
	if v := e.Value(); v != nil {
		return []Element{v}
	}
	return nil
}

func (childCollector) VisitPrimitiveCollectionProperty(e *PrimitiveCollectionProperty) []Element {
	if v := e.Value(); v != nil {
		return []Element{v}
	}
	return nil
}

func (childCollector) VisitComplexCollectionProperty(e *ComplexCollectionProperty) []Element {
	if v := e.Value(); v != nil {
		return []Element{v}
	}
	return nil
}

func (childCollector) VisitNamedStreamInstance(*NamedStreamInstance) []Element { return nil }

func (childCollector) VisitNullPropertyInstance(*NullPropertyInstance) []Element { return nil }

func (childCollector) VisitNavigationPropertyInstance(e *NavigationPropertyInstance) []Element {
	return nonNil(e.Value())
}

func (childCollector) VisitDeferredLink(*DeferredLink) []Element { return nil }

func (childCollector) VisitExpandedLink(e *ExpandedLink) []Element {
	return nonNil(e.ExpandedElement())
}

func (childCollector) VisitLinkCollection(e *LinkCollection) []Element {
	return itemsAsElements(e.Items())
}

func (childCollector) VisitErrorPayload(*ErrorPayload) []Element { return nil }

func (childCollector) VisitServiceDocumentInstance(e *ServiceDocumentInstance) []Element {
	return itemsAsElements(e.Items())
}

func (childCollector) VisitWorkspaceInstance(e *WorkspaceInstance) []Element {
	return itemsAsElements(e.Items())
}

func (childCollector) VisitResourceCollectionInstance(*ResourceCollectionInstance) []Element {
	return nil
}

func (childCollector) VisitBatchRequestPayload(e *BatchRequestPayload) []Element {
	result := []Element{}
	for _, op := range e.Operations() {
		if op.Request != nil && op.Request.Payload != nil {
			result = append(result, op.Request.Payload)
		}
	}
	return result
}

func (childCollector) VisitBatchResponsePayload(e *BatchResponsePayload) []Element {
	result := []Element{}
	var collect func(parts []BatchResponsePart)
	collect = func(parts []BatchResponsePart) {
		for _, p := range parts {
			switch part := p.(type) {
			case *ResponsePart:
				if part.Response != nil && part.Response.Payload != nil {
					result = append(result, part.Response.Payload)
				}
			case *BatchResponseChangeset:
				collect(part.Operations)
			}
		}
	}
	collect(e.Parts)
	return result
}
