package payload

import (
	"bytes"
	"net/http"
)

// Clone returns a deep copy of e. Only equatable annotations are copied.
func Clone[E Element](e E) E {
	return Dispatch[Element](e, cloner{}).(E)
}

type cloner struct{}

func cloneAnnotations(dst, src Element) {
	for _, a := range equatableAnnotations(src) {
		dst.Annotate(a.CloneAnnotation())
	}
}

func cloneProperties(src []PropertyInstance) []PropertyInstance {
	result := make([]PropertyInstance, 0, len(src))
	for _, p := range src {
		result = append(result, Clone(p))
	}
	return result
}

func cloneItems[T Element](src []T) []T {
	result := make([]T, 0, len(src))
	for _, i := range src {
		result = append(result, Clone(i))
	}
	return result
}

// cloneOptional keeps a nil value nil
func cloneOptional[T interface {
	Element
	comparable
}](v T) T {
	var zero T
	if v == zero {
		return zero
	}
	return Clone(v)
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (cloner) VisitEntityInstance(e *EntityInstance) Element {
	c := &EntityInstance{
		TypedValue:        e.TypedValue,
		ID:                e.ID,
		StreamSourceLink:  e.StreamSourceLink,
		StreamEditLink:    e.StreamEditLink,
		StreamContentType: e.StreamContentType,
		StreamETag:        e.StreamETag,
	}
	c.Add(cloneProperties(e.Properties())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitEntitySetInstance(e *EntitySetInstance) Element {
	c := &EntitySetInstance{InlineCount: cloneInt64(e.InlineCount), NextLink: e.NextLink}
	c.Add(cloneItems(e.Items())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitComplexInstance(e *ComplexInstance) Element {
	c := &ComplexInstance{TypedValue: e.TypedValue}
	c.Add(cloneProperties(e.Properties())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitPrimitiveValue(e *PrimitiveValue) Element {
	c := &PrimitiveValue{TypedValue: e.TypedValue, Value: e.Value}
	if b, ok := e.Value.([]byte); ok {
		c.Value = bytes.Clone(b)
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitPrimitiveCollection(e *PrimitiveCollection) Element {
	c := &PrimitiveCollection{TypedValue: e.TypedValue}
	c.Add(cloneItems(e.Items())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitComplexInstanceCollection(e *ComplexInstanceCollection) Element {
	c := &ComplexInstanceCollection{TypedValue: e.TypedValue}
	c.Add(cloneItems(e.Items())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitPrimitiveProperty(e *PrimitiveProperty) Element {
	c := &PrimitiveProperty{propertyBase: propertyBase{name: e.name}}
	if v, ok := e.value.Get(); ok {
		c.value.Set(cloneOptional(v))
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitComplexProperty(e *ComplexProperty) Element {
	c := &ComplexProperty{propertyBase: propertyBase{name: e.name}}
	if v, ok := e.value.Get(); ok {
		c.value.Set(cloneOptional(v))
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitPrimitiveCollectionProperty(e *PrimitiveCollectionProperty) Element {
	c := &PrimitiveCollectionProperty{propertyBase: propertyBase{name: e.name}}
	if v, ok := e.value.Get(); ok {
		c.value.Set(cloneOptional(v))
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitComplexCollectionProperty(e *ComplexCollectionProperty) Element {
	c := &ComplexCollectionProperty{propertyBase: propertyBase{name: e.name}}
	if v, ok := e.value.Get(); ok {
		c.value.Set(cloneOptional(v))
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitNamedStreamInstance(e *NamedStreamInstance) Element {
	c := &NamedStreamInstance{
		propertyBase: propertyBase{name: e.name},
		SourceLink:   e.SourceLink,
		EditLink:     e.EditLink,
		ContentType:  e.ContentType,
		ETag:         e.ETag,
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitNullPropertyInstance(e *NullPropertyInstance) Element {
	c := &NullPropertyInstance{propertyBase: propertyBase{name: e.name}, FullTypeName: e.FullTypeName}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitNavigationPropertyInstance(e *NavigationPropertyInstance) Element {
	c := &NavigationPropertyInstance{propertyBase: propertyBase{name: e.name}}
	if v, ok := e.value.Get(); ok && v != nil {
		c.value.Set(Clone(v))
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitDeferredLink(e *DeferredLink) Element {
	c := &DeferredLink{URI: e.URI}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitExpandedLink(e *ExpandedLink) Element {
	c := &ExpandedLink{URI: e.URI}
	if e.expanded != nil {
		c.expanded = Clone(e.expanded)
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitLinkCollection(e *LinkCollection) Element {
	c := &LinkCollection{InlineCount: cloneInt64(e.InlineCount), NextLink: e.NextLink}
	c.Add(cloneItems(e.Items())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitErrorPayload(e *ErrorPayload) Element {
	c := &ErrorPayload{Code: e.Code, Message: e.Message, InnerError: cloneInnerError(e.InnerError)}
	cloneAnnotations(c, e)
	return c
}

func cloneInnerError(ie *InnerError) *InnerError {
	if ie == nil {
		return nil
	}
	return &InnerError{
		Message:    ie.Message,
		TypeName:   ie.TypeName,
		StackTrace: ie.StackTrace,
		Internal:   cloneInnerError(ie.Internal),
	}
}

func (cloner) VisitServiceDocumentInstance(e *ServiceDocumentInstance) Element {
	c := &ServiceDocumentInstance{BaseURI: e.BaseURI}
	c.Add(cloneItems(e.Items())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitWorkspaceInstance(e *WorkspaceInstance) Element {
	c := &WorkspaceInstance{Title: e.Title}
	c.Add(cloneItems(e.Items())...)
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitResourceCollectionInstance(e *ResourceCollectionInstance) Element {
	c := &ResourceCollectionInstance{Title: e.Title, Href: e.Href}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitBatchRequestPayload(e *BatchRequestPayload) Element {
	c := &BatchRequestPayload{Boundary: e.Boundary, Charset: e.Charset}
	for _, p := range e.Parts {
		c.Parts = append(c.Parts, CloneRequestPart(p))
	}
	cloneAnnotations(c, e)
	return c
}

func (cloner) VisitBatchResponsePayload(e *BatchResponsePayload) Element {
	c := &BatchResponsePayload{Boundary: e.Boundary, Charset: e.Charset}
	for _, p := range e.Parts {
		c.Parts = append(c.Parts, CloneResponsePart(p))
	}
	cloneAnnotations(c, e)
	return c
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

func cloneBody(b []byte) []byte {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

func clonePayload(e Element) Element {
	if e == nil {
		return nil
	}
	return Clone(e)
}

// CloneRequestPart deep copies a batch request part of any shape
func CloneRequestPart(p BatchRequestPart) BatchRequestPart {
	switch part := p.(type) {
	case *HTTPRequest:
		return cloneRequest(part)
	case *RequestPart:
		return &RequestPart{Headers: cloneHeader(part.Headers), Request: cloneRequest(part.Request)}
	case *BatchRequestChangeset:
		c := &BatchRequestChangeset{Boundary: part.Boundary, Charset: part.Charset, Headers: cloneHeader(part.Headers)}
		for _, op := range part.Operations {
			c.Operations = append(c.Operations, CloneRequestPart(op))
		}
		return c
	}
	return p
}

func cloneRequest(r *HTTPRequest) *HTTPRequest {
	if r == nil {
		return nil
	}
	return &HTTPRequest{
		Method:  r.Method,
		URI:     r.URI,
		Headers: cloneHeader(r.Headers),
		Body:    cloneBody(r.Body),
		Payload: clonePayload(r.Payload),
	}
}

// CloneResponsePart deep copies a batch response part of any shape
func CloneResponsePart(p BatchResponsePart) BatchResponsePart {
	switch part := p.(type) {
	case *HTTPResponse:
		return cloneResponse(part)
	case *ResponsePart:
		return &ResponsePart{Headers: cloneHeader(part.Headers), Response: cloneResponse(part.Response)}
	case *BatchResponseChangeset:
		c := &BatchResponseChangeset{Boundary: part.Boundary, Charset: part.Charset, Headers: cloneHeader(part.Headers)}
		for _, op := range part.Operations {
			c.Operations = append(c.Operations, CloneResponsePart(op))
		}
		return c
	}
	return p
}

func cloneResponse(r *HTTPResponse) *HTTPResponse {
	if r == nil {
		return nil
	}
	return &HTTPResponse{
		StatusCode: r.StatusCode,
		Headers:    cloneHeader(r.Headers),
		Body:       cloneBody(r.Body),
		Payload:    clonePayload(r.Payload),
	}
}
