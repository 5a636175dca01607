package payload

import (
	"fmt"
	"reflect"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
)

// Collection is a homogeneous sequence of elements of type T. When T is an
// interface any element implementing it may be added.
type Collection[T any] struct {
	items []T
}

func (c *Collection[T]) Items() []T {
	return c.items
}

func (c *Collection[T]) Len() int {
	return len(c.items)
}

func (c *Collection[T]) At(idx int) T {
	return c.items[idx]
}

func (c *Collection[T]) Add(items ...T) {
	c.items = append(c.items, items...)
}

// AddElement adds an untyped element, failing with an invalid operation error
// if the element is not a T
func (c *Collection[T]) AddElement(e Element) error {
	item, ok := e.(T)
	if !ok {
		return errors.NewInvalidOperationError(
			fmt.Sprintf("cannot add an element of kind %s to a collection of %s", kindOf(e), elementTypeName[T]()),
		)
	}

	c.items = append(c.items, item)
	return nil
}

func elementTypeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// EntitySetInstance is a feed of entities
type EntitySetInstance struct {
	elementBase
	Collection[*EntityInstance]

	InlineCount *int64
	NextLink    string
}

func NewEntitySetInstance(entities ...*EntityInstance) *EntitySetInstance {
	es := &EntitySetInstance{}
	es.Add(entities...)
	return es
}

func (*EntitySetInstance) Kind() Kind { return KindEntitySetInstance }

func (es *EntitySetInstance) Accept(v Visitor) { v.VisitEntitySetInstance(es) }

// PrimitiveCollection is a typed sequence of primitive values, its type name
// has the form Collection(Edm.X)
type PrimitiveCollection struct {
	elementBase
	TypedValue
	Collection[*PrimitiveValue]
}

func NewPrimitiveCollection(fullTypeName string, values ...*PrimitiveValue) *PrimitiveCollection {
	pc := &PrimitiveCollection{TypedValue: TypedValue{FullTypeName: fullTypeName}}
	pc.Add(values...)
	return pc
}

func (*PrimitiveCollection) Kind() Kind { return KindPrimitiveCollection }

func (pc *PrimitiveCollection) Accept(v Visitor) { v.VisitPrimitiveCollection(pc) }

type ComplexInstanceCollection struct {
	elementBase
	TypedValue
	Collection[*ComplexInstance]
}

func NewComplexInstanceCollection(fullTypeName string, values ...*ComplexInstance) *ComplexInstanceCollection {
	cc := &ComplexInstanceCollection{TypedValue: TypedValue{FullTypeName: fullTypeName}}
	cc.Add(values...)
	return cc
}

func (*ComplexInstanceCollection) Kind() Kind { return KindComplexInstanceCollection }

func (cc *ComplexInstanceCollection) Accept(v Visitor) { v.VisitComplexInstanceCollection(cc) }

// Link is implemented by deferred and expanded links
type Link interface {
	Element
	LinkURI() string
}

type DeferredLink struct {
	elementBase
	URI string
}

func NewDeferredLink(uri string) *DeferredLink {
	return &DeferredLink{URI: uri}
}

func (*DeferredLink) Kind() Kind { return KindDeferredLink }

func (dl *DeferredLink) Accept(v Visitor) { v.VisitDeferredLink(dl) }

func (dl *DeferredLink) LinkURI() string { return dl.URI }

// ExpandedLink owns the entity or entity set that was expanded inline
type ExpandedLink struct {
	elementBase
	URI string

	expanded Element
}

func NewExpandedLink(uri string, expanded Element) (*ExpandedLink, error) {
	el := &ExpandedLink{URI: uri}
	if expanded != nil {
		if err := el.SetExpandedElement(expanded); err != nil {
			return nil, err
		}
	}
	return el, nil
}

func (*ExpandedLink) Kind() Kind { return KindExpandedLink }

func (el *ExpandedLink) Accept(v Visitor) { v.VisitExpandedLink(el) }

func (el *ExpandedLink) LinkURI() string { return el.URI }

// ExpandedElement returns the inlined entity or entity set, nil for an expanded null
func (el *ExpandedLink) ExpandedElement() Element { return el.expanded }

func (el *ExpandedLink) SetExpandedElement(e Element) error {
	switch kindOf(e) {
	case KindEntityInstance, KindEntitySetInstance:
		el.expanded = e
		return nil
	}

	return errors.NewInvalidOperationError(
		fmt.Sprintf("an expanded link cannot hold an element of kind %s", kindOf(e)),
	)
}

type LinkCollection struct {
	elementBase
	Collection[Link]

	InlineCount *int64
	NextLink    string
}

func NewLinkCollection(links ...Link) *LinkCollection {
	lc := &LinkCollection{}
	lc.Add(links...)
	return lc
}

func (*LinkCollection) Kind() Kind { return KindLinkCollection }

func (lc *LinkCollection) Accept(v Visitor) { v.VisitLinkCollection(lc) }

type ResourceCollectionInstance struct {
	elementBase
	Title string
	Href  string
}

func NewResourceCollectionInstance(title, href string) *ResourceCollectionInstance {
	return &ResourceCollectionInstance{Title: title, Href: href}
}

func (*ResourceCollectionInstance) Kind() Kind { return KindResourceCollectionInstance }

func (rc *ResourceCollectionInstance) Accept(v Visitor) { v.VisitResourceCollectionInstance(rc) }

type WorkspaceInstance struct {
	elementBase
	Collection[*ResourceCollectionInstance]
	Title string
}

func NewWorkspaceInstance(title string, collections ...*ResourceCollectionInstance) *WorkspaceInstance {
	ws := &WorkspaceInstance{Title: title}
	ws.Add(collections...)
	return ws
}

func (*WorkspaceInstance) Kind() Kind { return KindWorkspaceInstance }

func (ws *WorkspaceInstance) Accept(v Visitor) { v.VisitWorkspaceInstance(ws) }

type ServiceDocumentInstance struct {
	elementBase
	Collection[*WorkspaceInstance]
	BaseURI string
}

func NewServiceDocumentInstance(workspaces ...*WorkspaceInstance) *ServiceDocumentInstance {
	sd := &ServiceDocumentInstance{}
	sd.Add(workspaces...)
	return sd
}

func (*ServiceDocumentInstance) Kind() Kind { return KindServiceDocumentInstance }

func (sd *ServiceDocumentInstance) Accept(v Visitor) { v.VisitServiceDocumentInstance(sd) }

// InnerError carries the optional debug details of an error payload
type InnerError struct {
	Message    string
	TypeName   string
	StackTrace string
	Internal   *InnerError
}

type ErrorPayload struct {
	elementBase

	Code       string
	Message    string
	InnerError *InnerError
}

func NewErrorPayload(code, message string) *ErrorPayload {
	return &ErrorPayload{Code: code, Message: message}
}

func (*ErrorPayload) Kind() Kind { return KindErrorPayload }

func (ep *ErrorPayload) Accept(v Visitor) { v.VisitErrorPayload(ep) }
