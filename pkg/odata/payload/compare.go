package payload

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
)

// ErrPayloadMismatch is wrapped by every error returned from Compare
var ErrPayloadMismatch = fmt.Errorf("payload mismatch")

// Compare reports the first structural difference between expected and actual
// as an error carrying the path to the differing element. Only equatable
// annotations are compared.
func Compare(expected, actual Element) error {
	c := &comparer{path: []string{}}
	c.compare(expected, actual)
	return c.err
}

type comparer struct {
	path   []string
	actual Element
	err    error
}

func (c *comparer) failf(format string, args ...any) {
	if c.err != nil {
		return
	}

	location := "/"
	if len(c.path) > 0 {
		location = strings.Join(c.path, "/")
	}

	c.err = fmt.Errorf("%w at %s: %s", ErrPayloadMismatch, location, fmt.Sprintf(format, args...))
}

func (c *comparer) compare(expected, actual Element) {
	if c.err != nil {
		return
	}

	if expected == nil || actual == nil {
		if expected != nil || actual != nil {
			c.failf("expected %s but found %s", kindOf(expected), kindOf(actual))
		}
		return
	}

	if expected.Kind() != actual.Kind() {
		c.failf("expected %s but found %s", expected.Kind(), actual.Kind())
		return
	}

	c.compareAnnotations(expected, actual)

	saved := c.actual
	c.actual = actual
	expected.Accept(c)
	c.actual = saved
}

func (c *comparer) within(segment string, fn func()) {
	c.path = append(c.path, segment)
	fn()
	c.path = c.path[:len(c.path)-1]
}

func (c *comparer) compareAnnotations(expected, actual Element) {
	ea := equatableAnnotations(expected)
	aa := equatableAnnotations(actual)

	if len(ea) != len(aa) {
		c.failf("expected %d annotations but found %d", len(ea), len(aa))
		return
	}

	for i := range ea {
		if !ea[i].EqualTo(aa[i]) {
			c.failf("annotation %s differs", ea[i].AnnotationName())
			return
		}
	}
}

func (c *comparer) compareValue(name string, expected, actual any) {
	if eb, ok := expected.([]byte); ok {
		if ab, ok := actual.([]byte); !ok || !bytes.Equal(eb, ab) {
			c.failf("%s: expected %v but found %v", name, expected, actual)
		}
		return
	}

	if !reflect.DeepEqual(expected, actual) {
		c.failf("%s: expected %v but found %v", name, expected, actual)
	}
}

func (c *comparer) compareTypedValue(expected, actual TypedValue) {
	c.compareValue("type name", expected.FullTypeName, actual.FullTypeName)
	c.compareValue("is null", expected.IsNull, actual.IsNull)
}

func (c *comparer) compareProperties(expected, actual []PropertyInstance) {
	if len(expected) != len(actual) {
		c.failf("expected %d properties but found %d", len(expected), len(actual))
		return
	}

	for i := range expected {
		e, a := expected[i], actual[i]
		if e.PropertyName() != a.PropertyName() {
			c.failf("expected property %s but found %s", e.PropertyName(), a.PropertyName())
			return
		}
		c.within(e.PropertyName(), func() { c.compare(e, a) })
	}
}

func compareItems[T Element](c *comparer, expected, actual []T) {
	if len(expected) != len(actual) {
		c.failf("expected %d items but found %d", len(expected), len(actual))
		return
	}

	for i := range expected {
		c.within(fmt.Sprintf("[%d]", i), func() { c.compare(expected[i], actual[i]) })
	}
}

// comparePropertyValue compares the once-set values of two properties
func comparePropertyValue[T interface {
	Element
	comparable
}](c *comparer, expected, actual T) {
	var zero T
	if expected == zero || actual == zero {
		if expected != zero || actual != zero {
			c.failf("expected a value to be present on both sides")
		}
		return
	}
	c.compare(expected, actual)
}

func (c *comparer) VisitEntityInstance(e *EntityInstance) {
	a := c.actual.(*EntityInstance)
	c.compareTypedValue(e.TypedValue, a.TypedValue)
	c.compareValue("id", e.ID, a.ID)
	c.compareValue("stream source link", e.StreamSourceLink, a.StreamSourceLink)
	c.compareValue("stream edit link", e.StreamEditLink, a.StreamEditLink)
	c.compareValue("stream content type", e.StreamContentType, a.StreamContentType)
	c.compareValue("stream etag", e.StreamETag, a.StreamETag)
	c.compareProperties(e.Properties(), a.Properties())
}

func (c *comparer) VisitEntitySetInstance(e *EntitySetInstance) {
	a := c.actual.(*EntitySetInstance)
	c.compareValue("inline count", e.InlineCount, a.InlineCount)
	c.compareValue("next link", e.NextLink, a.NextLink)
	compareItems(c, e.Items(), a.Items())
}

func (c *comparer) VisitComplexInstance(e *ComplexInstance) {
	a := c.actual.(*ComplexInstance)
	c.compareTypedValue(e.TypedValue, a.TypedValue)
	c.compareProperties(e.Properties(), a.Properties())
}

func (c *comparer) VisitPrimitiveValue(e *PrimitiveValue) {
	a := c.actual.(*PrimitiveValue)
	c.compareTypedValue(e.TypedValue, a.TypedValue)
	c.compareValue("value", e.Value, a.Value)
}

func (c *comparer) VisitPrimitiveCollection(e *PrimitiveCollection) {
	a := c.actual.(*PrimitiveCollection)
	c.compareTypedValue(e.TypedValue, a.TypedValue)
	compareItems(c, e.Items(), a.Items())
}

func (c *comparer) VisitComplexInstanceCollection(e *ComplexInstanceCollection) {
	a := c.actual.(*ComplexInstanceCollection)
	c.compareTypedValue(e.TypedValue, a.TypedValue)
	compareItems(c, e.Items(), a.Items())
}

func (c *comparer) VisitPrimitiveProperty(e *PrimitiveProperty) {
	comparePropertyValue(c, e.Value(), c.actual.(*PrimitiveProperty).Value())
}

func (c *comparer) VisitComplexProperty(e *ComplexProperty) {
	comparePropertyValue(c, e.Value(), c.actual.(*ComplexProperty).Value())
}

func (c *comparer) VisitPrimitiveCollectionProperty(e *PrimitiveCollectionProperty) {
	comparePropertyValue(c, e.Value(), c.actual.(*PrimitiveCollectionProperty).Value())
}

func (c *comparer) VisitComplexCollectionProperty(e *ComplexCollectionProperty) {
	comparePropertyValue(c, e.Value(), c.actual.(*ComplexCollectionProperty).Value())
}

func (c *comparer) VisitNamedStreamInstance(e *NamedStreamInstance) {
	a := c.actual.(*NamedStreamInstance)
	c.compareValue("source link", e.SourceLink, a.SourceLink)
	c.compareValue("edit link", e.EditLink, a.EditLink)
	c.compareValue("content type", e.ContentType, a.ContentType)
	c.compareValue("etag", e.ETag, a.ETag)
}

func (c *comparer) VisitNullPropertyInstance(e *NullPropertyInstance) {
	c.compareValue("type name", e.FullTypeName, c.actual.(*NullPropertyInstance).FullTypeName)
}

func (c *comparer) VisitNavigationPropertyInstance(e *NavigationPropertyInstance) {
	c.compare(e.Value(), c.actual.(*NavigationPropertyInstance).Value())
}

func (c *comparer) VisitDeferredLink(e *DeferredLink) {
	c.compareValue("uri", e.URI, c.actual.(*DeferredLink).URI)
}

func (c *comparer) VisitExpandedLink(e *ExpandedLink) {
	a := c.actual.(*ExpandedLink)
	c.compareValue("uri", e.URI, a.URI)
	c.within("$expanded", func() { c.compare(e.ExpandedElement(), a.ExpandedElement()) })
}

func (c *comparer) VisitLinkCollection(e *LinkCollection) {
	a := c.actual.(*LinkCollection)
	c.compareValue("inline count", e.InlineCount, a.InlineCount)
	c.compareValue("next link", e.NextLink, a.NextLink)
	compareItems(c, e.Items(), a.Items())
}

func (c *comparer) VisitErrorPayload(e *ErrorPayload) {
	a := c.actual.(*ErrorPayload)
	c.compareValue("code", e.Code, a.Code)
	c.compareValue("message", e.Message, a.Message)
	c.compareValue("inner error", e.InnerError, a.InnerError)
}

func (c *comparer) VisitServiceDocumentInstance(e *ServiceDocumentInstance) {
	a := c.actual.(*ServiceDocumentInstance)
	c.compareValue("base uri", e.BaseURI, a.BaseURI)
	compareItems(c, e.Items(), a.Items())
}

func (c *comparer) VisitWorkspaceInstance(e *WorkspaceInstance) {
	a := c.actual.(*WorkspaceInstance)
	c.compareValue("title", e.Title, a.Title)
	compareItems(c, e.Items(), a.Items())
}

func (c *comparer) VisitResourceCollectionInstance(e *ResourceCollectionInstance) {
	a := c.actual.(*ResourceCollectionInstance)
	c.compareValue("title", e.Title, a.Title)
	c.compareValue("href", e.Href, a.Href)
}

// Batch envelopes are compared by their attached payloads only. Use the
// comparers in the batch package for operation level comparison.
func (c *comparer) VisitBatchRequestPayload(e *BatchRequestPayload) {
	compareItems(c, Children(e), Children(c.actual))
}

func (c *comparer) VisitBatchResponsePayload(e *BatchResponsePayload) {
	compareItems(c, Children(e), Children(c.actual))
}
