package uri

import (
	"errors"
	"strings"
	"testing"

	odataerrors "github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/matryer/is"
)

func parse(t *testing.T, raw string) (*is.I, *URI) {
	is := is.New(t)

	u, err := Parse(northwind, serviceRoot, raw)
	is.NoErr(err)

	return is, u
}

func TestParseNavigationPath(t *testing.T) {
	raw := serviceRoot + "/Orders(5)/Customer"
	is, u := parse(t, raw)

	is.Equal(len(u.Segments), 4)

	key, ok := u.Segments[2].(*KeySegment)
	is.True(ok)
	is.Equal(key.Values[0], KeyPair("OrderID", 5))

	is.Equal(u.String(), raw)
	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindEntityInstance)
}

func TestParseRelativePath(t *testing.T) {
	is, u := parse(t, "Customers('ALFKI')/Orders")

	is.Equal(len(u.Segments), 3)
	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindEntitySetInstance)
}

func TestParseQuotedKeyContainingASlash(t *testing.T) {
	is, u := parse(t, "Customers('A/B')")

	key := u.Segments[1].(*KeySegment)
	is.Equal(key.Values[0].Value, "A/B")
}

func TestParseCompositeKey(t *testing.T) {
	is, u := parse(t, "OrderLines(OrderID=1,ProductID=42)/Product")

	key := u.Segments[1].(*KeySegment)
	is.True(key.IsComposite())
	is.Equal(key.Values[1], KeyPair("ProductID", 42))

	_, isNav := u.Segments[2].(*NavigationSegment)
	is.True(isNav)
}

func TestParseTypeCast(t *testing.T) {
	is, u := parse(t, "Orders/NW.SpecialOrder(7)/Discount")

	cast, ok := u.Segments[1].(*TypeCastSegment)
	is.True(ok)
	is.Equal(cast.EntityType.Name, "SpecialOrder")

	_, isKey := u.Segments[2].(*KeySegment)
	is.True(isKey)

	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindPrimitiveProperty)
}

func TestParseComplexPropertyPath(t *testing.T) {
	is, u := parse(t, "Customers('ALFKI')/Address/City/$value")

	is.True(IsPropertyValue(u.Segments))
	is.Equal(u.String(), "Customers('ALFKI')/Address/City/$value")
}

func TestParseOpenProperty(t *testing.T) {
	is, u := parse(t, "Products(7)/Color")

	_, isOpen := u.Segments[2].(*OpenPropertySegment)
	is.True(isOpen)
	is.True(HasOpenProperties(u.Segments))
}

func TestThatUnresolvableSegmentsAreUnrecognized(t *testing.T) {
	is, u := parse(t, "Orders(1)/Nope/Deeper")

	is.True(HasUnrecognizedSegment(u.Segments))
	is.Equal(len(u.Segments), 4)
	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindUnknown)
}

func TestParseSystemEndpoints(t *testing.T) {
	is, u := parse(t, serviceRoot+"/$batch")
	is.True(IsBatch(u.Segments))

	_, u = parse(t, "$metadata")
	is.True(IsMetadata(u.Segments))

	_, u = parse(t, "Orders/$count")
	is.True(IsCount(u.Segments))

	_, u = parse(t, "")
	is.True(IsServiceDocument(u.Segments))
}

func TestParseLinks(t *testing.T) {
	is, u := parse(t, "Orders(1)/$links/Customer")
	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindDeferredLink)

	_, u = parse(t, "Orders(1)/$ref/Lines")
	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindLinkCollection)
}

func TestThatLinksPathsKeepTheirSpelling(t *testing.T) {
	raw := serviceRoot + "/Orders(5)/$links/Lines"
	is, u := parse(t, raw)

	is.Equal(u.String(), raw)
	is.True(u.Segments[3] == Links)
	is.True(IsEntityReferenceLink(u.Segments))
	is.True(!IsEntity(u.Segments))
	is.True(!IsEntitySet(u.Segments))
	is.Equal(ExpectedPayloadKind(u.Segments), payload.KindLinkCollection)
}

func TestThatTheServiceRootMustEndAtASegmentBoundary(t *testing.T) {
	is := is.New(t)

	_, err := Parse(northwind, serviceRoot, serviceRoot+"Other/Orders")
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))

	u, err := Parse(northwind, serviceRoot, serviceRoot)
	is.NoErr(err)
	is.True(IsServiceDocument(u.Segments))
}

func TestParseBoundFunction(t *testing.T) {
	is, u := parse(t, "Orders(1)/GetOrderCustomer()")

	is.True(IsFunction(u.Segments))

	set, typ, ok := ExpectedEntitySetAndType(u.Segments)
	is.True(ok)
	is.Equal(set.Name, "Customers")
	is.Equal(typ.Name, "Customer")
}

func TestParseServiceOperationWithParameters(t *testing.T) {
	is, u := parse(t, "GetTopOrders?count=5&$top=2")

	is.True(IsFunction(u.Segments))
	is.Equal(*u.Top, 2)

	count, ok := u.CustomOption("count")
	is.True(ok)
	is.Equal(count, "5")

	_, u = parse(t, "GetTopOrders(count=5)")
	params, ok := u.Segments[1].(*ParametersSegment)
	is.True(ok)
	is.Equal(params.Values[0], KeyPair("count", 5))
}

func TestParseExpandAndSelect(t *testing.T) {
	is, u := parse(t, "Customers('ALFKI')/Orders?$expand=Lines/Product,Customer&$select=OrderID,Lines/*&$inlinecount=allpages")

	is.Equal(len(u.Expand), 2)
	is.Equal(u.Expand[0].String(), "Lines/Product")
	is.Equal(u.Select[1].String(), "Lines/*")
	is.Equal(u.InlineCount, "allpages")

	is.Equal(u.String(), "Customers('ALFKI')/Orders?$expand=Lines/Product,Customer&$inlinecount=allpages&$select=OrderID,Lines/*")
}

func TestThatAnUnresolvableExpandFails(t *testing.T) {
	is := is.New(t)

	_, err := Parse(northwind, serviceRoot, "Orders?$expand=Nope")

	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
	is.True(strings.Contains(err.Error(), "Nope"))
}

func TestThatMalformedInputFails(t *testing.T) {
	is := is.New(t)

	for _, raw := range []string{
		"Orders(5",
		"Orders?$top=abc",
		"Orders?$unknown=1",
		"Orders(guid'nope')",
		"http://elsewhere/other.svc/Orders",
	} {
		_, err := Parse(northwind, serviceRoot, raw)
		is.True(errors.Is(err, odataerrors.ErrMalformedInput)) // should fail with malformed input
	}
}

func TestParseSegmentPathsOnAnOpenType(t *testing.T) {
	is := is.New(t)

	paths, err := ParseSegmentPaths(northwind, entityType("NW.Product"), "Name,Dimensions/Depth,Color")
	is.NoErr(err)
	is.Equal(len(paths), 3)

	_, isOpen := paths[1][1].(*OpenPropertySegment)
	is.True(isOpen)
}
