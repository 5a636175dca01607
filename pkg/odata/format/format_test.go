package format

import (
	"errors"
	"net/http"
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/batch"
	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/edm/edmtest"
	odataerrors "github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
	"github.com/matryer/is"
)

var northwind = edmtest.Northwind()

func contextOf(t *testing.T, raw string) Context {
	u, err := uri.Parse(northwind, "", raw)
	if err != nil {
		t.Fatalf("failed to parse %s: %s", raw, err.Error())
	}
	return NewContext(u)
}

func TestThatTheRegistrySelectsByMediaType(t *testing.T) {
	is := is.New(t)

	registry := NewDefaultRegistry()

	s, ok := registry.Lookup("text/plain; charset=utf-8")
	is.True(ok)
	is.Equal(s.MediaType(), TextPlain)

	_, ok = registry.Lookup("application/atom+xml")
	is.True(!ok)

	_, err := registry.Deserialize("application/atom+xml", []byte("<feed/>"), Context{})
	is.True(errors.Is(err, odataerrors.ErrNotSupported))
}

func TestThatTextIsTypedByTheAddressedProperty(t *testing.T) {
	is := is.New(t)

	registry := NewDefaultRegistry()

	e, err := registry.Deserialize(TextPlain, []byte("12"), contextOf(t, "OrderLines(OrderID=1,ProductID=2)/Quantity/$value"))
	is.NoErr(err)

	pv := e.(*payload.PrimitiveValue)
	is.Equal(pv.FullTypeName, edm.EdmInt16)
	is.Equal(pv.Value, 12)

	e, _ = registry.Deserialize(TextPlain, []byte("91"), contextOf(t, "Orders/$count"))
	is.Equal(e.(*payload.PrimitiveValue).Value, int64(91))

	e, _ = registry.Deserialize(TextPlain, []byte("ALFKI"), Context{})
	is.Equal(e.(*payload.PrimitiveValue).FullTypeName, edm.EdmString)

	_, err = registry.Deserialize(TextPlain, []byte("many"), contextOf(t, "Orders/$count"))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
}

func TestThatTheContextCarriesTheExpectedKind(t *testing.T) {
	is := is.New(t)

	ctx := contextOf(t, "Customers('ALFKI')/Orders")

	is.Equal(ctx.ExpectedKind, payload.KindEntitySetInstance)
	is.Equal(ctx.EntitySet.Name, "Orders")
	is.Equal(ctx.EntityType.Name, "Order")
}

func TestSerializeText(t *testing.T) {
	is := is.New(t)

	registry := NewDefaultRegistry()

	body, err := registry.Serialize("text/plain", payload.NewPrimitiveValue(edm.EdmDecimal, uri.Decimal("19.99")))
	is.NoErr(err)
	is.Equal(string(body), "19.99")

	_, err = registry.Serialize("text/plain; charset=iso-8859-1", payload.NewPrimitiveValue(edm.EdmString, "x"))
	is.True(errors.Is(err, odataerrors.ErrNotSupported))

	_, err = registry.Serialize("text/plain", payload.NewEntitySetInstance())
	is.True(errors.Is(err, odataerrors.ErrInvalidOperation))
}

func TestThatBinaryIsPassedThrough(t *testing.T) {
	is := is.New(t)

	registry := NewDefaultRegistry()

	e, err := registry.Deserialize(OctetStream, []byte{0xca, 0xfe}, Context{})
	is.NoErr(err)

	body, err := registry.Serialize(OctetStream, e)
	is.NoErr(err)
	is.Equal(body, []byte{0xca, 0xfe})
}

func TestThatBatchOperationsAreDecodedWithTheirRequestContext(t *testing.T) {
	is := is.New(t)

	request, _ := batch.BuildRequestPayload("batch_1", "",
		payload.NewHTTPRequest(http.MethodGet, "Orders/$count", nil),
		payload.NewHTTPRequest(http.MethodGet, "Customers('ALFKI')/Photo", nil),
	)

	count := payload.NewHTTPResponse(http.StatusOK, []byte("830"))
	count.Headers.Set("Content-Type", "text/plain")

	photo := payload.NewHTTPResponse(http.StatusOK, []byte{0x89, 0x50})
	photo.Headers.Set("Content-Type", "image/png")

	response, _ := batch.BuildResponsePayload("batchresponse_1", "", count, photo)
	body, err := batch.SerializeResponse(response)
	is.NoErr(err)

	decoder := NewBatchDecoder(northwind, "", NewDefaultRegistry())

	decoded, err := batch.DeserializeResponse(response.ContentType(), body, request, batch.WithPayloadDecoder(decoder))
	is.NoErr(err)

	ops := decoded.Parts
	is.Equal(ops[0].(*payload.ResponsePart).Response.Payload.(*payload.PrimitiveValue).Value, int64(830))
	is.True(ops[1].(*payload.ResponsePart).Response.Payload == nil) // no strategy for image/png
}
