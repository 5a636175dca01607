package batch

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	odataerrors "github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/matryer/is"
)

func TestThatBuildWrapsOperationsWithDefaultHeaders(t *testing.T) {
	is := is.New(t)

	bp, err := BuildRequestPayload("batch_1", "utf-8", payload.NewHTTPRequest(http.MethodGet, "Customers('ALFKI')", nil))
	is.NoErr(err)

	is.Equal(bp.ContentType(), "multipart/mixed; boundary=batch_1; charset=utf-8")
	is.Equal(len(bp.Parts), 1)

	part := bp.Parts[0].(*payload.RequestPart)
	is.Equal(len(part.Headers), 3)
	is.Equal(part.Headers.Get("Content-Type"), "application/http")
	is.Equal(part.Headers.Get("Content-Transfer-Encoding"), "binary")
	is.Equal(part.ContentID(), "1")
}

func TestSerializeRequest(t *testing.T) {
	is := is.New(t)

	bp, _ := BuildRequestPayload("batch_1", "", payload.NewHTTPRequest(http.MethodGet, "Customers('ALFKI')", nil))

	body, err := SerializeRequest(bp)
	is.NoErr(err)

	expected := "--batch_1\r\n" +
		"Content-Id: 1\r\n" +
		"Content-Transfer-Encoding: binary\r\n" +
		"Content-Type: application/http\r\n" +
		"\r\n" +
		"GET Customers('ALFKI') HTTP/1.1\r\n" +
		"\r\n" +
		"\r\n--batch_1--\r\n"

	is.Equal(string(body), expected)
}

func TestThatRequestsSurviveARoundTrip(t *testing.T) {
	is := is.New(t)

	update := payload.NewHTTPRequest(http.MethodPut, "Customers('ALFKI')", []byte(`{"CompanyName":"Alfreds"}`))
	update.Headers.Set("Content-Type", "application/json")

	operations := []payload.BatchRequestPart{
		payload.NewHTTPRequest(http.MethodGet, "Orders?$filter=Freight gt 10", nil),
		update,
		payload.NewHTTPRequest(http.MethodDelete, "Orders(1)", nil),
	}

	bp, err := BuildRequestPayload(NewBoundary("batch"), "", operations...)
	is.NoErr(err)

	body, err := SerializeRequest(bp)
	is.NoErr(err)

	deserialized, err := DeserializeRequest(bp.ContentType(), body)
	is.NoErr(err)

	is.Equal(len(deserialized.Parts), len(operations))

	for i, op := range deserialized.Operations() {
		original := operations[i].(*payload.HTTPRequest)

		is.Equal(op.ContentID(), []string{"1", "2", "3"}[i])
		is.Equal(op.Request.Method, original.Method)
		is.Equal(op.Request.URI, original.URI)
		is.Equal(string(op.Request.Body), string(original.Body))
	}

	is.Equal(deserialized.Operations()[1].Request.Headers.Get("Content-Type"), "application/json")
	is.NoErr(CompareRequests(bp, deserialized))
}

func TestThatAnExplicitContentIDIsPreserved(t *testing.T) {
	is := is.New(t)

	explicit := payload.NewHTTPRequest(http.MethodPost, "Orders", []byte("{}"))
	explicit.Headers.Set(payload.HeaderContentID, "new-order")

	bp, err := BuildRequestPayload("batch_1", "",
		payload.NewHTTPRequest(http.MethodGet, "Orders(1)", nil),
		explicit,
		payload.NewHTTPRequest(http.MethodGet, "Orders(2)", nil),
	)
	is.NoErr(err)

	ops := bp.Operations()
	is.Equal(ops[0].ContentID(), "1")
	is.Equal(ops[1].ContentID(), "new-order")
	is.Equal(ops[2].ContentID(), "2") // sequence should not be consumed by the explicit id

	is.Equal(ops[1].Request.Headers.Get(payload.HeaderContentID), "") // moved to the part
	is.Equal(explicit.Headers.Get(payload.HeaderContentID), "new-order")
}

func TestThatTheSequenceSkipsExplicitlyClaimedIDs(t *testing.T) {
	is := is.New(t)

	explicit := payload.NewHTTPRequest(http.MethodPost, "Orders", []byte("{}"))
	explicit.Headers.Set(payload.HeaderContentID, "2")

	bp, err := BuildRequestPayload("batch_1", "",
		explicit,
		payload.NewHTTPRequest(http.MethodGet, "Orders(1)", nil),
		payload.NewHTTPRequest(http.MethodGet, "Orders(2)", nil),
	)
	is.NoErr(err)

	ops := bp.Operations()
	is.Equal(ops[0].ContentID(), "2")
	is.Equal(ops[1].ContentID(), "1")
	is.Equal(ops[2].ContentID(), "3")
}

func TestThatPreWrappedPartsPassThrough(t *testing.T) {
	is := is.New(t)

	wrapped := &payload.RequestPart{
		Headers: http.Header{"Content-Type": {"application/http"}, "Content-Id": {"7"}},
		Request: payload.NewHTTPRequest(http.MethodGet, "Products", nil),
	}

	bp, err := BuildRequestPayload("batch_1", "", wrapped, payload.NewHTTPRequest(http.MethodGet, "Orders", nil))
	is.NoErr(err)

	is.True(bp.Parts[0] == wrapped)
	is.Equal(bp.Operations()[1].ContentID(), "1")
}

func TestThatEachBuildStartsANewSequence(t *testing.T) {
	is := is.New(t)

	first, _ := BuildRequestPayload("b", "", payload.NewHTTPRequest(http.MethodGet, "Orders", nil))
	second, _ := BuildRequestPayload("b", "", payload.NewHTTPRequest(http.MethodGet, "Orders", nil))

	is.Equal(first.Operations()[0].ContentID(), "1")
	is.Equal(second.Operations()[0].ContentID(), "1")

	seq := NewContentIDSequence()
	BuildRequestPayloadWithSequence(seq, "b", "", payload.NewHTTPRequest(http.MethodGet, "Orders", nil))
	third, _ := BuildRequestPayloadWithSequence(seq, "b", "", payload.NewHTTPRequest(http.MethodGet, "Orders", nil))

	is.Equal(third.Operations()[0].ContentID(), "2")
}

func TestThatInvalidBuildsFail(t *testing.T) {
	is := is.New(t)

	nested := &payload.BatchRequestChangeset{Operations: []payload.BatchRequestPart{
		&payload.BatchRequestChangeset{},
	}}

	_, err := BuildRequestPayload("b", "", nested)
	is.True(errors.Is(err, odataerrors.ErrInvalidOperation))

	duplicate := payload.NewHTTPRequest(http.MethodGet, "Orders", nil)
	duplicate.Headers.Set(payload.HeaderContentID, "1")

	_, err = BuildRequestPayload("b", "", payload.NewHTTPRequest(http.MethodGet, "Orders", nil), duplicate)
	is.True(errors.Is(err, odataerrors.ErrInvalidOperation))

	_, err = BuildRequestPayload("", "")
	is.True(errors.Is(err, odataerrors.ErrInvalidOperation))
}

func TestThatChangesetsSurviveARoundTrip(t *testing.T) {
	is := is.New(t)

	bp, err := BuildRequestPayload("batch_1", "",
		payload.NewHTTPRequest(http.MethodGet, "Customers", nil),
		&payload.BatchRequestChangeset{
			Boundary: "changeset_1",
			Operations: []payload.BatchRequestPart{
				payload.NewHTTPRequest(http.MethodPost, "Orders", []byte(`{"OrderID":1}`)),
				payload.NewHTTPRequest(http.MethodPost, "Orders", []byte(`{"OrderID":2}`)),
			},
		},
	)
	is.NoErr(err)

	body, _ := SerializeRequest(bp)
	is.True(strings.Contains(string(body), "Content-Type: multipart/mixed; boundary=changeset_1\r\n"))

	deserialized, err := DeserializeRequest(bp.ContentType(), body)
	is.NoErr(err)

	cs, ok := deserialized.Parts[1].(*payload.BatchRequestChangeset)
	is.True(ok)
	is.Equal(cs.Boundary, "changeset_1")
	is.Equal(len(cs.Operations), 2)
	is.Equal(cs.Operations[1].(*payload.RequestPart).ContentID(), "3")

	is.NoErr(CompareRequests(bp, deserialized))
}

func TestThatAClonedChangesetWithAnotherContentIDComparesEqual(t *testing.T) {
	is := is.New(t)

	bp, err := BuildResponsePayload("batchresponse_1", "", &payload.BatchResponseChangeset{
		Operations: []payload.BatchResponsePart{
			payload.NewHTTPResponse(http.StatusOK, []byte("first")),
			payload.NewHTTPResponse(http.StatusOK, []byte("second")),
		},
	})
	is.NoErr(err)

	clone := payload.Clone(bp)
	op := clone.Parts[0].(*payload.BatchResponseChangeset).Operations[1].(*payload.ResponsePart)
	op.Headers.Set(payload.HeaderContentID, "42")

	is.NoErr(CompareResponses(bp, clone))

	op.Response.StatusCode = http.StatusNoContent
	err = CompareResponses(bp, clone)
	is.True(errors.Is(err, payload.ErrPayloadMismatch))
	is.True(strings.Contains(err.Error(), "[0]/[1]"))
}

func TestThatAChangesetNeverEqualsABareOperation(t *testing.T) {
	is := is.New(t)

	changeset, _ := BuildResponsePayload("b", "", &payload.BatchResponseChangeset{
		Operations: []payload.BatchResponsePart{payload.NewHTTPResponse(http.StatusOK, nil)},
	})
	bare, _ := BuildResponsePayload("b", "", payload.NewHTTPResponse(http.StatusOK, nil))

	err := CompareResponses(changeset, bare)
	is.True(errors.Is(err, payload.ErrPayloadMismatch))
}

const responseBody string = "--batchresponse_1\r\n" +
	"Content-Type: application/http\r\n" +
	"Content-Transfer-Encoding: binary\r\n" +
	"\r\n" +
	"HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"ALFKI\r\n" +
	"--batchresponse_1\r\n" +
	"Content-Type: multipart/mixed; boundary=changesetresponse_1\r\n" +
	"\r\n" +
	"--changesetresponse_1\r\n" +
	"Content-Type: application/http\r\n" +
	"Content-Transfer-Encoding: binary\r\n" +
	"\r\n" +
	"HTTP/1.1 201 Created\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"created\r\n" +
	"--changesetresponse_1--\r\n" +
	"\r\n" +
	"--batchresponse_1--\r\n"

type recordingDecoder struct {
	requests []string
}

func (d *recordingDecoder) DecodeRequest(r *payload.HTTPRequest) (payload.Element, error) {
	return payload.NewPrimitiveValue("Edm.String", string(r.Body)), nil
}

func (d *recordingDecoder) DecodeResponse(r *payload.HTTPResponse, request *payload.HTTPRequest) (payload.Element, error) {
	if request != nil {
		d.requests = append(d.requests, request.URI)
	}
	return payload.NewPrimitiveValue("Edm.String", string(r.Body)), nil
}

func TestDeserializeResponseCorrelatesRequests(t *testing.T) {
	is := is.New(t)

	request, _ := BuildRequestPayload("batch_1", "",
		payload.NewHTTPRequest(http.MethodGet, "Customers('ALFKI')/CustomerID/$value", nil),
		&payload.BatchRequestChangeset{Operations: []payload.BatchRequestPart{
			payload.NewHTTPRequest(http.MethodPost, "Orders", []byte("{}")),
		}},
	)

	decoder := &recordingDecoder{}
	response, err := DeserializeResponse("multipart/mixed; boundary=batchresponse_1", []byte(responseBody), request, WithPayloadDecoder(decoder))
	is.NoErr(err)

	is.Equal(len(response.Parts), 2)

	first := response.Parts[0].(*payload.ResponsePart)
	is.Equal(first.Response.StatusCode, http.StatusOK)
	is.Equal(string(first.Response.Body), "ALFKI")
	is.Equal(first.Response.Headers.Get("Content-Type"), "text/plain")

	cs := response.Parts[1].(*payload.BatchResponseChangeset)
	created := cs.Operations[0].(*payload.ResponsePart)
	is.Equal(created.Response.StatusCode, http.StatusCreated)

	is.Equal(decoder.requests, []string{"Customers('ALFKI')/CustomerID/$value", "Orders"})
	is.Equal(len(payload.Children(response)), 2)
}

func TestThatMalformedEnvelopesFail(t *testing.T) {
	is := is.New(t)

	_, err := DeserializeRequest("multipart/mixed", []byte(responseBody))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
	is.True(strings.Contains(err.Error(), "multipart/mixed"))

	_, err = DeserializeRequest("application/json", []byte("{}"))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))

	unknownPart := "--b\r\nContent-Type: text/html\r\n\r\n<html/>\r\n--b--\r\n"
	_, err = DeserializeRequest("multipart/mixed; boundary=b", []byte(unknownPart))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
	is.True(strings.Contains(err.Error(), "text/html"))

	noBoundaryInBody := "GET Orders HTTP/1.1\r\n\r\n"
	_, err = DeserializeRequest("multipart/mixed; boundary=b", []byte(noBoundaryInBody))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))

	badRequestLine := "--b\r\nContent-Type: application/http\r\n\r\nGET\r\n\r\n--b--\r\n"
	_, err = DeserializeRequest("multipart/mixed; boundary=b", []byte(badRequestLine))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
}
