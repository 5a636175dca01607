package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/batch"
	"github.com/diwise/odata-toolkit/pkg/odata/edm/edmtest"
	odataerrors "github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/format"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/matryer/is"
)

func TestSendBatch(t *testing.T) {
	is := is.New(t)

	var received *payload.BatchRequestPayload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Method, http.MethodPost)
		is.Equal(r.URL.Path, "/northwind.svc/$batch")
		is.Equal(r.Header.Get("MaxDataServiceVersion"), "3.0")

		body, _ := io.ReadAll(r.Body)

		var err error
		received, err = batch.DeserializeRequest(r.Header.Get("Content-Type"), body)
		is.NoErr(err)

		count := payload.NewHTTPResponse(http.StatusOK, []byte("830"))
		count.Headers.Set("Content-Type", "text/plain")

		response, err := batch.BuildResponsePayload("batchresponse_1", "", count, payload.NewHTTPResponse(http.StatusNoContent, nil))
		is.NoErr(err)

		responseBody, err := batch.SerializeResponse(response)
		is.NoErr(err)

		w.Header().Set("Content-Type", response.ContentType())
		w.WriteHeader(http.StatusAccepted)
		w.Write(responseBody)
	}))
	defer ts.Close()

	request, err := batch.BuildRequestPayload(batch.NewBoundary("batch"), "",
		payload.NewHTTPRequest(http.MethodGet, "Orders/$count", nil),
		payload.NewHTTPRequest(http.MethodDelete, "Orders(1)", nil),
	)
	is.NoErr(err)

	model := edmtest.Northwind()
	c := NewODataClient(ts.URL+"/northwind.svc/", PayloadDecoder(format.NewBatchDecoder(model, "", format.NewDefaultRegistry())))

	response, err := c.SendBatch(context.Background(), request, nil)
	is.NoErr(err)

	is.Equal(len(received.Operations()), 2)
	is.NoErr(batch.CompareRequests(request, received))

	is.Equal(len(response.Parts), 2)

	count := response.Parts[0].(*payload.ResponsePart)
	is.Equal(count.Response.Payload.(*payload.PrimitiveValue).Value, int64(830))

	deleted := response.Parts[1].(*payload.ResponsePart)
	is.Equal(deleted.Response.StatusCode, http.StatusNoContent)
}

func TestThatAFailedBatchReturnsABadResponse(t *testing.T) {
	is := is.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	request, _ := batch.BuildRequestPayload("batch_1", "", payload.NewHTTPRequest(http.MethodGet, "Orders", nil))

	_, err := NewODataClient(ts.URL, Debug("true")).SendBatch(context.Background(), request, nil)
	is.True(errors.Is(err, odataerrors.ErrBadResponse))
}
