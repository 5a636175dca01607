package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/diwise/odata-toolkit/pkg/odata/batch"
	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/diwise/odata-toolkit/pkg/odata/version"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ODataClient sends batch envelopes to an OData service
type ODataClient interface {
	SendBatch(ctx context.Context, request *payload.BatchRequestPayload, headers map[string][]string) (*payload.BatchResponsePayload, error)
}

func Debug(enabled string) func(*odataClient) {
	return func(c *odataClient) {
		c.debug = (enabled == "true")
	}
}

// MaxDataServiceVersion sets the MaxDataServiceVersion header sent with every batch
func MaxDataServiceVersion(v version.Version) func(*odataClient) {
	return func(c *odataClient) {
		c.maxVersion = v
	}
}

// PayloadDecoder decodes the bodies of the response operations
func PayloadDecoder(decoder batch.PayloadDecoder) func(*odataClient) {
	return func(c *odataClient) {
		c.decoder = decoder
	}
}

func NewODataClient(serviceRoot string, options ...func(*odataClient)) ODataClient {
	c := &odataClient{
		serviceRoot: strings.TrimSuffix(serviceRoot, "/"),
		maxVersion:  version.Latest,
		debug:       false,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const (
	TraceAttributeBatchBoundary   string = "odata.batch.boundary"
	TraceAttributeBatchOperations string = "odata.batch.operations"
)

var tracer = otel.Tracer("odata-client")

type odataClient struct {
	serviceRoot string
	maxVersion  version.Version
	decoder     batch.PayloadDecoder
	debug       bool
}

func (c odataClient) SendBatch(ctx context.Context, request *payload.BatchRequestPayload, headers map[string][]string) (*payload.BatchResponsePayload, error) {
	var err error

	ctx, span := tracer.Start(ctx, "send-batch",
		trace.WithAttributes(attribute.String(TraceAttributeBatchBoundary, request.Boundary)),
		trace.WithAttributes(attribute.Int(TraceAttributeBatchOperations, len(request.Operations()))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := batch.SerializeRequest(request)
	if err != nil {
		return nil, err
	}

	allHeaders := map[string][]string{
		"Content-Type":          {request.ContentType()},
		"Accept":                {batch.MultipartMixed},
		"DataServiceVersion":    {version.V1.String()},
		"MaxDataServiceVersion": {c.maxVersion.String()},
	}
	for k, v := range headers {
		allHeaders[k] = v
	}

	response, responseBody, err := c.callService(ctx, http.MethodPost, c.serviceRoot+"/$batch", bytes.NewReader(body), allHeaders)
	if err != nil {
		return nil, err
	}

	contentType := response.Header.Get("Content-Type")

	if response.StatusCode != http.StatusAccepted && response.StatusCode != http.StatusOK {
		err = fmt.Errorf("service returned status code %d (content-type: %s, body: %s) (%w)", response.StatusCode, contentType, string(responseBody), errors.ErrBadResponse)
		return nil, err
	}

	result, err := batch.DeserializeResponse(contentType, responseBody, request, batch.WithPayloadDecoder(c.decoder))
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c odataClient) callService(ctx context.Context, method, endpoint string, body io.Reader, headers map[string][]string) (*http.Response, []byte, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		err = fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
		return nil, nil, err
	}

	for header, headerValue := range headers {
		for _, val := range headerValue {
			req.Header.Add(header, val)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
		return nil, nil, err
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
		return nil, nil, err
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		log.Error("request failed", slog.String("request", string(reqbytes)), slog.String("response", string(respbytes)))
	}

	return resp, respBody, nil
}
