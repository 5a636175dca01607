package payload

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	HeaderContentID               string = "Content-Id"
	HeaderContentType             string = "Content-Type"
	HeaderContentTransferEncoding string = "Content-Transfer-Encoding"
)

// HTTPRequest is a single request carried inside a batch
type HTTPRequest struct {
	Method  string
	URI     string
	Headers http.Header
	Body    []byte

	// Payload is the decoded body, if any
	Payload Element
}

func NewHTTPRequest(method, uri string, body []byte) *HTTPRequest {
	return &HTTPRequest{Method: method, URI: uri, Headers: http.Header{}, Body: body}
}

func (*HTTPRequest) isBatchRequestPart() {}

// HTTPResponse is a single response carried inside a batch
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte

	Payload Element
}

func NewHTTPResponse(statusCode int, body []byte) *HTTPResponse {
	return &HTTPResponse{StatusCode: statusCode, Headers: http.Header{}, Body: body}
}

func (*HTTPResponse) isBatchResponsePart() {}

// BatchRequestPart is one of *HTTPRequest, *RequestPart or *BatchRequestChangeset.
// A raw *HTTPRequest is only valid as input to the batch builders.
type BatchRequestPart interface {
	isBatchRequestPart()
}

// BatchResponsePart is one of *HTTPResponse, *ResponsePart or *BatchResponseChangeset
type BatchResponsePart interface {
	isBatchResponsePart()
}

// RequestPart is a request wrapped with its MIME part headers
type RequestPart struct {
	Headers http.Header
	Request *HTTPRequest
}

func (*RequestPart) isBatchRequestPart() {}

func (p *RequestPart) ContentID() string {
	return p.Headers.Get(HeaderContentID)
}

type ResponsePart struct {
	Headers  http.Header
	Response *HTTPResponse
}

func (*ResponsePart) isBatchResponsePart() {}

func (p *ResponsePart) ContentID() string {
	return p.Headers.Get(HeaderContentID)
}

type BatchRequestChangeset struct {
	Boundary   string
	Charset    string
	Headers    http.Header
	Operations []BatchRequestPart
}

func (*BatchRequestChangeset) isBatchRequestPart() {}

func (cs *BatchRequestChangeset) ContentType() string {
	return MultipartMixedContentType(cs.Boundary, cs.Charset)
}

type BatchResponseChangeset struct {
	Boundary   string
	Charset    string
	Headers    http.Header
	Operations []BatchResponsePart
}

func (*BatchResponseChangeset) isBatchResponsePart() {}

func (cs *BatchResponseChangeset) ContentType() string {
	return MultipartMixedContentType(cs.Boundary, cs.Charset)
}

// BatchRequestPayload is the envelope of a batch request
type BatchRequestPayload struct {
	elementBase

	Boundary string
	Charset  string
	Parts    []BatchRequestPart
}

func (*BatchRequestPayload) Kind() Kind { return KindBatchRequestPayload }

func (bp *BatchRequestPayload) Accept(v Visitor) { v.VisitBatchRequestPayload(bp) }

func (bp *BatchRequestPayload) ContentType() string {
	return MultipartMixedContentType(bp.Boundary, bp.Charset)
}

// Operations returns every request in the envelope, changesets flattened, in wire order
func (bp *BatchRequestPayload) Operations() []*RequestPart {
	ops := []*RequestPart{}
	var collect func(parts []BatchRequestPart)
	collect = func(parts []BatchRequestPart) {
		for _, p := range parts {
			switch part := p.(type) {
			case *RequestPart:
				ops = append(ops, part)
			case *BatchRequestChangeset:
				collect(part.Operations)
			}
		}
	}
	collect(bp.Parts)
	return ops
}

type BatchResponsePayload struct {
	elementBase

	Boundary string
	Charset  string
	Parts    []BatchResponsePart
}

func (*BatchResponsePayload) Kind() Kind { return KindBatchResponsePayload }

func (bp *BatchResponsePayload) Accept(v Visitor) { v.VisitBatchResponsePayload(bp) }

func (bp *BatchResponsePayload) ContentType() string {
	return MultipartMixedContentType(bp.Boundary, bp.Charset)
}

// MultipartMixedContentType renders multipart/mixed; boundary=<b>[; charset=<c>]
func MultipartMixedContentType(boundary, charset string) string {
	var sb strings.Builder
	sb.WriteString("multipart/mixed; boundary=")
	sb.WriteString(boundary)
	if charset != "" {
		sb.WriteString(fmt.Sprintf("; charset=%s", charset))
	}
	return sb.String()
}
