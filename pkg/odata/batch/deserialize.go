package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
)

// PayloadDecoder turns the body of a batch operation into a payload tree. A nil
// element without an error means the body is left undecoded.
type PayloadDecoder interface {
	DecodeRequest(r *payload.HTTPRequest) (payload.Element, error)
	// DecodeResponse is given the request the response answers, or nil when
	// no request could be correlated
	DecodeResponse(r *payload.HTTPResponse, request *payload.HTTPRequest) (payload.Element, error)
}

type deserializer struct {
	decoder PayloadDecoder
}

// WithPayloadDecoder attaches decoded payload trees to every deserialized operation
func WithPayloadDecoder(decoder PayloadDecoder) func(*deserializer) {
	return func(d *deserializer) {
		d.decoder = decoder
	}
}

func newDeserializer(options []func(*deserializer)) *deserializer {
	d := &deserializer{}
	for _, option := range options {
		option(d)
	}
	return d
}

// DeserializeRequest reads a batch request envelope with the given content type
func DeserializeRequest(contentType string, body []byte, options ...func(*deserializer)) (*payload.BatchRequestPayload, error) {
	boundary, charset, err := parseMultipartContentType(contentType)
	if err != nil {
		return nil, err
	}

	d := newDeserializer(options)
	envelope := &payload.BatchRequestPayload{Boundary: boundary, Charset: charset}

	err = readParts(body, boundary, func(headers http.Header, content []byte) error {
		part, err := d.requestPart(headers, content, false)
		if err != nil {
			return err
		}
		envelope.Parts = append(envelope.Parts, part)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return envelope, nil
}

// DeserializeResponse reads a batch response envelope. Response parts are
// correlated in order with the parts of request, which may be nil.
func DeserializeResponse(contentType string, body []byte, request *payload.BatchRequestPayload, options ...func(*deserializer)) (*payload.BatchResponsePayload, error) {
	boundary, charset, err := parseMultipartContentType(contentType)
	if err != nil {
		return nil, err
	}

	d := newDeserializer(options)
	envelope := &payload.BatchResponsePayload{Boundary: boundary, Charset: charset}

	err = readParts(body, boundary, func(headers http.Header, content []byte) error {
		var correlated payload.BatchRequestPart

		if request != nil {
			index := len(envelope.Parts)
			if index >= len(request.Parts) {
				return errors.NewMalformedInputError(
					fmt.Sprintf("batch response has more parts than the %d parts of its request", len(request.Parts)),
				)
			}
			correlated = request.Parts[index]
		}

		part, err := d.responsePart(headers, content, correlated, false)
		if err != nil {
			return err
		}
		envelope.Parts = append(envelope.Parts, part)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return envelope, nil
}

func parseMultipartContentType(contentType string) (string, string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != MultipartMixed {
		return "", "", errors.NewMalformedInputError(fmt.Sprintf("expected a %s content type but found %q", MultipartMixed, contentType))
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", "", errors.NewMalformedInputError(fmt.Sprintf("content type %q has no boundary", contentType))
	}

	return boundary, params["charset"], nil
}

func readParts(body []byte, boundary string, fn func(headers http.Header, content []byte) error) error {
	r := multipart.NewReader(bytes.NewReader(body), boundary)

	for {
		part, err := r.NextRawPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewMalformedInputError(fmt.Sprintf("failed to read part delimited by %q: %s", boundary, err.Error()))
		}

		content, err := io.ReadAll(part)
		if err != nil {
			return errors.NewMalformedInputError(fmt.Sprintf("failed to read part delimited by %q: %s", boundary, err.Error()))
		}

		if err = fn(http.Header(part.Header), content); err != nil {
			return err
		}
	}
}

// classify returns the media type of a part and, for changesets, its boundary and charset
func classify(headers http.Header, inChangeset bool) (string, string, string, error) {
	raw := headers.Get(payload.HeaderContentType)

	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", "", "", errors.NewMalformedInputError(fmt.Sprintf("batch part has an unrecognized content type %q", raw))
	}

	switch mediaType {
	case ApplicationHTTP:
		return mediaType, "", "", nil
	case MultipartMixed:
		if inChangeset {
			return "", "", "", errors.NewMalformedInputError(fmt.Sprintf("changesets can not be nested, found %q", raw))
		}
		if params["boundary"] == "" {
			return "", "", "", errors.NewMalformedInputError(fmt.Sprintf("changeset content type %q has no boundary", raw))
		}
		return mediaType, params["boundary"], params["charset"], nil
	}

	return "", "", "", errors.NewMalformedInputError(fmt.Sprintf("batch part has an unrecognized content type %q", raw))
}

func (d *deserializer) requestPart(headers http.Header, content []byte, inChangeset bool) (payload.BatchRequestPart, error) {
	mediaType, boundary, charset, err := classify(headers, inChangeset)
	if err != nil {
		return nil, err
	}

	if mediaType == MultipartMixed {
		cs := &payload.BatchRequestChangeset{Boundary: boundary, Charset: charset, Headers: headers.Clone()}
		err = readParts(content, boundary, func(h http.Header, c []byte) error {
			op, err := d.requestPart(h, c, true)
			if err != nil {
				return err
			}
			cs.Operations = append(cs.Operations, op)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return cs, nil
	}

	request, err := parseRequest(content)
	if err != nil {
		return nil, err
	}

	if d.decoder != nil && len(request.Body) > 0 {
		request.Payload, err = d.decoder.DecodeRequest(request)
		if err != nil {
			return nil, fmt.Errorf("failed to decode payload of %s %s: %w", request.Method, request.URI, err)
		}
	}

	return &payload.RequestPart{Headers: headers.Clone(), Request: request}, nil
}

func (d *deserializer) responsePart(headers http.Header, content []byte, correlated payload.BatchRequestPart, inChangeset bool) (payload.BatchResponsePart, error) {
	mediaType, boundary, charset, err := classify(headers, inChangeset)
	if err != nil {
		return nil, err
	}

	if mediaType == MultipartMixed {
		var requests []payload.BatchRequestPart
		if cs, ok := correlated.(*payload.BatchRequestChangeset); ok {
			requests = cs.Operations
		}

		cs := &payload.BatchResponseChangeset{Boundary: boundary, Charset: charset, Headers: headers.Clone()}
		err = readParts(content, boundary, func(h http.Header, c []byte) error {
			var request payload.BatchRequestPart
			if i := len(cs.Operations); i < len(requests) {
				request = requests[i]
			}

			op, err := d.responsePart(h, c, request, true)
			if err != nil {
				return err
			}
			cs.Operations = append(cs.Operations, op)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return cs, nil
	}

	response, err := parseResponse(content)
	if err != nil {
		return nil, err
	}

	if d.decoder != nil && len(response.Body) > 0 {
		// a failed changeset is answered by a single response that no request correlates with
		var request *payload.HTTPRequest
		if rp, ok := correlated.(*payload.RequestPart); ok {
			request = rp.Request
		}

		response.Payload, err = d.decoder.DecodeResponse(response, request)
		if err != nil {
			return nil, fmt.Errorf("failed to decode payload of response with status %d: %w", response.StatusCode, err)
		}
	}

	return &payload.ResponsePart{Headers: headers.Clone(), Response: response}, nil
}

// readMessage reads the start line and headers of an embedded http message and
// returns them together with the body
func readMessage(content []byte) (string, http.Header, []byte, error) {
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(content)))

	startLine, err := tp.ReadLine()
	if err != nil {
		return "", nil, nil, errors.NewMalformedInputError(fmt.Sprintf("batch operation %q has no start line", string(content)))
	}

	mh, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return "", nil, nil, errors.NewMalformedInputError(fmt.Sprintf("batch operation %q has malformed headers: %s", startLine, err.Error()))
	}

	body, err := io.ReadAll(tp.R)
	if err != nil {
		return "", nil, nil, err
	}

	if len(body) == 0 {
		body = nil
	}

	headers := http.Header(mh)
	if headers == nil {
		headers = http.Header{}
	}

	return startLine, headers, body, nil
}

func parseRequest(content []byte) (*payload.HTTPRequest, error) {
	startLine, headers, body, err := readMessage(content)
	if err != nil {
		return nil, err
	}

	first := strings.IndexByte(startLine, ' ')
	last := strings.LastIndexByte(startLine, ' ')
	if first <= 0 || last <= first || !strings.HasPrefix(startLine[last+1:], "HTTP/") {
		return nil, errors.NewMalformedInputError(fmt.Sprintf("malformed request line %q", startLine))
	}

	request := payload.NewHTTPRequest(startLine[:first], strings.TrimSpace(startLine[first+1:last]), body)
	request.Headers = headers

	return request, nil
}

func parseResponse(content []byte) (*payload.HTTPResponse, error) {
	startLine, headers, body, err := readMessage(content)
	if err != nil {
		return nil, err
	}

	proto, status, _ := strings.Cut(startLine, " ")
	code, _, _ := strings.Cut(status, " ")

	statusCode, err := strconv.Atoi(code)
	if !strings.HasPrefix(proto, "HTTP/") || err != nil {
		return nil, errors.NewMalformedInputError(fmt.Sprintf("malformed status line %q", startLine))
	}

	response := payload.NewHTTPResponse(statusCode, body)
	response.Headers = headers

	return response, nil
}
