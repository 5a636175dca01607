package batch

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/google/uuid"
)

const (
	ApplicationHTTP string = "application/http"
	MultipartMixed  string = "multipart/mixed"
	Binary          string = "binary"
)

// ContentIDSequence hands out content-ids for one batch envelope. It is not
// safe for concurrent use and should not be shared between envelopes that
// need independent numbering.
type ContentIDSequence struct {
	next int
}

func NewContentIDSequence() *ContentIDSequence {
	return &ContentIDSequence{next: 1}
}

// Next returns the next content-id as a decimal string
func (s *ContentIDSequence) Next() string {
	if s.next < 1 {
		s.next = 1
	}

	id := strconv.Itoa(s.next)
	s.next++
	return id
}

// NewBoundary returns a boundary string unique enough to never occur in a body
func NewBoundary(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// ContentType renders the content type of a batch envelope or changeset
func ContentType(boundary, charset string) string {
	return payload.MultipartMixedContentType(boundary, charset)
}

// BuildRequestPayload wraps the parts in a batch request envelope, numbering
// every operation without an explicit content-id from 1 and upwards.
func BuildRequestPayload(boundary, charset string, parts ...payload.BatchRequestPart) (*payload.BatchRequestPayload, error) {
	return BuildRequestPayloadWithSequence(NewContentIDSequence(), boundary, charset, parts...)
}

func BuildRequestPayloadWithSequence(seq *ContentIDSequence, boundary, charset string, parts ...payload.BatchRequestPart) (*payload.BatchRequestPayload, error) {
	if boundary == "" {
		return nil, errors.NewInvalidOperationError("a batch envelope needs a boundary")
	}

	b := &builder{seq: seq, ids: map[string]struct{}{}}
	envelope := &payload.BatchRequestPayload{Boundary: boundary, Charset: charset}

	for _, p := range parts {
		part, err := b.requestPart(p, false)
		if err != nil {
			return nil, err
		}
		envelope.Parts = append(envelope.Parts, part)
	}

	return envelope, nil
}

// BuildResponsePayload is the response side equivalent of BuildRequestPayload
func BuildResponsePayload(boundary, charset string, parts ...payload.BatchResponsePart) (*payload.BatchResponsePayload, error) {
	return BuildResponsePayloadWithSequence(NewContentIDSequence(), boundary, charset, parts...)
}

func BuildResponsePayloadWithSequence(seq *ContentIDSequence, boundary, charset string, parts ...payload.BatchResponsePart) (*payload.BatchResponsePayload, error) {
	if boundary == "" {
		return nil, errors.NewInvalidOperationError("a batch envelope needs a boundary")
	}

	b := &builder{seq: seq, ids: map[string]struct{}{}}
	envelope := &payload.BatchResponsePayload{Boundary: boundary, Charset: charset}

	for _, p := range parts {
		part, err := b.responsePart(p, false)
		if err != nil {
			return nil, err
		}
		envelope.Parts = append(envelope.Parts, part)
	}

	return envelope, nil
}

type builder struct {
	seq *ContentIDSequence
	ids map[string]struct{}
}

func (b *builder) claim(id string) error {
	if _, exists := b.ids[id]; exists {
		return errors.NewInvalidOperationError(fmt.Sprintf("content-id %s is used more than once in the same batch", id))
	}
	b.ids[id] = struct{}{}
	return nil
}

// next draws from the sequence, skipping ids already claimed by explicit headers
func (b *builder) next() string {
	for {
		id := b.seq.Next()
		if _, exists := b.ids[id]; !exists {
			return id
		}
	}
}

// operationHeaders returns the MIME headers of a wrapped operation. An explicit
// content-id is moved from the message headers to the part.
func (b *builder) operationHeaders(messageHeaders http.Header) (http.Header, error) {
	id := messageHeaders.Get(payload.HeaderContentID)
	if id != "" {
		messageHeaders.Del(payload.HeaderContentID)
	} else {
		id = b.next()
	}

	if err := b.claim(id); err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set(payload.HeaderContentType, ApplicationHTTP)
	headers.Set(payload.HeaderContentTransferEncoding, Binary)
	headers.Set(payload.HeaderContentID, id)

	return headers, nil
}

func changesetHeaders(boundary, charset string, headers http.Header) http.Header {
	h := http.Header{}
	for k, v := range headers {
		h[k] = append([]string{}, v...)
	}
	h.Set(payload.HeaderContentType, ContentType(boundary, charset))
	return h
}

func (b *builder) requestPart(p payload.BatchRequestPart, inChangeset bool) (payload.BatchRequestPart, error) {
	switch part := p.(type) {
	case *payload.HTTPRequest:
		if part == nil {
			return nil, errors.NewInvalidOperationError("nil request in batch")
		}
		request := payload.CloneRequestPart(part).(*payload.HTTPRequest)
		headers, err := b.operationHeaders(request.Headers)
		if err != nil {
			return nil, err
		}
		return &payload.RequestPart{Headers: headers, Request: request}, nil

	case *payload.RequestPart:
		if id := part.ContentID(); id != "" {
			if err := b.claim(id); err != nil {
				return nil, err
			}
		}
		return part, nil

	case *payload.BatchRequestChangeset:
		if inChangeset {
			return nil, errors.NewInvalidOperationError("changesets can not be nested")
		}

		boundary := part.Boundary
		if boundary == "" {
			boundary = NewBoundary("changeset")
		}

		cs := &payload.BatchRequestChangeset{
			Boundary: boundary,
			Charset:  part.Charset,
			Headers:  changesetHeaders(boundary, part.Charset, part.Headers),
		}

		for _, op := range part.Operations {
			wrapped, err := b.requestPart(op, true)
			if err != nil {
				return nil, err
			}
			cs.Operations = append(cs.Operations, wrapped)
		}

		return cs, nil
	}

	return nil, errors.NewInvalidOperationError(fmt.Sprintf("unsupported batch request part %T", p))
}

func (b *builder) responsePart(p payload.BatchResponsePart, inChangeset bool) (payload.BatchResponsePart, error) {
	switch part := p.(type) {
	case *payload.HTTPResponse:
		if part == nil {
			return nil, errors.NewInvalidOperationError("nil response in batch")
		}
		response := payload.CloneResponsePart(part).(*payload.HTTPResponse)
		headers, err := b.operationHeaders(response.Headers)
		if err != nil {
			return nil, err
		}
		return &payload.ResponsePart{Headers: headers, Response: response}, nil

	case *payload.ResponsePart:
		if id := part.ContentID(); id != "" {
			if err := b.claim(id); err != nil {
				return nil, err
			}
		}
		return part, nil

	case *payload.BatchResponseChangeset:
		if inChangeset {
			return nil, errors.NewInvalidOperationError("changesets can not be nested")
		}

		boundary := part.Boundary
		if boundary == "" {
			boundary = NewBoundary("changesetresponse")
		}

		cs := &payload.BatchResponseChangeset{
			Boundary: boundary,
			Charset:  part.Charset,
			Headers:  changesetHeaders(boundary, part.Charset, part.Headers),
		}

		for _, op := range part.Operations {
			wrapped, err := b.responsePart(op, true)
			if err != nil {
				return nil, err
			}
			cs.Operations = append(cs.Operations, wrapped)
		}

		return cs, nil
	}

	return nil, errors.NewInvalidOperationError(fmt.Sprintf("unsupported batch response part %T", p))
}
