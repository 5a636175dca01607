package batch

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
)

const httpVersion string = "HTTP/1.1"

// SerializeRequest writes a batch request envelope in its multipart wire format
func SerializeRequest(bp *payload.BatchRequestPayload) ([]byte, error) {
	buf := &bytes.Buffer{}

	err := writeMultipart(buf, bp.Boundary, len(bp.Parts), func(w *multipart.Writer, i int) error {
		return writeRequestPart(w, bp.Parts[i])
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SerializeResponse writes a batch response envelope in its multipart wire format
func SerializeResponse(bp *payload.BatchResponsePayload) ([]byte, error) {
	buf := &bytes.Buffer{}

	err := writeMultipart(buf, bp.Boundary, len(bp.Parts), func(w *multipart.Writer, i int) error {
		return writeResponsePart(w, bp.Parts[i])
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeMultipart(out io.Writer, boundary string, count int, writePart func(*multipart.Writer, int) error) error {
	w := multipart.NewWriter(out)
	if err := w.SetBoundary(boundary); err != nil {
		return errors.NewInvalidOperationError(fmt.Sprintf("invalid boundary %q: %s", boundary, err.Error()))
	}

	for i := range count {
		if err := writePart(w, i); err != nil {
			return err
		}
	}

	return w.Close()
}

func mimeHeader(h http.Header) textproto.MIMEHeader {
	mh := textproto.MIMEHeader{}
	for k, v := range h {
		mh[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return mh
}

func writeRequestPart(w *multipart.Writer, p payload.BatchRequestPart) error {
	switch part := p.(type) {
	case *payload.RequestPart:
		pw, err := w.CreatePart(mimeHeader(part.Headers))
		if err != nil {
			return err
		}
		return writeRequest(pw, part.Request)

	case *payload.BatchRequestChangeset:
		headers := changesetHeaders(part.Boundary, part.Charset, part.Headers)
		pw, err := w.CreatePart(mimeHeader(headers))
		if err != nil {
			return err
		}
		return writeMultipart(pw, part.Boundary, len(part.Operations), func(cw *multipart.Writer, i int) error {
			if _, nested := part.Operations[i].(*payload.BatchRequestChangeset); nested {
				return errors.NewInvalidOperationError("changesets can not be nested")
			}
			return writeRequestPart(cw, part.Operations[i])
		})
	}

	return errors.NewInvalidOperationError(fmt.Sprintf("can not serialize unwrapped batch part %T, build the payload first", p))
}

func writeResponsePart(w *multipart.Writer, p payload.BatchResponsePart) error {
	switch part := p.(type) {
	case *payload.ResponsePart:
		pw, err := w.CreatePart(mimeHeader(part.Headers))
		if err != nil {
			return err
		}
		return writeResponse(pw, part.Response)

	case *payload.BatchResponseChangeset:
		headers := changesetHeaders(part.Boundary, part.Charset, part.Headers)
		pw, err := w.CreatePart(mimeHeader(headers))
		if err != nil {
			return err
		}
		return writeMultipart(pw, part.Boundary, len(part.Operations), func(cw *multipart.Writer, i int) error {
			if _, nested := part.Operations[i].(*payload.BatchResponseChangeset); nested {
				return errors.NewInvalidOperationError("changesets can not be nested")
			}
			return writeResponsePart(cw, part.Operations[i])
		})
	}

	return errors.NewInvalidOperationError(fmt.Sprintf("can not serialize unwrapped batch part %T, build the payload first", p))
}

func writeRequest(w io.Writer, r *payload.HTTPRequest) error {
	if r == nil {
		return errors.NewInvalidOperationError("batch request part without a request")
	}

	if _, err := fmt.Fprintf(w, "%s %s %s\r\n", r.Method, r.URI, httpVersion); err != nil {
		return err
	}

	return writeMessage(w, r.Headers, r.Body)
}

func writeResponse(w io.Writer, r *payload.HTTPResponse) error {
	if r == nil {
		return errors.NewInvalidOperationError("batch response part without a response")
	}

	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", httpVersion, r.StatusCode, http.StatusText(r.StatusCode)); err != nil {
		return err
	}

	return writeMessage(w, r.Headers, r.Body)
}

// writeMessage writes headers in key order followed by an empty line and the body
func writeMessage(w io.Writer, headers http.Header, body []byte) error {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range headers[k] {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}

	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}

	_, err := w.Write(body)
	return err
}
