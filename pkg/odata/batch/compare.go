package batch

import (
	"bytes"
	"fmt"

	"github.com/diwise/odata-toolkit/pkg/odata/payload"
)

// CompareRequests reports the first difference between two batch request
// envelopes. The split into changesets and bare operations and the order of
// operations are significant. Content-ids and MIME part headers are not.
func CompareRequests(expected, actual *payload.BatchRequestPayload) error {
	if len(expected.Parts) != len(actual.Parts) {
		return mismatch("/", "expected %d parts but found %d", len(expected.Parts), len(actual.Parts))
	}

	for i := range expected.Parts {
		if err := compareRequestPart(fmt.Sprintf("[%d]", i), expected.Parts[i], actual.Parts[i]); err != nil {
			return err
		}
	}

	return nil
}

// CompareResponses is the response side equivalent of CompareRequests
func CompareResponses(expected, actual *payload.BatchResponsePayload) error {
	if len(expected.Parts) != len(actual.Parts) {
		return mismatch("/", "expected %d parts but found %d", len(expected.Parts), len(actual.Parts))
	}

	for i := range expected.Parts {
		if err := compareResponsePart(fmt.Sprintf("[%d]", i), expected.Parts[i], actual.Parts[i]); err != nil {
			return err
		}
	}

	return nil
}

func mismatch(path, format string, args ...any) error {
	return fmt.Errorf("%w at %s: %s", payload.ErrPayloadMismatch, path, fmt.Sprintf(format, args...))
}

func unwrapRequest(p payload.BatchRequestPart) (*payload.HTTPRequest, bool) {
	switch part := p.(type) {
	case *payload.HTTPRequest:
		return part, true
	case *payload.RequestPart:
		return part.Request, true
	}
	return nil, false
}

func unwrapResponse(p payload.BatchResponsePart) (*payload.HTTPResponse, bool) {
	switch part := p.(type) {
	case *payload.HTTPResponse:
		return part, true
	case *payload.ResponsePart:
		return part.Response, true
	}
	return nil, false
}

func compareRequestPart(path string, expected, actual payload.BatchRequestPart) error {
	ecs, expectedIsChangeset := expected.(*payload.BatchRequestChangeset)
	acs, actualIsChangeset := actual.(*payload.BatchRequestChangeset)

	if expectedIsChangeset != actualIsChangeset {
		return mismatch(path, "expected changeset %t but found changeset %t", expectedIsChangeset, actualIsChangeset)
	}

	if expectedIsChangeset {
		if len(ecs.Operations) != len(acs.Operations) {
			return mismatch(path, "expected %d operations in changeset but found %d", len(ecs.Operations), len(acs.Operations))
		}
		for i := range ecs.Operations {
			if err := compareRequestPart(fmt.Sprintf("%s/[%d]", path, i), ecs.Operations[i], acs.Operations[i]); err != nil {
				return err
			}
		}
		return nil
	}

	e, _ := unwrapRequest(expected)
	a, _ := unwrapRequest(actual)

	if e == nil || a == nil {
		if e != a {
			return mismatch(path, "expected request %v but found %v", e, a)
		}
		return nil
	}

	if e.Method != a.Method {
		return mismatch(path, "expected method %s but found %s", e.Method, a.Method)
	}

	if e.URI != a.URI {
		return mismatch(path, "expected uri %s but found %s", e.URI, a.URI)
	}

	return compareBodies(path, e.Body, a.Body, e.Payload, a.Payload)
}

func compareResponsePart(path string, expected, actual payload.BatchResponsePart) error {
	ecs, expectedIsChangeset := expected.(*payload.BatchResponseChangeset)
	acs, actualIsChangeset := actual.(*payload.BatchResponseChangeset)

	if expectedIsChangeset != actualIsChangeset {
		return mismatch(path, "expected changeset %t but found changeset %t", expectedIsChangeset, actualIsChangeset)
	}

	if expectedIsChangeset {
		if len(ecs.Operations) != len(acs.Operations) {
			return mismatch(path, "expected %d operations in changeset but found %d", len(ecs.Operations), len(acs.Operations))
		}
		for i := range ecs.Operations {
			if err := compareResponsePart(fmt.Sprintf("%s/[%d]", path, i), ecs.Operations[i], acs.Operations[i]); err != nil {
				return err
			}
		}
		return nil
	}

	e, _ := unwrapResponse(expected)
	a, _ := unwrapResponse(actual)

	if e == nil || a == nil {
		if e != a {
			return mismatch(path, "expected response %v but found %v", e, a)
		}
		return nil
	}

	if e.StatusCode != a.StatusCode {
		return mismatch(path, "expected status %d but found %d", e.StatusCode, a.StatusCode)
	}

	return compareBodies(path, e.Body, a.Body, e.Payload, a.Payload)
}

func compareBodies(path string, expectedBody, actualBody []byte, expected, actual payload.Element) error {
	if expected != nil || actual != nil {
		if err := payload.Compare(expected, actual); err != nil {
			return fmt.Errorf("operation %s: %w", path, err)
		}
		return nil
	}

	if !bytes.Equal(expectedBody, actualBody) {
		return mismatch(path, "expected body %q but found %q", string(expectedBody), string(actualBody))
	}

	return nil
}
