package version

import (
	"fmt"
	"strings"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
)

// Version is an ordered protocol version. The zero value is Unspecified.
type Version int

const (
	Unspecified Version = iota
	V1
	V2
	V3
)

// Latest is the highest version the calculator knows about
const Latest = V3

func (v Version) String() string {
	switch v {
	case Unspecified:
		return "unspecified"
	case V1:
		return "1.0"
	case V2:
		return "2.0"
	case V3:
		return "3.0"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// Parse reads a version header value such as "2.0" or "3.0;NetFx". An empty
// value is Unspecified.
func Parse(s string) (Version, error) {
	s, _, _ = strings.Cut(s, ";")
	s = strings.TrimSpace(s)

	switch s {
	case "":
		return Unspecified, nil
	case "1.0", "1":
		return V1, nil
	case "2.0", "2":
		return V2, nil
	case "3.0", "3":
		return V3, nil
	}

	return Unspecified, errors.NewMalformedInputError(fmt.Sprintf("unknown protocol version %q", s))
}

// Max returns the higher of two versions
func Max(a, b Version) Version {
	if a > b {
		return a
	}
	return b
}

// ErrorCode identifies the kind of version conflict
type ErrorCode string

const (
	// MaxProtocolVersionTooLow means the service cannot serve the request at all
	MaxProtocolVersionTooLow ErrorCode = "MaxProtocolVersionTooLow"
	// RequestVersionTooLow means the DataServiceVersion header is below what the request needs
	RequestVersionTooLow ErrorCode = "RequestVersionTooLow"
	// ResponseVersionTooLow means the MaxDataServiceVersion header is below what the response needs
	ResponseVersionTooLow ErrorCode = "ResponseVersionTooLow"
)

// ExpectedError is a version conflict returned as data so that callers can
// assert on the exact failure
type ExpectedError struct {
	Code     ErrorCode
	Feature  string
	Required Version
	Declared Version
}

func (e *ExpectedError) Error() string {
	return fmt.Sprintf("%s: %s requires version %s but %s was declared", e.Code, e.Feature, e.Required, e.Declared)
}
