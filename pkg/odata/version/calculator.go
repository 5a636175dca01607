package version

import (
	"regexp"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
)

// Feature is a protocol construct that raises the minimum request or response version
type Feature struct {
	Name     string
	Request  Version
	Response Version

	usedBy func(u *uri.URI) bool
}

var anyOrAll = regexp.MustCompile(`/(any|all)\(`)

// features is read-only after package initialization
var features = []Feature{
	{Name: "$select", Request: V2, Response: V2, usedBy: func(u *uri.URI) bool {
		return len(u.Select) > 0
	}},
	{Name: "$count", Request: V2, Response: V2, usedBy: func(u *uri.URI) bool {
		return uri.IsCount(u.Segments)
	}},
	{Name: "$inlinecount", Request: V2, Response: V2, usedBy: func(u *uri.URI) bool {
		return u.InlineCount != ""
	}},
	{Name: "$skiptoken", Request: V2, Response: V2, usedBy: func(u *uri.URI) bool {
		return u.SkipToken != ""
	}},
	{Name: "type cast", Request: V3, Response: V3, usedBy: usesTypeCast},
	{Name: "action or function", Request: V3, Response: V3, usedBy: func(u *uri.URI) bool {
		return invokesFunctionOfKind(u, edm.Action) || invokesFunctionOfKind(u, edm.Function)
	}},
	{Name: "named stream", Request: V3, Response: V3, usedBy: func(u *uri.URI) bool {
		return uri.IsNamedStream(u.Segments)
	}},
	{Name: "open property", Request: V3, Response: V3, usedBy: func(u *uri.URI) bool {
		return uri.HasOpenProperties(u.Segments)
	}},
	{Name: "any/all", Request: V3, Response: V1, usedBy: func(u *uri.URI) bool {
		return anyOrAll.MatchString(u.Filter)
	}},
	{Name: "collection value", Request: V1, Response: V3, usedBy: returnsCollectionValue},
}

func usesTypeCast(u *uri.URI) bool {
	for _, s := range u.Segments {
		if _, ok := s.(*uri.TypeCastSegment); ok {
			return true
		}
	}

	for _, paths := range [][]uri.SegmentPath{u.Expand, u.Select} {
		for _, p := range paths {
			for _, s := range p {
				if _, ok := s.(*uri.TypeCastSegment); ok {
					return true
				}
			}
		}
	}

	return false
}

func invokesFunctionOfKind(u *uri.URI, kind edm.FunctionKind) bool {
	for _, s := range u.Segments {
		if f, ok := s.(*uri.FunctionSegment); ok && f.Function.Kind == kind {
			return true
		}
	}
	return false
}

// returnsCollectionValue is true when the response carries a collection of
// primitive or complex values
func returnsCollectionValue(u *uri.URI) bool {
	for _, s := range u.Segments {
		switch seg := s.(type) {
		case *uri.PropertySegment:
			if seg.Kind == uri.PrimitiveCollectionPropertyKind || seg.Kind == uri.ComplexCollectionPropertyKind {
				return true
			}
		case *uri.FunctionSegment:
			if c, ok := seg.Function.ReturnType.(edm.CollectionDataType); ok {
				if _, isEntity := c.ElementType.(edm.EntityDataType); !isEntity {
					return true
				}
			}
		}
	}
	return false
}

// Features returns every version raising feature used by the URI
func Features(u *uri.URI) []Feature {
	used := []Feature{}
	for _, f := range features {
		if f.usedBy(u) {
			used = append(used, f)
		}
	}
	return used
}

// highest returns the highest version picked from the used features together
// with the name of the feature that requires it
func highest(u *uri.URI, pick func(Feature) Version) (Version, string) {
	required := V1
	driver := "request"

	for _, f := range Features(u) {
		if v := pick(f); v > required {
			required = v
			driver = f.Name
		}
	}

	return required, driver
}

func minimum(u *uri.URI, maxVersion Version, pick func(Feature) Version) (Version, *ExpectedError) {
	required, driver := highest(u, pick)

	if maxVersion != Unspecified && required > maxVersion {
		return required, &ExpectedError{
			Code:     MaxProtocolVersionTooLow,
			Feature:  driver,
			Required: required,
			Declared: maxVersion,
		}
	}

	return required, nil
}

func requestVersion(f Feature) Version  { return f.Request }
func responseVersion(f Feature) Version { return f.Response }

// MinRequestVersion returns the lowest DataServiceVersion a request for u can
// be sent with. Exceeding maxVersion is reported as an expected error, the computed
// version is returned either way.
func MinRequestVersion(u *uri.URI, maxVersion Version) (Version, *ExpectedError) {
	return minimum(u, maxVersion, requestVersion)
}

// MinResponseVersion returns the lowest version a response to u can be written in
func MinResponseVersion(u *uri.URI, maxVersion Version) (Version, *ExpectedError) {
	return minimum(u, maxVersion, responseVersion)
}

// ValidateRequestVersions checks the DataServiceVersion and MaxDataServiceVersion
// headers of a request against what the URI requires. Unspecified headers are
// not checked.
func ValidateRequestVersions(u *uri.URI, maxVersion, dataServiceVersion, maxDataServiceVersion Version) *ExpectedError {
	request, expectedErr := MinRequestVersion(u, maxVersion)
	if expectedErr != nil {
		return expectedErr
	}

	if dataServiceVersion != Unspecified && dataServiceVersion < request {
		return &ExpectedError{
			Code:     RequestVersionTooLow,
			Feature:  driverOf(u, requestVersion),
			Required: request,
			Declared: dataServiceVersion,
		}
	}

	response, expectedErr := MinResponseVersion(u, maxVersion)
	if expectedErr != nil {
		return expectedErr
	}

	if maxDataServiceVersion != Unspecified && maxDataServiceVersion < response {
		return &ExpectedError{
			Code:     ResponseVersionTooLow,
			Feature:  driverOf(u, responseVersion),
			Required: response,
			Declared: maxDataServiceVersion,
		}
	}

	return nil
}

func driverOf(u *uri.URI, pick func(Feature) Version) string {
	_, driver := highest(u, pick)
	return driver
}
