package inspector

import (
	"fmt"

	"github.com/diwise/odata-toolkit/pkg/odata/uri"
	"github.com/diwise/odata-toolkit/pkg/odata/version"
)

// DeclaredVersions holds the version headers sent with a request
type DeclaredVersions struct {
	DataServiceVersion    version.Version
	MaxDataServiceVersion version.Version
}

type SegmentInfo struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type VersionErrorInfo struct {
	Code     string `json:"code"`
	Feature  string `json:"feature"`
	Required string `json:"required"`
	Declared string `json:"declared"`
	Message  string `json:"message"`
}

type URIReport struct {
	URI                string            `json:"uri"`
	Segments           []SegmentInfo     `json:"segments"`
	Classification     []string          `json:"classification"`
	ExpectedPayload    string            `json:"expectedPayload"`
	EntitySet          string            `json:"entitySet,omitempty"`
	EntityType         string            `json:"entityType,omitempty"`
	OpenProperties     bool              `json:"openProperties"`
	Features           []string          `json:"features"`
	MinRequestVersion  string            `json:"minRequestVersion"`
	MinResponseVersion string            `json:"minResponseVersion"`
	VersionError       *VersionErrorInfo `json:"versionError,omitempty"`
}

type OperationReport struct {
	ContentID string     `json:"contentId"`
	Changeset *int       `json:"changeset,omitempty"`
	Method    string     `json:"method"`
	URI       string     `json:"uri"`
	Payload   string     `json:"payload,omitempty"`
	Report    *URIReport `json:"report,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type BatchReport struct {
	Boundary   string            `json:"boundary"`
	Changesets int               `json:"changesets"`
	Operations []OperationReport `json:"operations"`
}

type EntitySetInfo struct {
	Container  string `json:"container"`
	Name       string `json:"name"`
	EntityType string `json:"entityType"`
}

func segmentType(s uri.Segment) string {
	switch s.(type) {
	case *uri.ServiceRootSegment:
		return "ServiceRoot"
	case *uri.EntitySetSegment:
		return "EntitySet"
	case *uri.KeySegment:
		return "Key"
	case *uri.NavigationSegment:
		return "NavigationProperty"
	case *uri.PropertySegment:
		return "Property"
	case *uri.OpenPropertySegment:
		return "OpenProperty"
	case *uri.TypeCastSegment:
		return "EntityType"
	case *uri.FunctionSegment:
		return "Function"
	case *uri.ParametersSegment:
		return "Parameters"
	case *uri.NamedStreamSegment:
		return "NamedStream"
	case *uri.SystemSegment:
		return "System"
	case *uri.UnrecognizedSegment:
		return "Unrecognized"
	}
	return fmt.Sprintf("%T", s)
}

type predicate struct {
	name  string
	holds func([]uri.Segment) bool
}

var predicates = []predicate{
	{"entity", uri.IsEntity},
	{"entitySet", uri.IsEntitySet},
	{"property", uri.IsProperty},
	{"propertyValue", uri.IsPropertyValue},
	{"mediaResource", uri.IsMediaResource},
	{"namedStream", uri.IsNamedStream},
	{"count", uri.IsCount},
	{"metadata", uri.IsMetadata},
	{"batch", uri.IsBatch},
	{"serviceDocument", uri.IsServiceDocument},
	{"entityReferenceLink", uri.IsEntityReferenceLink},
	{"action", uri.IsAction},
	{"function", uri.IsFunction},
	{"webInvokeServiceOperation", uri.IsWebInvokeServiceOperation},
	{"unrecognized", uri.HasUnrecognizedSegment},
}

func classify(segments []uri.Segment) []string {
	holds := []string{}
	for _, p := range predicates {
		if p.holds(segments) {
			holds = append(holds, p.name)
		}
	}
	return holds
}

func newVersionErrorInfo(e *version.ExpectedError) *VersionErrorInfo {
	if e == nil {
		return nil
	}

	return &VersionErrorInfo{
		Code:     string(e.Code),
		Feature:  e.Feature,
		Required: e.Required.String(),
		Declared: e.Declared.String(),
		Message:  e.Error(),
	}
}
