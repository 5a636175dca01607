package payload

import "fmt"

// Kind identifies the concrete type of a payload element. Every concrete
// element maps to exactly one Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindEntityInstance
	KindEntitySetInstance
	KindComplexInstance
	KindPrimitiveValue
	KindPrimitiveCollection
	KindComplexInstanceCollection
	KindPrimitiveProperty
	KindComplexProperty
	KindPrimitiveCollectionProperty
	KindComplexCollectionProperty
	KindNamedStreamInstance
	KindNullPropertyInstance
	KindNavigationPropertyInstance
	KindDeferredLink
	KindExpandedLink
	KindLinkCollection
	KindErrorPayload
	KindServiceDocumentInstance
	KindWorkspaceInstance
	KindResourceCollectionInstance
	KindBatchRequestPayload
	KindBatchResponsePayload
	KindMetadataPayload
)

var kindNames = [...]string{
	KindUnknown:                     "Unknown",
	KindEntityInstance:              "EntityInstance",
	KindEntitySetInstance:           "EntitySetInstance",
	KindComplexInstance:             "ComplexInstance",
	KindPrimitiveValue:              "PrimitiveValue",
	KindPrimitiveCollection:         "PrimitiveCollection",
	KindComplexInstanceCollection:   "ComplexInstanceCollection",
	KindPrimitiveProperty:           "PrimitiveProperty",
	KindComplexProperty:             "ComplexProperty",
	KindPrimitiveCollectionProperty: "PrimitiveCollectionProperty",
	KindComplexCollectionProperty:   "ComplexCollectionProperty",
	KindNamedStreamInstance:         "NamedStreamInstance",
	KindNullPropertyInstance:        "NullPropertyInstance",
	KindNavigationPropertyInstance:  "NavigationPropertyInstance",
	KindDeferredLink:                "DeferredLink",
	KindExpandedLink:                "ExpandedLink",
	KindLinkCollection:              "LinkCollection",
	KindErrorPayload:                "ErrorPayload",
	KindServiceDocumentInstance:     "ServiceDocumentInstance",
	KindWorkspaceInstance:           "WorkspaceInstance",
	KindResourceCollectionInstance:  "ResourceCollectionInstance",
	KindBatchRequestPayload:         "BatchRequestPayload",
	KindBatchResponsePayload:        "BatchResponsePayload",
	KindMetadataPayload:             "MetadataPayload",
}

// kindsByName is the reverse lookup table, read-only after init
var kindsByName map[string]Kind

func init() {
	kindsByName = make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		kindsByName[name] = Kind(k)
	}
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the kind registered under name
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// MarshalText renders the kind by name, so that reports carry readable kinds
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown payload kind %q", string(text))
	}
	*k = parsed
	return nil
}

// IsLink is true for the kinds a navigation property can hold
func (k Kind) IsLink() bool {
	return k == KindDeferredLink || k == KindExpandedLink || k == KindLinkCollection
}

// IsProperty is true for all property instance kinds
func (k Kind) IsProperty() bool {
	switch k {
	case KindPrimitiveProperty, KindComplexProperty, KindPrimitiveCollectionProperty,
		KindComplexCollectionProperty, KindNamedStreamInstance, KindNullPropertyInstance,
		KindNavigationPropertyInstance:
		return true
	}
	return false
}
