package payload

import (
	"fmt"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/errors"
)

// MetadataPayload wraps a service's metadata document. It is carried through
// the same pipelines as other payloads but has no visitor method.
type MetadataPayload struct {
	elementBase

	Model *edm.Model
	Raw   []byte
}

func NewMetadataPayload(model *edm.Model, raw []byte) *MetadataPayload {
	return &MetadataPayload{Model: model, Raw: raw}
}

func (*MetadataPayload) Kind() Kind { return KindMetadataPayload }

// Accept always panics with an error wrapping errors.ErrNotSupported
func (*MetadataPayload) Accept(Visitor) {
	panic(errors.NewNotSupportedError(fmt.Sprintf("%s cannot be visited", KindMetadataPayload)))
}
