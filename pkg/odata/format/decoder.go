package format

import (
	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
)

// BatchDecoder decodes the bodies of batch operations with the strategies in
// a registry, giving each strategy the context resolved from the request URI.
// Bodies whose content type has no registered strategy are left undecoded.
type BatchDecoder struct {
	model       *edm.Model
	serviceRoot string
	registry    *Registry
}

func NewBatchDecoder(model *edm.Model, serviceRoot string, registry *Registry) *BatchDecoder {
	return &BatchDecoder{model: model, serviceRoot: serviceRoot, registry: registry}
}

func (d *BatchDecoder) context(request *payload.HTTPRequest) Context {
	if request == nil {
		return NewContext(nil)
	}

	u, err := uri.Parse(d.model, d.serviceRoot, request.URI)
	if err != nil {
		return NewContext(nil)
	}

	return NewContext(u)
}

func (d *BatchDecoder) decode(contentType string, body []byte, ctx Context) (payload.Element, error) {
	if _, ok := d.registry.Lookup(contentType); !ok {
		return nil, nil
	}
	return d.registry.Deserialize(contentType, body, ctx)
}

func (d *BatchDecoder) DecodeRequest(r *payload.HTTPRequest) (payload.Element, error) {
	return d.decode(r.Headers.Get(payload.HeaderContentType), r.Body, d.context(r))
}

func (d *BatchDecoder) DecodeResponse(r *payload.HTTPResponse, request *payload.HTTPRequest) (payload.Element, error) {
	return d.decode(r.Headers.Get(payload.HeaderContentType), r.Body, d.context(request))
}
