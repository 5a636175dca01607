package format

import (
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
)

// Context is what the resolver knows about a body before it is read. It is
// advisory and strategies are free to ignore it.
type Context struct {
	Segments     []uri.Segment
	ExpectedKind payload.Kind
	EntitySet    *edm.EntitySet
	EntityType   *edm.EntityType
}

// NewContext derives a deserialization context from a resolved URI
func NewContext(u *uri.URI) Context {
	if u == nil {
		return Context{ExpectedKind: payload.KindUnknown}
	}

	ctx := Context{
		Segments:     u.Segments,
		ExpectedKind: uri.ExpectedPayloadKind(u.Segments),
	}

	if set, et, ok := uri.ExpectedEntitySetAndType(u.Segments); ok {
		ctx.EntitySet = set
		ctx.EntityType = et
	}

	return ctx
}

// Strategy converts between wire bytes and payload trees for one media type
type Strategy interface {
	MediaType() string
	Serialize(e payload.Element, charset string) ([]byte, error)
	Deserialize(body []byte, ctx Context) (payload.Element, error)
}

// Registry selects a strategy by the media type of a content type header
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: map[string]Strategy{}}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// NewDefaultRegistry returns a registry with the text and binary strategies
func NewDefaultRegistry() *Registry {
	return NewRegistry(NewTextStrategy(), NewBinaryStrategy())
}

func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[strings.ToLower(s.MediaType())] = s
}

// Lookup parses contentType and returns the strategy registered for its media type
func (r *Registry) Lookup(contentType string) (Strategy, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[mediaType]
	return s, ok
}

// Serialize writes e using the strategy selected by contentType
func (r *Registry) Serialize(contentType string, e payload.Element) ([]byte, error) {
	s, ok := r.Lookup(contentType)
	if !ok {
		return nil, errors.NewNotSupportedError(fmt.Sprintf("no format strategy registered for %q", contentType))
	}

	_, params, _ := mime.ParseMediaType(contentType)
	return s.Serialize(e, params["charset"])
}

// Deserialize reads body using the strategy selected by contentType
func (r *Registry) Deserialize(contentType string, body []byte, ctx Context) (payload.Element, error) {
	s, ok := r.Lookup(contentType)
	if !ok {
		return nil, errors.NewNotSupportedError(fmt.Sprintf("no format strategy registered for %q", contentType))
	}

	return s.Deserialize(body, ctx)
}
