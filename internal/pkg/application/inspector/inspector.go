package inspector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diwise/odata-toolkit/pkg/odata/batch"
	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/format"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
	"github.com/diwise/odata-toolkit/pkg/odata/version"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("odata-inspector/inspector")

const (
	HeaderDataServiceVersion    string = "DataServiceVersion"
	HeaderMaxDataServiceVersion string = "MaxDataServiceVersion"
)

// Inspector resolves URIs and batch bodies against the metadata of one service
type Inspector interface {
	InspectURI(ctx context.Context, raw string, declared DeclaredVersions) (*URIReport, error)
	InspectBatch(ctx context.Context, contentType string, body []byte) (*BatchReport, error)
	EntitySets(ctx context.Context) []EntitySetInfo
}

type inspectorImpl struct {
	model         *edm.Model
	serviceRoot   string
	maxVersion    version.Version
	maxOperations int
	decoder       batch.PayloadDecoder
}

func New(ctx context.Context, cfg *Config, model *edm.Model) (Inspector, error) {
	if model == nil {
		return nil, fmt.Errorf("an inspector needs a model")
	}

	maxVersion, err := cfg.MaxProtocolVersion()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.GetFromContext(ctx).Info(
		"inspector created",
		slog.String("service", cfg.Service.Name),
		slog.String("max_version", maxVersion.String()),
	)

	return &inspectorImpl{
		model:         model,
		serviceRoot:   cfg.Service.ServiceRoot,
		maxVersion:    maxVersion,
		maxOperations: cfg.Batch.MaxOperations,
		decoder:       format.NewBatchDecoder(model, cfg.Service.ServiceRoot, format.NewDefaultRegistry()),
	}, nil
}

func (i *inspectorImpl) InspectURI(ctx context.Context, raw string, declared DeclaredVersions) (*URIReport, error) {
	var err error

	ctx, span := tracer.Start(ctx, "inspect-uri", trace.WithAttributes(attribute.String("odata.uri", raw)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	u, err := uri.Parse(i.model, i.serviceRoot, raw)
	if err != nil {
		return nil, err
	}

	report := i.report(u, declared)

	logging.GetFromContext(ctx).Debug(
		"inspected uri",
		slog.String("uri", raw),
		slog.String("expected_payload", report.ExpectedPayload),
	)

	return report, nil
}

func (i *inspectorImpl) report(u *uri.URI, declared DeclaredVersions) *URIReport {
	report := &URIReport{
		URI:             u.String(),
		Segments:        []SegmentInfo{},
		Classification:  classify(u.Segments),
		ExpectedPayload: uri.ExpectedPayloadKind(u.Segments).String(),
		OpenProperties:  uri.HasOpenProperties(u.Segments),
		Features:        []string{},
	}

	for _, s := range u.Segments {
		report.Segments = append(report.Segments, SegmentInfo{Type: segmentType(s), Value: s.String()})
	}

	if set, et, ok := uri.ExpectedEntitySetAndType(u.Segments); ok {
		if set != nil {
			report.EntitySet = set.Name
		}
		if et != nil {
			report.EntityType = et.FullName()
		}
	}

	for _, f := range version.Features(u) {
		report.Features = append(report.Features, f.Name)
	}

	request, _ := version.MinRequestVersion(u, i.maxVersion)
	response, _ := version.MinResponseVersion(u, i.maxVersion)

	report.MinRequestVersion = request.String()
	report.MinResponseVersion = response.String()
	report.VersionError = newVersionErrorInfo(
		version.ValidateRequestVersions(u, i.maxVersion, declared.DataServiceVersion, declared.MaxDataServiceVersion),
	)

	return report
}

func (i *inspectorImpl) InspectBatch(ctx context.Context, contentType string, body []byte) (*BatchReport, error) {
	var err error

	ctx, span := tracer.Start(ctx, "inspect-batch")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	bp, err := batch.DeserializeRequest(contentType, body, batch.WithPayloadDecoder(i.decoder))
	if err != nil {
		return nil, err
	}

	operations := bp.Operations()
	if i.maxOperations > 0 && len(operations) > i.maxOperations {
		err = errors.NewMalformedInputError(
			fmt.Sprintf("batch carries %d operations but at most %d are allowed", len(operations), i.maxOperations),
		)
		return nil, err
	}

	report := &BatchReport{Boundary: bp.Boundary, Operations: []OperationReport{}}

	for _, part := range bp.Parts {
		switch p := part.(type) {
		case *payload.RequestPart:
			report.Operations = append(report.Operations, i.inspectOperation(p, nil))
		case *payload.BatchRequestChangeset:
			changeset := report.Changesets
			report.Changesets++

			for _, op := range p.Operations {
				if rp, ok := op.(*payload.RequestPart); ok {
					report.Operations = append(report.Operations, i.inspectOperation(rp, &changeset))
				}
			}
		}
	}

	span.SetAttributes(attribute.Int("odata.batch.operations", len(report.Operations)))
	log.Info("inspected batch", slog.Int("operations", len(report.Operations)), slog.Int("changesets", report.Changesets))

	return report, nil
}

func (i *inspectorImpl) inspectOperation(part *payload.RequestPart, changeset *int) OperationReport {
	op := OperationReport{
		ContentID: part.ContentID(),
		Changeset: changeset,
		Method:    part.Request.Method,
		URI:       part.Request.URI,
	}

	if part.Request.Payload != nil {
		op.Payload = part.Request.Payload.Kind().String()
	}

	declared, err := ParseDeclaredVersions(part.Request.Headers.Get(HeaderDataServiceVersion), part.Request.Headers.Get(HeaderMaxDataServiceVersion))
	if err != nil {
		op.Error = err.Error()
		return op
	}

	u, err := uri.Parse(i.model, i.serviceRoot, part.Request.URI)
	if err != nil {
		op.Error = err.Error()
		return op
	}

	op.Report = i.report(u, declared)
	return op
}

func (i *inspectorImpl) EntitySets(ctx context.Context) []EntitySetInfo {
	_, span := tracer.Start(ctx, "entity-sets")
	defer span.End()

	sets := []EntitySetInfo{}

	for _, c := range i.model.Containers {
		for _, es := range c.EntitySets {
			sets = append(sets, EntitySetInfo{
				Container:  c.Name,
				Name:       es.Name,
				EntityType: es.EntityType.FullName(),
			})
		}
	}

	return sets
}

// ParseDeclaredVersions reads the version headers of a request
func ParseDeclaredVersions(dataServiceVersion, maxDataServiceVersion string) (DeclaredVersions, error) {
	dsv, err := version.Parse(dataServiceVersion)
	if err != nil {
		return DeclaredVersions{}, err
	}

	maxDsv, err := version.Parse(maxDataServiceVersion)
	if err != nil {
		return DeclaredVersions{}, err
	}

	return DeclaredVersions{DataServiceVersion: dsv, MaxDataServiceVersion: maxDsv}, nil
}
