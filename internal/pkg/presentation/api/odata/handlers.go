package odata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/diwise/odata-toolkit/internal/pkg/application/inspector"
	"github.com/diwise/odata-toolkit/internal/pkg/presentation/api/odata/auth"
	odataerrors "github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("odata-inspector/api")

const (
	TraceAttributeDataServiceVersion    string = "odata.dataserviceversion"
	TraceAttributeMaxDataServiceVersion string = "odata.maxdataserviceversion"
)

func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, app inspector.Inspector) error {

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/odata/v1", func(r chi.Router) {
		r.Use(
			Logger(logging.GetFromContext(ctx)),
			VersionMiddleware(),
		)

		r.Get("/inspect", NewInspectURIHandler(app, authenticator))
		r.With(RequiredContentTypes([]string{"multipart/mixed"})).Post("/$batch", NewInspectBatchHandler(app, authenticator))
		r.Get("/$metadata/entitysets", NewRetrieveEntitySetsHandler(app, authenticator))
	})

	return nil
}

type versionContextKey struct {
	name string
}

var versionCtxKey = &versionContextKey{"odata-versions"}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequiredContentTypes(validTypes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType := r.Header.Get("Content-Type")

			for _, t := range validTypes {
				if strings.HasPrefix(contentType, t) {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		})
	}
}

// VersionMiddleware packs the declared protocol versions of a request into the context
func VersionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dsv := r.Header.Get(inspector.HeaderDataServiceVersion)
			maxDsv := r.Header.Get(inspector.HeaderMaxDataServiceVersion)

			declared, err := inspector.ParseDeclaredVersions(dsv, maxDsv)
			if err != nil {
				odataerrors.ReportNewBadRequestData(w, err.Error(), traceID(trace.SpanFromContext(r.Context())))
				return
			}

			if labeler, found := otelhttp.LabelerFromContext(r.Context()); found {
				labeler.Add(
					attribute.String(TraceAttributeDataServiceVersion, declared.DataServiceVersion.String()),
					attribute.String(TraceAttributeMaxDataServiceVersion, declared.MaxDataServiceVersion.String()),
				)
			}

			ctx := context.WithValue(r.Context(), versionCtxKey, declared)

			ctx = logging.NewContextWithLogger(
				ctx,
				logging.GetFromContext(r.Context()),
				"dataServiceVersion",
				declared.DataServiceVersion.String(),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDeclaredVersionsFromContext extracts the declared versions, if any, from the provided context
func GetDeclaredVersionsFromContext(ctx context.Context) inspector.DeclaredVersions {
	declared, ok := ctx.Value(versionCtxKey).(inspector.DeclaredVersions)

	if !ok {
		return inspector.DeclaredVersions{}
	}

	return declared
}

func NewInspectURIHandler(app inspector.Inspector, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "inspect-uri")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		raw := r.URL.Query().Get("uri")
		if raw == "" {
			err = fmt.Errorf("the uri query parameter is required")
			odataerrors.ReportNewBadRequestData(w, err.Error(), traceID(span))
			return
		}

		report, err := app.InspectURI(ctx, raw, GetDeclaredVersionsFromContext(ctx))
		if err != nil {
			odataerrors.ReportError(w, err, traceID(span))
			return
		}

		err = authenticator.CheckAccess(ctx, r, entitySetsOf(report))
		if err != nil {
			odataerrors.ReportUnauthorizedRequest(w, err.Error(), traceID(span))
			return
		}

		writeJSON(ctx, w, report)
	})
}

func NewInspectBatchHandler(app inspector.Inspector, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "inspect-batch")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			odataerrors.ReportNewInvalidRequest(w, fmt.Sprintf("unable to read request body: %s", err.Error()), traceID(span))
			return
		}

		report, err := app.InspectBatch(ctx, r.Header.Get("Content-Type"), body)
		if err != nil {
			odataerrors.ReportError(w, err, traceID(span))
			return
		}

		entitySets := []string{}
		for _, op := range report.Operations {
			entitySets = append(entitySets, entitySetsOf(op.Report)...)
		}

		err = authenticator.CheckAccess(ctx, r, entitySets)
		if err != nil {
			odataerrors.ReportUnauthorizedRequest(w, err.Error(), traceID(span))
			return
		}

		writeJSON(ctx, w, report)
	})
}

func NewRetrieveEntitySetsHandler(app inspector.Inspector, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-entity-sets")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = authenticator.CheckAccess(ctx, r, nil)
		if err != nil {
			odataerrors.ReportUnauthorizedRequest(w, err.Error(), traceID(span))
			return
		}

		writeJSON(ctx, w, app.EntitySets(ctx))
	})
}

func entitySetsOf(report *inspector.URIReport) []string {
	if report == nil || report.EntitySet == "" {
		return []string{}
	}
	return []string{report.EntitySet}
}

func traceID(span trace.Span) string {
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func writeJSON(ctx context.Context, w http.ResponseWriter, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		logging.GetFromContext(ctx).Error("failed to marshal response", "err", err.Error())
		odataerrors.ReportNewInternalError(w, err.Error(), "")
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
