package inspector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/edm/edmtest"
	odataerrors "github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/version"
	"github.com/matryer/is"
)

func TestInspectURI(t *testing.T) {
	is, ctx, app := setupInspectorTest(t, 0)

	report, err := app.InspectURI(ctx, "http://localhost:8080/northwind.svc/Orders(5)/Customer", DeclaredVersions{})
	is.NoErr(err)

	is.Equal(len(report.Segments), 4)
	is.Equal(report.Segments[2], SegmentInfo{Type: "Key", Value: "(5)"})
	is.Equal(report.Classification, []string{"entity"})
	is.Equal(report.ExpectedPayload, "EntityInstance")
	is.Equal(report.EntitySet, "Customers")
	is.Equal(report.EntityType, "NW.Customer")
	is.Equal(report.MinRequestVersion, "1.0")
	is.True(report.VersionError == nil)
}

func TestThatVersionConflictsAreReported(t *testing.T) {
	is, ctx, app := setupInspectorTest(t, 0)

	report, err := app.InspectURI(ctx, "Orders/NW.SpecialOrder", DeclaredVersions{})
	is.NoErr(err)

	is.Equal(report.Features, []string{"type cast"})
	is.Equal(report.MinRequestVersion, "3.0")
	is.True(report.VersionError != nil)
	is.Equal(report.VersionError.Code, string(version.MaxProtocolVersionTooLow))
}

func TestThatDeclaredVersionsAreValidated(t *testing.T) {
	is := is.New(t)

	declared, err := ParseDeclaredVersions("1.0", "")
	is.NoErr(err)

	_, ctx, app := setupInspectorTest(t, 0)

	report, err := app.InspectURI(ctx, "Customers?$select=CompanyName", declared)
	is.NoErr(err)
	is.Equal(report.VersionError.Code, string(version.RequestVersionTooLow))

	_, err = ParseDeclaredVersions("9.0", "")
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
}

func TestThatAMalformedURIFails(t *testing.T) {
	is, ctx, app := setupInspectorTest(t, 0)

	_, err := app.InspectURI(ctx, "Orders(5", DeclaredVersions{})
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
}

func TestInspectBatch(t *testing.T) {
	is, ctx, app := setupInspectorTest(t, 0)

	report, err := app.InspectBatch(ctx, batchContentType, []byte(batchBody))
	is.NoErr(err)

	is.Equal(report.Boundary, "batch_36522ad7")
	is.Equal(report.Changesets, 1)
	is.Equal(len(report.Operations), 3)

	first := report.Operations[0]
	is.Equal(first.ContentID, "1")
	is.True(first.Changeset == nil)
	is.Equal(first.Report.ExpectedPayload, "PrimitiveValue")

	update := report.Operations[1]
	is.Equal(*update.Changeset, 0)
	is.Equal(update.Payload, "PrimitiveValue")

	broken := report.Operations[2]
	is.True(strings.Contains(broken.Error, "Orders(1"))
}

func TestThatTooManyOperationsAreRejected(t *testing.T) {
	is, ctx, app := setupInspectorTest(t, 2)

	_, err := app.InspectBatch(ctx, batchContentType, []byte(batchBody))
	is.True(errors.Is(err, odataerrors.ErrMalformedInput))
}

func TestEntitySets(t *testing.T) {
	is, ctx, app := setupInspectorTest(t, 0)

	sets := app.EntitySets(ctx)
	is.Equal(len(sets), 4)
	is.Equal(sets[0], EntitySetInfo{Container: "NorthwindEntities", Name: "Customers", EntityType: "NW.Customer"})
}

func setupInspectorTest(t *testing.T, maxOperations int) (*is.I, context.Context, Inspector) {
	is := is.New(t)
	ctx := context.Background()

	cfg := &Config{
		Service: ServiceConfig{
			Name:               "northwind",
			ServiceRoot:        "http://localhost:8080/northwind.svc",
			MaxProtocolVersion: "2.0",
		},
		Batch: BatchConfig{MaxOperations: maxOperations},
	}

	app, err := New(ctx, cfg, edmtest.Northwind())
	is.NoErr(err)

	return is, ctx, app
}

const batchContentType string = "multipart/mixed; boundary=batch_36522ad7"

const batchBody string = "--batch_36522ad7\r\n" +
	"Content-Type: application/http\r\n" +
	"Content-Transfer-Encoding: binary\r\n" +
	"Content-Id: 1\r\n" +
	"\r\n" +
	"GET Customers('ALFKI')/CompanyName/$value HTTP/1.1\r\n" +
	"\r\n" +
	"\r\n" +
	"--batch_36522ad7\r\n" +
	"Content-Type: multipart/mixed; boundary=changeset_77162fcd\r\n" +
	"\r\n" +
	"--changeset_77162fcd\r\n" +
	"Content-Type: application/http\r\n" +
	"Content-Transfer-Encoding: binary\r\n" +
	"Content-Id: 2\r\n" +
	"\r\n" +
	"PUT Customers('ALFKI')/CompanyName/$value HTTP/1.1\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Alfreds Futterkiste\r\n" +
	"--changeset_77162fcd\r\n" +
	"Content-Type: application/http\r\n" +
	"Content-Transfer-Encoding: binary\r\n" +
	"Content-Id: 3\r\n" +
	"\r\n" +
	"DELETE Orders(1 HTTP/1.1\r\n" +
	"\r\n" +
	"\r\n" +
	"--changeset_77162fcd--\r\n" +
	"\r\n" +
	"--batch_36522ad7--\r\n"
