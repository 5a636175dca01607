package version

import (
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/edm/edmtest"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
	"github.com/matryer/is"
)

var northwind = edmtest.Northwind()

func parse(t *testing.T, raw string) (*is.I, *uri.URI) {
	is := is.New(t)

	u, err := uri.Parse(northwind, "", raw)
	is.NoErr(err)

	return is, u
}

func TestParseVersion(t *testing.T) {
	is := is.New(t)

	v, err := Parse("2.0;NetFx")
	is.NoErr(err)
	is.Equal(v, V2)

	v, err = Parse("")
	is.NoErr(err)
	is.Equal(v, Unspecified)

	_, err = Parse("4.01")
	is.True(err != nil)

	is.Equal(V3.String(), "3.0")
	is.Equal(Max(V1, V3), V3)
}

func TestThatAPlainRequestIsVersionOne(t *testing.T) {
	is, u := parse(t, "Customers('ALFKI')/Orders?$expand=Lines&$top=5")

	request, err := MinRequestVersion(u, V1)
	is.True(err == nil)
	is.Equal(request, V1)

	response, err := MinResponseVersion(u, V1)
	is.True(err == nil)
	is.Equal(response, V1)
}

func TestThatSelectRequiresVersionTwo(t *testing.T) {
	is, u := parse(t, "Customers?$select=CompanyName")

	request, err := MinRequestVersion(u, Unspecified)
	is.True(err == nil)
	is.Equal(request, V2)
}

func TestThatExceedingTheMaximumIsAnExpectedError(t *testing.T) {
	is, u := parse(t, "Orders/NW.SpecialOrder")

	request, err := MinRequestVersion(u, V2)
	is.Equal(request, V3) // computed version should not be clamped
	is.True(err != nil)
	is.Equal(err.Code, MaxProtocolVersionTooLow)
	is.Equal(err.Feature, "type cast")
	is.Equal(err.Declared, V2)
}

func TestThatActionsRequireVersionThree(t *testing.T) {
	is, u := parse(t, "Orders(1)/ShipOrder")

	request, _ := MinRequestVersion(u, Latest)
	is.Equal(request, V3)

	features := Features(u)
	is.Equal(len(features), 1)
	is.Equal(features[0].Name, "action or function")
}

func TestThatServiceOperationsDoNotRaiseTheVersion(t *testing.T) {
	is, u := parse(t, "GetTopOrders?count=3")

	request, _ := MinRequestVersion(u, Latest)
	is.Equal(request, V1)
}

func TestThatCollectionValuesRaiseOnlyTheResponseVersion(t *testing.T) {
	is, u := parse(t, "GetCityNames")

	request, _ := MinRequestVersion(u, Latest)
	response, _ := MinResponseVersion(u, Latest)

	is.Equal(request, V1)
	is.Equal(response, V3)
}

func TestThatAnyAndAllRaiseTheRequestVersion(t *testing.T) {
	is, u := parse(t, "Customers?$filter=Orders/any(o: o/OrderID gt 10)")

	request, _ := MinRequestVersion(u, Latest)
	is.Equal(request, V3)
}

func TestThatOpenPropertiesRequireVersionThree(t *testing.T) {
	is, u := parse(t, "Products(1)/Color")

	request, _ := MinRequestVersion(u, Latest)
	is.Equal(request, V3)
}

func TestValidateRequestVersions(t *testing.T) {
	is, u := parse(t, "Customers?$inlinecount=allpages")

	is.True(ValidateRequestVersions(u, V3, V2, V3) == nil)

	err := ValidateRequestVersions(u, V3, V1, V3)
	is.True(err != nil)
	is.Equal(err.Code, RequestVersionTooLow)
	is.Equal(err.Required, V2)
	is.Equal(err.Declared, V1)

	err = ValidateRequestVersions(u, V3, V2, V1)
	is.True(err != nil)
	is.Equal(err.Code, ResponseVersionTooLow)
	is.Equal(err.Feature, "$inlinecount")

	err = ValidateRequestVersions(u, V1, V2, V3)
	is.Equal(err.Code, MaxProtocolVersionTooLow)

	is.True(ValidateRequestVersions(u, V3, Unspecified, Unspecified) == nil)
}
