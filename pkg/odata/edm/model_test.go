package edm_test

import (
	"strings"
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/edm/edmtest"
	"github.com/matryer/is"
)

func TestLoadNorthwindModel(t *testing.T) {
	is := is.New(t)

	m, err := edm.LoadModel(strings.NewReader(edmtest.NorthwindYAML))
	is.NoErr(err)

	dc, ok := m.DefaultContainer()
	is.True(ok)
	is.Equal(dc.Name, "NorthwindEntities")
	is.Equal(len(dc.EntitySets), 4)
	is.Equal(len(m.EntityTypes), 5)
}

func TestThatNavigationMultiplicitiesAreResolved(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	order, ok := m.EntityType("NW.Order")
	is.True(ok)

	customer, ok := order.NavigationProperty("Customer")
	is.True(ok)
	is.Equal(customer.ToMultiplicity, edm.ZeroOrOne)
	is.Equal(customer.TargetType.FullName(), "NW.Customer")

	lines, _ := order.NavigationProperty("Lines")
	is.Equal(lines.ToMultiplicity, edm.Many)
}

func TestThatRelatedEntitySetIsFoundThroughTheTargetType(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	orders, _ := m.EntitySet("Orders")
	np, _ := orders.EntityType.NavigationProperty("Customer")

	related, ok := orders.RelatedEntitySet(np)
	is.True(ok)
	is.Equal(related.Name, "Customers")
}

func TestThatDerivedTypesInheritFromTheirBase(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	special, ok := m.EntityType("SpecialOrder")
	is.True(ok)

	_, ok = special.Property("OrderDate")
	is.True(ok) // base type property should be visible

	_, ok = special.NavigationProperty("Customer")
	is.True(ok)

	order, _ := m.EntityType("NW.Order")
	is.True(order.IsAssignableFrom(special))
	is.True(!special.IsAssignableFrom(order))

	is.Equal(len(special.KeyProperties()), 1)
	is.Equal(len(special.AllProperties()), 4)
}

func TestThatOpenTypesAndStreamsAreFlagged(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	product, _ := m.EntityType("NW.Product")
	is.True(product.IsOpen())
	is.True(product.IsMediaLinkEntry())

	customer, _ := m.EntityType("NW.Customer")
	photo, ok := customer.Property("Photo")
	is.True(ok)
	is.True(photo.IsStream())

	dims, _ := m.ComplexType("NW.Dimensions")
	is.True(dims.IsOpen())
}

func TestThatFunctionResultSetIsDerivedFromTheEntitySetPath(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	orders, _ := m.EntitySet("Orders")
	f, ok := m.Function("GetOrderCustomer")
	is.True(ok)
	is.Equal(f.Kind, edm.Function)
	is.True(f.ReturnsEntities())

	result, ok := f.ResultEntitySet(orders)
	is.True(ok)
	is.Equal(result.Name, "Customers")

	_, ok = f.ResultEntitySet(nil)
	is.True(!ok) // no binding set, no result set
}

func TestThatFunctionsCanBeQualifiedWithTheContainerName(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	f, ok := m.Function("NorthwindEntities.GetTopOrders")
	is.True(ok)
	is.Equal(f.FullName(), "NorthwindEntities.GetTopOrders")
	is.Equal(f.ReturnEntitySet.Name, "Orders")
	is.Equal(f.HTTPMethod, "GET")

	reset, _ := m.Function("ResetData")
	is.Equal(reset.Kind, edm.ServiceOperation)
	is.Equal(reset.HTTPMethod, "POST")
}

func TestResolveType(t *testing.T) {
	is := is.New(t)
	m := edmtest.Northwind()

	dt, err := m.ResolveType("Collection(NW.Address)", true)
	is.NoErr(err)
	is.Equal(dt.String(), "Collection(NW.Address)")

	_, isCollection := dt.(edm.CollectionDataType)
	is.True(isCollection)

	_, err = m.ResolveType("NW.Unknown", true)
	is.True(err != nil)
}

func TestThatUnknownReferencesFailToLoad(t *testing.T) {
	is := is.New(t)

	_, err := edm.LoadModel(strings.NewReader(brokenModel))
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "NW.Missing"))
}

const brokenModel string = `
namespace: NW
entityTypes:
  - name: Thing
    key: [ID]
    properties:
      - name: ID
        type: Edm.Int32
    navigationProperties:
      - name: Other
        type: NW.Missing
`
