// Package edmtest provides a small Northwind style model for tests
package edmtest

import (
	"strings"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
)

// Northwind returns a freshly loaded model. It panics if the embedded
// description cannot be loaded.
func Northwind() *edm.Model {
	m, err := edm.LoadModel(strings.NewReader(NorthwindYAML))
	if err != nil {
		panic(err)
	}
	return m
}

const NorthwindYAML string = `
namespace: NW
complexTypes:
  - name: Address
    properties:
      - name: Street
        type: Edm.String
      - name: City
        type: Edm.String
      - name: Country
        type: Edm.String
  - name: Dimensions
    open: true
    properties:
      - name: Height
        type: Edm.Double
      - name: Width
        type: Edm.Double
entityTypes:
  - name: Customer
    key: [CustomerID]
    properties:
      - name: CustomerID
        type: Edm.String
        nullable: false
      - name: CompanyName
        type: Edm.String
      - name: Address
        type: NW.Address
      - name: Phones
        type: Collection(Edm.String)
      - name: Addresses
        type: Collection(NW.Address)
      - name: Photo
        type: Edm.Stream
    navigationProperties:
      - name: Orders
        type: NW.Order
        multiplicity: "*"
  - name: Order
    key: [OrderID]
    properties:
      - name: OrderID
        type: Edm.Int32
        nullable: false
      - name: OrderDate
        type: Edm.DateTime
      - name: ShipAddress
        type: NW.Address
    navigationProperties:
      - name: Customer
        type: NW.Customer
        multiplicity: "0..1"
      - name: Lines
        type: NW.OrderLine
        multiplicity: "*"
  - name: SpecialOrder
    baseType: NW.Order
    properties:
      - name: Discount
        type: Edm.Decimal
  - name: OrderLine
    key: [OrderID, ProductID]
    properties:
      - name: OrderID
        type: Edm.Int32
        nullable: false
      - name: ProductID
        type: Edm.Int32
        nullable: false
      - name: Quantity
        type: Edm.Int16
    navigationProperties:
      - name: Order
        type: NW.Order
        multiplicity: "1"
      - name: Product
        type: NW.Product
        multiplicity: "0..1"
  - name: Product
    key: [ProductID]
    open: true
    hasStream: true
    properties:
      - name: ProductID
        type: Edm.Int32
        nullable: false
      - name: Name
        type: Edm.String
      - name: Dimensions
        type: NW.Dimensions
    navigationProperties:
      - name: Lines
        type: NW.OrderLine
        multiplicity: "*"
containers:
  - name: NorthwindEntities
    default: true
    entitySets:
      - name: Customers
        entityType: NW.Customer
      - name: Orders
        entityType: NW.Order
      - name: OrderLines
        entityType: NW.OrderLine
      - name: Products
        entityType: NW.Product
    functions:
      - name: GetTopOrders
        returnType: Collection(NW.Order)
        entitySet: Orders
        parameters:
          - name: count
            type: Edm.Int32
      - name: GetBestCustomer
        returnType: NW.Customer
        entitySet: Customers
      - name: GetCustomerCount
        returnType: Edm.Int32
      - name: GetCityNames
        returnType: Collection(Edm.String)
      - name: GetAddresses
        returnType: Collection(NW.Address)
      - name: ResetData
        method: POST
      - name: GetCustomerAddress
        kind: function
        bindable: true
        returnType: NW.Address
        parameters:
          - name: customer
            type: NW.Customer
      - name: GetOrderCustomer
        kind: function
        bindable: true
        returnType: NW.Customer
        entitySetPath: order/Customer
        parameters:
          - name: order
            type: NW.Order
      - name: ShipOrder
        kind: action
        bindable: true
        parameters:
          - name: order
            type: NW.Order
`
