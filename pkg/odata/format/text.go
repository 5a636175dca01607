package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/diwise/odata-toolkit/pkg/odata/payload"
	"github.com/diwise/odata-toolkit/pkg/odata/uri"
	"github.com/google/uuid"
)

const (
	TextPlain   string = "text/plain"
	OctetStream string = "application/octet-stream"
)

// TextStrategy reads and writes single primitive values such as the bodies
// of $value and $count requests
type TextStrategy struct{}

func NewTextStrategy() *TextStrategy {
	return &TextStrategy{}
}

func (*TextStrategy) MediaType() string { return TextPlain }

func (*TextStrategy) Serialize(e payload.Element, charset string) ([]byte, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "us-ascii":
	default:
		return nil, errors.NewNotSupportedError(fmt.Sprintf("charset %s is not supported for %s", charset, TextPlain))
	}

	pv, ok := e.(*payload.PrimitiveValue)
	if !ok {
		return nil, errors.NewInvalidOperationError(fmt.Sprintf("%s can only hold a primitive value, not %s", TextPlain, kindName(e)))
	}

	if pv.IsNull || pv.Value == nil {
		return []byte{}, nil
	}

	switch v := pv.Value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return nil, errors.NewInvalidOperationError(fmt.Sprintf("binary values should be written as %s", OctetStream))
	case time.Time:
		return []byte(v.UTC().Format("2006-01-02T15:04:05.9999999")), nil
	case uri.Decimal:
		return []byte(v), nil
	}

	return []byte(fmt.Sprint(pv.Value)), nil
}

func (*TextStrategy) Deserialize(body []byte, ctx Context) (payload.Element, error) {
	typeName := primitiveTypeOf(ctx)
	text := string(body)

	value, err := convert(typeName, text)
	if err != nil {
		return nil, errors.NewMalformedInputError(fmt.Sprintf("%q is not a valid %s", text, typeName))
	}

	return payload.NewPrimitiveValue(typeName, value), nil
}

// primitiveTypeOf returns the declared type of the value addressed by the
// context, defaulting to Edm.String
func primitiveTypeOf(ctx Context) string {
	if uri.IsCount(ctx.Segments) {
		return edm.EdmInt64
	}

	for i := len(ctx.Segments) - 1; i >= 0; i-- {
		if ps, ok := ctx.Segments[i].(*uri.PropertySegment); ok {
			if prim, ok := ps.Property.Type.(edm.PrimitiveDataType); ok {
				return prim.Name
			}
			break
		}
	}

	return edm.EdmString
}

func convert(typeName, text string) (any, error) {
	switch typeName {
	case edm.EdmBoolean:
		return strconv.ParseBool(text)
	case edm.EdmByte, edm.EdmSByte, edm.EdmInt16, edm.EdmInt32:
		return strconv.Atoi(text)
	case edm.EdmInt64:
		return strconv.ParseInt(text, 10, 64)
	case edm.EdmSingle, edm.EdmDouble:
		return strconv.ParseFloat(text, 64)
	case edm.EdmDecimal:
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return nil, err
		}
		return uri.Decimal(text), nil
	case edm.EdmGuid:
		return uuid.Parse(text)
	case edm.EdmDateTime:
		return time.Parse("2006-01-02T15:04:05.9999999", text)
	}

	return text, nil
}

func kindName(e payload.Element) string {
	if e == nil {
		return "nil"
	}
	return e.Kind().String()
}

// BinaryStrategy reads and writes raw bytes such as media resources and named streams
type BinaryStrategy struct{}

func NewBinaryStrategy() *BinaryStrategy {
	return &BinaryStrategy{}
}

func (*BinaryStrategy) MediaType() string { return OctetStream }

func (*BinaryStrategy) Serialize(e payload.Element, _ string) ([]byte, error) {
	pv, ok := e.(*payload.PrimitiveValue)
	if !ok {
		return nil, errors.NewInvalidOperationError(fmt.Sprintf("%s can only hold a primitive value, not %s", OctetStream, kindName(e)))
	}

	switch v := pv.Value.(type) {
	case []byte:
		return v, nil
	case nil:
		return []byte{}, nil
	}

	return nil, errors.NewInvalidOperationError(fmt.Sprintf("%s can only hold binary values, not %T", OctetStream, pv.Value))
}

func (*BinaryStrategy) Deserialize(body []byte, _ Context) (payload.Element, error) {
	return payload.NewPrimitiveValue(edm.EdmBinary, append([]byte{}, body...)), nil
}
