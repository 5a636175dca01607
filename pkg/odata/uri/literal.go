package uri

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
	"github.com/google/uuid"
)

// Decimal is an Edm.Decimal literal kept in its textual form
type Decimal string

const dateTimeLiteralLayout string = "2006-01-02T15:04:05.9999999"

// FormatLiteral renders a Go value as a URI literal. Strings are quoted with
// embedded quotes doubled, int64 gets an L suffix, float64 a D suffix, Decimal
// an M suffix. GUIDs, times and byte slices use the guid, datetime and X prefixes.
func FormatLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, uint8:
		return fmt.Sprintf("%d", v)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32) + "f"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64) + "D"
	case Decimal:
		return string(v) + "M"
	case uuid.UUID:
		return "guid'" + v.String() + "'"
	case time.Time:
		return "datetime'" + v.UTC().Format(dateTimeLiteralLayout) + "'"
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(v)) + "'"
	}

	return fmt.Sprint(value)
}

// ParseLiteral is the inverse of FormatLiteral
func ParseLiteral(text string) (any, error) {
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, errors.NewMalformedInputError("empty literal")
	}

	if text == "null" {
		return nil, nil
	}

	if text == "true" || text == "false" {
		return text == "true", nil
	}

	if prefix, quoted, ok := splitQuoted(text); ok {
		switch strings.ToLower(prefix) {
		case "":
			return strings.ReplaceAll(quoted, "''", "'"), nil
		case "guid":
			id, err := uuid.Parse(quoted)
			if err != nil {
				return nil, malformedLiteral(text, err)
			}
			return id, nil
		case "datetime":
			t, err := parseDateTime(quoted)
			if err != nil {
				return nil, malformedLiteral(text, err)
			}
			return t, nil
		case "x", "binary":
			b, err := hex.DecodeString(quoted)
			if err != nil {
				return nil, malformedLiteral(text, err)
			}
			return b, nil
		}
		return nil, errors.NewMalformedInputError(fmt.Sprintf("unknown literal prefix in %s", text))
	}

	last := text[len(text)-1]
	body := text[:len(text)-1]

	switch last {
	case 'L', 'l':
		i, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, malformedLiteral(text, err)
		}
		return i, nil
	case 'D', 'd':
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return nil, malformedLiteral(text, err)
		}
		return f, nil
	case 'f', 'F':
		f, err := strconv.ParseFloat(body, 32)
		if err != nil {
			return nil, malformedLiteral(text, err)
		}
		return float32(f), nil
	case 'M', 'm':
		if _, err := strconv.ParseFloat(body, 64); err != nil {
			return nil, malformedLiteral(text, err)
		}
		return Decimal(body), nil
	}

	if i, err := strconv.Atoi(text); err == nil {
		return i, nil
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}

	return nil, errors.NewMalformedInputError(fmt.Sprintf("unrecognized literal %s", text))
}

// splitQuoted splits prefix'value' into its prefix and unquoted value
func splitQuoted(text string) (string, string, bool) {
	if !strings.HasSuffix(text, "'") {
		return "", "", false
	}

	idx := strings.Index(text, "'")
	if idx == len(text)-1 {
		return "", "", false
	}

	return text[:idx], text[idx+1 : len(text)-1], true
}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range []string{dateTimeLiteralLayout, "2006-01-02T15:04", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime format %q", s)
}

func malformedLiteral(text string, err error) error {
	return errors.NewMalformedInputError(fmt.Sprintf("malformed literal %s: %s", text, err.Error()))
}
