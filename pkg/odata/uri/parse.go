package uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/odata-toolkit/pkg/odata/errors"
)

// Parse resolves a raw URI against the model. The service root is stripped
// from the raw value and kept as the first segment. Path components that
// cannot be resolved become unrecognized segments, while malformed literals
// and query options fail with errors.ErrMalformedInput.
func Parse(model *edm.Model, serviceRoot, raw string) (*URI, error) {
	path, query, _ := strings.Cut(raw, "?")

	u := &URI{}

	root := strings.TrimRight(serviceRoot, "/")
	if root != "" {
		if path == root || strings.HasPrefix(path, root+"/") {
			path = path[len(root):]
			u.Segments = append(u.Segments, ServiceRoot(root))
		} else if strings.Contains(path, "://") {
			return nil, errors.NewMalformedInputError(
				fmt.Sprintf("uri %s does not start with the service root %s", raw, serviceRoot),
			)
		}
	}

	rawSegments, err := splitPath(strings.Trim(path, "/"))
	if err != nil {
		return nil, err
	}

	r := &pathResolver{model: model}
	for _, rs := range rawSegments {
		unescaped, err := url.PathUnescape(rs)
		if err != nil {
			return nil, errors.NewMalformedInputError(fmt.Sprintf("malformed path segment %s", rs))
		}

		if err = r.resolve(unescaped); err != nil {
			return nil, err
		}
	}
	u.Segments = append(u.Segments, r.segments...)

	if err = parseQuery(model, u, query); err != nil {
		return nil, err
	}

	return u, nil
}

// splitPath splits on "/" outside of quotes and parentheses
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	parts := []string{}
	inQuote := false
	depth := 0
	start := 0

	for i, c := range path {
		switch {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '/' && depth == 0:
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}

	if inQuote || depth != 0 {
		return nil, errors.NewMalformedInputError(fmt.Sprintf("unbalanced quotes or parentheses in %s", path))
	}

	return append(parts, path[start:]), nil
}

// splitOutsideQuotes splits on sep when not inside a quoted literal
func splitOutsideQuotes(s string, sep rune) []string {
	parts := []string{}
	inQuote := false
	start := 0

	for i, c := range s {
		if c == '\'' {
			inQuote = !inQuote
		} else if c == sep && !inQuote {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

func splitIdentifier(raw string) (name, args string, hasParens bool, err error) {
	idx := strings.IndexByte(raw, '(')
	if idx < 0 {
		return raw, "", false, nil
	}

	if !strings.HasSuffix(raw, ")") {
		return "", "", false, errors.NewMalformedInputError(fmt.Sprintf("malformed path segment %s", raw))
	}

	return raw[:idx], raw[idx+1 : len(raw)-1], true, nil
}

type pathResolver struct {
	model    *edm.Model
	segments []Segment

	entityType   *edm.EntityType
	complexType  *edm.ComplexType
	isCollection bool
	unrecognized bool
}

func (r *pathResolver) add(s Segment) {
	r.segments = append(r.segments, s)
}

func (r *pathResolver) clearContext() {
	r.entityType = nil
	r.complexType = nil
	r.isCollection = false
}

func (r *pathResolver) markUnrecognized(raw string) {
	r.add(Unrecognized(raw))
	r.clearContext()
	r.unrecognized = true
}

func (r *pathResolver) resolve(raw string) error {
	if r.unrecognized {
		r.add(Unrecognized(raw))
		return nil
	}

	if sys, ok := LookupSystemSegment(raw); ok {
		r.add(sys)
		if sys != Ref && sys != Links {
			r.clearContext()
		}
		return nil
	}

	name, args, hasParens, err := splitIdentifier(raw)
	if err != nil {
		return err
	}

	switch {
	case len(r.segments) == 0:
		return r.resolveFirst(raw, name, args, hasParens)
	case r.entityType != nil:
		return r.resolveOnEntity(raw, name, args, hasParens)
	case r.complexType != nil && !hasParens:
		if prop, ok := r.complexType.Property(name); ok {
			r.addProperty(prop)
			return nil
		}
		if r.complexType.IsOpen() {
			r.add(OpenProperty(name))
			r.clearContext()
			return nil
		}
	}

	r.markUnrecognized(raw)
	return nil
}

func (r *pathResolver) resolveFirst(raw, name, args string, hasParens bool) error {
	if es, ok := r.model.EntitySet(name); ok {
		seg := EntitySet(es)
		seg.QualifyWithContainer = strings.Contains(name, ".")
		r.add(seg)

		r.clearContext()
		r.entityType = es.EntityType
		r.isCollection = true

		return r.addKey(args)
	}

	if f, ok := r.model.Function(name); ok && !f.IsBindable {
		return r.addFunction(f, strings.Contains(name, "."), args, hasParens)
	}

	r.markUnrecognized(raw)
	return nil
}

func (r *pathResolver) resolveOnEntity(raw, name, args string, hasParens bool) error {
	current := r.entityType

	if !r.isCollection {
		if np, ok := current.NavigationProperty(name); ok {
			r.add(Navigation(np))
			r.clearContext()
			r.entityType = np.TargetType
			r.isCollection = np.ToMultiplicity == edm.Many
			return r.addKey(args)
		}

		if prop, ok := current.Property(name); ok && !hasParens {
			r.addProperty(prop)
			return nil
		}
	}

	if strings.Contains(name, ".") {
		if et, ok := r.model.EntityType(name); ok && current.IsAssignableFrom(et) {
			r.add(TypeCast(et))
			r.entityType = et
			return r.addKey(args)
		}

		if f, ok := r.model.Function(name); ok && f.IsBindable {
			return r.addFunction(f, true, args, hasParens)
		}
	}

	if f, ok := r.model.Function(name); ok && f.IsBindable {
		return r.addFunction(f, false, args, hasParens)
	}

	if !r.isCollection && current.IsOpen() && !hasParens {
		r.add(OpenProperty(name))
		r.clearContext()
		return nil
	}

	r.markUnrecognized(raw)
	return nil
}

func (r *pathResolver) addKey(args string) error {
	if strings.TrimSpace(args) == "" {
		return nil
	}

	if !r.isCollection {
		return errors.NewMalformedInputError(fmt.Sprintf("key (%s) applied to a single entity", args))
	}

	key, err := parseKey(args, r.entityType)
	if err != nil {
		return err
	}

	r.add(key)
	r.isCollection = false
	return nil
}

func parseKey(args string, et *edm.EntityType) (*KeySegment, error) {
	parts := splitOutsideQuotes(args, ',')

	if len(parts) == 1 && !strings.Contains(unquotedPrefix(parts[0]), "=") {
		value, err := ParseLiteral(parts[0])
		if err != nil {
			return nil, err
		}

		name := ""
		if keys := et.KeyProperties(); len(keys) > 0 {
			name = keys[0].Name
		}

		return Key(KeyPair(name, value)), nil
	}

	values, err := parseNamedValues(parts)
	if err != nil {
		return nil, err
	}

	return Key(values...), nil
}

// unquotedPrefix returns the part of s before any quoted literal
func unquotedPrefix(s string) string {
	if idx := strings.IndexByte(s, '\''); idx >= 0 {
		return s[:idx]
	}
	return s
}

func parseNamedValues(parts []string) ([]KeyValue, error) {
	values := make([]KeyValue, 0, len(parts))

	for _, part := range parts {
		name, literal, found := strings.Cut(part, "=")
		if !found || strings.TrimSpace(name) == "" {
			return nil, errors.NewMalformedInputError(fmt.Sprintf("expected name=value but found %s", part))
		}

		value, err := ParseLiteral(literal)
		if err != nil {
			return nil, err
		}

		values = append(values, KeyPair(strings.TrimSpace(name), value))
	}

	return values, nil
}

func (r *pathResolver) addProperty(prop *edm.Property) {
	r.clearContext()

	if prop.IsStream() {
		r.add(NamedStream(prop))
		return
	}

	seg := Property(prop)
	r.add(seg)

	if seg.Kind == ComplexPropertyKind {
		r.complexType = prop.Type.(edm.ComplexDataType).Type
	}
}

func (r *pathResolver) addFunction(f *edm.FunctionImport, qualified bool, args string, hasParens bool) error {
	seg := Function(f)
	seg.UseParentheses = hasParens
	seg.QualifyWithContainer = qualified
	r.add(seg)

	if strings.TrimSpace(args) != "" {
		values, err := parseNamedValues(splitOutsideQuotes(args, ','))
		if err != nil {
			return err
		}
		r.add(Parameters(values...))
	}

	r.clearContext()

	dt, isCollection := returnShape(f)
	switch t := dt.(type) {
	case edm.EntityDataType:
		r.entityType = t.Type
		r.isCollection = isCollection
		if _, et, ok := ExpectedEntitySetAndType(r.segments); ok && et != nil {
			r.entityType = et
		}
	case edm.ComplexDataType:
		if !isCollection {
			r.complexType = t.Type
		}
	}

	return nil
}

func parseQuery(model *edm.Model, u *URI, query string) error {
	if query == "" {
		return nil
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}

		name, raw, _ := strings.Cut(pair, "=")

		value, err := url.PathUnescape(raw)
		if err != nil {
			return errors.NewMalformedInputError(fmt.Sprintf("malformed query option %s", pair))
		}

		switch name {
		case "$filter":
			u.Filter = value
		case "$orderby":
			u.OrderBy = value
		case "$format":
			u.Format = value
		case "$skiptoken":
			u.SkipToken = value
		case "$inlinecount":
			u.InlineCount = value
		case "$top", "$skip":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return errors.NewMalformedInputError(fmt.Sprintf("%s must be a non negative integer, found %s", name, value))
			}
			if name == "$top" {
				u.Top = &n
			} else {
				u.Skip = &n
			}
		case "$expand", "$select":
			_, et, ok := ExpectedEntitySetAndType(u.Segments)
			if !ok {
				return errors.NewMalformedInputError(fmt.Sprintf("%s=%s requires a path that addresses entities", name, value))
			}

			paths, err := ParseSegmentPaths(model, et, value)
			if err != nil {
				return err
			}

			if name == "$expand" {
				u.Expand = paths
			} else {
				u.Select = paths
			}
		default:
			if strings.HasPrefix(name, "$") {
				return errors.NewMalformedInputError(fmt.Sprintf("unknown system query option %s", name))
			}
			u.CustomOptions = append(u.CustomOptions, QueryOption{Name: name, Value: value})
		}
	}

	return nil
}

// ParseSegmentPaths resolves the value of a $select or $expand query option
// against an entity type
func ParseSegmentPaths(model *edm.Model, et *edm.EntityType, raw string) ([]SegmentPath, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	paths := []SegmentPath{}

	for _, item := range strings.Split(raw, ",") {
		path := SegmentPath{}
		var current edm.StructuralType = et

		for _, name := range strings.Split(strings.TrimSpace(item), "/") {
			seg, next, ok := resolvePathStep(model, current, name)
			if !ok {
				return nil, errors.NewMalformedInputError(fmt.Sprintf("unable to resolve segment %q in %s", name, raw))
			}
			path = append(path, seg)
			current = next
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func resolvePathStep(model *edm.Model, current edm.StructuralType, name string) (Segment, edm.StructuralType, bool) {
	if name == All.String() {
		return All, nil, true
	}

	switch t := current.(type) {
	case *edm.EntityType:
		if np, ok := t.NavigationProperty(name); ok {
			return Navigation(np), np.TargetType, true
		}
		if prop, ok := t.Property(name); ok {
			return Property(prop), structuralTypeOf(prop.Type), true
		}
		if et, ok := model.EntityType(name); ok && strings.Contains(name, ".") && t.IsAssignableFrom(et) {
			return TypeCast(et), et, true
		}
	case *edm.ComplexType:
		if prop, ok := t.Property(name); ok {
			return Property(prop), structuralTypeOf(prop.Type), true
		}
	}

	if current != nil && current.IsOpen() && name != "" {
		return OpenProperty(name), nil, true
	}

	return nil, nil, false
}
