package uri

import (
	"strconv"
	"strings"
)

// QueryOption is a custom, non system, query option
type QueryOption struct {
	Name  string
	Value string
}

// URI is a resolved resource path together with its query options
type URI struct {
	Segments []Segment

	Filter      string
	OrderBy     string
	Top         *int
	Skip        *int
	Format      string
	SkipToken   string
	InlineCount string

	Expand []SegmentPath
	Select []SegmentPath

	CustomOptions []QueryOption
}

// New creates a URI from a sequence of segments
func New(segments ...Segment) *URI {
	return &URI{Segments: segments}
}

// Path renders the segments without any query options
func (u *URI) Path() string {
	var sb strings.Builder

	for _, s := range u.Segments {
		if s.HasPrecedingSlash() && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "/") {
			sb.WriteString("/")
		}
		sb.WriteString(s.String())
	}

	return sb.String()
}

// QueryString renders the query options in their canonical order, without the
// leading question mark
func (u *URI) QueryString() string {
	options := []string{}

	add := func(name, value string) {
		if value != "" {
			options = append(options, name+"="+value)
		}
	}

	add("$filter", u.Filter)
	add("$expand", joinSegmentPaths(u.Expand))
	add("$orderby", u.OrderBy)
	if u.Skip != nil {
		add("$skip", strconv.Itoa(*u.Skip))
	}
	if u.Top != nil {
		add("$top", strconv.Itoa(*u.Top))
	}
	add("$skiptoken", u.SkipToken)
	add("$inlinecount", u.InlineCount)
	add("$select", joinSegmentPaths(u.Select))
	add("$format", u.Format)

	for _, opt := range u.CustomOptions {
		options = append(options, opt.Name+"="+opt.Value)
	}

	return strings.Join(options, "&")
}

func (u *URI) String() string {
	path := u.Path()
	if query := u.QueryString(); query != "" {
		return path + "?" + query
	}
	return path
}

// WithTop sets $top and returns the URI for chaining
func (u *URI) WithTop(top int) *URI {
	u.Top = &top
	return u
}

func (u *URI) WithSkip(skip int) *URI {
	u.Skip = &skip
	return u
}

// CustomOption returns the value of a custom query option
func (u *URI) CustomOption(name string) (string, bool) {
	for _, opt := range u.CustomOptions {
		if opt.Name == name {
			return opt.Value, true
		}
	}
	return "", false
}

func joinSegmentPaths(paths []SegmentPath) string {
	rendered := make([]string, 0, len(paths))
	for _, p := range paths {
		rendered = append(rendered, p.String())
	}
	return strings.Join(rendered, ",")
}
