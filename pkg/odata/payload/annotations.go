package payload

// Annotation is side data attached to an element
type Annotation interface {
	AnnotationName() string
}

// EquatableAnnotation is an annotation that takes part in element comparison
// and cloning. Annotations that do not implement it are ignored by both.
type EquatableAnnotation interface {
	Annotation
	EqualTo(other Annotation) bool
	CloneAnnotation() Annotation
}

type ContentTypeAnnotation struct {
	Value string
}

func (a *ContentTypeAnnotation) AnnotationName() string { return "ContentType" }

func (a *ContentTypeAnnotation) EqualTo(other Annotation) bool {
	o, ok := other.(*ContentTypeAnnotation)
	return ok && o.Value == a.Value
}

func (a *ContentTypeAnnotation) CloneAnnotation() Annotation {
	return &ContentTypeAnnotation{Value: a.Value}
}

type SelfLinkAnnotation struct {
	Value string
}

func (a *SelfLinkAnnotation) AnnotationName() string { return "SelfLink" }

func (a *SelfLinkAnnotation) EqualTo(other Annotation) bool {
	o, ok := other.(*SelfLinkAnnotation)
	return ok && o.Value == a.Value
}

func (a *SelfLinkAnnotation) CloneAnnotation() Annotation {
	return &SelfLinkAnnotation{Value: a.Value}
}

type EditLinkAnnotation struct {
	Value string
}

func (a *EditLinkAnnotation) AnnotationName() string { return "EditLink" }

func (a *EditLinkAnnotation) EqualTo(other Annotation) bool {
	o, ok := other.(*EditLinkAnnotation)
	return ok && o.Value == a.Value
}

func (a *EditLinkAnnotation) CloneAnnotation() Annotation {
	return &EditLinkAnnotation{Value: a.Value}
}

type ETagAnnotation struct {
	Value string
}

func (a *ETagAnnotation) AnnotationName() string { return "ETag" }

func (a *ETagAnnotation) EqualTo(other Annotation) bool {
	o, ok := other.(*ETagAnnotation)
	return ok && o.Value == a.Value
}

func (a *ETagAnnotation) CloneAnnotation() Annotation {
	return &ETagAnnotation{Value: a.Value}
}

// RawTextAnnotation overrides whatever a serializer would write for the element
type RawTextAnnotation struct {
	Text string
}

func (a *RawTextAnnotation) AnnotationName() string { return "RawText" }

func (a *RawTextAnnotation) EqualTo(other Annotation) bool {
	o, ok := other.(*RawTextAnnotation)
	return ok && o.Text == a.Text
}

func (a *RawTextAnnotation) CloneAnnotation() Annotation {
	return &RawTextAnnotation{Text: a.Text}
}

// XMLTreeAnnotation carries a literal XML fragment that replaces the element
// when it is written in an XML based format
type XMLTreeAnnotation struct {
	XML string
}

func (a *XMLTreeAnnotation) AnnotationName() string { return "XmlTree" }

func (a *XMLTreeAnnotation) EqualTo(other Annotation) bool {
	o, ok := other.(*XMLTreeAnnotation)
	return ok && o.XML == a.XML
}

func (a *XMLTreeAnnotation) CloneAnnotation() Annotation {
	return &XMLTreeAnnotation{XML: a.XML}
}

// ReplacedFromAnnotation points back at the element a node was produced from.
// It is a metadata-only reference and never compared or cloned.
type ReplacedFromAnnotation struct {
	Original Element
}

func (a *ReplacedFromAnnotation) AnnotationName() string { return "ReplacedFrom" }

func equatableAnnotations(e Element) []EquatableAnnotation {
	result := []EquatableAnnotation{}
	for _, a := range e.Annotations() {
		if ea, ok := a.(EquatableAnnotation); ok {
			result = append(result, ea)
		}
	}
	return result
}
