package payload

import (
	"fmt"

	"github.com/diwise/odata-toolkit/pkg/odata/errors"
)

// Element is a node in a payload tree
type Element interface {
	Kind() Kind

	Annotations() []Annotation
	Annotate(annotations ...Annotation)
	RemoveAnnotations(match func(Annotation) bool)

	Accept(v Visitor)
}

type elementBase struct {
	annotations []Annotation
}

func (b *elementBase) Annotations() []Annotation {
	return b.annotations
}

func (b *elementBase) Annotate(annotations ...Annotation) {
	b.annotations = append(b.annotations, annotations...)
}

func (b *elementBase) RemoveAnnotations(match func(Annotation) bool) {
	kept := b.annotations[:0]
	for _, a := range b.annotations {
		if !match(a) {
			kept = append(kept, a)
		}
	}
	b.annotations = kept
}

// FindAnnotation returns the first annotation of type A on the element
func FindAnnotation[A Annotation](e Element) (A, bool) {
	for _, a := range e.Annotations() {
		if typed, ok := a.(A); ok {
			return typed, true
		}
	}

	var zero A
	return zero, false
}

// TypedValue is embedded by all value bearing elements. The type name and the
// null flag are independent of whether a concrete value is present.
type TypedValue struct {
	FullTypeName string
	IsNull       bool
}

func (tv *TypedValue) TypeName() string {
	return tv.FullTypeName
}

func (tv *TypedValue) SetTypeName(fullTypeName string) {
	tv.FullTypeName = fullTypeName
}

func (tv *TypedValue) SetNull(isNull bool) {
	tv.IsNull = isNull
}

// Once holds a value that may be assigned at most once
type Once[T any] struct {
	value T
	set   bool
}

// Set assigns the value, or fails with an invalid operation error if a value
// has already been assigned
func (o *Once[T]) Set(value T) error {
	if o.set {
		return errors.NewInvalidOperationError(fmt.Sprintf("a %T value has already been assigned", value))
	}

	o.value = value
	o.set = true

	return nil
}

func (o *Once[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o *Once[T]) IsSet() bool {
	return o.set
}

// Value returns the assigned value or the zero value of T
func (o *Once[T]) Value() T {
	return o.value
}
