package document

import "fmt"

// FieldKind is the closed set of field value variants a Document can hold.
//
// Extensions go through a new FieldKind and constructor, never through an
// open subtype hierarchy.
type FieldKind uint8

const (
	// KindText marks a text field value.
	KindText FieldKind = iota
	// KindInt marks a 64-bit signed integer field value.
	KindInt
	// KindFloat marks a 64-bit float field value.
	KindFloat
	// KindBool marks a boolean field value.
	KindBool
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// FieldValue is a tagged union over FieldKind; exactly one member is
// populated, selected by Kind.
type FieldValue struct {
	Kind FieldKind

	text string
	i    int64
	f    float64
	b    bool
}

// Text constructs a text field value.
func Text(v string) FieldValue { return FieldValue{Kind: KindText, text: v} }

// Int constructs a 64-bit signed integer field value.
func Int(v int64) FieldValue { return FieldValue{Kind: KindInt, i: v} }

// Float constructs a 64-bit float field value.
func Float(v float64) FieldValue { return FieldValue{Kind: KindFloat, f: v} }

// Bool constructs a boolean field value.
func Bool(v bool) FieldValue { return FieldValue{Kind: KindBool, b: v} }

// AsText returns the text payload and whether Kind is KindText.
func (v FieldValue) AsText() (string, bool) { return v.text, v.Kind == KindText }

// AsInt returns the integer payload and whether Kind is KindInt.
func (v FieldValue) AsInt() (int64, bool) { return v.i, v.Kind == KindInt }

// AsFloat returns the float payload and whether Kind is KindFloat.
func (v FieldValue) AsFloat() (float64, bool) { return v.f, v.Kind == KindFloat }

// AsBool returns the boolean payload and whether Kind is KindBool.
func (v FieldValue) AsBool() (bool, bool) { return v.b, v.Kind == KindBool }

// Size returns the serialized size in bytes of the value, for cache
// accounting (document.Document.Size sums these across fields).
func (v FieldValue) Size() int {
	switch v.Kind {
	case KindText:
		return len(v.text)
	case KindInt, KindFloat:
		return 8
	case KindBool:
		return 1
	default:
		return 0
	}
}

// Field is a single name/value pair within a Document, retained in
// insertion order.
type Field struct {
	Name  string
	Value FieldValue
}

// Document is a caller-supplied record: a stable string identifier plus an
// ordered mapping from field name to field value. Field name ordering is
// insertion order and is observable through Fields, but never affects
// indexing or search semantics.
type Document struct {
	id     string
	fields []Field
	byName map[string]int
}

// New creates an empty Document with the given identifier.
func New(id string) *Document {
	return &Document{
		id:     id,
		byName: make(map[string]int),
	}
}

// ID returns the document's stable identifier.
func (d *Document) ID() string { return d.id }

// Set adds or overwrites a field by name and returns the receiver, so calls
// can be chained: document.New("1").Set("title", document.Text("hi")).
func (d *Document) Set(name string, value FieldValue) *Document {
	if idx, ok := d.byName[name]; ok {
		d.fields[idx].Value = value
		return d
	}
	d.byName[name] = len(d.fields)
	d.fields = append(d.fields, Field{Name: name, Value: value})
	return d
}

// WithText is a chainable convenience for Set(name, document.Text(v)).
func (d *Document) WithText(name, v string) *Document { return d.Set(name, Text(v)) }

// WithInt is a chainable convenience for Set(name, document.Int(v)).
func (d *Document) WithInt(name string, v int64) *Document { return d.Set(name, Int(v)) }

// WithFloat is a chainable convenience for Set(name, document.Float(v)).
func (d *Document) WithFloat(name string, v float64) *Document { return d.Set(name, Float(v)) }

// WithBool is a chainable convenience for Set(name, document.Bool(v)).
func (d *Document) WithBool(name string, v bool) *Document { return d.Set(name, Bool(v)) }

// Get returns the value of a named field and whether it was present.
func (d *Document) Get(name string) (FieldValue, bool) {
	idx, ok := d.byName[name]
	if !ok {
		return FieldValue{}, false
	}
	return d.fields[idx].Value, true
}

// Fields returns the document's fields in insertion order. The returned
// slice must not be mutated by the caller.
func (d *Document) Fields() []Field { return d.fields }

// Size returns the document's size in bytes: identifier length, plus field
// name lengths, plus the serialized length of each value. Used by the cache
// layer for memory accounting.
func (d *Document) Size() int {
	n := len(d.id)
	for _, f := range d.fields {
		n += len(f.Name) + f.Value.Size()
	}
	return n
}

// Clone returns a deep copy. The index calls Clone before staging a
// document so the caller's copy can be freely mutated afterward.
func (d *Document) Clone() *Document {
	c := &Document{
		id:     d.id,
		fields: make([]Field, len(d.fields)),
		byName: make(map[string]int, len(d.byName)),
	}
	copy(c.fields, d.fields)
	for k, v := range d.byName {
		c.byName[k] = v
	}
	return c
}
