package goofx

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
)

// RawString is a leaf borrowed from the document text rather than copied. Decoding a leaf that
// contains character entities into a RawString fails with ErrInvalidBorrowedString; use string
// to have entities decoded.
type RawString string

//go:generate mockgen -destination=mock_unmarshaler_test.go -package=goofx_test github.com/rockstardevs/goofx/v2 Unmarshaler

// Unmarshaler is implemented by types that decode themselves from an element.
type Unmarshaler interface {
	UnmarshalOFX(d *Decoder, el *Element) error
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	rawStringType = reflect.TypeOf(RawString(""))
	unmarshalerT  = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	enumT         = reflect.TypeOf((*Enum)(nil)).Elem()
	textUnmarshT  = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Decoder walks an element tree into Go values. It is created per decode call and passed to
// every Unmarshaler along the way.
type Decoder struct {
	path   []string
	root   *Element
	strict bool

	// Root children by position, and whether each has been consumed.
	rootIndex map[*Element]int
	rootUsed  []bool
}

// newRootDecoder returns a Decoder that tracks which children of root get consumed.
func newRootDecoder(root *Element) *Decoder {
	d := &Decoder{
		root:      root,
		strict:    true,
		rootIndex: make(map[*Element]int, len(root.Children)),
		rootUsed:  make([]bool, len(root.Children)),
	}
	for i, c := range root.Children {
		d.rootIndex[c] = i
	}
	return d
}

// consume marks el as used if it is a child of the root.
func (d *Decoder) consume(el *Element) {
	if i, ok := d.rootIndex[el]; ok {
		d.rootUsed[i] = true
	}
}

// unconsumed returns the first root child that nothing decoded, read or walked.
func (d *Decoder) unconsumed() *Element {
	for i, used := range d.rootUsed {
		if !used {
			return d.root.Children[i]
		}
	}
	return nil
}

// Decode decodes el into the value pointed to by v.
func Decode(el *Element, v interface{}) error {
	return asError(new(Decoder).Decode(el, v))
}

// Decode decodes el into the value pointed to by v.
func (d *Decoder) Decode(el *Element, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return deserializeError("decode target must be a non-nil pointer, got %T", v)
	}
	if el == nil {
		return deserializeError("nothing to decode into %T", v)
	}
	return d.value(el, rv.Elem())
}

// Path returns the tags leading to the element being decoded, e.g. "OFX>SIGNONMSGSRSV1>SONRS".
func (d *Decoder) Path() string {
	return strings.Join(d.path, ">")
}

// Aggregate returns a forward-only cursor over the children of el.
func (d *Decoder) Aggregate(el *Element) *Aggregate {
	d.consume(el)
	return &Aggregate{d: d, el: el}
}

// Text returns the leaf text of el with entities decoded.
func (d *Decoder) Text(el *Element) (string, error) {
	d.consume(el)
	if err := d.leaf(el); err != nil {
		return "", err
	}
	s, err := unescapeString(el.Text)
	if err != nil {
		return "", d.wrap(el, err)
	}
	return s, nil
}

// Borrow returns the leaf text of el without copying it.
func (d *Decoder) Borrow(el *Element) (RawString, error) {
	d.consume(el)
	if err := d.leaf(el); err != nil {
		return "", err
	}
	if el.HasEscapes() {
		return "", newError(ErrInvalidBorrowedString, el.Offset, "%s: %q", d.Path(), excerpt(el.Text))
	}
	return RawString(el.Text), nil
}

// Aggregate is a forward-only cursor over the children of an element. A child returned by Next
// is never offered again.
type Aggregate struct {
	d   *Decoder
	el  *Element
	pos int
}

// Peek returns the tag of the next child without consuming it.
func (a *Aggregate) Peek() (string, bool) {
	if a.pos >= len(a.el.Children) {
		return "", false
	}
	return a.el.Children[a.pos].Name, true
}

// Next consumes and returns the next child.
func (a *Aggregate) Next() (*Element, bool) {
	if a.pos >= len(a.el.Children) {
		return nil, false
	}
	c := a.el.Children[a.pos]
	a.pos++
	a.d.consume(c)
	return c, true
}

// Rest consumes and returns all remaining children.
func (a *Aggregate) Rest() []*Element {
	rest := a.el.Children[a.pos:]
	a.pos = len(a.el.Children)
	for _, c := range rest {
		a.d.consume(c)
	}
	return rest
}

// Len returns the number of children not yet consumed.
func (a *Aggregate) Len() int {
	return len(a.el.Children) - a.pos
}

func (d *Decoder) value(el *Element, v reflect.Value) error {
	d.consume(el)
	d.path = append(d.path, el.Name)
	defer func() { d.path = d.path[:len(d.path)-1] }()
	return d.dispatch(el, v)
}

func (d *Decoder) dispatch(el *Element, v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return d.dispatch(el, v.Elem())
	}

	t := reflect.PtrTo(v.Type())
	switch {
	case t.Implements(unmarshalerT):
		if glog.V(3) {
			glog.Infof("%s: UnmarshalOFX on %s", d.Path(), v.Type())
		}
		return asError(v.Addr().Interface().(Unmarshaler).UnmarshalOFX(d, el))
	case v.Type() == timeType:
		return d.dateTime(el, v)
	case t.Implements(enumT):
		return d.enum(el, v, reflect.New(v.Type()).Interface().(Enum).Variants())
	case v.Type() == rawStringType:
		s, err := d.Borrow(el)
		if err != nil {
			return err
		}
		v.SetString(string(s))
		return nil
	case t.Implements(textUnmarshT):
		return d.text(el, v.Addr().Interface().(encoding.TextUnmarshaler))
	}

	switch v.Kind() {
	case reflect.Struct:
		return d.structValue(el, v)
	case reflect.Map:
		return d.mapValue(el, v)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return d.unsupported(el, v)
		}
		return d.sequence(el, v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return d.unsupported(el, v)
		}
		return d.tuple(el, v)
	case reflect.String:
		s, err := d.Text(el)
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return d.scalar(el, v)
	}
	return d.unsupported(el, v)
}

func (d *Decoder) unsupported(el *Element, v reflect.Value) error {
	return newError(ErrUnsupportedDataType, el.Offset, "%s: cannot decode into %s", d.Path(), v.Type())
}

func (d *Decoder) leaf(el *Element) error {
	if !el.IsLeaf() {
		return deserializeError("%s: expected a value, found an aggregate", d.Path())
	}
	return nil
}

// wrap qualifies err with the current path and the element's offset.
func (d *Decoder) wrap(el *Element, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return asError(err)
	}
	return &Error{Kind: e.Kind, Msg: fmt.Sprintf("%s: %s", d.Path(), e.Msg), Offset: el.Offset}
}

func (d *Decoder) scalar(el *Element, v reflect.Value) error {
	s, err := d.Text(el)
	if err != nil {
		return err
	}
	switch v.Kind() {
	case reflect.Bool:
		var b bool
		if b, err = parseBool(s); err == nil {
			v.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, err = strconv.ParseInt(s, 10, v.Type().Bits()); err == nil {
			v.SetInt(n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		if n, err = strconv.ParseUint(s, 10, v.Type().Bits()); err == nil {
			v.SetUint(n)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = strconv.ParseFloat(s, v.Type().Bits()); err == nil {
			v.SetFloat(f)
		}
	}
	if err != nil {
		return parseError(el.Offset, "%s: invalid %s %q", d.Path(), v.Type(), s)
	}
	return nil
}

// parseBool accepts OFX booleans (Y, N) and anything strconv.ParseBool does.
func parseBool(s string) (bool, error) {
	switch s {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func (d *Decoder) text(el *Element, u encoding.TextUnmarshaler) error {
	s, err := d.Text(el)
	if err != nil {
		return err
	}
	if err := u.UnmarshalText([]byte(s)); err != nil {
		return parseError(el.Offset, "%s: invalid value %q: %v", d.Path(), s, err)
	}
	return nil
}

func (d *Decoder) dateTime(el *Element, v reflect.Value) error {
	if err := d.leaf(el); err != nil {
		return err
	}
	t, rest, err := ParseDateTime(el.Text)
	if err != nil {
		return d.wrap(el, err)
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		return parseError(el.Offset, "%s: unexpected %q after date", d.Path(), rest)
	}
	v.Set(reflect.ValueOf(t))
	return nil
}

func (d *Decoder) enum(el *Element, v reflect.Value, variants []string) error {
	if err := d.leaf(el); err != nil {
		return err
	}
	if el.HasEscapes() {
		return newError(ErrEscapesInEnumVariant, el.Offset, "%s: %q", d.Path(), el.Text)
	}
	i, ok := matchVariant(el.Text, variants)
	if !ok {
		return deserializeError("%s: unknown variant %q, expected one of %s", d.Path(), el.Text, strings.Join(variants, ", "))
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(i))
	case reflect.String:
		v.SetString(strings.ToUpper(variants[i]))
	default:
		return d.unsupported(el, v)
	}
	return nil
}

func (d *Decoder) sequence(el *Element, v reflect.Value) error {
	if el.Text != "" {
		return deserializeError("%s: expected a sequence, found %q", d.Path(), excerpt(el.Text))
	}
	agg := d.Aggregate(el)
	s := reflect.MakeSlice(v.Type(), 0, agg.Len())
	for child, ok := agg.Next(); ok; child, ok = agg.Next() {
		ev := reflect.New(v.Type().Elem()).Elem()
		if err := d.value(child, ev); err != nil {
			return err
		}
		s = reflect.Append(s, ev)
	}
	v.Set(s)
	return nil
}

func (d *Decoder) tuple(el *Element, v reflect.Value) error {
	if el.Text != "" {
		return deserializeError("%s: expected a sequence, found %q", d.Path(), excerpt(el.Text))
	}
	agg := d.Aggregate(el)
	for i := 0; i < v.Len(); i++ {
		child, ok := agg.Next()
		if !ok {
			return newError(ErrInvalidTupleLength, el.Offset, "%s: expected %d elements, found %d", d.Path(), v.Len(), i)
		}
		if err := d.value(child, v.Index(i)); err != nil {
			return err
		}
	}
	if agg.Len() > 0 {
		return deserializeError("%s: expected %d elements, found %d", d.Path(), v.Len(), v.Len()+agg.Len())
	}
	return nil
}

// mapValue collects the leaf children of el as tag/value pairs.
func (d *Decoder) mapValue(el *Element, v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return d.unsupported(el, v)
	}
	if el.Text != "" {
		return deserializeError("%s: expected an aggregate, found %q", d.Path(), excerpt(el.Text))
	}
	for _, child := range d.Aggregate(el).Rest() {
		if err := d.mapEntry(child, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) mapEntry(child *Element, m reflect.Value) error {
	if !child.IsLeaf() {
		return deserializeError("%s: nested aggregate <%s> cannot be collected as a value", d.Path(), child.Name)
	}
	if m.IsNil() {
		m.Set(reflect.MakeMap(m.Type()))
	}
	key := reflect.ValueOf(child.Name).Convert(m.Type().Key())
	if m.MapIndex(key).IsValid() {
		return deserializeError("%s: duplicate key <%s>", d.Path(), child.Name)
	}
	ev := reflect.New(m.Type().Elem()).Elem()
	if err := d.value(child, ev); err != nil {
		return err
	}
	m.SetMapIndex(key, ev)
	return nil
}

// field is a struct field decoded from a child element.
type field struct {
	name     string
	index    int
	required bool
	repeated bool
}

// structFields lists the decodable fields of t and the catch-all field, if any.
func structFields(t reflect.Type) ([]field, *field, error) {
	var (
		fields  []field
		flatten *field
	)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		tag := sf.Tag.Get("ofx")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		f := field{name: strings.ToUpper(name), index: i}
		optional := false
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "optional":
				optional = true
			case "flatten":
				if sf.Type.Kind() != reflect.Map || sf.Type.Key().Kind() != reflect.String {
					return nil, nil, newError(ErrUnsupportedDataType, -1, "%s.%s: flatten requires a map with string keys", t, sf.Name)
				}
				if flatten != nil {
					return nil, nil, deserializeError("%s: more than one flatten field", t)
				}
				flatten = &field{name: f.name, index: i}
			}
		}
		if flatten != nil && flatten.index == i {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Ptr:
		case reflect.Slice:
			f.repeated = sf.Type.Elem().Kind() != reflect.Uint8
			f.required = !f.repeated && !optional
		default:
			f.required = !optional
		}
		fields = append(fields, f)
	}
	return fields, flatten, nil
}

func (d *Decoder) structValue(el *Element, v reflect.Value) error {
	if el.Text != "" {
		return deserializeError("%s: expected an aggregate, found %q", d.Path(), excerpt(el.Text))
	}
	fields, flatten, err := structFields(v.Type())
	if err != nil {
		return err
	}
	strict := d.strict && el == d.root
	seen := make([]bool, len(fields))
	agg := d.Aggregate(el)
	for child, ok := agg.Next(); ok; child, ok = agg.Next() {
		i := fieldIndex(fields, child.Name)
		if i < 0 {
			switch {
			case flatten != nil:
				if err := d.mapEntry(child, v.Field(flatten.index)); err != nil {
					return err
				}
			case strict:
				return newError(ErrTrailingInput, child.Offset, "%s: unexpected <%s>", d.Path(), child.Name)
			default:
				if glog.V(3) {
					glog.Infof("%s: dropping <%s>", d.Path(), child.Name)
				}
			}
			continue
		}
		f, fv := fields[i], v.Field(fields[i].index)
		if f.repeated {
			ev := reflect.New(fv.Type().Elem()).Elem()
			if err := d.value(child, ev); err != nil {
				return err
			}
			fv.Set(reflect.Append(fv, ev))
		} else {
			if seen[i] {
				return deserializeError("%s: duplicate field <%s>", d.Path(), child.Name)
			}
			if err := d.value(child, fv); err != nil {
				return err
			}
		}
		seen[i] = true
	}
	for i, f := range fields {
		if f.required && !seen[i] {
			return deserializeError("%s: missing field <%s>", d.Path(), f.name)
		}
	}
	return nil
}

func fieldIndex(fields []field, name string) int {
	for i, f := range fields {
		if f.name == name {
			return i
		}
	}
	return -1
}
