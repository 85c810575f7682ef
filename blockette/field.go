package blockette

// Field is one numbered field of a blockette instance.
//
// A field may be filled by a scalar line ("B052F04 Channel: BHZ") or by one
// column of a range line ("B053F10-13 ..."). Some blockette types repeat a
// scalar field id for list entries, so a Field accumulates every value it is
// given in arrival order.
type Field struct {
	ID          int
	Description string
	values      []string
}

func newField(id int, description string) *Field {
	return &Field{ID: id, Description: description}
}

// Add appends a value to the field.
func (f *Field) Add(value string) {
	f.values = append(f.values, value)
}

// Len returns the number of accumulated values.
func (f *Field) Len() int {
	return len(f.values)
}

// Values returns a copy of the accumulated values.
func (f *Field) Values() []string {
	out := make([]string, len(f.values))
	copy(out, f.values)

	return out
}

// Value returns the dual-arity view of the field: a scalar when exactly one
// value was accumulated, else the full ordered sequence.
func (f *Field) Value() FieldValue {
	return FieldValue{values: f.values, present: true}
}

// FieldValue is the result of a field lookup.
//
// Callers must handle both shapes: IsScalar reports a single accumulated value
// (read it with Scalar), otherwise Values holds the ordered sequence. A lookup
// of an absent field yields a FieldValue for which IsMissing is true.
type FieldValue struct {
	values  []string
	present bool
}

// IsMissing reports whether the looked-up field does not exist.
func (v FieldValue) IsMissing() bool {
	return !v.present
}

// IsScalar reports whether exactly one value was accumulated.
func (v FieldValue) IsScalar() bool {
	return v.present && len(v.values) == 1
}

// Scalar returns the value of a scalar field, or the first value of a
// repeated field. It returns "" for a missing field.
func (v FieldValue) Scalar() string {
	if len(v.values) == 0 {
		return ""
	}

	return v.values[0]
}

// Values returns a copy of every accumulated value.
func (v FieldValue) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)

	return out
}

// Len returns the number of accumulated values.
func (v FieldValue) Len() int {
	return len(v.values)
}
