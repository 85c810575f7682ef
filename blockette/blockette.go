package blockette

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/internal/hash"
)

// FieldSpec is the field part of a record key: a single field id (Lo == Hi)
// or an inclusive range of ids.
type FieldSpec struct {
	Lo int
	Hi int
}

// IsRange reports whether the spec covers more than one field id.
func (s FieldSpec) IsRange() bool {
	return s.Hi > s.Lo
}

// Width returns the number of field ids covered by the spec.
func (s FieldSpec) Width() int {
	return s.Hi - s.Lo + 1
}

func (s FieldSpec) String() string {
	if s.IsRange() {
		return fmt.Sprintf("%02d-%02d", s.Lo, s.Hi)
	}

	return fmt.Sprintf("%02d", s.Lo)
}

// ParseFieldSpec parses "n" or "n-m".
//
// Returns ErrMalformedKey (wrapped) for anything that is not one or two
// non-negative integers, or for a descending range.
func ParseFieldSpec(text string) (FieldSpec, error) {
	lo, hi, isRange := strings.Cut(text, "-")

	start, err := strconv.Atoi(lo)
	if err != nil || start < 0 {
		return FieldSpec{}, fmt.Errorf("%w: field spec %q", errs.ErrMalformedKey, text)
	}
	if !isRange {
		return FieldSpec{Lo: start, Hi: start}, nil
	}

	end, err := strconv.Atoi(hi)
	if err != nil || end < start {
		return FieldSpec{}, fmt.Errorf("%w: field spec %q", errs.ErrMalformedKey, text)
	}

	return FieldSpec{Lo: start, Hi: end}, nil
}

// ParseKey parses a record key token such as "B052F03" or "B053F10-13".
//
// Parameters:
//   - key: Key token, including the leading record marker 'B'
//
// Returns:
//   - int: Blockette number
//   - FieldSpec: Field id or id range
//   - error: ErrMalformedKey (wrapped) when the token is not a valid key
func ParseKey(key string) (int, FieldSpec, error) {
	rest, ok := strings.CutPrefix(key, "B")
	if !ok {
		return 0, FieldSpec{}, fmt.Errorf("%w: %q", errs.ErrMalformedKey, key)
	}

	num, spec, ok := strings.Cut(rest, "F")
	if !ok {
		return 0, FieldSpec{}, fmt.Errorf("%w: %q", errs.ErrMalformedKey, key)
	}

	number, err := strconv.Atoi(num)
	if err != nil || number < 0 {
		return 0, FieldSpec{}, fmt.Errorf("%w: blockette number in %q", errs.ErrMalformedKey, key)
	}

	fs, err := ParseFieldSpec(spec)
	if err != nil {
		return 0, FieldSpec{}, err
	}

	return number, fs, nil
}

// Blockette accumulates the fields of one blockette instance.
//
// Note: Blockette is NOT thread-safe. It is built by a single parser and is
// read-only once parsing completes.
type Blockette struct {
	Number int

	fields   map[int]*Field
	order    []int
	lastSeen int
	rules    *Rules
}

// New creates an empty instance of the given blockette type using the
// built-in boundary rules.
func New(number int) *Blockette {
	return NewWithRules(number, nil)
}

// NewWithRules creates an empty instance whose boundary detection consults rules.
// A nil rules value selects the built-in tables.
func NewWithRules(number int, rules *Rules) *Blockette {
	return &Blockette{
		Number: number,
		fields: make(map[int]*Field),
		rules:  rules,
	}
}

// Add folds one field line into the instance.
//
// The instance declines the field (returns false) when the field id steps
// back to the type's instance-opening field: the line belongs to the next
// instance of this blockette type and the caller must retry it on a fresh
// instance. Any other step back is tolerated and folded in.
//
// Scalar fields split data once on ':' into a description and a value; a
// line without a colon is all value. Range fields split data on whitespace;
// the token count must be the range width, or the width plus one leading
// index token which is discarded.
//
// Parameters:
//   - spec: Field id or id range
//   - data: Remainder of the line after the key token
//
// Returns:
//   - bool: false when the field opens a new instance
//   - error: ErrRangeArity (wrapped) for a range line with a bad token count
func (b *Blockette) Add(spec FieldSpec, data string) (bool, error) {
	if spec.Lo < b.lastSeen && spec.Lo == b.rules.Discriminator(b.Number) {
		return false, nil
	}

	if spec.IsRange() {
		tokens := strings.Fields(data)
		width := spec.Width()
		switch len(tokens) {
		case width:
		case width + 1:
			tokens = tokens[1:]
		default:
			return false, fmt.Errorf("%w: B%03dF%s expects %d or %d tokens, got %d",
				errs.ErrRangeArity, b.Number, spec, width, width+1, len(tokens))
		}

		for i, token := range tokens {
			b.field(spec.Lo+i, "").Add(token)
		}
	} else {
		var description, value string
		if d, v, ok := strings.Cut(data, ":"); ok {
			description, value = strings.TrimSpace(d), strings.TrimSpace(v)
		} else {
			value = strings.TrimSpace(data)
		}
		b.field(spec.Lo, description).Add(value)
	}

	b.lastSeen = spec.Lo

	return true, nil
}

// field returns the record for id, creating it with description on first touch.
func (b *Blockette) field(id int, description string) *Field {
	if f, ok := b.fields[id]; ok {
		return f
	}

	f := newField(id, description)
	b.fields[id] = f
	b.order = append(b.order, id)

	return f
}

// Field returns the record for id, or nil.
func (b *Blockette) Field(id int) *Field {
	return b.fields[id]
}

// Has reports whether the instance carries field id.
func (b *Blockette) Has(id int) bool {
	_, ok := b.fields[id]
	return ok
}

// Values returns one FieldValue per requested id, in request order.
// Absent ids yield a FieldValue whose IsMissing is true.
func (b *Blockette) Values(ids ...int) []FieldValue {
	out := make([]FieldValue, len(ids))
	for i, id := range ids {
		if f, ok := b.fields[id]; ok {
			out[i] = f.Value()
		}
	}

	return out
}

// FieldValue returns the index-th value of field id.
func (b *Blockette) FieldValue(id, index int) (string, bool) {
	f, ok := b.fields[id]
	if !ok || index < 0 || index >= len(f.values) {
		return "", false
	}

	return f.values[index], true
}

// Description returns the description of field id, or "".
func (b *Blockette) Description(id int) string {
	if f, ok := b.fields[id]; ok {
		return f.Description
	}

	return ""
}

// FieldIDs returns the field ids in first-seen order.
func (b *Blockette) FieldIDs() []int {
	out := make([]int, len(b.order))
	copy(out, b.order)

	return out
}

// All iterates over the fields in first-seen order.
func (b *Blockette) All() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		for _, id := range b.order {
			if !yield(b.fields[id]) {
				return
			}
		}
	}
}

// Len returns the number of distinct field ids.
func (b *Blockette) Len() int {
	return len(b.order)
}

// Digest returns an xxHash64 of the instance content: its number and every
// field id, description and value in first-seen order.
func (b *Blockette) Digest() uint64 {
	d := hash.NewDigest()
	d.Add(strconv.Itoa(b.Number))
	for _, id := range b.order {
		f := b.fields[id]
		d.Add(strconv.Itoa(id), f.Description)
		d.Add(f.values...)
	}

	return d.Sum64()
}

func (b *Blockette) String() string {
	return fmt.Sprintf("B%03d{%d fields}", b.Number, len(b.order))
}
