package blockette

import "maps"

// DefaultDiscriminator is the field that opens a new instance for blockette
// types missing from the discriminator table. In dataless dumps every record
// starts at field 3: fields 1 and 2 (type and length) are not printed.
const DefaultDiscriminator = 3

// DefaultDiscriminators maps a blockette number to the field id that begins a
// new instance of that type. Type 52 opens a channel epoch at its location
// field.
var DefaultDiscriminators = map[int]int{
	10: 3,
	11: 3,
	30: 3,
	31: 3,
	33: 3,
	34: 3,
	50: 3,
	51: 3,
	52: 3,
	53: 3,
	54: 3,
	55: 3,
	56: 3,
	57: 3,
	58: 3,
	59: 3,
	60: 3,
	61: 3,
	62: 3,
}

// DefaultStageFields maps each response-stage blockette number to the field id
// holding its stage sequence number.
var DefaultStageFields = map[int]int{
	53: 4,
	54: 4,
	55: 3,
	56: 3,
	57: 3,
	58: 3,
	61: 3,
	62: 4,
}

// Rules is the per-type configuration consulted by the parse and assemble
// phases. The zero value is not usable; start from DefaultRules.
type Rules struct {
	discriminators map[int]int
	stageFields    map[int]int
}

// DefaultRules returns a fresh copy of the built-in rule tables.
func DefaultRules() *Rules {
	return &Rules{
		discriminators: maps.Clone(DefaultDiscriminators),
		stageFields:    maps.Clone(DefaultStageFields),
	}
}

// Clone returns a deep copy of r.
func (r *Rules) Clone() *Rules {
	return &Rules{
		discriminators: maps.Clone(r.discriminators),
		stageFields:    maps.Clone(r.stageFields),
	}
}

// Discriminator returns the instance-opening field id for a blockette number.
func (r *Rules) Discriminator(number int) int {
	if r == nil {
		return DefaultDiscriminator
	}
	if id, ok := r.discriminators[number]; ok {
		return id
	}

	return DefaultDiscriminator
}

// SetDiscriminator overrides the instance-opening field id for a blockette number.
func (r *Rules) SetDiscriminator(number, field int) {
	r.discriminators[number] = field
}

// StageField returns the stage sequence field id for a stage blockette number.
// The boolean is false when number is not a stage type.
func (r *Rules) StageField(number int) (int, bool) {
	if r == nil {
		id, ok := DefaultStageFields[number]
		return id, ok
	}
	id, ok := r.stageFields[number]

	return id, ok
}

// SetStageField registers number as a stage type whose sequence number lives in field.
func (r *Rules) SetStageField(number, field int) {
	r.stageFields[number] = field
}
