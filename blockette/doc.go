// Package blockette models the records of a dataless volume dump.
//
// A dump is a flat stream of field lines, one field (or field range) per line:
//
//	B052F03     Location:                              00
//	B052F04     Channel:                               BHZ
//	B053F10-13    0  -3.70040E-02  3.70080E-02  0.00000E+00  0.00000E+00
//
// The key token names the blockette type (052) and the field id (03) or the
// inclusive field range (10-13). A Blockette collects the fields of one
// instance; a Field collects the values given to one field id.
//
// # Instance Boundaries
//
// The dump has no explicit record separators. An instance ends when a field
// line of the same type steps back to the type's instance-opening field (the
// discriminator, field 3 for every known type). Blockette.Add declines such a
// line and the caller retries it on a fresh instance:
//
//	ok, err := b.Add(spec, data)
//	if err == nil && !ok {
//	    b = blockette.New(number)
//	    ok, err = b.Add(spec, data)
//	}
//
// The discriminator and stage-sequence tables live in Rules so new blockette
// types can be described without touching the detection algorithm.
//
// # Field Values
//
// Some types repeat a scalar field id for list entries, so lookups return a
// FieldValue that is either a scalar or an ordered sequence:
//
//	vals := b.Values(16, 3) // network, station
//	if vals[0].IsScalar() {
//	    network := vals[0].Scalar()
//	}
package blockette
