// Package parser implements the parse phase of dataless volume processing.
//
// The parser consumes the line stream of a dataless dump (as printed by
// `rdseed -s`) and groups field lines into blockette instances. It never looks
// ahead: instance boundaries are detected from field-id rollover, one line at
// a time, and the resulting sequence preserves arrival order, which is all the
// assemble phase relies on.
//
// Lines are handled as follows:
//   - blank lines and lines not starting with the record marker 'B' are skipped
//   - lines starting with '#' are counted as comments and skipped
//   - record lines are split into a key token and data on the first whitespace
//
// Basic usage:
//
//	blockettes, err := parser.Parse(lines)
//	if err != nil {
//	    var lineErr *errs.LineError
//	    if errors.As(err, &lineErr) {
//	        log.Printf("bad input at line %d: %s", lineErr.Line, lineErr.Text)
//	    }
//	    return err
//	}
//
// Parse statistics and custom boundary rules:
//
//	p, _ := parser.New(
//	    parser.WithDiscriminator(71, 3),
//	    parser.WithProgress(func(done, total int) { ... }),
//	)
//	blockettes, err := p.Parse(lines)
//	stats := p.Stats()
package parser
