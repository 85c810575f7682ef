package parser

import (
	"fmt"
	"maps"
	"strings"
	"unicode"

	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/internal/options"
)

const (
	recordMarker  = 'B'
	commentMarker = '#'
)

// Stats summarises one Parse call.
type Stats struct {
	Lines      int         // every input line
	Records    int         // field lines folded into a blockette
	Skipped    int         // blank lines, non-record lines and, when lenient, malformed keys
	Comments   int         // lines starting with '#'
	Malformed  int         // malformed keys skipped in lenient mode
	Blockettes int         // blockette instances produced
	PerNumber  map[int]int // blockette instances per type number
}

// Parser is the parse phase: it turns raw dump lines into an ordered sequence
// of blockette instances.
//
// Note: Parser is NOT thread-safe. A Parser may be reused sequentially; each
// Parse call starts from a clean state.
type Parser struct {
	rules    *blockette.Rules
	strict   bool
	progress func(done, total int)
	stats    Stats
}

// Option configures a Parser.
type Option = options.Option[*Parser]

// WithRules replaces the boundary rule tables. The rules are copied.
func WithRules(rules *blockette.Rules) Option {
	return options.New(func(p *Parser) error {
		if rules == nil {
			return fmt.Errorf("parser: nil rules")
		}
		p.rules = rules.Clone()

		return nil
	})
}

// WithDiscriminator sets the instance-opening field for one blockette type.
func WithDiscriminator(number, field int) Option {
	return options.New(func(p *Parser) error {
		if number < 0 || field < 0 {
			return fmt.Errorf("parser: invalid discriminator B%03dF%02d", number, field)
		}
		p.rules.SetDiscriminator(number, field)

		return nil
	})
}

// WithStrictKeys controls how a record line with an unparsable key is handled.
// Strict mode (the default) aborts the parse with ErrMalformedKey; lenient
// mode skips the line and counts it in Stats.Malformed.
func WithStrictKeys(strict bool) Option {
	return options.NoError(func(p *Parser) {
		p.strict = strict
	})
}

// WithProgress registers a callback invoked each time another whole percent
// of the input has been consumed.
func WithProgress(fn func(done, total int)) Option {
	return options.NoError(func(p *Parser) {
		p.progress = fn
	})
}

// New creates a Parser.
//
// Parameters:
//   - opts: Optional configuration (WithRules, WithDiscriminator, WithStrictKeys, WithProgress)
//
// Returns:
//   - *Parser: The configured parser
//   - error: Invalid option error
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		rules:  blockette.DefaultRules(),
		strict: true,
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	return p, nil
}

// Parse tokenizes lines with a Parser configured by opts.
func Parse(lines []string, opts ...Option) ([]*blockette.Blockette, error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}

	return p.Parse(lines)
}

// Rules returns the rule tables used by p.
func (p *Parser) Rules() *blockette.Rules {
	return p.rules
}

// Stats returns the statistics of the last Parse call.
func (p *Parser) Stats() Stats {
	s := p.stats
	s.PerNumber = maps.Clone(p.stats.PerNumber)

	return s
}

// Parse tokenizes lines into blockette instances, preserving arrival order.
//
// Each record line "B<nnn>F<spec> <data>" is routed to the current instance
// of blockette type nnn. When that instance declines the field (the field
// steps back to the type's opening field) a new instance is started and the
// field is retried on it.
//
// Parameters:
//   - lines: Raw dump lines, one record per line
//
// Returns:
//   - []*blockette.Blockette: Instances in creation order (empty for empty input)
//   - error: *errs.LineError wrapping ErrMalformedKey, ErrRangeArity or ErrBoundaryRetry
func (p *Parser) Parse(lines []string) ([]*blockette.Blockette, error) {
	p.stats = Stats{Lines: len(lines), PerNumber: make(map[int]int)}

	st := parseState{
		current: make(map[int]*blockette.Blockette),
		out:     make([]*blockette.Blockette, 0),
	}

	lastPercent := 0
	for i, raw := range lines {
		if p.progress != nil && len(lines) > 0 {
			if percent := (i + 1) * 100 / len(lines); percent > lastPercent {
				lastPercent = percent
				p.progress(i+1, len(lines))
			}
		}

		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			p.stats.Skipped++
			continue
		case line[0] == commentMarker:
			p.stats.Comments++
			continue
		case line[0] != recordMarker:
			p.stats.Skipped++
			continue
		}

		key, data := splitRecord(line)
		number, spec, err := blockette.ParseKey(key)
		if err != nil {
			if !p.strict {
				p.stats.Skipped++
				p.stats.Malformed++
				continue
			}

			return nil, &errs.LineError{Line: i + 1, Text: line, Err: err}
		}

		if err := p.feed(&st, number, spec, data); err != nil {
			return nil, &errs.LineError{Line: i + 1, Text: line, Err: err}
		}
		p.stats.Records++
	}

	p.stats.Blockettes = len(st.out)

	return st.out, nil
}

// parseState carries the per-type current instance through one Parse call.
type parseState struct {
	current map[int]*blockette.Blockette
	out     []*blockette.Blockette
}

func (p *Parser) feed(st *parseState, number int, spec blockette.FieldSpec, data string) error {
	b, ok := st.current[number]
	if !ok {
		b = p.open(st, number)
	}

	accepted, err := b.Add(spec, data)
	if err != nil {
		return err
	}
	if accepted {
		return nil
	}

	b = p.open(st, number)
	accepted, err = b.Add(spec, data)
	if err != nil {
		return err
	}
	if !accepted {
		return fmt.Errorf("%w: B%03dF%s", errs.ErrBoundaryRetry, number, spec)
	}

	return nil
}

func (p *Parser) open(st *parseState, number int) *blockette.Blockette {
	b := blockette.NewWithRules(number, p.rules)
	st.current[number] = b
	st.out = append(st.out, b)
	p.stats.PerNumber[number]++

	return b
}

// splitRecord splits a trimmed record line on its first run of whitespace.
func splitRecord(line string) (string, string) {
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return line, ""
	}

	return line[:idx], strings.TrimSpace(line[idx:])
}
