package parser

import (
	"regexp"
	"strings"

	"github.com/zfskit/zfskit/pkg/models"
)

// maxContinuationLines caps how many indented follow-up lines a
// status/action/scan/errors message may carry after its label line.
// Lines past the cap are advisory trailer text and are dropped.
const maxContinuationLines = 5

var (
	labelRe = regexp.MustCompile(`^\s*(pool|id|state|status|action|comment|see|scan|config|errors):\s?(.*)$`)
	groupRe = regexp.MustCompile(`^(mirror|raidz1|raidz2|raidz3|raidz)(?:-(\d+))?$`)
)

// ParsePoolStatusList parses the output of zpool status / zpool import
// covering any number of pools. Reports appear in the same order as
// their text blocks; blank lines between reports are tolerated.
func ParsePoolStatusList(text string) ([]*models.Zpool, error) {
	lines := strings.Split(text, "\n")

	// Each report starts at its pool: label line.
	var starts []int
	for i, line := range lines {
		if m := labelRe.FindStringSubmatch(line); m != nil && m[1] == "pool" {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return nil, &MalformedError{Expected: "pool: field"}
	}

	pools := make([]*models.Zpool, 0, len(starts))
	for n, start := range starts {
		end := len(lines)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		p := &poolParser{lines: lines[start:end], offset: start}
		pool, err := p.parse()
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// ParsePoolStatus parses a report covering exactly one pool.
func ParsePoolStatus(text string) (*models.Zpool, error) {
	pools, err := ParsePoolStatusList(text)
	if err != nil {
		return nil, err
	}
	if len(pools) != 1 {
		return nil, &MalformedError{Expected: "exactly one pool report"}
	}
	return pools[0], nil
}

type poolParser struct {
	lines  []string
	offset int // line offset within the whole input, for error context
	pos    int
}

func (p *poolParser) errAt(expected string) error {
	line, text := p.offset+len(p.lines), ""
	if p.pos < len(p.lines) {
		line = p.offset + p.pos + 1
		text = p.lines[p.pos]
	}
	return &MalformedError{Line: line, Text: text, Expected: expected}
}

// label returns the field label starting the current line, or "".
func (p *poolParser) label() string {
	if p.pos >= len(p.lines) {
		return ""
	}
	if m := labelRe.FindStringSubmatch(p.lines[p.pos]); m != nil {
		return m[1]
	}
	return ""
}

// value returns the text after the label on the current line.
func (p *poolParser) value() string {
	m := labelRe.FindStringSubmatch(p.lines[p.pos])
	return strings.TrimSpace(m[2])
}

// message consumes a label line plus up to maxContinuationLines
// indented continuation lines. A line carrying a recognized label
// always terminates the message, even when indented.
func (p *poolParser) message() string {
	parts := []string{p.value()}
	p.pos++
	for len(parts) <= maxContinuationLines && p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if !indented(line) || p.label() != "" {
			break
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		parts = append(parts, strings.TrimSpace(line))
		p.pos++
	}
	// Anything indented past the cap is advisory trailer text; the
	// caller's unrecognized-line fallback skips it.
	return strings.Join(parts, "\n")
}

func (p *poolParser) parse() (*models.Zpool, error) {
	pool := &models.Zpool{}

	// Header fields, each anchored to its label. pool: and state: are
	// mandatory; the rest are optional. Unrecognized lines between
	// fields are advisory and skipped.
	sawState := false
	for p.pos < len(p.lines) {
		switch p.label() {
		case "pool":
			name := p.value()
			if !isName(name) {
				return nil, p.errAt("pool name")
			}
			pool.Name = name
			p.pos++
		case "id":
			id, ok := parseDigits(p.value())
			if !ok {
				return nil, p.errAt("numeric pool id")
			}
			pool.ID = &id
			p.pos++
		case "state":
			health, ok := models.ParseHealth(p.value())
			if !ok {
				return nil, &UnknownStateError{Token: p.value()}
			}
			pool.Health = health
			sawState = true
			p.pos++
		case "status":
			pool.Status = p.message()
		case "action":
			pool.Action = p.message()
		case "comment":
			pool.Comment = p.value()
			p.pos++
		case "see":
			if url := p.value(); isURL(url) {
				pool.See = url
			}
			p.pos++
		case "scan":
			pool.Scan = p.message()
		case "config":
			p.pos++
			goto table
		default:
			p.pos++
		}
	}
	return nil, p.errAt("config: section")

table:
	if pool.Name == "" {
		return nil, &MalformedError{Line: p.offset + 1, Expected: "pool: field"}
	}
	if !sawState {
		return nil, &MalformedError{Line: p.offset + 1, Expected: "state: field"}
	}
	if err := p.parseTable(pool); err != nil {
		return nil, err
	}

	// Optional errors trailer.
	if p.label() == "errors" {
		msg := p.message()
		if !strings.EqualFold(msg, "No known data errors") {
			pool.Errors = msg
		}
	}

	if len(pool.Vdevs) == 0 {
		return nil, &MalformedError{Line: p.offset + 1, Expected: "at least one device line"}
	}
	return pool, nil
}

// parseTable folds the flat device-table lines into the vdev forest.
// Group membership is positional: a redundancy-kind token opens a new
// group and the leaf lines that follow are its children, until the
// next group line, a named subsection, or the end of the table.
func (p *poolParser) parseTable(pool *models.Zpool) error {
	// Blank separator then the optional column-header line, which is
	// recognized and discarded.
	for p.pos < len(p.lines) && strings.TrimSpace(p.lines[p.pos]) == "" {
		p.pos++
	}
	if p.pos < len(p.lines) {
		fields := strings.Fields(p.lines[p.pos])
		if len(fields) > 0 && fields[0] == "NAME" {
			p.pos++
		}
	}

	// The pool's own summary line is always the first row.
	if p.pos >= len(p.lines) || strings.TrimSpace(p.lines[p.pos]) == "" {
		return p.errAt("pool summary line")
	}
	row, err := p.parseRow(p.lines[p.pos])
	if err != nil {
		return err
	}
	if row.name != pool.Name {
		return p.errAt("pool summary line matching pool name")
	}
	pool.Stats = row.stats
	pool.Reason = row.reason
	p.pos++

	// disk/group rows, folded by a small state machine.
	section := "" // "", "logs", "cache", "spares"
	var group *models.Vdev
	closeGroup := func() error {
		if group == nil {
			return nil
		}
		if len(group.Disks) == 0 {
			return p.errAt("at least one member device after group line")
		}
		pool.Vdevs = append(pool.Vdevs, *group)
		group = nil
		return nil
	}

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.TrimSpace(line) == "" {
			p.pos++
			continue
		}
		if p.label() != "" {
			break
		}
		fields := strings.Fields(line)

		// Subsection markers sit on their own line.
		if len(fields) == 1 && (fields[0] == "logs" || fields[0] == "cache" || fields[0] == "spares") {
			if err := closeGroup(); err != nil {
				return err
			}
			section = fields[0]
			p.pos++
			continue
		}

		if m := groupRe.FindStringSubmatch(fields[0]); m != nil && section == "" {
			if err := closeGroup(); err != nil {
				return err
			}
			kind, _ := models.ParseVdevKind(m[1])
			idx := -1
			if m[2] != "" {
				n, _ := parseDigits(m[2])
				idx = int(n)
			}
			row, err := p.parseRow(line)
			if err != nil {
				return err
			}
			group = &models.Vdev{Kind: kind, Index: idx, Health: row.health, Reason: row.reason, Stats: row.stats}
			p.pos++
			continue
		}

		row, err := p.parseRow(line)
		if err != nil {
			return err
		}
		disk := models.Disk{Path: row.name, Health: row.health, Reason: row.reason, Stats: row.stats}
		switch section {
		case "logs":
			pool.Logs = append(pool.Logs, disk)
		case "cache":
			pool.Caches = append(pool.Caches, disk)
		case "spares":
			pool.Spares = append(pool.Spares, disk)
		default:
			if group != nil {
				group.Disks = append(group.Disks, disk)
			} else {
				pool.Vdevs = append(pool.Vdevs, models.SingleVdev(disk))
			}
		}
		p.pos++
	}
	return closeGroup()
}

type tableRow struct {
	name   string
	health models.Health
	stats  models.ErrorStats
	reason string
}

// parseRow splits one device-table line into identifier, state,
// optional read/write/checksum counters and optional trailing reason.
func (p *poolParser) parseRow(line string) (tableRow, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return tableRow{}, p.errAt("device line with identifier and state")
	}
	if !isPath(fields[0]) && !isName(fields[0]) {
		return tableRow{}, p.errAt("device path or name")
	}
	health, ok := models.ParseHealth(fields[1])
	if !ok {
		return tableRow{}, &UnknownStateError{Token: fields[1]}
	}
	row := tableRow{name: fields[0], health: health}

	rest := fields[2:]
	if len(rest) >= 3 {
		r, okR := parseDigits(rest[0])
		w, okW := parseDigits(rest[1])
		c, okC := parseDigits(rest[2])
		if okR && okW && okC {
			row.stats = models.ErrorStats{Read: r, Write: w, Checksum: c}
			rest = rest[3:]
		}
	}
	if len(rest) > 0 {
		row.reason = strings.Join(rest, " ")
	}
	return row, nil
}
