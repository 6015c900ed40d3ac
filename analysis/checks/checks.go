// Package checks records the verdicts of the assertions discharged by the
// analyses.
package checks

import (
	"fmt"
	"io"
	"sort"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/utils"

	"github.com/fatih/color"
)

// Verdict is the outcome of checking an assertion.
type Verdict int

const (
	// Safe assertions hold in every reachable state.
	Safe Verdict = iota
	// Error assertions fail in every reachable state.
	Error
	// Warning assertions may fail.
	Warning
)

var colorize = map[Verdict]func(...interface{}) string{
	Safe:    utils.Colorizer(color.FgGreen),
	Error:   utils.Colorizer(color.FgRed),
	Warning: utils.Colorizer(color.FgYellow),
}

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Combine merges the verdicts of the same assertion obtained in
// different calling contexts.
func Combine(v1, v2 Verdict) Verdict {
	if v1 == v2 {
		return v1
	}
	return Warning
}

// Location identifies a statement of a procedure.
type Location struct {
	Proc  string
	Block cfg.Label
	Index int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s:%d", l.Proc, l.Block, l.Index)
}

func (l Location) less(o Location) bool {
	if l.Proc != o.Proc {
		return l.Proc < o.Proc
	}
	if l.Block != o.Block {
		return l.Block < o.Block
	}
	return l.Index < o.Index
}

// Record is the verdict of one assertion.
type Record struct {
	Loc     Location
	Cond    linear.Cst
	Verdict Verdict
}

func (r Record) String() string {
	return fmt.Sprintf("%s: assert(%s) %s", r.Loc, r.Cond, colorize[r.Verdict](r.Verdict))
}

// Summary counts the records per verdict.
type Summary struct {
	Safe, Error, Warning int
}

func (s Summary) Total() int { return s.Safe + s.Error + s.Warning }

func (s Summary) String() string {
	return fmt.Sprintf("%d total, %s safe, %s error, %s warning", s.Total(),
		colorize[Safe](s.Safe), colorize[Error](s.Error), colorize[Warning](s.Warning))
}

// DB is an append-only collection of check records.
type DB struct {
	records []Record
}

// Add appends a record.
func (db *DB) Add(loc Location, cond linear.Cst, v Verdict) {
	db.records = append(db.records, Record{loc, cond, v})
}

// Merge appends every record of other.
func (db *DB) Merge(other *DB) {
	if other == nil {
		return
	}
	db.records = append(db.records, other.records...)
}

// Clear drops every record.
func (db *DB) Clear() { db.records = nil }

// Len returns the number of records.
func (db *DB) Len() int { return len(db.records) }

// Records returns the records ordered by location. Records of the same
// location keep their insertion order.
func (db *DB) Records() []Record {
	res := append([]Record(nil), db.records...)
	sort.SliceStable(res, func(i, j int) bool { return res[i].Loc.less(res[j].Loc) })
	return res
}

// Collapse combines the records sharing a location into one.
func (db *DB) Collapse() *DB {
	res := &DB{}
	index := map[Location]int{}
	for _, r := range db.Records() {
		if i, ok := index[r.Loc]; ok {
			res.records[i].Verdict = Combine(res.records[i].Verdict, r.Verdict)
			continue
		}
		index[r.Loc] = len(res.records)
		res.records = append(res.records, r)
	}
	return res
}

// Summary counts the records per verdict.
func (db *DB) Summary() (s Summary) {
	for _, r := range db.records {
		switch r.Verdict {
		case Safe:
			s.Safe++
		case Error:
			s.Error++
		case Warning:
			s.Warning++
		}
	}
	return
}

// Write prints the summary, preceded by every record if verbose is set.
func (db *DB) Write(w io.Writer, verbose bool) error {
	if verbose {
		for _, r := range db.Records() {
			if _, err := fmt.Fprintln(w, r); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "Checks: %s\n", db.Summary())
	return err
}
