package results

import (
	"errors"
	"fmt"
	"io"

	"github.com/cs-au-dk/invariant/analysis/absval"

	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the version of the snapshot format written by this
// package. Snapshots with the same major version can be read back.
const FormatVersion = "1.1.0"

var (
	// ErrIncompatibleSnapshot is returned when decoding a snapshot written
	// in an unsupported format version.
	ErrIncompatibleSnapshot = errors.New("incompatible snapshot version")
	errUnknownFormat        = errors.New("unknown snapshot encoding")

	compatible = func() *semver.Constraints {
		c, err := semver.NewConstraint("^" + FormatVersion[:1])
		if err != nil {
			panic(err)
		}
		return c
	}()
)

// Encoding selects the serialization of a snapshot.
type Encoding string

const (
	Msgpack Encoding = "msgpack"
	YAML    Encoding = "yaml"
)

// Snapshot is a serializable view of a store. Invariants are rendered as
// conjunctions of linear constraints.
type Snapshot struct {
	Version         string         `msgpack:"version" yaml:"version"`
	Domain          string         `msgpack:"domain,omitempty" yaml:"domain,omitempty"`
	Procs           []ProcSnapshot `msgpack:"procs" yaml:"procs"`
	InfeasibleEdges []string       `msgpack:"infeasible_edges,omitempty" yaml:"infeasible-edges,omitempty"`
	Checks          ChecksSnapshot `msgpack:"checks" yaml:"checks"`
}

type ProcSnapshot struct {
	Name   string          `msgpack:"name" yaml:"name"`
	Blocks []BlockSnapshot `msgpack:"blocks" yaml:"blocks"`
}

type BlockSnapshot struct {
	Label string   `msgpack:"label" yaml:"label"`
	Pre   []string `msgpack:"pre" yaml:"pre,flow"`
	Post  []string `msgpack:"post" yaml:"post,flow"`
}

type ChecksSnapshot struct {
	Safe    int `msgpack:"safe" yaml:"safe"`
	Error   int `msgpack:"error" yaml:"error"`
	Warning int `msgpack:"warning" yaml:"warning"`
}

func constraintStrings(v absval.Value) []string {
	if v == nil {
		return nil
	}
	if v.IsBottom() {
		return []string{"false"}
	}
	cs := v.ToConstraints()
	res := make([]string, len(cs))
	for i, c := range cs {
		res[i] = c.String()
	}
	return res
}

// Snapshot captures the current content of the store.
func (s *Store) Snapshot(keepShadows bool) Snapshot {
	snap := Snapshot{Version: FormatVersion}
	for _, proc := range s.Procs() {
		ps := ProcSnapshot{Name: proc}
		for _, l := range s.Blocks(proc) {
			ref := Ref{proc, l}
			pre, _ := s.Pre(ref, keepShadows)
			post, _ := s.Post(ref, keepShadows)
			if snap.Domain == "" && pre != nil {
				snap.Domain = pre.Tag().String()
			}
			ps.Blocks = append(ps.Blocks, BlockSnapshot{
				Label: l.String(),
				Pre:   constraintStrings(pre),
				Post:  constraintStrings(post),
			})
		}
		snap.Procs = append(snap.Procs, ps)
	}
	for _, e := range s.InfeasibleEdges() {
		snap.InfeasibleEdges = append(snap.InfeasibleEdges, e.String())
	}
	sum := s.ChecksSummary()
	snap.Checks = ChecksSnapshot{sum.Safe, sum.Error, sum.Warning}
	return snap
}

// Encode writes the snapshot with the given encoding.
func (snap Snapshot) Encode(w io.Writer, enc Encoding) error {
	switch enc {
	case Msgpack:
		return msgpack.NewEncoder(w).Encode(snap)
	case YAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(snap); err != nil {
			return err
		}
		return e.Close()
	}
	return fmt.Errorf("%w: %q", errUnknownFormat, enc)
}

// DecodeSnapshot reads a snapshot and checks that its format version is
// supported.
func DecodeSnapshot(r io.Reader, enc Encoding) (snap Snapshot, err error) {
	switch enc {
	case Msgpack:
		err = msgpack.NewDecoder(r).Decode(&snap)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&snap)
	default:
		err = fmt.Errorf("%w: %q", errUnknownFormat, enc)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	v, err := semver.NewVersion(snap.Version)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrIncompatibleSnapshot, err)
	}
	if !compatible.Check(v) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrIncompatibleSnapshot, v)
	}
	return snap, nil
}
