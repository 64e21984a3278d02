package scan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// Filter is the set of record predicates for one run. Active
// predicates compose by AND; the zero Filter keeps everything.
type Filter struct {
	ListeningOnly bool

	// Proto keeps only records of one protocol; empty keeps all.
	Proto model.Protocol

	// Pattern keeps records where it matches the program name OR the
	// decimal local port. Nil disables the predicate.
	Pattern *regexp.Regexp
}

// NewFilter validates and compiles the user-supplied filter inputs.
// It is called before any enumeration so a bad pattern or protocol
// fails up front.
func NewFilter(listeningOnly bool, proto, pattern string) (Filter, error) {
	f := Filter{ListeningOnly: listeningOnly}

	switch strings.ToLower(proto) {
	case "", "all":
	case "tcp":
		f.Proto = model.ProtoTCP
	case "udp":
		f.Proto = model.ProtoUDP
	default:
		return Filter{}, fmt.Errorf("invalid protocol %q (want tcp, udp, or all)", proto)
	}

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		f.Pattern = re
	}

	return f, nil
}

// Match reports whether a record passes every active predicate.
func (f Filter) Match(r model.Record) bool {
	if f.ListeningOnly && !r.Listening() {
		return false
	}
	if f.Proto != "" && r.Protocol != f.Proto {
		return false
	}
	if f.Pattern != nil {
		if !f.Pattern.MatchString(r.Program) &&
			!f.Pattern.MatchString(strconv.Itoa(r.LocalPort)) {
			return false
		}
	}
	return true
}

// Apply returns the records that pass the filter, preserving order.
func (f Filter) Apply(records []model.Record) []model.Record {
	kept := make([]model.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
