package outboundq

import (
	"fmt"
	"sort"
	"strings"
)

// Formatter receives the assembled dump sections and renders them into the
// returned string; passing one in rather than hardcoding a layout lets a
// caller plug in their own presentation (plain text, JSON, a metrics
// scrape) without this package taking an opinion.
type Formatter func(sections []DumpSection) string

// DumpSection is one labeled block of the state dump: overall state, queue
// depth by precedence, in-flight counts by destination, and failure-table
// size.
type DumpSection struct {
	Title string
	Lines []string
}

// DumpState renders a snapshot of the queue's internal state: lifecycle
// state, per-precedence queue depth, live worker count, per-destination
// in-flight counts, and the failure table's size. It takes locks one at a
// time and releases each before moving to the next section, so it never
// holds two of the core's locks simultaneously, consistent with §5's
// resource policy.
func (q *OutboundQ) DumpState(format Formatter) string {
	if format == nil {
		format = defaultFormatter
	}

	sections := []DumpSection{
		q.dumpLifecycle(),
		q.dumpQueueDepth(),
		q.dumpInFlight(),
		q.dumpFailures(),
	}
	return format(sections)
}

func (q *OutboundQ) dumpLifecycle() DumpSection {
	return DumpSection{
		Title: "lifecycle",
		Lines: []string{
			fmt.Sprintf("state=%s live_workers=%d", q.State(), q.threads.liveCount()),
		},
	}
}

func (q *OutboundQ) dumpQueueDepth() DumpSection {
	lines := make([]string, 0, len(precedencesHighToLow)+1)
	lines = append(lines, fmt.Sprintf("total=%d", q.mq.totalSize()))
	for _, prec := range precedencesHighToLow {
		lines = append(lines, fmt.Sprintf("%s=%d", prec, q.mq.sizeBy(ByPrec(prec))))
	}
	return DumpSection{Title: "queue_depth", Lines: lines}
}

func (q *OutboundQ) dumpInFlight() DumpSection {
	q.destTypesMu.RLock()
	nids := make([]NodeID, 0, len(q.destTypes))
	for nid := range q.destTypes {
		nids = append(nids, nid)
	}
	q.destTypesMu.RUnlock()

	sort.Slice(nids, func(i, j int) bool { return nids[i] < nids[j] })

	lines := make([]string, 0, len(nids)+1)
	lines = append(lines, fmt.Sprintf("total=%d", q.inFlight.grandTotal()))
	for _, nid := range nids {
		if n := q.inFlight.total(nid); n > 0 {
			lines = append(lines, fmt.Sprintf("%s=%d", nid, n))
		}
	}
	return DumpSection{Title: "in_flight", Lines: lines}
}

func (q *OutboundQ) dumpFailures() DumpSection {
	return DumpSection{
		Title: "failures",
		Lines: []string{fmt.Sprintf("count=%d", q.failures.size())},
	}
}

// defaultFormatter renders sections as indented plain text.
func defaultFormatter(sections []DumpSection) string {
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "%s:\n", s.Title)
		for _, line := range s.Lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	return b.String()
}
