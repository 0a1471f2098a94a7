// Package resources implements the agent's resource multiset (spec §3: "a
// multiset of named scalar or ranged quantities") over mesos.Resource, the
// same representation more-free-mesos_scheduler builds when it converts a
// task's cpu/mem/port requirements into an offer (scheduler/scheduler.go's
// asMesosShellTask/asRangeResource).
package resources

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	util "github.com/mesos/mesos-go/api/v0/mesosutil"

	"github.com/more-free/agentd/protocol"
)

// Resources is a multiset of named quantities: scalars (cpus, mem, disk) add
// and subtract like the C++ Resources class's += and -=; ranges (ports) union
// and subtract as sets of [begin,end] intervals.
type Resources []*mesos.Resource

// Parse reads the wire form described in spec §3, "cpus:1;mem:1024", and the
// ranged form "ports:[31000-32000]".
func Parse(spec string) (Resources, error) {
	var out Resources
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return out, nil
	}
	for _, field := range strings.Split(spec, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.SplitN(field, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("resources: malformed field %q", field)
		}
		name := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if strings.HasPrefix(val, "[") {
			r, err := parseRanges(name, val)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			continue
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("resources: bad scalar %q: %w", field, err)
		}
		out = append(out, util.NewScalarResource(name, f))
	}
	return out, nil
}

func parseRanges(name, val string) (*mesos.Resource, error) {
	val = strings.TrimPrefix(val, "[")
	val = strings.TrimSuffix(val, "]")
	var ranges []*mesos.Value_Range
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("resources: bad range %q", part)
		}
		begin, err := strconv.ParseUint(strings.TrimSpace(bounds[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("resources: bad range start %q: %w", part, err)
		}
		end, err := strconv.ParseUint(strings.TrimSpace(bounds[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("resources: bad range end %q: %w", part, err)
		}
		ranges = append(ranges, util.NewValueRange(begin, end))
	}
	return util.NewRangesResource(name, ranges), nil
}

// Scalar returns the value of a named scalar resource, 0 if absent.
func (r Resources) Scalar(name string) float64 {
	for _, res := range r {
		if res.GetName() == name && res.GetScalar() != nil {
			return res.GetScalar().GetValue()
		}
	}
	return 0
}

// Ranges returns the [begin,end] pairs of a named ranged resource.
func (r Resources) Ranges(name string) [][2]uint64 {
	var out [][2]uint64
	for _, res := range r {
		if res.GetName() == name && res.GetRanges() != nil {
			for _, rg := range res.GetRanges().GetRange() {
				out = append(out, [2]uint64{rg.GetBegin(), rg.GetEnd()})
			}
		}
	}
	return out
}

// Add implements the C++ Resources class's += : scalars sum, ranges union.
// Matching resource names and types are merged in place; unmatched resources
// from other are appended.
func (r Resources) Add(other Resources) Resources {
	out := r.clone()
	for _, add := range other {
		out = addOne(out, add)
	}
	return out
}

// Subtract implements -= : scalars subtract (clamped at zero), ranges remove
// the subtracted intervals from the existing set.
func (r Resources) Subtract(other Resources) Resources {
	out := r.clone()
	for _, sub := range other {
		out = subtractOne(out, sub)
	}
	return out
}

func (r Resources) clone() Resources {
	out := make(Resources, 0, len(r))
	for _, res := range r {
		out = append(out, cloneResource(res))
	}
	return out
}

func cloneResource(res *mesos.Resource) *mesos.Resource {
	switch res.GetType() {
	case mesos.Value_SCALAR:
		return util.NewScalarResource(res.GetName(), res.GetScalar().GetValue())
	case mesos.Value_RANGES:
		var ranges []*mesos.Value_Range
		for _, rg := range res.GetRanges().GetRange() {
			ranges = append(ranges, util.NewValueRange(rg.GetBegin(), rg.GetEnd()))
		}
		return util.NewRangesResource(res.GetName(), ranges)
	default:
		return res
	}
}

func addOne(out Resources, add *mesos.Resource) Resources {
	for i, res := range out {
		if res.GetName() != add.GetName() || res.GetType() != add.GetType() {
			continue
		}
		switch res.GetType() {
		case mesos.Value_SCALAR:
			out[i] = util.NewScalarResource(res.GetName(), res.GetScalar().GetValue()+add.GetScalar().GetValue())
		case mesos.Value_RANGES:
			merged := append(cloneRangeList(res.GetRanges().GetRange()), cloneRangeList(add.GetRanges().GetRange())...)
			out[i] = util.NewRangesResource(res.GetName(), coalesce(merged))
		}
		return out
	}
	return append(out, cloneResource(add))
}

func subtractOne(out Resources, sub *mesos.Resource) Resources {
	for i, res := range out {
		if res.GetName() != sub.GetName() || res.GetType() != sub.GetType() {
			continue
		}
		switch res.GetType() {
		case mesos.Value_SCALAR:
			v := res.GetScalar().GetValue() - sub.GetScalar().GetValue()
			if v < 0 {
				v = 0
			}
			out[i] = util.NewScalarResource(res.GetName(), v)
		case mesos.Value_RANGES:
			out[i] = util.NewRangesResource(res.GetName(), removeRanges(res.GetRanges().GetRange(), sub.GetRanges().GetRange()))
		}
		return out
	}
	return out
}

func cloneRangeList(ranges []*mesos.Value_Range) []*mesos.Value_Range {
	out := make([]*mesos.Value_Range, 0, len(ranges))
	for _, rg := range ranges {
		out = append(out, util.NewValueRange(rg.GetBegin(), rg.GetEnd()))
	}
	return out
}

// coalesce sorts and merges overlapping/adjacent [begin,end] ranges.
func coalesce(ranges []*mesos.Value_Range) []*mesos.Value_Range {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].GetBegin() < ranges[j].GetBegin() })
	out := []*mesos.Value_Range{ranges[0]}
	for _, rg := range ranges[1:] {
		last := out[len(out)-1]
		if rg.GetBegin() <= last.GetEnd()+1 {
			if rg.GetEnd() > last.GetEnd() {
				out[len(out)-1] = util.NewValueRange(last.GetBegin(), rg.GetEnd())
			}
			continue
		}
		out = append(out, rg)
	}
	return out
}

func removeRanges(have, remove []*mesos.Value_Range) []*mesos.Value_Range {
	var out []*mesos.Value_Range
	for _, h := range have {
		pieces := []*mesos.Value_Range{util.NewValueRange(h.GetBegin(), h.GetEnd())}
		for _, rm := range remove {
			var next []*mesos.Value_Range
			for _, p := range pieces {
				next = append(next, subtractRange(p, rm)...)
			}
			pieces = next
		}
		out = append(out, pieces...)
	}
	return out
}

func subtractRange(have, remove *mesos.Value_Range) []*mesos.Value_Range {
	if remove.GetEnd() < have.GetBegin() || remove.GetBegin() > have.GetEnd() {
		return []*mesos.Value_Range{have}
	}
	var out []*mesos.Value_Range
	if remove.GetBegin() > have.GetBegin() {
		out = append(out, util.NewValueRange(have.GetBegin(), remove.GetBegin()-1))
	}
	if remove.GetEnd() < have.GetEnd() {
		out = append(out, util.NewValueRange(remove.GetEnd()+1, have.GetEnd()))
	}
	return out
}

// String renders the same "name:value;name:value" form Parse accepts.
func (r Resources) String() string {
	parts := make([]string, 0, len(r))
	for _, res := range r {
		switch res.GetType() {
		case mesos.Value_SCALAR:
			parts = append(parts, fmt.Sprintf("%s:%v", res.GetName(), res.GetScalar().GetValue()))
		case mesos.Value_RANGES:
			var rs []string
			for _, rg := range res.GetRanges().GetRange() {
				rs = append(rs, fmt.Sprintf("%d-%d", rg.GetBegin(), rg.GetEnd()))
			}
			parts = append(parts, fmt.Sprintf("%s:[%s]", res.GetName(), strings.Join(rs, ",")))
		}
	}
	return strings.Join(parts, ";")
}

// ToWire converts r into the wire form carried by SlaveInfo/TaskDescription
// (protocol.ResourceSpec), the representation sent over the transport layer
// rather than kept in mesos.Resource.
func (r Resources) ToWire() []protocol.ResourceSpec {
	specs := make([]protocol.ResourceSpec, 0, len(r))
	for _, res := range r {
		switch res.GetType() {
		case mesos.Value_SCALAR:
			v := res.GetScalar().GetValue()
			specs = append(specs, protocol.ResourceSpec{Name: res.GetName(), Scalar: &v})
		case mesos.Value_RANGES:
			var ranges [][2]uint64
			for _, rg := range res.GetRanges().GetRange() {
				ranges = append(ranges, [2]uint64{rg.GetBegin(), rg.GetEnd()})
			}
			specs = append(specs, protocol.ResourceSpec{Name: res.GetName(), Ranges: ranges})
		}
	}
	return specs
}

// FromWire is the inverse of ToWire.
func FromWire(specs []protocol.ResourceSpec) Resources {
	var out Resources
	for _, spec := range specs {
		if spec.Scalar != nil {
			out = append(out, util.NewScalarResource(spec.Name, *spec.Scalar))
			continue
		}
		var ranges []*mesos.Value_Range
		for _, rg := range spec.Ranges {
			ranges = append(ranges, util.NewValueRange(rg[0], rg[1]))
		}
		out = append(out, util.NewRangesResource(spec.Name, ranges))
	}
	return out
}

// Covers reports whether r has at least as much of every scalar in need, and
// need's ranges are subsets of r's. Nothing in the agent calls it: RunTask
// accepts work onto an executor without an admission check.
func (r Resources) Covers(need Resources) bool {
	for _, res := range need {
		switch res.GetType() {
		case mesos.Value_SCALAR:
			if r.Scalar(res.GetName()) < res.GetScalar().GetValue() {
				return false
			}
		case mesos.Value_RANGES:
			if !coversRanges(r.Ranges(res.GetName()), res.GetRanges().GetRange()) {
				return false
			}
		}
	}
	return true
}

func coversRanges(have [][2]uint64, need []*mesos.Value_Range) bool {
	for _, n := range need {
		ok := false
		for _, h := range have {
			if h[0] <= n.GetBegin() && n.GetEnd() <= h[1] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
