package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAndString(t *testing.T) {
	r, err := Parse("cpus:1;mem:1024")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, r.Scalar("cpus"))
	assert.Equal(t, 1024.0, r.Scalar("mem"))
	assert.Equal(t, "cpus:1;mem:1024", r.String())
}

func TestParseRanges(t *testing.T) {
	r, err := Parse("ports:[31000-31001,31005-31005]")
	assert.NoError(t, err)
	ranges := r.Ranges("ports")
	assert.Len(t, ranges, 2)
	assert.Equal(t, [2]uint64{31000, 31001}, ranges[0])
}

func TestAddAndSubtractScalars(t *testing.T) {
	have, err := Parse("cpus:2;mem:2048")
	assert.NoError(t, err)
	used, err := Parse("cpus:1;mem:512")
	assert.NoError(t, err)

	sum := have.Add(used)
	assert.Equal(t, 3.0, sum.Scalar("cpus"))
	assert.Equal(t, 2560.0, sum.Scalar("mem"))

	diff := have.Subtract(used)
	assert.Equal(t, 1.0, diff.Scalar("cpus"))
	assert.Equal(t, 1536.0, diff.Scalar("mem"))
}

func TestSubtractClampsAtZero(t *testing.T) {
	have, err := Parse("cpus:1")
	assert.NoError(t, err)
	used, err := Parse("cpus:5")
	assert.NoError(t, err)

	diff := have.Subtract(used)
	assert.Equal(t, 0.0, diff.Scalar("cpus"))
}

func TestCovers(t *testing.T) {
	have, err := Parse("cpus:2;mem:1024;ports:[31000-32000]")
	assert.NoError(t, err)

	need, err := Parse("cpus:1;mem:512;ports:[31500-31600]")
	assert.NoError(t, err)
	assert.True(t, have.Covers(need))

	tooMuch, err := Parse("cpus:10")
	assert.NoError(t, err)
	assert.False(t, have.Covers(tooMuch))
}

func TestRangeSubtractSplitsInterval(t *testing.T) {
	have, err := Parse("ports:[31000-32000]")
	assert.NoError(t, err)
	used, err := Parse("ports:[31500-31500]")
	assert.NoError(t, err)

	diff := have.Subtract(used)
	ranges := diff.Ranges("ports")
	assert.Len(t, ranges, 2)
	assert.Equal(t, [2]uint64{31000, 31499}, ranges[0])
	assert.Equal(t, [2]uint64{31501, 32000}, ranges[1])
}

func TestWireRoundTrip(t *testing.T) {
	r, err := Parse("cpus:1.5;ports:[100-200]")
	assert.NoError(t, err)
	back := FromWire(r.ToWire())
	assert.Equal(t, 1.5, back.Scalar("cpus"))
	assert.Equal(t, r.Ranges("ports"), back.Ranges("ports"))
}
