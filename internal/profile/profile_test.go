package profile

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by step on every call.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestTrack_AddsElapsed(t *testing.T) {
	clock := &stepClock{step: 2 * time.Millisecond}
	p := New(WithClock(clock.now))

	stop := p.Track(OpMatMul)
	stop()
	p.Track(OpMatMul)()

	assert.Equal(t, 4*time.Millisecond, p.Time(OpMatMul))
	assert.Equal(t, 2, p.Calls(OpMatMul))
	assert.Zero(t, p.Time(OpIm2col))
}

func TestAddTime_AccumulatesUntilReset(t *testing.T) {
	p := New()
	p.AddTime(OpPool, time.Millisecond)
	p.AddTime(OpPool, 3*time.Millisecond)
	assert.Equal(t, 4*time.Millisecond, p.Time(OpPool))

	p.Reset()
	assert.Zero(t, p.Time(OpPool))
	assert.Zero(t, p.Calls(OpPool))
}

func TestAddTime_IgnoresUnknownOp(t *testing.T) {
	p := New()
	p.AddTime(Op(42), time.Second)
	p.AddTime(Op(-1), time.Second)
	assert.Zero(t, p.Time(Op(42)))
	assert.Equal(t, Report{}, p.Report())
}

func TestNilProfiler_IsNoop(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() {
		p.Track(OpNorm)()
		p.AddTime(OpReLU, time.Second)
		p.Reset()
	})
	assert.Zero(t, p.Time(OpReLU))
	assert.Zero(t, p.Calls(OpReLU))
	assert.Equal(t, Report{}, p.Report())
}

func TestReport_OthersIsResidual(t *testing.T) {
	p := New()
	p.AddTime(OpIm2col, 1*time.Millisecond)
	p.AddTime(OpMatMul, 5*time.Millisecond)
	p.AddTime(OpPool, 1*time.Millisecond)
	p.AddTime(OpReLU, 1*time.Millisecond)
	p.AddTime(OpNorm, 2*time.Millisecond)
	p.AddTime(OpOverall, 12*time.Millisecond)

	r := p.Report()
	assert.InDelta(t, 5.0, r.MatMul, 1e-9)
	assert.InDelta(t, 12.0, r.Overall, 1e-9)
	assert.InDelta(t, 2.0, r.Others, 1e-9)
}

func TestReport_Print(t *testing.T) {
	r := Report{MatMul: 2, Overall: 3, Others: 1}

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf, 1000))

	out := buf.String()
	assert.Contains(t, out, "Operator Time")
	assert.Contains(t, out, "matmul")
	assert.Contains(t, out, "2.000, 2000")
	assert.Contains(t, out, "others")
	assert.Contains(t, out, "3.000, 3000")
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "im2col", OpIm2col.String())
	assert.Equal(t, "overall", OpOverall.String())
	assert.Equal(t, "unknown", Op(99).String())
}
