package inspector

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/components"
)

// flatProjector maps world X/Y straight to pixels.
type flatProjector struct{}

func (flatProjector) Project(p r3.Vec) (float64, float64, bool) {
	return p.X, p.Y, p.Z >= 0
}

func views(n int) []components.AgentView {
	out := make([]components.AgentView, n)
	for i := range out {
		out[i] = components.AgentView{
			Agent:     components.Agent{ID: uuid.New(), Index: i, State: components.Ready},
			Transform: components.NewTransform(r3.Vec{X: float64(i * 100)}),
		}
	}
	return out
}

func TestParseTag(t *testing.T) {
	w, opts := ParseTag("bar,max:15,fmt:%.1f")
	assert.Equal(t, WidgetBar, w)
	assert.Equal(t, "15", opts["max"])
	assert.Equal(t, "%.1f", opts["fmt"])
	assert.InDelta(t, 15.0, GetMax(opts), 1e-12)

	w, opts = ParseTag("")
	assert.Equal(t, WidgetAuto, w)
	assert.Empty(t, opts)
	assert.InDelta(t, 1.0, GetMax(opts), 1e-12)

	w, _ = ParseTag("skip")
	assert.Equal(t, WidgetSkip, w)
}

func TestExtractFields(t *testing.T) {
	seeker := components.Seeker{Seeking: true, Distance: 4.256}
	fields := ExtractFields(&seeker)
	require.Len(t, fields, 2)
	assert.Equal(t, "Seeking", fields[0].Name)
	assert.Equal(t, WidgetBool, fields[0].Widget)
	assert.Equal(t, "4.26", FormatValue(fields[1].Value, fields[1].Options["fmt"]))

	tr := components.NewTransform(r3.Vec{X: 1, Y: 2, Z: 3})
	fields = ExtractFields(tr)
	require.Len(t, fields, 3)
	assert.Equal(t, WidgetVector, fields[0].Widget)
	assert.Equal(t, "(1.00, 2.00, 3.00)", FormatValue(fields[0].Value, ""))
	assert.Equal(t, "(1.00, 0.00, 0.00, 0.00)", FormatValue(fields[1].Value, ""))

	assert.Nil(t, ExtractFields(42))
}

func TestFormatStringer(t *testing.T) {
	assert.Equal(t, "Loading", FormatValue(components.Loading, ""))
}

func TestNextCycles(t *testing.T) {
	vs := views(3)
	ins := NewInspector(1280)

	require.True(t, ins.Next(vs))
	id, ok := ins.Selected()
	require.True(t, ok)
	assert.Equal(t, vs[0].Agent.ID, id)

	ins.Next(vs)
	ins.Next(vs)
	ins.Next(vs)
	id, _ = ins.Selected()
	assert.Equal(t, vs[0].Agent.ID, id, "wraps around")

	assert.False(t, ins.Next(nil))
	_, ok = ins.Selected()
	assert.False(t, ok)
}

func TestPick(t *testing.T) {
	vs := views(3)
	ins := NewInspector(1280)

	assert.True(t, ins.Pick(vs, flatProjector{}, 105, 4, 20))
	id, _ := ins.Selected()
	assert.Equal(t, vs[1].Agent.ID, id)

	assert.False(t, ins.Pick(vs, flatProjector{}, 50, 0, 20), "nothing within radius")
	id, _ = ins.Selected()
	assert.Equal(t, vs[1].Agent.ID, id, "a miss keeps the selection")
}

func TestFindClearsStaleSelection(t *testing.T) {
	vs := views(2)
	ins := NewInspector(1280)
	ins.Select(vs[1].Agent.ID)

	v, ok := ins.Find(vs)
	require.True(t, ok)
	assert.Equal(t, 1, v.Agent.Index)

	_, ok = ins.Find(vs[:1])
	assert.False(t, ok)
	_, ok = ins.Selected()
	assert.False(t, ok)
}
