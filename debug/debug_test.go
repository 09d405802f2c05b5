package debug

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokamak/config"
	"tokamak/geometry"
	"tokamak/solver"
	"tokamak/state"
	"tokamak/stepper"
)

func record(t *testing.T) *Record {
	t.Helper()
	geo, err := geometry.NewCircular(5, 1, 3)
	require.NoError(t, err)
	p := state.Initial(geo, config.Default().Slice(0))
	r := NewRecord(geo, 0, p)
	next := p.Copy()
	next.TempIon.Value[0] = 7
	r.Update(0.1, 0.1, 1, stepper.Output{
		Profiles:   next,
		Outcome:    solver.Converged,
		Iterations: 3,
		Residual:   1e-7,
		History:    []solver.Iteration{{Iter: 0, Residual: math.Inf(1)}, {Iter: 1, Residual: 1e-7, Tau: 1}},
	})
	return r
}

func TestRecordRender(t *testing.T) {
	r := record(t)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 7.0, r.Final("temp_ion")[0])
	assert.Len(t, r.Profiles["ni"], 2)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	var back Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, []int{0, 3}, back.Iterations)
	assert.Equal(t, -1.0, back.History[1][0].Residual)
}

func TestChartsHandler(t *testing.T) {
	c := &Charts{Record: record(t)}
	rec := httptest.NewRecorder()
	c.Handler(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "temp_ion"))
	assert.True(t, strings.Contains(body, "echarts"))

	empty := &Charts{Record: &Record{}}
	assert.Error(t, empty.Render(&bytes.Buffer{}))
}

func TestPlot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, record(t).Plot(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
