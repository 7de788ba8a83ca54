package designspace

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

func TestNormalizeValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.model")
	defer teardown()
	//
	b := Bounds{Min: 100, Default: 400, Max: 900}
	cases := []struct {
		v    float64
		want float64
	}{
		{400, 0}, {100, -1}, {900, 1}, {650, 0.5}, {250, -0.5},
		{50, -1}, {1000, 1}, // clamped
	}
	for _, c := range cases {
		if got := NormalizeValue(c.v, b); got != c.want {
			t.Errorf("expected normalize(%g) to be %g, is %g", c.v, c.want, got)
		}
	}
}

func TestPiecewiseLinearMap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.model")
	defer teardown()
	//
	mapping := [][2]float64{{100, 0}, {400, 50}, {900, 100}}
	if got := PiecewiseLinearMap(400, mapping); got != 50 {
		t.Errorf("expected map(400) to be 50, is %g", got)
	}
	if got := PiecewiseLinearMap(650, mapping); got != 75 {
		t.Errorf("expected map(650) to be 75, is %g", got)
	}
	if got := PiecewiseLinearMap(123, nil); got != 123 {
		t.Errorf("expected identity mapping without samples, got %g", got)
	}
}

func TestLocalAxisTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.model")
	defer teardown()
	//
	tags := LocalAxisTags([]string{"width", "bend"})
	if tags["bend"] != "V000" || tags["width"] != "V001" {
		t.Errorf("expected local tags in sorted name order, got %v", tags)
	}
}

func TestModelRequiresDefault(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.model")
	defer teardown()
	//
	_, err := NewModel([]Location{{"wght": 1}})
	if err == nil {
		t.Fatal("expected model over non-default masters to fail")
	}
	var missing *MissingDefaultMaster
	if !errors.As(err, &missing) {
		t.Errorf("expected a MissingDefaultMaster error, got %v", err)
	}
}

// --- Test Suite Preparation ------------------------------------------------

type ModelTestEnviron struct {
	suite.Suite
	model  *Model
	deltas [][]float64
}

// listen for 'go test' command --> run test methods
func TestVariationModel(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.model")
	defer teardown()
	suite.Run(t, new(ModelTestEnviron))
}

// Three masters on one axis: default, full weight, half weight.
var testLocations = []Location{
	{"wght": 1},
	{},
	{"wght": 0.5},
}

var testMasterValues = [][]float64{
	{700, 100}, // at wght=1
	{100, 20},  // default
	{500, 80},  // at wght=0.5
}

func (env *ModelTestEnviron) SetupSuite() {
	var err error
	env.model, err = NewModel(testLocations)
	env.Require().NoError(err, "expected model construction to succeed")
	env.deltas, err = env.model.Deltas(testMasterValues)
	env.Require().NoError(err, "expected delta computation to succeed")
}

// --- Tests -----------------------------------------------------------------

func (env *ModelTestEnviron) TestModelOrder() {
	env.Equal(0, env.model.MasterIndex(1), "expected the default master to sort first")
	env.Equal(Location{}, env.model.Locations()[0])
}

func (env *ModelTestEnviron) TestRegionLocking() {
	// The wght=1 master must not reach below the wght=0.5 sibling peak.
	supports := env.model.Supports()
	full := supports[env.model.MasterIndex(0)]
	env.Equal(AxisRange{Min: 0.5, Peak: 1, Max: 1}, full["wght"],
		"expected support of wght=1 master to be locked to the sibling peak")
}

func (env *ModelTestEnviron) TestRoundTripAtMasters() {
	for i, loc := range []Location{{"wght": 1}, {}, {"wght": 0.5}} {
		got := env.model.Evaluate(env.deltas, loc)
		env.InDelta(testMasterValues[i][0], got[0], 1e-9, "payload 0 at %v", loc)
		env.InDelta(testMasterValues[i][1], got[1], 1e-9, "payload 1 at %v", loc)
	}
}

func (env *ModelTestEnviron) TestInterpolation() {
	got := env.model.Evaluate(env.deltas, Location{"wght": 0.25})
	env.InDelta(300, got[0], 1e-9, "expected halfway value between default and wght=0.5")
}

func (env *ModelTestEnviron) TestLocality() {
	// A delta contributes nothing strictly outside its support.
	supports := env.model.Supports()
	half := env.model.MasterIndex(2)
	scalar := SupportScalar(Location{"wght": -0.5}, supports[half])
	env.Equal(0.0, scalar, "expected no contribution outside the support region")
}

func (env *ModelTestEnviron) TestEvaluateIsPure() {
	loc := Location{"wght": 0.7321}
	a := env.model.Evaluate(env.deltas, loc)
	b := env.model.Evaluate(env.deltas, loc)
	env.Equal(a, b, "expected identical evaluations for identical locations")
}

func TestTwoAxisSupports(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.model")
	defer teardown()
	//
	locations := []Location{
		{},
		{"wght": 1},
		{"wdth": 1},
		{"wght": 1, "wdth": 1},
	}
	model, err := NewModel(locations)
	if err != nil {
		t.Fatal(err)
	}
	values := [][]float64{{0}, {10}, {100}, {1000}}
	deltas, err := model.Deltas(values)
	if err != nil {
		t.Fatal(err)
	}
	// the corner master delta has to absorb the two on-axis deltas
	corner := model.MasterIndex(3)
	if got := deltas[corner][0]; math.Abs(got-890) > 1e-9 {
		t.Errorf("expected corner delta to be 890, is %g", got)
	}
	for i, loc := range locations {
		got := model.Evaluate(deltas, loc)
		if math.Abs(got[0]-values[i][0]) > 1e-9 {
			t.Errorf("expected round-trip at %v to yield %g, got %g", loc, values[i][0], got[0])
		}
	}
}
