package snn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

func frames(steps, n int, on ...int) [][]bool {
	out := make([][]bool, steps)
	for t := range out {
		out[t] = make([]bool, n)
		for _, i := range on {
			out[t][i] = true
		}
	}
	return out
}

func TestLIFDecaysTowardRestAndSpikes(t *testing.T) {
	l, err := NewLayer("a", KindLIF, 1, NeuronParams{Rest: -65, Reset: -60, Thresh: -52, Refrac: 5, TcDecay: 100})
	if err != nil {
		t.Fatalf("new layer: %v", err)
	}
	l.V[0] = -55
	l.step(1)
	want := -65 + 10*math.Exp(-1.0/100)
	if math.Abs(l.V[0]-want) > 1e-12 || l.Spikes[0] {
		t.Fatalf("v = %f spike=%v, want %f and no spike", l.V[0], l.Spikes[0], want)
	}
	l.current[0] = 20
	l.step(1)
	if !l.Spikes[0] || l.V[0] != -60 {
		t.Fatalf("expected spike and reset, v=%f spike=%v", l.V[0], l.Spikes[0])
	}
	l.step(1)
	if l.Spikes[0] {
		t.Fatal("neuron fired during refractory period")
	}
}

func TestAdaptiveThetaGrowsAndSurvivesReset(t *testing.T) {
	l, err := NewLayer("e", KindAdaptiveLIF, 1, NeuronParams{Rest: -65, Reset: -60, Thresh: -52, Refrac: 0, TcDecay: 100, ThetaPlus: 0.5})
	if err != nil {
		t.Fatalf("new layer: %v", err)
	}
	l.current[0] = 100
	l.step(1)
	if !l.Spikes[0] || l.Theta[0] != 0.5 {
		t.Fatalf("expected spike and theta=0.5, got spike=%v theta=%f", l.Spikes[0], l.Theta[0])
	}
	l.Reset()
	if l.Theta[0] != 0.5 || l.V[0] != -65 || l.Trace[0] != 0 {
		t.Fatalf("reset should keep theta and clear state: theta=%f v=%f trace=%f", l.Theta[0], l.V[0], l.Trace[0])
	}
}

func TestNewLayerValidation(t *testing.T) {
	if _, err := NewLayer("x", "izhikevich", 1, NeuronParams{}); err == nil {
		t.Fatal("expected unsupported kind error")
	}
	if _, err := NewLayer("x", KindLIF, 0, NeuronParams{TcDecay: 1}); err == nil {
		t.Fatal("expected size error")
	}
	if _, err := NewLayer("x", KindLIF, 1, NeuronParams{}); err == nil {
		t.Fatal("expected tc_decay error")
	}
}

func TestPostPreUpdatesAndClamps(t *testing.T) {
	src, _ := NewLayer("s", KindInput, 2, NeuronParams{TcTrace: 20})
	dst, _ := NewLayer("d", KindInput, 2, NeuronParams{TcTrace: 20})
	c, err := NewConnection(src, dst, mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.99}))
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}
	c.NuPre, c.NuPost, c.WMin, c.WMax = 0.1, 0.1, 0, 1
	src.Spikes[0] = true
	src.Trace[0], src.Trace[1] = 1, 1
	dst.Spikes[1] = true
	dst.Trace[0], dst.Trace[1] = 0, 1

	postPre(c)
	// w[0][1]: -0.1*1 then +0.1*1; w[1][1]: 0.99+0.1 clamped to 1.
	if got := c.W.At(0, 1); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("w[0][1] = %f, want 0.5", got)
	}
	if got := c.W.At(1, 1); got != 1 {
		t.Fatalf("w[1][1] = %f, want clamp to 1", got)
	}
	if got := c.W.At(0, 0); got != 0.5 {
		t.Fatalf("w[0][0] = %f, want unchanged", got)
	}
}

func TestNormalizeColumns(t *testing.T) {
	src, _ := NewLayer("s", KindInput, 2, NeuronParams{})
	dst, _ := NewLayer("d", KindInput, 2, NeuronParams{})
	c, _ := NewConnection(src, dst, mat.NewDense(2, 2, []float64{1, 0, 3, 0}))
	c.Norm = 2
	c.Normalize()
	if c.W.At(0, 0) != 0.5 || c.W.At(1, 0) != 1.5 {
		t.Fatalf("column 0 = %f,%f", c.W.At(0, 0), c.W.At(1, 0))
	}
	if c.W.At(0, 1) != 0 || c.W.At(1, 1) != 0 {
		t.Fatal("zero column should stay zero")
	}
}

func TestConvSizeAndMask(t *testing.T) {
	conv, err := ConvSize(20, [2]int{16, 16}, [2]int{2, 2})
	if err != nil {
		t.Fatalf("conv size: %v", err)
	}
	if conv != [2]int{3, 3} {
		t.Fatalf("conv = %v, want [3 3]", conv)
	}
	g := model.Geometry{Side: 4, Kernel: []int{2, 2}, Stride: []int{2, 2}, ConvSize: []int{2, 2}, Filters: 2}
	mask := LocalMask(g)
	cols := 8
	for j := 0; j < cols; j++ {
		n := 0
		for i := 0; i < 16; i++ {
			if mask[i*cols+j] {
				n++
			}
		}
		if n != 4 {
			t.Fatalf("target %d sees %d inputs, want 4", j, n)
		}
	}
	// pixel (3,3) belongs only to location 3.
	src := 3*4 + 3
	if !mask[src*cols+3] || !mask[src*cols+7] || mask[src*cols+0] {
		t.Fatal("pixel (3,3) mapped to the wrong receptive fields")
	}
	if Location(g, 7) != 3 || Filter(g, 7) != 1 {
		t.Fatalf("target 7 = filter %d location %d", Filter(g, 7), Location(g, 7))
	}
	if _, err := ConvSize(4, [2]int{5, 5}, [2]int{1, 1}); err == nil {
		t.Fatal("expected error for kernel larger than image")
	}
}

func TestNewLocallyConnectedTopology(t *testing.T) {
	net, err := NewLocallyConnected(LocallyConnectedParams{
		Side: 8, Kernel: [2]int{4, 4}, Stride: [2]int{2, 2}, Filters: 3,
		Inhib: 250, Dt: 1, LR: 0.01, ThetaPlus: 0.05, ThetaDecay: 1e-7, Norm: 0.2, WMax: 1,
	}, rand.New(rand.NewSource(0)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	roles := net.Roles()
	if roles.Input.N != 64 || roles.Excitatory.N != 27 || roles.Inhibitory != nil {
		t.Fatalf("unexpected role sizes: in=%d exc=%d", roles.Input.N, roles.Excitatory.N)
	}
	rows, cols := roles.Primary.W.Dims()
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			w := roles.Primary.W.At(i, j)
			if !roles.Primary.Mask[i*cols+j] && w != 0 {
				t.Fatalf("weight outside receptive field at (%d,%d)", i, j)
			}
			sum += w
		}
		if math.Abs(sum-0.2*16) > 1e-9 {
			t.Fatalf("column %d sums to %f, want 3.2", j, sum)
		}
	}
	rec, ok := net.Connection("Y", "Y")
	if !ok {
		t.Fatal("missing recurrent connection")
	}
	if rec.W.At(0, 9) != -250 || rec.W.At(0, 1) != 0 || rec.W.At(0, 0) != 0 {
		t.Fatalf("unexpected recurrent inhibition: %f %f %f", rec.W.At(0, 9), rec.W.At(0, 1), rec.W.At(0, 0))
	}
}

func TestDiehlCookRunAndFreeze(t *testing.T) {
	p := DefaultDiehlCookParams(5, 22.5, 17.5, 1)
	p.NInput = 16
	net, err := NewDiehlAndCook2015(p, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	roles := net.Roles()
	if roles.Inhibitory == nil || roles.Inhibitory.Name != "Ai" {
		t.Fatal("inhibitory role not bound")
	}
	before := mat.DenseCopyOf(roles.Primary.W)
	rec, err := net.Run(frames(50, 16, 0, 1, 2, 3, 4, 5, 6, 7))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rec.Steps != 50 || len(rec.Spikes("Ae")) != 50 {
		t.Fatalf("recording has %d steps", len(rec.Spikes("Ae")))
	}
	if rec.Count("X") != 50*8 {
		t.Fatalf("input spikes %d, want 400", rec.Count("X"))
	}
	if mat.Equal(before, roles.Primary.W) {
		t.Fatal("expected learning to change the primary weights")
	}

	net.Reset()
	net.Freeze()
	if roles.Primary.Rule != RuleNoOp || roles.Excitatory.Params.ThetaPlus != 0 || roles.Excitatory.Params.ThetaDecay != 0 {
		t.Fatal("freeze did not disable learning")
	}
	roles.Primary.Norm = 0
	frozen := mat.DenseCopyOf(roles.Primary.W)
	theta := append([]float64(nil), roles.Excitatory.Theta...)
	if _, err := net.Run(frames(50, 16, 0, 1, 2, 3)); err != nil {
		t.Fatalf("frozen run: %v", err)
	}
	if !mat.Equal(frozen, roles.Primary.W) {
		t.Fatal("frozen network changed its weights")
	}
	for i := range theta {
		if theta[i] != roles.Excitatory.Theta[i] {
			t.Fatal("frozen network changed theta")
		}
	}
}

func TestRunRejectsWrongFrameWidth(t *testing.T) {
	p := DefaultDiehlCookParams(2, 22.5, 17.5, 1)
	net, err := NewDiehlAndCook2015(p, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := net.Run(frames(1, 3)); err == nil {
		t.Fatal("expected frame width error")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	net, err := NewLocallyConnected(LocallyConnectedParams{
		Side: 6, Kernel: [2]int{4, 4}, Stride: [2]int{2, 2}, Filters: 2,
		Inhib: 100, Dt: 1, LR: 0.01, ThetaPlus: 0.05, Norm: 0.2, WMax: 1,
	}, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	net.Roles().Excitatory.Theta[3] = 1.25
	restored, err := Restore(net.Snapshot())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !mat.Equal(net.Roles().Primary.W, restored.Roles().Primary.W) {
		t.Fatal("primary weights differ after restore")
	}
	if restored.Roles().Excitatory.Theta[3] != 1.25 {
		t.Fatal("theta lost in restore")
	}
	if restored.Geometry() == nil || restored.Geometry().Filters != 2 {
		t.Fatal("geometry lost in restore")
	}
	if restored.Roles().Primary.Rule != RulePostPre {
		t.Fatalf("rule = %s", restored.Roles().Primary.Rule)
	}

	snap := net.Snapshot()
	snap.SchemaVersion = 9
	if _, err := Restore(snap); !errors.Is(err, ErrSnapshotVersion) {
		t.Fatalf("expected ErrSnapshotVersion, got %v", err)
	}
}

func TestBindRejectsMissingRole(t *testing.T) {
	net := NewNetwork("n", 1)
	x, _ := NewLayer("X", KindInput, 1, NeuronParams{})
	_ = net.AddLayer(x)
	err := net.Bind(model.RoleBindings{Input: "X", Excitatory: "Y", PrimarySource: "X", PrimaryTarget: "Y"})
	if !errors.Is(err, ErrMissingRole) {
		t.Fatalf("expected ErrMissingRole, got %v", err)
	}
}

func TestRuleRegistry(t *testing.T) {
	resetRuleRegistryForTests()
	t.Cleanup(resetRuleRegistryForTests)

	if err := RegisterRule("decay", func(c *Connection) { c.W.Scale(0.5, c.W) }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterRule("decay", func(*Connection) {}); !errors.Is(err, ErrRuleExists) {
		t.Fatalf("expected ErrRuleExists, got %v", err)
	}
	if _, err := GetRule("missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
	if err := RegisterRuleWithSpec(RuleSpec{Name: "v", Func: func(*Connection) {}, SchemaVersion: 2, CodecVersion: 1}); !errors.Is(err, ErrRuleVersion) {
		t.Fatalf("expected ErrRuleVersion, got %v", err)
	}
	names := ListRules()
	if len(names) != 3 || names[0] != "decay" || names[1] != RuleNoOp || names[2] != RulePostPre {
		t.Fatalf("unexpected rules: %v", names)
	}
}
