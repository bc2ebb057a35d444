package snn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

const defaultTcTrace = 20.0

// Excitatory neuron constants shared by both architectures.
var excitatoryParams = NeuronParams{
	Rest:    -65,
	Reset:   -60,
	Thresh:  -52,
	Refrac:  5,
	TcDecay: 100,
	TcTrace: defaultTcTrace,
}

var inhibitoryParams = NeuronParams{
	Rest:    -60,
	Reset:   -45,
	Thresh:  -40,
	Refrac:  2,
	TcDecay: 10,
	TcTrace: defaultTcTrace,
}

type LocallyConnectedParams struct {
	Side       int
	Kernel     [2]int
	Stride     [2]int
	Filters    int
	Inhib      float64
	Dt         float64
	LR         float64
	ThetaPlus  float64
	ThetaDecay float64
	// Norm is the mean weight each receptive field is normalized to.
	Norm float64
	WMin float64
	WMax float64
}

// NewLocallyConnected builds input layer X and adaptive layer Y of
// Filters x ConvSize neurons. X->Y is masked to each neuron's receptive
// field and learns with post_pre; Y->Y inhibits between filters sharing a
// location.
func NewLocallyConnected(p LocallyConnectedParams, rng *rand.Rand) (*Network, error) {
	conv, err := ConvSize(p.Side, p.Kernel, p.Stride)
	if err != nil {
		return nil, err
	}
	if p.Filters <= 0 {
		return nil, fmt.Errorf("filters must be > 0")
	}
	geom := model.Geometry{
		Side:     p.Side,
		Kernel:   []int{p.Kernel[0], p.Kernel[1]},
		Stride:   []int{p.Stride[0], p.Stride[1]},
		ConvSize: []int{conv[0], conv[1]},
		Filters:  p.Filters,
	}
	nIn := p.Side * p.Side
	convProd := conv[0] * conv[1]
	nOut := p.Filters * convProd

	net := NewNetwork("locally_connected", p.Dt)
	x, err := NewLayer("X", KindInput, nIn, NeuronParams{TcTrace: defaultTcTrace})
	if err != nil {
		return nil, err
	}
	x.Shape = []int{p.Side, p.Side}
	yParams := excitatoryParams
	yParams.ThetaPlus = p.ThetaPlus
	yParams.ThetaDecay = p.ThetaDecay
	y, err := NewLayer("Y", KindAdaptiveLIF, nOut, yParams)
	if err != nil {
		return nil, err
	}
	y.Shape = []int{p.Filters, conv[0], conv[1]}
	for _, l := range []*Layer{x, y} {
		if err := net.AddLayer(l); err != nil {
			return nil, err
		}
	}

	mask := LocalMask(geom)
	data := make([]float64, nIn*nOut)
	for i := range data {
		if mask[i] {
			data[i] = p.WMin + rng.Float64()*(p.WMax-p.WMin)
		}
	}
	xy, err := NewConnection(x, y, mat.NewDense(nIn, nOut, data))
	if err != nil {
		return nil, err
	}
	xy.Mask = mask
	xy.Rule = RulePostPre
	xy.NuPre, xy.NuPost = 0, p.LR
	xy.WMin, xy.WMax = p.WMin, p.WMax
	xy.Norm = p.Norm * float64(p.Kernel[0]*p.Kernel[1])
	xy.Normalize()

	yy := mat.NewDense(nOut, nOut, nil)
	for i := 0; i < nOut; i++ {
		for j := 0; j < nOut; j++ {
			if i%convProd == j%convProd && i/convProd != j/convProd {
				yy.Set(i, j, -p.Inhib)
			}
		}
	}
	recurrent, err := NewConnection(y, y, yy)
	if err != nil {
		return nil, err
	}
	for _, c := range []*Connection{xy, recurrent} {
		if err := net.AddConnection(c); err != nil {
			return nil, err
		}
	}
	if err := net.Bind(model.RoleBindings{
		Input:         "X",
		Excitatory:    "Y",
		PrimarySource: "X",
		PrimaryTarget: "Y",
		Geometry:      &geom,
	}); err != nil {
		return nil, err
	}
	return net, nil
}

type DiehlCookParams struct {
	NInput     int
	NNeurons   int
	Excite     float64
	Inhib      float64
	Dt         float64
	NuPre      float64
	NuPost     float64
	WMax       float64
	Norm       float64
	ThetaPlus  float64
	ThetaDecay float64
}

// DefaultDiehlCookParams fills the fixed constants of the 2015 model for a
// 28x28 input.
func DefaultDiehlCookParams(nNeurons int, excite, inhib, dt float64) DiehlCookParams {
	return DiehlCookParams{
		NInput:     784,
		NNeurons:   nNeurons,
		Excite:     excite,
		Inhib:      inhib,
		Dt:         dt,
		NuPre:      1e-4,
		NuPost:     1e-2,
		WMax:       1,
		Norm:       78.4,
		ThetaPlus:  1,
		ThetaDecay: 1e-7,
	}
}

// NewDiehlAndCook2015 builds input X, adaptive excitatory Ae and
// inhibitory Ai. Ae->Ai is one-to-one excitation; Ai->Ae inhibits every
// excitatory neuron but its partner.
func NewDiehlAndCook2015(p DiehlCookParams, rng *rand.Rand) (*Network, error) {
	if p.NInput <= 0 || p.NNeurons <= 0 {
		return nil, fmt.Errorf("input and neuron counts must be > 0")
	}
	net := NewNetwork("diehl_and_cook_2015", p.Dt)
	x, err := NewLayer("X", KindInput, p.NInput, NeuronParams{TcTrace: defaultTcTrace})
	if err != nil {
		return nil, err
	}
	aeParams := excitatoryParams
	aeParams.ThetaPlus = p.ThetaPlus
	aeParams.ThetaDecay = p.ThetaDecay
	ae, err := NewLayer("Ae", KindAdaptiveLIF, p.NNeurons, aeParams)
	if err != nil {
		return nil, err
	}
	ai, err := NewLayer("Ai", KindLIF, p.NNeurons, inhibitoryParams)
	if err != nil {
		return nil, err
	}
	for _, l := range []*Layer{x, ae, ai} {
		if err := net.AddLayer(l); err != nil {
			return nil, err
		}
	}

	w := make([]float64, p.NInput*p.NNeurons)
	for i := range w {
		w[i] = 0.3 * rng.Float64()
	}
	xae, err := NewConnection(x, ae, mat.NewDense(p.NInput, p.NNeurons, w))
	if err != nil {
		return nil, err
	}
	xae.Rule = RulePostPre
	xae.NuPre, xae.NuPost = p.NuPre, p.NuPost
	xae.WMin, xae.WMax = 0, p.WMax
	xae.Norm = p.Norm

	exc := mat.NewDense(p.NNeurons, p.NNeurons, nil)
	inh := mat.NewDense(p.NNeurons, p.NNeurons, nil)
	for i := 0; i < p.NNeurons; i++ {
		exc.Set(i, i, p.Excite)
		for j := 0; j < p.NNeurons; j++ {
			if i != j {
				inh.Set(i, j, -p.Inhib)
			}
		}
	}
	aeai, err := NewConnection(ae, ai, exc)
	if err != nil {
		return nil, err
	}
	aeai.WMin, aeai.WMax = 0, p.Excite
	aiae, err := NewConnection(ai, ae, inh)
	if err != nil {
		return nil, err
	}
	aiae.WMin, aiae.WMax = -p.Inhib, 0
	for _, c := range []*Connection{xae, aeai, aiae} {
		if err := net.AddConnection(c); err != nil {
			return nil, err
		}
	}
	if err := net.Bind(model.RoleBindings{
		Input:         "X",
		Excitatory:    "Ae",
		Inhibitory:    "Ai",
		PrimarySource: "X",
		PrimaryTarget: "Ae",
	}); err != nil {
		return nil, err
	}
	return net, nil
}
