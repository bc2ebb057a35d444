// Package snn is a small clock-driven spiking network simulator: layers of
// (adaptive) leaky integrate-and-fire neurons joined by dense plastic
// connections.
package snn

import (
	"errors"
	"fmt"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

var (
	ErrMissingRole     = errors.New("network role not bound")
	ErrSnapshotVersion = errors.New("network snapshot version mismatch")
)

// Roles are the typed handles the experiment drivers work with.
type Roles struct {
	Input      *Layer
	Excitatory *Layer
	// Inhibitory is nil for architectures without a separate inhibitory
	// population.
	Inhibitory *Layer
	Primary    *Connection
}

type Network struct {
	Name string
	Dt   float64

	layers      []*Layer
	layerByName map[string]*Layer
	connections []*Connection
	connByKey   map[string]*Connection
	roles       Roles
	geometry    *model.Geometry
}

func NewNetwork(name string, dt float64) *Network {
	return &Network{
		Name:        name,
		Dt:          dt,
		layerByName: make(map[string]*Layer),
		connByKey:   make(map[string]*Connection),
	}
}

func (n *Network) AddLayer(l *Layer) error {
	if _, exists := n.layerByName[l.Name]; exists {
		return fmt.Errorf("duplicate layer: %s", l.Name)
	}
	n.layers = append(n.layers, l)
	n.layerByName[l.Name] = l
	return nil
}

func (n *Network) AddConnection(c *Connection) error {
	if n.layerByName[c.Source.Name] != c.Source || n.layerByName[c.Target.Name] != c.Target {
		return fmt.Errorf("connection %s references layers outside the network", c.Key())
	}
	if _, exists := n.connByKey[c.Key()]; exists {
		return fmt.Errorf("duplicate connection: %s", c.Key())
	}
	if _, err := GetRule(c.Rule); err != nil {
		return fmt.Errorf("connection %s: %w", c.Key(), err)
	}
	n.connections = append(n.connections, c)
	n.connByKey[c.Key()] = c
	return nil
}

func (n *Network) Layer(name string) (*Layer, bool) {
	l, ok := n.layerByName[name]
	return l, ok
}

func (n *Network) Connection(source, target string) (*Connection, bool) {
	c, ok := n.connByKey[ConnectionKey(source, target)]
	return c, ok
}

func (n *Network) Layers() []*Layer {
	return n.layers
}

func (n *Network) Connections() []*Connection {
	return n.connections
}

// Bind resolves role names to handles and validates them.
func (n *Network) Bind(b model.RoleBindings) error {
	var roles Roles
	var ok bool
	if roles.Input, ok = n.layerByName[b.Input]; !ok {
		return fmt.Errorf("%w: input layer %q", ErrMissingRole, b.Input)
	}
	if roles.Excitatory, ok = n.layerByName[b.Excitatory]; !ok {
		return fmt.Errorf("%w: excitatory layer %q", ErrMissingRole, b.Excitatory)
	}
	if b.Inhibitory != "" {
		if roles.Inhibitory, ok = n.layerByName[b.Inhibitory]; !ok {
			return fmt.Errorf("%w: inhibitory layer %q", ErrMissingRole, b.Inhibitory)
		}
	}
	if roles.Primary, ok = n.connByKey[ConnectionKey(b.PrimarySource, b.PrimaryTarget)]; !ok {
		return fmt.Errorf("%w: primary connection %s", ErrMissingRole, ConnectionKey(b.PrimarySource, b.PrimaryTarget))
	}
	n.roles = roles
	n.geometry = b.Geometry
	return n.Validate()
}

func (n *Network) Roles() Roles {
	return n.roles
}

// Geometry is the receptive-field layout of a locally-connected primary
// connection, or nil.
func (n *Network) Geometry() *model.Geometry {
	return n.geometry
}

func (n *Network) Validate() error {
	r := n.roles
	if r.Input == nil {
		return fmt.Errorf("%w: input", ErrMissingRole)
	}
	if r.Input.Kind != KindInput {
		return fmt.Errorf("input role bound to %s layer %s", r.Input.Kind, r.Input.Name)
	}
	if r.Excitatory == nil {
		return fmt.Errorf("%w: excitatory", ErrMissingRole)
	}
	if r.Excitatory.Kind == KindInput {
		return fmt.Errorf("excitatory role bound to input layer %s", r.Excitatory.Name)
	}
	if r.Primary == nil {
		return fmt.Errorf("%w: primary connection", ErrMissingRole)
	}
	if r.Primary.Source != r.Input || r.Primary.Target != r.Excitatory {
		return fmt.Errorf("primary connection %s must join input to excitatory layer", r.Primary.Key())
	}
	return nil
}

// Run drives the network for len(input) steps with input clamped onto the
// input layer. Connection currents use the previous step's source spikes.
// Normalized connections are rescaled once the run ends.
func (n *Network) Run(input [][]bool) (*Recording, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	rules := make([]RuleFunc, len(n.connections))
	for i, c := range n.connections {
		fn, err := GetRule(c.Rule)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", c.Key(), err)
		}
		rules[i] = fn
	}

	rec := newRecording(n.layers, len(input))
	for _, frame := range input {
		for _, l := range n.layers {
			clear(l.current)
		}
		for _, c := range n.connections {
			c.propagate()
		}
		if err := n.roles.Input.clamp(frame, n.Dt); err != nil {
			return nil, err
		}
		for _, l := range n.layers {
			if l.Kind != KindInput {
				l.step(n.Dt)
			}
		}
		for i, c := range n.connections {
			rules[i](c)
		}
		rec.capture(n.layers)
	}
	for _, c := range n.connections {
		c.Normalize()
	}
	return rec, nil
}

// Reset clears transient state of every layer.
func (n *Network) Reset() {
	for _, l := range n.layers {
		l.Reset()
	}
}

// Freeze disables learning on the primary connection and stops threshold
// adaptation of the excitatory layer.
func (n *Network) Freeze() {
	if n.roles.Primary != nil {
		n.roles.Primary.Rule = RuleNoOp
	}
	if n.roles.Excitatory != nil {
		n.roles.Excitatory.Params.ThetaPlus = 0
		n.roles.Excitatory.Params.ThetaDecay = 0
	}
}
