package snn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

func (n *Network) Snapshot() model.NetworkSnapshot {
	snap := model.NetworkSnapshot{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		Name: n.Name,
		Dt:   n.Dt,
	}
	for _, l := range n.layers {
		p := l.Params
		ls := model.LayerSnapshot{
			Name:       l.Name,
			Kind:       l.Kind,
			N:          l.N,
			Shape:      append([]int(nil), l.Shape...),
			Rest:       p.Rest,
			Reset:      p.Reset,
			Thresh:     p.Thresh,
			Refrac:     p.Refrac,
			TcDecay:    p.TcDecay,
			TcTrace:    p.TcTrace,
			ThetaPlus:  p.ThetaPlus,
			ThetaDecay: p.ThetaDecay,
		}
		if l.Kind == KindAdaptiveLIF {
			ls.Theta = append([]float64(nil), l.Theta...)
		}
		snap.Layers = append(snap.Layers, ls)
	}
	for _, c := range n.connections {
		rows, cols := c.W.Dims()
		weights := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			weights = append(weights, c.W.RawRowView(i)...)
		}
		snap.Connections = append(snap.Connections, model.ConnectionSnapshot{
			Source:  c.Source.Name,
			Target:  c.Target.Name,
			Rows:    rows,
			Cols:    cols,
			Weights: weights,
			Mask:    append([]bool(nil), c.Mask...),
			Rule:    c.Rule,
			NuPre:   c.NuPre,
			NuPost:  c.NuPost,
			WMin:    c.WMin,
			WMax:    c.WMax,
			Norm:    c.Norm,
		})
	}
	if n.roles.Input != nil {
		snap.Roles = model.RoleBindings{
			Input:         n.roles.Input.Name,
			Excitatory:    n.roles.Excitatory.Name,
			PrimarySource: n.roles.Primary.Source.Name,
			PrimaryTarget: n.roles.Primary.Target.Name,
			Geometry:      n.geometry,
		}
		if n.roles.Inhibitory != nil {
			snap.Roles.Inhibitory = n.roles.Inhibitory.Name
		}
	}
	return snap
}

// Restore rebuilds a network from a snapshot with transient state reset.
func Restore(snap model.NetworkSnapshot) (*Network, error) {
	if snap.SchemaVersion != SupportedSchemaVersion || snap.CodecVersion != SupportedCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrSnapshotVersion, snap.SchemaVersion, snap.CodecVersion)
	}
	n := NewNetwork(snap.Name, snap.Dt)
	for _, ls := range snap.Layers {
		l, err := NewLayer(ls.Name, ls.Kind, ls.N, NeuronParams{
			Rest:       ls.Rest,
			Reset:      ls.Reset,
			Thresh:     ls.Thresh,
			Refrac:     ls.Refrac,
			TcDecay:    ls.TcDecay,
			TcTrace:    ls.TcTrace,
			ThetaPlus:  ls.ThetaPlus,
			ThetaDecay: ls.ThetaDecay,
		})
		if err != nil {
			return nil, fmt.Errorf("restore layer: %w", err)
		}
		l.Shape = append([]int(nil), ls.Shape...)
		if len(ls.Theta) > 0 {
			if len(ls.Theta) != l.N {
				return nil, fmt.Errorf("restore layer %s: theta has %d values, want %d", ls.Name, len(ls.Theta), l.N)
			}
			copy(l.Theta, ls.Theta)
		}
		if err := n.AddLayer(l); err != nil {
			return nil, err
		}
	}
	for _, cs := range snap.Connections {
		src, ok := n.layerByName[cs.Source]
		if !ok {
			return nil, fmt.Errorf("restore connection: unknown source %s", cs.Source)
		}
		dst, ok := n.layerByName[cs.Target]
		if !ok {
			return nil, fmt.Errorf("restore connection: unknown target %s", cs.Target)
		}
		if len(cs.Weights) != cs.Rows*cs.Cols {
			return nil, fmt.Errorf("restore connection %s: %d weights for %dx%d", ConnectionKey(cs.Source, cs.Target), len(cs.Weights), cs.Rows, cs.Cols)
		}
		c, err := NewConnection(src, dst, mat.NewDense(cs.Rows, cs.Cols, append([]float64(nil), cs.Weights...)))
		if err != nil {
			return nil, err
		}
		if len(cs.Mask) > 0 {
			c.Mask = append([]bool(nil), cs.Mask...)
		}
		c.Rule = cs.Rule
		c.NuPre, c.NuPost = cs.NuPre, cs.NuPost
		c.WMin, c.WMax = cs.WMin, cs.WMax
		c.Norm = cs.Norm
		if err := n.AddConnection(c); err != nil {
			return nil, err
		}
	}
	if err := n.Bind(snap.Roles); err != nil {
		return nil, fmt.Errorf("restore roles: %w", err)
	}
	return n, nil
}
