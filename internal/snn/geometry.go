package snn

import (
	"fmt"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

// ConvSize returns the number of kernel placements along each axis of a
// side x side image.
func ConvSize(side int, kernel, stride [2]int) ([2]int, error) {
	var out [2]int
	for i := 0; i < 2; i++ {
		if kernel[i] <= 0 || kernel[i] > side || stride[i] <= 0 {
			return out, fmt.Errorf("kernel %v with stride %v does not fit a %d-pixel side", kernel, stride, side)
		}
		out[i] = (side-kernel[i])/stride[i] + 1
	}
	return out, nil
}

// LocalMask marks, for an input of side x side pixels and a target layer of
// filters x convRows x convCols neurons, which input pixels fall inside the
// receptive field of each target. Target index = filter*convProd + location.
func LocalMask(g model.Geometry) []bool {
	side := g.Side
	convProd := g.ConvSize[0] * g.ConvSize[1]
	cols := g.Filters * convProd
	mask := make([]bool, side*side*cols)
	for cy := 0; cy < g.ConvSize[0]; cy++ {
		for cx := 0; cx < g.ConvSize[1]; cx++ {
			loc := cy*g.ConvSize[1] + cx
			y0, x0 := cy*g.Stride[0], cx*g.Stride[1]
			for y := y0; y < y0+g.Kernel[0]; y++ {
				for x := x0; x < x0+g.Kernel[1]; x++ {
					src := y*side + x
					for f := 0; f < g.Filters; f++ {
						mask[src*cols+f*convProd+loc] = true
					}
				}
			}
		}
	}
	return mask
}

// Location returns the receptive-field location of target neuron j.
func Location(g model.Geometry, j int) int {
	return j % (g.ConvSize[0] * g.ConvSize[1])
}

// Filter returns the filter index of target neuron j.
func Filter(g model.Geometry, j int) int {
	return j / (g.ConvSize[0] * g.ConvSize[1])
}
