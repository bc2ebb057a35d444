package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
	"github.com/djsaunde/bindsnet-experiments/internal/snn"
)

// PlotCurves draws each scheme's accuracy against the number of examples
// seen and saves the figure to path.
func PlotCurves(path, title string, curves *Curves, updateInterval int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "No. of examples"
	p.Y.Label.Text = "Accuracy"
	p.Y.Min = 0
	p.Y.Max = 100

	var lines []any
	for _, scheme := range curves.Schemes() {
		series := curves.Series(scheme)
		points := make(plotter.XYs, len(series))
		for i, v := range series {
			points[i].X = float64((i + 1) * updateInterval)
			points[i].Y = v
		}
		lines = append(lines, scheme, points)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("plot curves: %w", err)
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// PlotWeights renders img as a heat map and saves it to path.
func PlotWeights(path, title string, img *mat.Dense) error {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(plotter.NewHeatMap(denseGrid{img}, palette.Heat(32, 1)))
	r, c := img.Dims()
	side := 6 * vg.Inch
	ratio := float64(r) / float64(c)
	return p.Save(side, side*vg.Length(ratio), path)
}

// SquareWeights tiles the side x side receptive field of every target neuron
// of a dense connection into a square grid, one tile per neuron.
func SquareWeights(conn model.ConnectionSnapshot, side int) (*mat.Dense, error) {
	if conn.Rows != side*side {
		return nil, fmt.Errorf("connection %s->%s has %d sources, want %d", conn.Source, conn.Target, conn.Rows, side*side)
	}
	grid := int(math.Ceil(math.Sqrt(float64(conn.Cols))))
	img := mat.NewDense(grid*side, grid*side, nil)
	for j := 0; j < conn.Cols; j++ {
		oy, ox := (j/grid)*side, (j%grid)*side
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				img.Set(oy+y, ox+x, conn.Weights[(y*side+x)*conn.Cols+j])
			}
		}
	}
	return img, nil
}

// LocallyConnectedWeights lays out every filter's kernel patches, one block
// of convRows x convCols patches per filter, with filters tiled in a square
// grid.
func LocallyConnectedWeights(conn model.ConnectionSnapshot, g model.Geometry) (*mat.Dense, error) {
	if len(g.Kernel) != 2 || len(g.Stride) != 2 || len(g.ConvSize) != 2 {
		return nil, fmt.Errorf("incomplete geometry")
	}
	convProd := g.ConvSize[0] * g.ConvSize[1]
	if conn.Rows != g.Side*g.Side || conn.Cols != g.Filters*convProd {
		return nil, fmt.Errorf("connection %s->%s is %dx%d, geometry wants %dx%d",
			conn.Source, conn.Target, conn.Rows, conn.Cols, g.Side*g.Side, g.Filters*convProd)
	}
	k0, k1 := g.Kernel[0], g.Kernel[1]
	blockH, blockW := g.ConvSize[0]*k0, g.ConvSize[1]*k1
	grid := int(math.Ceil(math.Sqrt(float64(g.Filters))))
	img := mat.NewDense(grid*blockH, grid*blockW, nil)
	for target := 0; target < conn.Cols; target++ {
		f, loc := snn.Filter(g, target), snn.Location(g, target)
		cy, cx := loc/g.ConvSize[1], loc%g.ConvSize[1]
		oy, ox := (f/grid)*blockH+cy*k0, (f%grid)*blockW+cx*k1
		for ky := 0; ky < k0; ky++ {
			for kx := 0; kx < k1; kx++ {
				src := (cy*g.Stride[0]+ky)*g.Side + cx*g.Stride[1] + kx
				img.Set(oy+ky, ox+kx, conn.Weights[src*conn.Cols+target])
			}
		}
	}
	return img, nil
}

// denseGrid adapts a matrix to plotter.GridXYZ with row 0 drawn on top.
type denseGrid struct {
	m *mat.Dense
}

func (g denseGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g denseGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g denseGrid) X(c int) float64 { return float64(c) }
func (g denseGrid) Y(r int) float64 { return float64(r) }
