// Package dataset loads digit images as 8-bit grayscale frames.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/transform"
)

const (
	KindMNIST     = "mnist"
	KindSynthetic = "synthetic"
)

var ErrUnknownKind = errors.New("unknown dataset kind")

// Set is one split of a labelled image dataset.
type Set struct {
	Side   int
	Images []*image.Gray
	Labels []int
}

func (s *Set) Len() int {
	return len(s.Labels)
}

// Label returns the label for example i, cycling through the set.
func (s *Set) Label(i int) int {
	return s.Labels[i%len(s.Labels)]
}

// Vector returns example i, cycled through the set, as raw pixel values in
// [0, 255] multiplied by intensity, row-major.
func (s *Set) Vector(i int, intensity float64) []float64 {
	img := s.Images[i%len(s.Images)]
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, float64(img.GrayAt(x, y).Y)*intensity)
		}
	}
	return out
}

// Crop returns a copy of the set with border pixels removed on every side.
func (s *Set) Crop(border int) (*Set, error) {
	if border == 0 {
		return s, nil
	}
	side := s.Side - 2*border
	if border < 0 || side <= 0 {
		return nil, fmt.Errorf("crop %d leaves no pixels of a %d-pixel image", border, s.Side)
	}
	out := &Set{Side: side, Images: make([]*image.Gray, len(s.Images)), Labels: s.Labels}
	rect := image.Rect(border, border, border+side, border+side)
	for i, img := range s.Images {
		out.Images[i] = toGray(transform.Crop(img, rect))
	}
	return out, nil
}

// Source produces the train and test splits of a dataset.
type Source interface {
	Train(ctx context.Context) (*Set, error)
	Test(ctx context.Context) (*Set, error)
}

// NewSource resolves a dataset kind to a source rooted at dir.
func NewSource(kind, dir string, seed int64) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMNIST:
		return MNIST{Dir: dir}, nil
	case KindSynthetic:
		return Synthetic{Seed: seed, NTrain: defaultSyntheticTrain, NTest: defaultSyntheticTest}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Load returns the train split when train is set, else the test split.
func Load(ctx context.Context, src Source, train bool) (*Set, error) {
	if train {
		return src.Train(ctx)
	}
	return src.Test(ctx)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
