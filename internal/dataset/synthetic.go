package dataset

import (
	"context"
	"image"
	"math/rand"
)

const (
	defaultSyntheticTrain = 1000
	defaultSyntheticTest  = 500
	syntheticSide         = 28
	syntheticClasses      = 10
)

// Synthetic generates 28x28 images where each class lights a distinct
// diagonal stripe, plus sparse background noise. It stands in for MNIST
// when the idx files are not available.
type Synthetic struct {
	Seed   int64
	NTrain int
	NTest  int
}

func (s Synthetic) Train(ctx context.Context) (*Set, error) {
	return s.generate(ctx, s.NTrain, s.Seed)
}

func (s Synthetic) Test(ctx context.Context) (*Set, error) {
	return s.generate(ctx, s.NTest, s.Seed+1)
}

func (s Synthetic) generate(ctx context.Context, n int, seed int64) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	set := &Set{Side: syntheticSide, Images: make([]*image.Gray, n), Labels: make([]int, n)}
	for i := 0; i < n; i++ {
		label := i % syntheticClasses
		set.Labels[i] = label
		set.Images[i] = syntheticDigit(label, rng)
	}
	return set, nil
}

func syntheticDigit(label int, rng *rand.Rand) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, syntheticSide, syntheticSide))
	offset := 2 + label*2
	for y := 0; y < syntheticSide; y++ {
		for x := 0; x < syntheticSide; x++ {
			d := (x + y + offset) % syntheticSide
			switch {
			case d < 4:
				img.Pix[y*img.Stride+x] = uint8(200 + rng.Intn(56))
			case rng.Float64() < 0.02:
				img.Pix[y*img.Stride+x] = uint8(rng.Intn(64))
			}
		}
	}
	return img
}
