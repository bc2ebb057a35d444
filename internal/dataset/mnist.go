package dataset

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
)

const (
	imageMagic = 2051
	labelMagic = 2049
)

var ErrMissingFiles = errors.New("mnist files not found")

// MNIST reads the idx files in Dir, plain or gzipped.
type MNIST struct {
	Dir string
}

func (m MNIST) Train(ctx context.Context) (*Set, error) {
	return m.load(ctx, "train-images-idx3-ubyte", "train-labels-idx1-ubyte")
}

func (m MNIST) Test(ctx context.Context) (*Set, error) {
	return m.load(ctx, "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte")
}

func (m MNIST) load(ctx context.Context, imageFile, labelFile string) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	imgReader, closeImg, err := openIDX(filepath.Join(m.Dir, imageFile))
	if err != nil {
		return nil, err
	}
	defer closeImg()
	lblReader, closeLbl, err := openIDX(filepath.Join(m.Dir, labelFile))
	if err != nil {
		return nil, err
	}
	defer closeLbl()

	images, side, err := readImages(imgReader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", imageFile, err)
	}
	labels, err := readLabels(lblReader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", labelFile, err)
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("mnist: %d images but %d labels", len(images), len(labels))
	}
	return &Set{Side: side, Images: images, Labels: labels}, nil
}

func openIDX(path string) (io.Reader, func(), error) {
	if f, err := os.Open(path); err == nil {
		return bufio.NewReader(f), func() { _ = f.Close() }, nil
	}
	f, err := os.Open(path + ".gz")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s[.gz]", ErrMissingFiles, path)
	}
	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open %s.gz: %w", path, err)
	}
	return zr, func() {
		_ = zr.Close()
		_ = f.Close()
	}, nil
}

func readImages(r io.Reader) ([]*image.Gray, int, error) {
	var header [16]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, 0, fmt.Errorf("read image header: %w", err)
	}
	if magic := binary.BigEndian.Uint32(header[0:4]); magic != imageMagic {
		return nil, 0, fmt.Errorf("image magic %d, want %d", magic, imageMagic)
	}
	n := int(binary.BigEndian.Uint32(header[4:8]))
	rows := int(binary.BigEndian.Uint32(header[8:12]))
	cols := int(binary.BigEndian.Uint32(header[12:16]))
	if rows != cols {
		return nil, 0, fmt.Errorf("expected square images, got %dx%d", rows, cols)
	}
	images := make([]*image.Gray, n)
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		if _, err := io.ReadFull(r, img.Pix); err != nil {
			return nil, 0, fmt.Errorf("read image %d: %w", i, err)
		}
		images[i] = img
	}
	return images, rows, nil
}

func readLabels(r io.Reader) ([]int, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	if magic := binary.BigEndian.Uint32(header[0:4]); magic != labelMagic {
		return nil, fmt.Errorf("label magic %d, want %d", magic, labelMagic)
	}
	n := int(binary.BigEndian.Uint32(header[4:8]))
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	labels := make([]int, n)
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}
