// Package tensor provides the dense float32 arrays the dataset pipeline
// hands to training code.
package tensor

import (
	"errors"
	"fmt"
)

// Tensor is a dense, row-major float32 tensor. Audio batches use the
// layout [batch, time, 1].
type Tensor struct {
	shape []int64
	data  []float32
}

// New creates a tensor from data and shape. Both are copied.
func New(data []float32, shape []int64) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	return newOwned(append([]float32(nil), data...), append([]int64(nil), shape...)), nil
}

// newOwned wraps data and shape without copying. len(data) must equal the
// element count of shape.
func newOwned(data []float32, shape []int64) *Tensor {
	return &Tensor{shape: shape, data: data}
}

// Zeros creates a zero-initialized tensor.
func Zeros(shape []int64) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	return newOwned(make([]float32, total), append([]int64(nil), shape...)), nil
}

// FromSequence returns samples as a [len(samples), 1] tensor.
func FromSequence(samples []float32) *Tensor {
	return newOwned(append([]float32(nil), samples...), []int64{int64(len(samples)), 1})
}

func (t *Tensor) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// Dim returns the size of dimension dim. Negative dims count from the end.
func (t *Tensor) Dim(dim int) int64 {
	if t == nil {
		return 0
	}

	d, err := normalizeDim(dim, len(t.shape))
	if err != nil {
		return 0
	}

	return t.shape[d]
}

// Data returns a copy of the underlying tensor data.
func (t *Tensor) Data() []float32 {
	if t == nil {
		return nil
	}

	return append([]float32(nil), t.data...)
}

func (t *Tensor) Rank() int {
	if t == nil {
		return 0
	}

	return len(t.shape)
}

// Narrow returns the slice [start, start+length) of dimension dim as a new
// tensor.
func (t *Tensor) Narrow(dim int, start, length int64) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: narrow on nil tensor")
	}

	dim, err := normalizeDim(dim, len(t.shape))
	if err != nil {
		return nil, fmt.Errorf("tensor: narrow: %w", err)
	}

	if start < 0 || length < 0 || start+length > t.shape[dim] {
		return nil, fmt.Errorf("tensor: narrow: range [%d:%d] out of bounds for dim %d size %d", start, start+length, dim, t.shape[dim])
	}

	outShape := append([]int64(nil), t.shape...)
	outShape[dim] = length

	outer, inner := splitAt(t.shape, dim)
	srcDim := t.shape[dim]
	span := length * inner

	out := make([]float32, outer*span)
	for o := range outer {
		src := (o*srcDim + start) * inner
		copy(out[o*span:(o+1)*span], t.data[src:src+span])
	}

	return newOwned(out, outShape), nil
}

// Concat concatenates tensors along dim. All other dimensions must agree.
func Concat(tensors []*Tensor, dim int) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errors.New("tensor: concat requires at least one tensor")
	}

	first := tensors[0]
	if first == nil {
		return nil, errors.New("tensor: concat tensor 0 is nil")
	}

	rank := len(first.shape)

	dim, err := normalizeDim(dim, rank)
	if err != nil {
		return nil, fmt.Errorf("tensor: concat: %w", err)
	}

	outShape := append([]int64(nil), first.shape...)
	outShape[dim] = 0

	for i, t := range tensors {
		if t == nil {
			return nil, fmt.Errorf("tensor: concat tensor %d is nil", i)
		}

		if len(t.shape) != rank {
			return nil, fmt.Errorf("tensor: concat tensor %d rank %d does not match rank %d", i, len(t.shape), rank)
		}

		for d := range rank {
			if d != dim && t.shape[d] != first.shape[d] {
				return nil, fmt.Errorf("tensor: concat tensor %d shape %v does not match base shape %v on dim %d", i, t.shape, first.shape, d)
			}
		}

		outShape[dim] += t.shape[dim]
	}

	total, err := shapeElemCount(outShape)
	if err != nil {
		return nil, err
	}

	out := make([]float32, total)
	outer, inner := splitAt(outShape, dim)
	outDim := outShape[dim]

	for o := range outer {
		writePos := int64(0)

		for _, t := range tensors {
			span := t.shape[dim] * inner
			srcBase := o * span
			dstBase := o*outDim*inner + writePos
			copy(out[dstBase:dstBase+span], t.data[srcBase:srcBase+span])
			writePos += span
		}
	}

	return newOwned(out, outShape), nil
}

// Stack joins same-shaped tensors along a new leading dimension.
func Stack(tensors []*Tensor) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errors.New("tensor: stack requires at least one tensor")
	}

	if tensors[0] == nil {
		return nil, errors.New("tensor: stack tensor 0 is nil")
	}

	base := tensors[0].shape
	size := len(tensors[0].data)

	out := make([]float32, 0, len(tensors)*size)
	for i, t := range tensors {
		if t == nil {
			return nil, fmt.Errorf("tensor: stack tensor %d is nil", i)
		}

		if !equalShape(t.shape, base) {
			return nil, fmt.Errorf("tensor: stack tensor %d shape %v does not match %v", i, t.shape, base)
		}

		out = append(out, t.data...)
	}

	shape := make([]int64, 0, len(base)+1)
	shape = append(shape, int64(len(tensors)))
	shape = append(shape, base...)

	return newOwned(out, shape), nil
}
