package dataset

import (
	"errors"
	"fmt"
	"iter"

	"github.com/example/go-wavprep/internal/tensor"
)

// ErrInvalidWindow is returned for non-positive batch or sequence lengths
// and negative overlaps.
var ErrInvalidWindow = errors.New("invalid window parameters")

// Window is one training example. X is [B, overlap+seqLen, 1]; Y is X
// without its first overlap steps, [B, seqLen, 1].
type Window struct {
	X *tensor.Tensor
	Y *tensor.Tensor
}

// Batch groups consecutive sequences into [batchSize, T, 1] tensors. T is
// the length of the shortest sequence in the group; longer ones are
// truncated. A trailing group smaller than batchSize is dropped.
func Batch(seq iter.Seq2[[]float32, error], batchSize int) iter.Seq2[*tensor.Tensor, error] {
	return func(yield func(*tensor.Tensor, error) bool) {
		if batchSize <= 0 {
			yield(nil, fmt.Errorf("%w: batch size %d", ErrInvalidWindow, batchSize))
			return
		}

		group := make([][]float32, 0, batchSize)
		for samples, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}

			group = append(group, samples)
			if len(group) < batchSize {
				continue
			}

			b, err := stackTruncated(group)
			if !yield(b, err) || err != nil {
				return
			}
			group = group[:0]
		}
	}
}

func stackTruncated(group [][]float32) (*tensor.Tensor, error) {
	n := len(group[0])
	for _, g := range group[1:] {
		n = min(n, len(g))
	}

	items := make([]*tensor.Tensor, len(group))
	for i, g := range group {
		items[i] = tensor.FromSequence(g[:n])
	}

	return tensor.Stack(items)
}

// PadBatch truncates the time axis of a [B, T, 1] batch to a multiple of
// seqLen and prepends overlap zero steps, giving
// [B, overlap + floor(T/seqLen)*seqLen, 1].
func PadBatch(batch *tensor.Tensor, seqLen, overlap int) (*tensor.Tensor, error) {
	if err := checkWindow(seqLen, overlap); err != nil {
		return nil, err
	}
	if batch.Rank() != 3 {
		return nil, fmt.Errorf("pad batch: want rank 3 [B, T, 1], got shape %v", batch.Shape())
	}

	steps := batch.Dim(1) / int64(seqLen) * int64(seqLen)

	body, err := batch.Narrow(1, 0, steps)
	if err != nil {
		return nil, fmt.Errorf("pad batch: %w", err)
	}

	zeros, err := tensor.Zeros([]int64{batch.Dim(0), int64(overlap), batch.Dim(2)})
	if err != nil {
		return nil, fmt.Errorf("pad batch: %w", err)
	}

	return tensor.Concat([]*tensor.Tensor{zeros, body}, 1)
}

// Windows cuts a padded batch into consecutive windows. The cursor runs
// from overlap to T in steps of seqLen; each x starts overlap steps before
// the cursor, so consecutive windows share overlap steps.
func Windows(padded *tensor.Tensor, seqLen, overlap int) iter.Seq2[Window, error] {
	return func(yield func(Window, error) bool) {
		if err := checkWindow(seqLen, overlap); err != nil {
			yield(Window{}, err)
			return
		}

		total := padded.Dim(1)
		seq, ov := int64(seqLen), int64(overlap)

		for i := ov; i < total; i += seq {
			w, err := cut(padded, i-ov, min(seq+ov, total-(i-ov)), ov)
			if !yield(w, err) || err != nil {
				return
			}
		}
	}
}

func cut(padded *tensor.Tensor, start, length, overlap int64) (Window, error) {
	x, err := padded.Narrow(1, start, length)
	if err != nil {
		return Window{}, fmt.Errorf("window x: %w", err)
	}

	y, err := x.Narrow(1, overlap, length-overlap)
	if err != nil {
		return Window{}, fmt.Errorf("window y: %w", err)
	}

	return Window{X: x, Y: y}, nil
}

// CrossBatchSequence pads every batch and yields its windows in order.
func CrossBatchSequence(batches iter.Seq2[*tensor.Tensor, error], seqLen, overlap int) iter.Seq2[Window, error] {
	return func(yield func(Window, error) bool) {
		for batch, err := range batches {
			if err != nil {
				yield(Window{}, err)
				return
			}

			padded, err := PadBatch(batch, seqLen, overlap)
			if err != nil {
				yield(Window{}, err)
				return
			}

			for w, err := range Windows(padded, seqLen, overlap) {
				if !yield(w, err) || err != nil {
					return
				}
			}
		}
	}
}

func checkWindow(seqLen, overlap int) error {
	if seqLen <= 0 {
		return fmt.Errorf("%w: sequence length %d", ErrInvalidWindow, seqLen)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d", ErrInvalidWindow, overlap)
	}

	return nil
}
