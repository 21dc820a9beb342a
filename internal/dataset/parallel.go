package dataset

import (
	"iter"
	"runtime"

	"github.com/sourcegraph/conc/stream"
)

// MapParallel applies fn to every item of seq on up to workers goroutines
// and yields the results in input order. fn must be safe for concurrent
// use. An error from seq is passed through after all earlier items and
// ends the sequence. Stopping the range early stops reading from seq.
func MapParallel(seq iter.Seq2[[]float32, error], workers int, fn func([]float32) []float32) iter.Seq2[[]float32, error] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type result struct {
		samples []float32
		err     error
	}

	return func(yield func([]float32, error) bool) {
		out := make(chan result)
		done := make(chan struct{})
		defer close(done)

		send := func(r result) {
			select {
			case out <- r:
			case <-done:
			}
		}

		go func() {
			defer close(out)

			s := stream.New().WithMaxGoroutines(workers)
			defer s.Wait()

			for samples, err := range seq {
				select {
				case <-done:
					return
				default:
				}

				if err != nil {
					s.Go(func() stream.Callback {
						return func() { send(result{err: err}) }
					})
					return
				}

				s.Go(func() stream.Callback {
					mapped := fn(samples)
					return func() { send(result{samples: mapped}) }
				})
			}
		}()

		for r := range out {
			if !yield(r.samples, r.err) || r.err != nil {
				return
			}
		}
	}
}
