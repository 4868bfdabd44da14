package util

import (
	"golang.org/x/sync/errgroup"
)

// ConcurrentMapFuncWithError applies f to every input with up to
// concurrency goroutines in flight, writing each result straight into
// its own slot of a pre-sized output slice so no ordering pass is
// needed afterward. concurrency <= 0 means unlimited; this exists so
// internal I/O-bound fan-out (directory scans) can overlap latency
// without changing the caller-visible, sequential shape of the
// operation it backs.
func ConcurrentMapFuncWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	outputs := make([]Tout, len(inputs))
	for i := range inputs {
		i, in := i, inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
