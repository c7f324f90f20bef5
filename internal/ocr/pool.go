package ocr

import (
	"context"
	"runtime"
	"sync"
)

// ExtractPages runs the same engine over a batch of page images with bounded
// parallelism. Results are returned in input order regardless of completion
// order; each page produces an independent Result.
func (a *Adapter) ExtractPages(ctx context.Context, imgs []PageImage, engine Engine, language string) []Result {
	results := make([]Result, len(imgs))
	if len(imgs) == 0 {
		return results
	}

	workers := runtime.NumCPU()
	if workers > len(imgs) {
		workers = len(imgs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Disjoint indices, no further synchronization needed.
				results[i] = a.Extract(ctx, imgs[i], engine, language)
			}
		}()
	}

	for i := range imgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
