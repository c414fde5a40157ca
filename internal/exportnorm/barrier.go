package exportnorm

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/logging"
)

// AwaitImagesSettled blocks until every image in the collection has settled:
// either its source was already complete (cached, inline data URI, or empty)
// or its load has finished — successfully or not. A failed load settles the
// image rather than failing the barrier; the export proceeds with a visibly
// broken image instead of hanging. The barrier never reports an error.
//
// Captures taken before image loads finish silently render blank image
// boxes, so the orchestrator must call this after the synchronous passes and
// before handing the scope to the capture backend.
func (p *Pipeline) AwaitImagesSettled(ctx context.Context, images *goquery.Selection) {
	var wg sync.WaitGroup

	images.Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if p.loader.Complete(src) {
			// Counts as settled immediately.
			return
		}
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			// Errors (including context cancellation mid-fetch) settle the
			// image; they are logged by the loader, never propagated.
			_ = p.loader.Fetch(ctx, src)
		}(src)
	})

	wg.Wait()

	if p.logger != nil {
		p.logger.Debug("image readiness barrier resolved",
			logging.Field{Key: "images", Value: images.Length()})
	}
}
