package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/kressler/docproof/internal/logging"
)

// networkIdleAfter is how long the page must stay quiet before the
// capture proceeds. Image normalization already forced every asset to
// start loading, so this only covers stragglers.
const networkIdleAfter = 2 * time.Second

// ChromePDF captures a document through headless Chrome's print pipeline.
// It honors print backgrounds, which the inline-style normalization
// passes depend on.
type ChromePDF struct {
	cfg    Config
	logger logging.Logger
}

func NewChromePDF(cfg Config, logger logging.Logger) *ChromePDF {
	if logger == nil {
		logger = logging.NewStdoutLogger("ChromePDF")
	}
	return &ChromePDF{cfg: cfg, logger: logger}
}

// waitNetworkIdle returns a channel that closes once no request has been
// in flight for idleAfter. Must be wired before navigation so the first
// burst of requests is counted.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	// Covers pages that never issue a request at all.
	startTimer()

	chromedp.ListenTarget(ctx,
		func(ev any) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt32(&activeReqs, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				if atomic.AddInt32(&activeReqs, -1) <= 0 {
					startTimer()
				}
			}
		})

	return idleChan
}

func (c *ChromePDF) Capture(ctx context.Context, html string) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	idle := waitNetworkIdle(ctx, networkIdleAfter)

	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading document into browser: %w", err)
	}

	select {
	case <-idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	width := c.cfg.PaperWidth
	height := c.cfg.PaperHeight
	if width <= 0 || height <= 0 {
		width, height = 8.5, 11
	}

	var pdf []byte
	err = chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithLandscape(c.cfg.Landscape).
				WithPrintBackground(true).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("printing document to PDF: %w", err)
	}

	c.logger.Debug("captured document", logging.Field{Key: "bytes", Value: len(pdf)})
	return pdf, nil
}

func (c *ChromePDF) Extension() string { return ".pdf" }
