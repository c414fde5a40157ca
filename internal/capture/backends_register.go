package capture

import "github.com/kressler/docproof/internal/logging"

func init() {
	RegisterBackend("chromedp", func(cfg Config, logger logging.Logger) (Capturer, error) {
		return NewChromePDF(cfg, logger), nil
	})
	RegisterBackend("textpdf", func(cfg Config, logger logging.Logger) (Capturer, error) {
		return NewTextPDF(logger), nil
	})
}
