package cardocr

import (
	"context"
	"fmt"
	"log"

	"github.com/otiai10/gosseract/v2"
)

// DefaultWhitelist restricts recognition to the characters printed on the
// student cards: Latin letters, digits, the accented letters of the locale
// and the label punctuation.
const DefaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789àáâãäåæçèéêëìíîïðñòóôõöùúûüýÿ ():.-"

// Recognizer turns a preprocessed image into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// tesseractRecognizer runs gosseract with bilingual card settings. A fresh
// client is created per call; concurrent requests never share one.
type tesseractRecognizer struct {
	languages []string
	whitelist string
}

func (r *tesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	// Tesseract is not cancellable; race it against the context so an
	// unresponsive recognizer cannot hang the request.
	go func() {
		client := gosseract.NewClient()
		defer client.Close()
		_ = client.SetLanguage(r.languages...)
		_ = client.SetWhitelist(r.whitelist)
		_ = client.SetPageSegMode(gosseract.PSM_AUTO)
		if err := client.SetImageFromBytes(image); err != nil {
			ch <- outcome{err: err}
			return
		}
		text, err := client.Text()
		ch <- outcome{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		log.Printf("CARD OCR aborted: %v", ctx.Err())
		return "", fmt.Errorf("%w: %v", ErrRecognition, ctx.Err())
	case o := <-ch:
		if o.err != nil {
			return "", fmt.Errorf("%w: %v", ErrRecognition, o.err)
		}
		return o.text, nil
	}
}
