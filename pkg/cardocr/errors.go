package cardocr

import "errors"

// Stage sentinels. Handlers map both to a 500 with a short message.
var (
	ErrImageProcessing = errors.New("image processing failed")
	ErrRecognition     = errors.New("text recognition failed")
)
