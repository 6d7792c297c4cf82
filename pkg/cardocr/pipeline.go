package cardocr

import (
	"context"
	"log"
	"time"
)

// Config carries everything the pipeline needs; there is no package-level
// recognizer state.
type Config struct {
	Languages        []string
	Whitelist        string
	MaxWidth         int
	RecognizeTimeout time.Duration
	Match            MatchConfig
}

func DefaultConfig() Config {
	return Config{
		Languages:        []string{"fra", "eng"},
		Whitelist:        DefaultWhitelist,
		MaxWidth:         1200,
		RecognizeTimeout: 30 * time.Second,
		Match:            DefaultMatchConfig(),
	}
}

// Result is everything one pipeline run produced. RawText and CleanedText
// are kept for diagnostics even when validation fails.
type Result struct {
	RawText     string
	CleanedText string
	Data        CardData
	Validation  Validation
}

// Pipeline sequences preprocess → recognize → clean → extract → validate
// for one uploaded card image. Runs are independent; a Pipeline is safe
// for concurrent use.
type Pipeline struct {
	cfg Config
	rec Recognizer
}

func New(cfg Config) *Pipeline {
	cfg = withDefaults(cfg)
	return &Pipeline{
		cfg: cfg,
		rec: &tesseractRecognizer{languages: cfg.Languages, whitelist: cfg.Whitelist},
	}
}

// NewWithRecognizer swaps the Tesseract recognizer out, mainly for tests
// and offline tooling.
func NewWithRecognizer(cfg Config, rec Recognizer) *Pipeline {
	return &Pipeline{cfg: withDefaults(cfg), rec: rec}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if len(cfg.Languages) == 0 {
		cfg.Languages = def.Languages
	}
	if cfg.Whitelist == "" {
		cfg.Whitelist = def.Whitelist
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = def.MaxWidth
	}
	if cfg.RecognizeTimeout <= 0 {
		cfg.RecognizeTimeout = def.RecognizeTimeout
	}
	if cfg.Match.MinRatio <= 0 {
		cfg.Match.MinRatio = def.Match.MinRatio
	}
	if cfg.Match.MaxDistance <= 0 {
		cfg.Match.MaxDistance = def.Match.MaxDistance
	}
	return cfg
}

// Match returns the matcher tolerances this pipeline was built with.
func (p *Pipeline) Match() MatchConfig { return p.cfg.Match }

// Run executes the full pipeline on one uploaded image. Preprocessing and
// recognition failures return a wrapped sentinel; cleanup, extraction and
// validation always produce a Result.
func (p *Pipeline) Run(ctx context.Context, raw []byte) (*Result, error) {
	processed, err := Preprocess(raw, p.cfg.MaxWidth)
	if err != nil {
		return nil, err
	}

	rctx := ctx
	if p.cfg.RecognizeTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, p.cfg.RecognizeTimeout)
		defer cancel()
	}
	rawText, err := p.rec.Recognize(rctx, processed)
	if err != nil {
		return nil, err
	}

	cleaned := CleanText(rawText)
	data := Extract(cleaned)
	validation := Validate(data)
	log.Printf("CARD OCR matricule=%q name=%q valid=%v raw=%q",
		data.Matricule, data.Name, validation.Valid, snippet(rawText, 160))

	return &Result{
		RawText:     rawText,
		CleanedText: cleaned,
		Data:        data,
		Validation:  validation,
	}, nil
}
