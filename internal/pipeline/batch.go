package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxFileBytes int64 = 16 << 20

var ErrNoConvertibleFiles = errors.New("No files could be converted")

// Upload is one file of a batch. Size may be set when Data was not read
// because the declared size already exceeds the limit.
type Upload struct {
	Filename string
	Data     []byte
	Size     int64
}

func (u Upload) size() int64 {
	if u.Size > 0 {
		return u.Size
	}
	return int64(len(u.Data))
}

// Item is the outcome for one upload: either Output or Err is set.
type Item struct {
	Filename string
	Format   domain.InputFormat
	Output   *Encoded
	Err      error
}

func (i Item) Succeeded() bool {
	return i.Output != nil
}

// BatchResult keeps items in upload order.
type BatchResult struct {
	Target domain.OutputFormat
	Items  []Item
	Errors []string
}

func (r BatchResult) Outputs() []Encoded {
	out := make([]Encoded, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Succeeded() {
			out = append(out, *item.Output)
		}
	}
	return out
}

// ConvertedFilenames lists the uploaded names of the successful items.
func (r BatchResult) ConvertedFilenames() []string {
	names := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Succeeded() {
			names = append(names, item.Filename)
		}
	}
	return names
}

func (r BatchResult) SingleOutput() bool {
	return len(r.Outputs()) == 1
}

// ItemObserver is notified once per finished item, from the goroutine that converted it.
type ItemObserver func(target domain.OutputFormat, item Item)

type Option func(*Converter)

func WithMaxFileBytes(n int64) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxFileBytes = n
		}
	}
}

// WithWorkers converts up to n items of a batch concurrently.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

func WithObserver(observe ItemObserver) Option {
	return func(c *Converter) {
		c.observe = observe
	}
}

type Converter struct {
	decoder      *Decoder
	temp         TempStore
	maxFileBytes int64
	workers      int
	logger       zerolog.Logger
	tracer       trace.Tracer
	observe      ItemObserver
}

func NewConverter(decoder *Decoder, temp TempStore, opts ...Option) *Converter {
	c := &Converter{
		decoder:      decoder,
		temp:         temp,
		maxFileBytes: DefaultMaxFileBytes,
		workers:      1,
		logger:       zerolog.Nop(),
		tracer:       otel.Tracer("pixelconvert/pipeline"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) Decoder() *Decoder {
	return c.decoder
}

func (c *Converter) MaxFileBytes() int64 {
	return c.maxFileBytes
}

// ConvertBatch converts every upload independently. It returns
// ErrNoConvertibleFiles, together with the populated result, when nothing succeeded.
func (c *Converter) ConvertBatch(ctx context.Context, uploads []Upload, target domain.OutputFormat) (BatchResult, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.convert_batch", trace.WithAttributes(
		attribute.Int("batch.files", len(uploads)),
		attribute.String("batch.target", string(target)),
	))
	defer span.End()

	items := make([]Item, len(uploads))
	if c.workers <= 1 || len(uploads) < 2 {
		for i, upload := range uploads {
			items[i] = c.convertOne(ctx, upload, target)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for i, upload := range uploads {
			g.Go(func() error {
				items[i] = c.convertOne(gctx, upload, target)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := BatchResult{Target: target, Items: items}
	for _, item := range items {
		if item.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", item.Filename, item.Err))
		}
	}

	converted := len(uploads) - len(result.Errors)
	span.SetAttributes(attribute.Int("batch.converted", converted))
	if converted == 0 {
		span.SetStatus(codes.Error, "no convertible files")
		return result, ErrNoConvertibleFiles
	}
	return result, nil
}

func (c *Converter) convertOne(ctx context.Context, upload Upload, target domain.OutputFormat) (item Item) {
	item = Item{Filename: upload.Filename}

	_, span := c.tracer.Start(ctx, "pipeline.convert_item", trace.WithAttributes(
		attribute.String("file.name", upload.Filename),
		attribute.Int64("file.bytes", upload.size()),
	))
	defer func() {
		if item.Err != nil {
			span.RecordError(item.Err)
			span.SetStatus(codes.Error, "conversion failed")
			c.logFailure(item, target)
		}
		if c.observe != nil {
			c.observe(target, item)
		}
		span.End()
	}()

	format, err := Classify(upload.Filename)
	if err != nil {
		item.Err = err
		return item
	}
	item.Format = format

	if upload.size() > c.maxFileBytes {
		item.Err = fmt.Errorf("%w (max %s)", ErrFileTooLarge, sizeLabel(c.maxFileBytes))
		return item
	}
	if IsRedundant(format, target) {
		item.Err = fmt.Errorf("%w (%s)", ErrRedundantConversion, target.Label())
		return item
	}

	out, err := c.convertFile(upload.Data, format, target)
	if err != nil {
		item.Err = err
		return item
	}
	item.Output = &out
	return item
}

func (c *Converter) convertFile(data []byte, format domain.InputFormat, target domain.OutputFormat) (Encoded, error) {
	h, err := c.temp.Save(data)
	if err != nil {
		return Encoded{}, fmt.Errorf("stage upload: %w", err)
	}
	defer func() {
		if err := c.temp.Release(h); err != nil {
			c.logger.Warn().Err(err).Str("path", c.temp.Path(h)).Msg("temp file release failed")
		}
	}()

	img, err := c.decoder.Decode(c.temp.Path(h), format)
	if err != nil {
		return Encoded{}, err
	}
	return Encode(Normalize(img, target), target)
}

func (c *Converter) logFailure(item Item, target domain.OutputFormat) {
	var encErr *EncodeError
	if errors.As(item.Err, &encErr) {
		c.logger.Error().
			Err(item.Err).
			Bool("bug", true).
			Str("file", item.Filename).
			Str("target", string(target)).
			Msg("encoder rejected normalized image")
		return
	}
	c.logger.Warn().
		Err(item.Err).
		Str("file", item.Filename).
		Str("target", string(target)).
		Msg("file skipped")
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
