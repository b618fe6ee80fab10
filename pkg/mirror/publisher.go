package mirror

import (
	"context"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"pixelmirror/pkg/raster"
)

const (
	EmbedTitle   = "Pixels State"
	EmbedFooter  = "Last updated"
	DefaultScale = 5
)

func NewPublisher(t Transport, dims raster.Dimensions, logger *zap.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		t:     t,
		dims:  dims,
		log:   logger.With(zap.String("via", "publisher")),
		scale: DefaultScale,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publisher renders canvas buffers onto the mirror message. It holds no
// identity of its own and does not serialize calls; callers must not run an
// Update concurrently with another Update or Create of the same identity.
type Publisher struct {
	t     Transport
	dims  raster.Dimensions
	log   *zap.Logger
	scale int
	now   func() time.Time
}

func (p *Publisher) Dimensions() raster.Dimensions {
	return p.dims
}

// Create posts a new, image-less mirror message into channelID. Every call
// posts another message.
func (p *Publisher) Create(ctx context.Context, channelID uint64) (Identity, error) {
	id, err := p.t.CreateMessage(ctx, channelID, Embed{Title: EmbedTitle, Footer: EmbedFooter})
	if err != nil {
		return Identity{}, &PublishError{Op: "create message", Err: err}
	}

	p.log.With(zap.Stringer("identity", id)).Info("mirror-created")
	return id, nil
}

// Update rasterizes buf and replaces the image of the message named by id.
// An identity that is not Ready is a no-op.
func (p *Publisher) Update(ctx context.Context, id Identity, buf []byte) error {
	if !id.Ready() {
		return nil
	}

	msg, err := p.t.FetchMessage(ctx, id)
	if err != nil {
		return p.remoteError("fetch message", id, err)
	}

	img, err := raster.Rasterize(buf, p.dims, p.scale)
	if err != nil {
		return err
	}

	embed := Embed{Title: EmbedTitle, Footer: EmbedFooter}
	if current, err := lo.Nth(msg.Embeds, 0); err == nil {
		embed.Title = lo.Ternary(current.Title != "", current.Title, embed.Title)
		embed.Footer = lo.Ternary(current.Footer != "", current.Footer, embed.Footer)
	}
	embed.ImageURL = "attachment://" + img.Name
	embed.Timestamp = p.now().UTC()

	attachment := Attachment{Name: img.Name, ContentType: "image/png", Data: img.Data}
	if err := p.t.PatchMessage(ctx, id, embed, []Attachment{attachment}); err != nil {
		return p.remoteError("patch message", id, err)
	}

	p.log.With(
		zap.Stringer("identity", id),
		zap.String("file", img.Name),
		zap.String("size", bytesize.New(float64(len(img.Data))).String()),
	).Debug("mirror-updated")

	return nil
}

func (p *Publisher) remoteError(op string, id Identity, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &StaleError{Identity: id, Err: err}
	}
	return &PublishError{Op: op, Err: err}
}
