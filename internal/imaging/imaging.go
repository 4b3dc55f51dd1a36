// Package imaging handles product and brand image uploads. The processor is an
// opaque collaborator: raw bytes in, a hosted secure URL out.
package imaging

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Processor turns a raw image into a hosted, size-budgeted representation.
type Processor interface {
	Process(ctx context.Context, r io.Reader) (ProcessedImage, error)
}

// ProcessedImage is the hosted result of one upload.
type ProcessedImage struct {
	URL      string
	PublicID string
}

// Cloudinary uploads images to a cloudinary account and returns the secure
// delivery URL.
type Cloudinary struct {
	log    *zap.Logger
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds a processor from a cloudinary:// URL.
func NewCloudinary(log *zap.Logger, cloudURL, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}
	return &Cloudinary{log: log, cld: cld, folder: folder}, nil
}

// Process uploads the image and returns its hosted location. Compression and
// format negotiation happen on the cloudinary side.
func (c *Cloudinary) Process(ctx context.Context, r io.Reader) (ProcessedImage, error) {
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		return ProcessedImage{}, fmt.Errorf("failed to upload image: %w", err)
	}
	c.log.Info("image uploaded",
		zap.String("public_id", res.PublicID),
		zap.Int("bytes", res.Bytes),
	)
	return ProcessedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}
