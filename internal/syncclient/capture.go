package syncclient

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/services"
)

// ErrCaptureInFlight means a capture for the same stop has not
// finished yet. Captures for different stops proceed independently.
var ErrCaptureInFlight = errors.New("a capture for this stop is already in flight")

// CapturedImage is the raw input to the capture pipeline
type CapturedImage struct {
	Data     []byte
	MIMEType string
	Filename string
}

// CapturePipeline validates, compresses and uploads a proof photo,
// then marks the stop done in the progress store. Upload strategies
// form an ordered fallback chain tried until one succeeds.
type CapturePipeline struct {
	sync         *Synchronizer
	imageService *services.ImageService

	maxBytes   int64
	allowLarge bool

	mu       sync.Mutex
	inflight map[string]bool

	strategies []uploadStrategy
	logger     *observability.Logger
}

// CapturePipelineOptions tunes validation and compression
type CapturePipelineOptions struct {
	MaxFileSizeBytes  int64
	AllowLargeUploads bool
	MaxDimension      int
	JPEGQuality       int
}

// NewCapturePipeline creates a pipeline bound to a synchronizer. The
// strategy order is fixed: orchestrated, then signed, then legacy.
func NewCapturePipeline(syn *Synchronizer, opts CapturePipelineOptions) *CapturePipeline {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = 10 << 20
	}
	return &CapturePipeline{
		sync:         syn,
		imageService: services.NewImageService(opts.MaxDimension, opts.JPEGQuality),
		maxBytes:     opts.MaxFileSizeBytes,
		allowLarge:   opts.AllowLargeUploads,
		inflight:     make(map[string]bool),
		strategies: []uploadStrategy{
			orchestratedStrategy{},
			signedStrategy{},
			legacyStrategy{},
		},
		logger: observability.GetLogger(),
	}
}

// Uploading reports whether a capture for the stop is in flight
func (p *CapturePipeline) Uploading(stopID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight[stopID]
}

// Capture runs the full pipeline for one stop and returns the photo
// reference. On success the stop's state becomes done with its photo
// reference and completion time in a single store update. On failure
// the stop keeps its prior state.
func (p *CapturePipeline) Capture(ctx context.Context, stopID string, image CapturedImage, stopTitle string, uctx models.UploadContext) (string, error) {
	if err := p.reserve(stopID); err != nil {
		return "", err
	}
	defer p.release(stopID)

	// Validation is terminal: a bad file never retries
	if !services.IsImageMIME(image.MIMEType) {
		return "", &ValidationError{Reason: "file is not an image"}
	}
	if !p.allowLarge && int64(len(image.Data)) > p.maxBytes {
		return "", &ValidationError{Reason: "image exceeds the maximum allowed size"}
	}
	if len(image.Data) == 0 {
		return "", &ValidationError{Reason: "image is empty"}
	}

	data, mimeType, filename := p.compress(image)

	uctx.StopID = stopID
	var attempts []*UploadError
	for _, strategy := range p.strategies {
		if !strategy.Available(uctx) {
			continue
		}

		result, linked, err := strategy.Upload(ctx, p.sync.client, data, mimeType, filename, stopTitle, uctx)
		if err != nil {
			// A per-strategy failure is recovered by the next fallback
			// and only surfaces if the whole chain fails
			attempt := &UploadError{Strategy: strategy.Name(), Err: err}
			attempts = append(attempts, attempt)
			p.logger.Warnf("%v", attempt)
			continue
		}

		p.markCompleted(stopID, result.PhotoReference, linked)
		return result.PhotoReference, nil
	}

	return "", &UploadChainError{Attempts: attempts}
}

// markCompleted installs done, photoReference and completedAt in one
// update so no observer ever sees a done stop without its photo. When
// the server already linked the photo (orchestrated path) the local
// mirror still goes through the same single update; when it did not,
// an immediate flush writes the link instead of waiting out the
// debounce.
func (p *CapturePipeline) markCompleted(stopID, photoReference string, linked bool) {
	now := time.Now().UTC()
	p.sync.Update(func(snapshot models.ProgressSnapshot) models.ProgressSnapshot {
		snapshot[stopID] = models.CompletedStop(snapshot[stopID], photoReference, now)
		return snapshot
	})
	if !linked {
		p.sync.Flush()
	}
}

// compress re-encodes within bounds; the original bytes are kept when
// compression fails rather than aborting the capture
func (p *CapturePipeline) compress(image CapturedImage) ([]byte, string, string) {
	compressed, err := p.imageService.Recompress(image.Data, image.Filename)
	if err != nil {
		p.logger.Warnf("compression failed for %s, uploading original: %v", image.Filename, err)
		return image.Data, image.MIMEType, image.Filename
	}

	filename := image.Filename
	if ext := filepath.Ext(filename); !strings.EqualFold(ext, ".jpg") && !strings.EqualFold(ext, ".jpeg") {
		filename = strings.TrimSuffix(filename, ext) + ".jpg"
	}
	return compressed, "image/jpeg", filename
}

func (p *CapturePipeline) reserve(stopID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[stopID] {
		return ErrCaptureInFlight
	}
	p.inflight[stopID] = true
	return nil
}

func (p *CapturePipeline) release(stopID string) {
	p.mu.Lock()
	delete(p.inflight, stopID)
	p.mu.Unlock()
}

// uploadStrategy is one rung of the fallback chain. linked reports
// whether the server already wrote the progress record (the
// orchestrated path); unlinked strategies rely on the store update
// that follows.
type uploadStrategy interface {
	Name() string
	Available(uctx models.UploadContext) bool
	Upload(ctx context.Context, client *Client, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (result *models.UploadResult, linked bool, err error)
}

// orchestratedStrategy is atomic with compensation server-side and
// needs full team/org/hunt identity
type orchestratedStrategy struct{}

func (orchestratedStrategy) Name() string { return "orchestrated" }

func (orchestratedStrategy) Available(uctx models.UploadContext) bool {
	return uctx.HasFullIdentity()
}

func (orchestratedStrategy) Upload(ctx context.Context, client *Client, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (*models.UploadResult, bool, error) {
	result, err := client.UploadOrchestrated(ctx, data, mimeType, filename, stopTitle, uctx)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// signedStrategy stores the image, then the progress link happens via
// the normal store update. A crash between the two can leave an
// uploaded-but-unlinked image; accepted gap of this path.
type signedStrategy struct{}

func (signedStrategy) Name() string { return "signed" }

func (signedStrategy) Available(models.UploadContext) bool { return true }

func (signedStrategy) Upload(ctx context.Context, client *Client, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (*models.UploadResult, bool, error) {
	result, err := client.UploadSigned(ctx, data, mimeType, filename, stopTitle, uctx)
	if err != nil {
		return nil, false, err
	}
	return result, false, nil
}

// legacyStrategy is the last resort: no resize or size enforcement
type legacyStrategy struct{}

func (legacyStrategy) Name() string { return "legacy" }

func (legacyStrategy) Available(models.UploadContext) bool { return true }

func (legacyStrategy) Upload(ctx context.Context, client *Client, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (*models.UploadResult, bool, error) {
	result, err := client.UploadLegacy(ctx, data, mimeType, filename, stopTitle, uctx)
	if err != nil {
		return nil, false, err
	}
	return result, false, nil
}
