package sync

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"summitgo/pkg/model"
	"summitgo/pkg/peakapi"
)

// Stage identifies where in the three-phase upload protocol a photo
// succeeded or failed.
type Stage int

const (
	StageRequestTarget Stage = iota
	StageTransfer
	StageFinalize
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageRequestTarget:
		return "request-target"
	case StageTransfer:
		return "transfer"
	case StageFinalize:
		return "finalize"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// PhotoResult is the outcome for a single photo. Stage is the furthest
// phase reached; Err is nil only when Stage == StageDone.
type PhotoResult struct {
	Photo   model.PhotoRef
	PhotoID string
	Stage   Stage
	Err     error
}

// Completed counts photos that finished all three phases.
func Completed(results []PhotoResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// PhotoAPI is the slice of the backend client the pipeline needs.
type PhotoAPI interface {
	RequestPhotoUpload(ctx context.Context, filename, contentType, ownerType, ownerID string) (peakapi.UploadTarget, error)
	UploadPhotoBytes(ctx context.Context, uploadURL, contentType string, body io.Reader) error
	FinalizePhoto(ctx context.Context, photoID string, width, height int) error
}

// Pipeline uploads photos via the signed-URL protocol: request a target,
// transfer the bytes, finalize. Photos are handled independently and
// sequentially; one photo's failure never aborts the rest.
type Pipeline struct {
	api     PhotoAPI
	tracked trackerHook

	// open resolves a device photo URI to its bytes. Injectable for tests.
	open func(uri string) (io.ReadCloser, error)
}

// trackerHook decouples the pipeline from the concrete tracker.
type trackerHook interface {
	TrackPhotoUploaded(provider string)
	TrackPhotoFailed(provider string)
}

// noopTracker is used when no tracker is wired.
type noopTracker struct{}

func (noopTracker) TrackPhotoUploaded(string) {}
func (noopTracker) TrackPhotoFailed(string)   {}

// NewPipeline creates a photo upload pipeline.
func NewPipeline(api PhotoAPI, tracked trackerHook) *Pipeline {
	if tracked == nil {
		tracked = noopTracker{}
	}
	return &Pipeline{
		api:     api,
		tracked: tracked,
		open:    openPhotoURI,
	}
}

const photoProvider = "photo-upload"

// UploadAll runs the protocol for each photo, returning one result per photo
// in input order.
func (p *Pipeline) UploadAll(ctx context.Context, ownerType, ownerID string, photos []model.PhotoRef) []PhotoResult {
	results := make([]PhotoResult, 0, len(photos))
	for _, photo := range photos {
		res := p.uploadOne(ctx, ownerType, ownerID, photo)
		if res.Err != nil {
			p.tracked.TrackPhotoFailed(photoProvider)
			slog.Error("Photo upload failed",
				"filename", photo.Filename, "stage", res.Stage.String(), "error", res.Err)
		} else {
			p.tracked.TrackPhotoUploaded(photoProvider)
		}
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) uploadOne(ctx context.Context, ownerType, ownerID string, photo model.PhotoRef) PhotoResult {
	contentType := contentTypeFor(photo.Filename)

	target, err := p.api.RequestPhotoUpload(ctx, photo.Filename, contentType, ownerType, ownerID)
	if err != nil {
		return PhotoResult{Photo: photo, Stage: StageRequestTarget, Err: err}
	}

	body, err := p.open(photo.URI)
	if err != nil {
		return PhotoResult{Photo: photo, PhotoID: target.PhotoID, Stage: StageTransfer, Err: err}
	}
	err = p.api.UploadPhotoBytes(ctx, target.UploadURL, contentType, body)
	body.Close()
	if err != nil {
		return PhotoResult{Photo: photo, PhotoID: target.PhotoID, Stage: StageTransfer, Err: err}
	}

	if err := p.api.FinalizePhoto(ctx, target.PhotoID, photo.Width, photo.Height); err != nil {
		return PhotoResult{Photo: photo, PhotoID: target.PhotoID, Stage: StageFinalize, Err: err}
	}

	return PhotoResult{Photo: photo, PhotoID: target.PhotoID, Stage: StageDone}
}

// openPhotoURI opens a device photo reference. URIs are local paths,
// optionally with a file:// scheme.
func openPhotoURI(uri string) (io.ReadCloser, error) {
	path := strings.TrimPrefix(uri, "file://")
	return os.Open(path)
}

// contentTypeFor guesses the MIME type from the filename extension.
func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
