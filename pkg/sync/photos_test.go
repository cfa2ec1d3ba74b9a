package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"summitgo/pkg/model"
	"summitgo/pkg/peakapi"
)

// fakePhotoAPI scripts failures per filename and phase.
type fakePhotoAPI struct {
	failTarget   map[string]bool
	failTransfer map[string]bool
	failFinalize map[string]bool

	targetCalls   []string
	transferCalls []string
	finalized     map[string][2]int
}

func newFakePhotoAPI() *fakePhotoAPI {
	return &fakePhotoAPI{
		failTarget:   make(map[string]bool),
		failTransfer: make(map[string]bool),
		failFinalize: make(map[string]bool),
		finalized:    make(map[string][2]int),
	}
}

func (f *fakePhotoAPI) RequestPhotoUpload(ctx context.Context, filename, contentType, ownerType, ownerID string) (peakapi.UploadTarget, error) {
	f.targetCalls = append(f.targetCalls, filename)
	if f.failTarget[filename] {
		return peakapi.UploadTarget{}, errors.New("target request denied")
	}
	return peakapi.UploadTarget{
		UploadURL: "https://uploads.example/" + filename,
		PhotoID:   "ph-" + filename,
	}, nil
}

func (f *fakePhotoAPI) UploadPhotoBytes(ctx context.Context, uploadURL, contentType string, body io.Reader) error {
	f.transferCalls = append(f.transferCalls, uploadURL)
	for name := range f.failTransfer {
		if uploadURL == "https://uploads.example/"+name {
			return errors.New("connection reset during transfer")
		}
	}
	return nil
}

func (f *fakePhotoAPI) FinalizePhoto(ctx context.Context, photoID string, width, height int) error {
	for name := range f.failFinalize {
		if photoID == "ph-"+name {
			return errors.New("finalize rejected")
		}
	}
	f.finalized[photoID] = [2]int{width, height}
	return nil
}

func newTestPipeline(api PhotoAPI) *Pipeline {
	p := NewPipeline(api, nil)
	p.open = func(uri string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("jpeg-bytes"))), nil
	}
	return p
}

func photoRefs(n int) []model.PhotoRef {
	out := make([]model.PhotoRef, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.PhotoRef{
			URI:      fmt.Sprintf("file:///photos/p%d.jpg", i),
			Filename: fmt.Sprintf("p%d.jpg", i),
			Width:    4000,
			Height:   3000,
		})
	}
	return out
}

func TestPipelineIsolatesFailures(t *testing.T) {
	// Scenario: 3 photos, one fails at the byte-transfer phase; the other
	// two complete all three phases.
	api := newFakePhotoAPI()
	api.failTransfer["p2.jpg"] = true
	p := newTestPipeline(api)

	results := p.UploadAll(context.Background(), OwnerSummit, "sum-1", photoRefs(3))

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if got := Completed(results); got != 2 {
		t.Errorf("Expected 2 completed, got %d", got)
	}

	if results[1].Stage != StageTransfer || results[1].Err == nil {
		t.Errorf("Expected p2 to fail at transfer, got stage=%v err=%v", results[1].Stage, results[1].Err)
	}
	for _, i := range []int{0, 2} {
		if results[i].Err != nil || results[i].Stage != StageDone {
			t.Errorf("Photo %d should have completed: %+v", i, results[i])
		}
	}

	// The failed photo must not stop the loop: all 3 requested targets.
	if len(api.targetCalls) != 3 {
		t.Errorf("Expected 3 target requests, got %d", len(api.targetCalls))
	}
	// Finalize carries the device dimensions.
	if dims := api.finalized["ph-p1.jpg"]; dims != [2]int{4000, 3000} {
		t.Errorf("Wrong finalize dimensions: %v", dims)
	}
}

func TestPipelineStageTargetFailure(t *testing.T) {
	api := newFakePhotoAPI()
	api.failTarget["p1.jpg"] = true
	p := newTestPipeline(api)

	results := p.UploadAll(context.Background(), OwnerAscent, "asc-1", photoRefs(1))

	if results[0].Stage != StageRequestTarget {
		t.Errorf("Expected failure at request-target, got %v", results[0].Stage)
	}
	if len(api.transferCalls) != 0 {
		t.Error("Transfer must not run after a target failure")
	}
}

func TestPipelineStageFinalizeFailure(t *testing.T) {
	api := newFakePhotoAPI()
	api.failFinalize["p1.jpg"] = true
	p := newTestPipeline(api)

	results := p.UploadAll(context.Background(), OwnerAscent, "asc-1", photoRefs(1))

	if results[0].Stage != StageFinalize || results[0].Err == nil {
		t.Errorf("Expected failure at finalize, got %+v", results[0])
	}
	if Completed(results) != 0 {
		t.Error("A finalize failure is not a completed upload")
	}
}

func TestPipelineLocalReadFailure(t *testing.T) {
	api := newFakePhotoAPI()
	p := NewPipeline(api, nil)
	p.open = func(uri string) (io.ReadCloser, error) {
		return nil, errors.New("photo deleted from device")
	}

	results := p.UploadAll(context.Background(), OwnerSummit, "sum-1", photoRefs(2))

	if Completed(results) != 0 {
		t.Error("Unreadable photos cannot complete")
	}
	for _, r := range results {
		if r.Stage != StageTransfer {
			t.Errorf("Local read failures surface at the transfer stage, got %v", r.Stage)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"summit.jpg": "image/jpeg",
		"summit.png": "image/png",
		"summit":     "application/octet-stream",
	}
	for in, want := range cases {
		if got := contentTypeFor(in); got != want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", in, got, want)
		}
	}
}
