package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"qrbatch/internal/archive"
	"qrbatch/internal/domain"
	"qrbatch/internal/storage"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", domain.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrAmbiguousAsset, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestAttachment(t *testing.T) {
	got := attachment(`job_1_一住 "01".jpg`)
	want := `attachment; filename="job_1___ _01_.jpg"; filename*=UTF-8''job_1_%E4%B8%80%E4%BD%8F%20%2201%22.jpg`
	if got != want {
		t.Fatalf("attachment = %q\nwant        %q", got, want)
	}
}

func TestLocalize(t *testing.T) {
	if got := localize("en", msgProcessed, 3); got != "Processed 3 images" {
		t.Fatalf("en = %q", got)
	}
	if got := localize("fr", msgProcessed, 2); got != "成功处理 2 张图片" {
		t.Fatalf("fallback = %q", got)
	}
	if got := localize("en", messageKey("unknown")); got != "unknown" {
		t.Fatalf("unknown = %q", got)
	}
}

func TestContentTypeFor(t *testing.T) {
	if contentTypeFor("a.JPG") != "image/jpeg" || contentTypeFor("a.png") != "image/png" {
		t.Fatal("image types")
	}
	if contentTypeFor("a.unknownext") != "application/octet-stream" {
		t.Fatal("fallback type")
	}
}

// deadlineRecorder exposes SetWriteDeadline so http.ResponseController can
// reach it, like the server's connection-backed writer does.
type deadlineRecorder struct {
	*httptest.ResponseRecorder
	deadlines []time.Time
}

func (d *deadlineRecorder) SetWriteDeadline(t time.Time) error {
	d.deadlines = append(d.deadlines, t)
	return nil
}

func TestDownloadBatchLiftsWriteDeadline(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Write(context.Background(), "job_a.jpg", []byte("jpeg")); err != nil {
		t.Fatal(err)
	}
	app := NewApp(nil, archive.New(store, archive.Options{Logger: zerolog.Nop()}), zerolog.Nop(), false)

	req := httptest.NewRequest(http.MethodPost, "/api/download/batch", strings.NewReader(`{"fileNames":["job_a.jpg"]}`))
	rec := &deadlineRecorder{ResponseRecorder: httptest.NewRecorder()}
	app.DownloadBatch(rec, req)

	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if len(rec.deadlines) != 1 || !rec.deadlines[0].IsZero() {
		t.Fatalf("write deadlines = %v, want one zero deadline", rec.deadlines)
	}
}
