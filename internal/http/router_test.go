package httpapi

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"qrbatch/internal/adapter/repo"
	"qrbatch/internal/archive"
	"qrbatch/internal/batch"
	"qrbatch/internal/compositor"
	"qrbatch/internal/http/handlers"
	"qrbatch/internal/label"
	"qrbatch/internal/layout"
	"qrbatch/internal/metrics"
	"qrbatch/internal/storage"
	"qrbatch/internal/textlayer"
)

const (
	testBackgroundID = "bg_1700000000000_template"
	testQRID         = "qr_1700000000001_一住1F1床"
)

func writeSolidPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T, extraQRFiles ...string) *httptest.Server {
	t.Helper()
	bgDir, qrDir, outDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeSolidPNG(t, filepath.Join(bgDir, "1700000000000_template.png"), 300, 400, color.White)
	writeSolidPNG(t, filepath.Join(qrDir, "1700000000001_一住1F1床.png"), 50, 50, color.Black)
	for _, name := range extraQRFiles {
		writeSolidPNG(t, filepath.Join(qrDir, name), 50, 50, color.Black)
	}

	store, err := storage.NewFileStore(outDir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	renderer, err := textlayer.NewRenderer(nil, layout.Engine{})
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	m := metrics.New()
	logger := zerolog.Nop()
	comp := compositor.New(store, layout.Engine{}, compositor.Options{BoxSize: 120})
	processor := batch.NewProcessor(repo.NewDirRegistry(bgDir, qrDir), label.NewFormatter(nil), renderer, comp, batch.Options{
		Logger:  logger,
		Metrics: m,
	})
	archiver := archive.New(store, archive.Options{Logger: logger, Metrics: m})
	app := handlers.NewApp(processor, archiver, logger, true)
	srv := httptest.NewServer(NewRouter(app, Options{
		Logger:          logger,
		CORSOrigins:     []string{"*"},
		RateLimitPerMin: 100,
		DefaultLocale:   "zh",
		Metrics:         m.Handler(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, header http.Header) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.Header.Set("Accept-Language", "en-US")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" || body["message"] != "Image processing server is running" {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}
}

func TestProcessThenDownload(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/process", map[string]any{
		"backgroundId": testBackgroundID,
		"qrCodeIds":    []string{testQRID, "qr_missing"},
		"textConfig":   map[string]any{"fontSize": 20, "englishFontSize": 12},
	}, nil)
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}
	if body["processedCount"] != float64(1) || body["requestedCount"] != float64(2) {
		t.Fatalf("counts = %v / %v", body["processedCount"], body["requestedCount"])
	}
	if body["message"] != "成功处理 1 张图片" {
		t.Fatalf("message = %v", body["message"])
	}
	if skipped := body["skipped"].([]any); len(skipped) != 1 {
		t.Fatalf("skipped = %v", skipped)
	}
	result := body["results"].([]any)[0].(map[string]any)
	if result["englishName"] != "ONE INPATIENT UNITS - 01F - 01 BED" || result["originalQrName"] != "一住1F1床" {
		t.Fatalf("result = %v", result)
	}
	filename := result["filename"].(string)

	listResp, err := http.Get(srv.URL + "/api/download")
	if err != nil {
		t.Fatal(err)
	}
	list := decodeBody(t, listResp)
	files := list["files"].([]any)
	if len(files) != 1 || files[0].(map[string]any)["filename"] != filename {
		t.Fatalf("files = %v", files)
	}

	fileResp, err := http.Get(srv.URL + result["downloadUrl"].(string))
	if err != nil {
		t.Fatal(err)
	}
	defer fileResp.Body.Close()
	if fileResp.StatusCode != http.StatusOK || fileResp.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("file status = %d type = %q", fileResp.StatusCode, fileResp.Header.Get("Content-Type"))
	}
	if cd := fileResp.Header.Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	zipResp := postJSON(t, srv.URL+"/api/download/batch", map[string]any{"fileNames": []string{filename, "missing.jpg"}}, nil)
	defer zipResp.Body.Close()
	if zipResp.StatusCode != http.StatusOK || zipResp.Header.Get("Content-Type") != "application/zip" {
		t.Fatalf("zip status = %d", zipResp.StatusCode)
	}
	if cd := zipResp.Header.Get("Content-Disposition"); !strings.Contains(cd, "processed_images_") {
		t.Fatalf("zip Content-Disposition = %q", cd)
	}
	data, err := io.ReadAll(zipResp.Body)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != filename {
		t.Fatalf("zip entries = %v", zr.File)
	}
}

func TestDownloadFilenameWithPercent(t *testing.T) {
	srv := newTestServer(t, "2_五住50%床位.png")

	resp := postJSON(t, srv.URL+"/api/process", map[string]any{
		"backgroundId": testBackgroundID,
		"qrCodeIds":    []string{"qr_2_五住50%床位"},
	}, nil)
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK || body["processedCount"] != float64(1) {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}
	result := body["results"].([]any)[0].(map[string]any)
	filename := result["filename"].(string)
	if !strings.Contains(filename, "%") {
		t.Fatalf("filename %q lost the percent sign", filename)
	}
	ref := result["downloadUrl"].(string)

	cases := map[string]string{
		"default escaping": ref,
		// %5F for '_' is valid but non-default, so the server sees a RawPath.
		"raw path": strings.Replace(ref, "job_", "job%5F", 1),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			fileResp, err := http.Get(srv.URL + path)
			if err != nil {
				t.Fatal(err)
			}
			defer fileResp.Body.Close()
			if fileResp.StatusCode != http.StatusOK {
				t.Fatalf("GET %s status = %d", path, fileResp.StatusCode)
			}
			if cd := fileResp.Header.Get("Content-Disposition"); !strings.Contains(cd, "50%25") {
				t.Fatalf("Content-Disposition = %q", cd)
			}
		})
	}
}

func TestProcessErrors(t *testing.T) {
	srv := newTestServer(t)
	cases := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"missing params", map[string]any{"backgroundId": testBackgroundID}, http.StatusBadRequest, "缺少必要的参数"},
		{"unknown background", map[string]any{"backgroundId": "bg_nope", "qrCodeIds": []string{testQRID}}, http.StatusNotFound, "背景图片未找到"},
		{"not an object", []int{1, 2}, http.StatusBadRequest, "请求格式错误"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/process", tc.body, nil)
			body := decodeBody(t, resp)
			if resp.StatusCode != tc.status || body["message"] != tc.message || body["success"] != false {
				t.Fatalf("status = %d body = %v", resp.StatusCode, body)
			}
			if body["error"] == nil {
				t.Fatal("development mode should include error detail")
			}
		})
	}
}

func TestDownloadErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/download/missing.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if body := decodeBody(t, resp); resp.StatusCode != http.StatusNotFound || body["message"] != "文件未找到" {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}

	resp = postJSON(t, srv.URL+"/api/download/batch", map[string]any{"fileNames": []string{}}, nil)
	if body := decodeBody(t, resp); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty status = %d body = %v", resp.StatusCode, body)
	}

	resp = postJSON(t, srv.URL+"/api/download/batch", map[string]any{"fileNames": []string{"a.jpg", "b.jpg"}}, http.Header{"X-Locale": {"en"}})
	if body := decodeBody(t, resp); resp.StatusCode != http.StatusNotFound || body["message"] != "None of the requested files exist" {
		t.Fatalf("none status = %d body = %v", resp.StatusCode, body)
	}
}

func TestMetricsAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "go_goroutines") {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/nope")
	if err != nil {
		t.Fatal(err)
	}
	if body := decodeBody(t, resp); resp.StatusCode != http.StatusNotFound || body["success"] != false {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}
}
