package image

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/teamdeck/internal/model"
)

// apiErrorCode はAPIErrorのコードを取り出す。APIErrorでない場合は空文字。
func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// テストではSSRFガードなしのFetcherを使う。httptestサーバーはループバックで
// 起動するため、ガード付きではすべてブロックされてしまう。

// TestFetcher_AdmitImageURL_Succeeds は画像取得とdata URL変換を検証する。
func TestFetcher_AdmitImageURL_Succeeds(t *testing.T) {
	pngData := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	}))
	defer ts.Close()

	fetcher := NewFetcher(nil, 0, 0)
	got, err := fetcher.AdmitImageURL(context.Background(), ts.URL+"/logo.png")
	if err != nil {
		t.Fatalf("AdmitImageURL returned error: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("got %q, want data:image/png;base64 prefix", got)
	}
}

// TestFetcher_AdmitImageURL_Empty は空文字がそのまま通過することを検証する。
func TestFetcher_AdmitImageURL_Empty(t *testing.T) {
	fetcher := NewFetcher(nil, 0, 0)
	got, err := fetcher.AdmitImageURL(context.Background(), "")
	if err != nil || got != "" {
		t.Errorf("AdmitImageURL(\"\") = (%q, %v), want (\"\", nil)", got, err)
	}
}

// TestFetcher_AdmitImageURL_DataURLPassthrough は既存のdata URLが再取得
// されずに通過することを検証する。
func TestFetcher_AdmitImageURL_DataURLPassthrough(t *testing.T) {
	fetcher := NewFetcher(nil, 0, 0)
	input := "data:image/png;base64,aGVsbG8="
	got, err := fetcher.AdmitImageURL(context.Background(), input)
	if err != nil {
		t.Fatalf("AdmitImageURL returned error: %v", err)
	}
	if got != input {
		t.Errorf("got %q, want unchanged input", got)
	}
}

// TestFetcher_AdmitImageURL_NonImage は画像以外のContent-Typeが
// INVALID_IMAGE_URLで拒否されることを検証する。
func TestFetcher_AdmitImageURL_NonImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	fetcher := NewFetcher(nil, 0, 0)
	_, err := fetcher.AdmitImageURL(context.Background(), ts.URL)
	if code := apiErrorCode(err); code != model.ErrCodeInvalidImageURL {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidImageURL)
	}
}

// TestFetcher_AdmitImageURL_SVGRejected はSVGが拒否されることを検証する。
func TestFetcher_AdmitImageURL_SVGRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte("<svg onload=\"alert(1)\"></svg>"))
	}))
	defer ts.Close()

	fetcher := NewFetcher(nil, 0, 0)
	_, err := fetcher.AdmitImageURL(context.Background(), ts.URL)
	if code := apiErrorCode(err); code != model.ErrCodeInvalidImageURL {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidImageURL)
	}
}

// TestFetcher_AdmitImageURL_TooLarge はサイズ上限超過が拒否されることを検証する。
func TestFetcher_AdmitImageURL_TooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 64))
	}))
	defer ts.Close()

	fetcher := NewFetcher(nil, 0, 16)
	_, err := fetcher.AdmitImageURL(context.Background(), ts.URL)
	if code := apiErrorCode(err); code != model.ErrCodeInvalidImageURL {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidImageURL)
	}
}

// TestFetcher_AdmitImageURL_HTTPError は2xx以外のステータスが拒否されることを検証する。
func TestFetcher_AdmitImageURL_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	fetcher := NewFetcher(nil, 0, 0)
	_, err := fetcher.AdmitImageURL(context.Background(), ts.URL)
	if code := apiErrorCode(err); code != model.ErrCodeInvalidImageURL {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidImageURL)
	}
}

// TestExtractMimeType はContent-Typeヘッダーの解析を検証する。
func TestExtractMimeType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"image/png", "image/png"},
		{"image/jpeg; charset=utf-8", "image/jpeg"},
		{"IMAGE/PNG", "image/png"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractMimeType(tt.input); got != tt.want {
			t.Errorf("extractMimeType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
