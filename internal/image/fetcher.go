// Package image はワークスペース・プロジェクトのアイコン画像の受理を提供する。
//
// ユーザーが指定した画像URLをサーバー側で検証・取得し、data URLとして
// レコードに埋め込む。取得はSSRF防止付きHTTPクライアントで行い、
// 内部ネットワークへの到達を防ぐ。
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/teamdeck/internal/model"
)

// maxImageSize は受理する画像の最大サイズ（2MB）。
const maxImageSize = 2 * 1024 * 1024

// defaultFetchTimeout は画像取得のデフォルトタイムアウト。
const defaultFetchTimeout = 5 * time.Second

// SSRFValidator はSSRF防止機能のインターフェース。securityパッケージの
// SSRFGuardServiceが実装する。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher は画像URLの検証・取得・data URL変換を行う。
type Fetcher struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
}

// NewFetcher はFetcherを生成する。timeoutとmaxSizeが0以下の場合は
// デフォルト値（5秒・2MB）を使う。
func NewFetcher(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxSize <= 0 {
		maxSize = maxImageSize
	}
	return &Fetcher{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// AdmitImageURL は画像URLを検証し、取得した画像をdata URLとして返す。
// 既にdata URL形式の入力は再取得せずそのまま返す。
// 検証・取得に失敗した場合はINVALID_IMAGE_URLのAPIErrorを返す。
// faviconのような黙殺はせず、ユーザーに失敗理由を返す。
func (f *Fetcher) AdmitImageURL(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}
	if strings.HasPrefix(rawURL, "data:image/") {
		return rawURL, nil
	}

	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(rawURL); err != nil {
			slog.Warn("画像受理: SSRFブロック", "url", rawURL, "error", err)
			return "", model.NewInvalidImageURLError("URLが安全ではありません")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", model.NewInvalidImageURLError("URLの形式が不正です")
	}
	req.Header.Set("User-Agent", "Teamdeck/1.0")

	resp, err := f.httpClient().Do(req)
	if err != nil {
		slog.Warn("画像受理: HTTPリクエスト失敗", "url", rawURL, "error", err)
		return "", model.NewInvalidImageURLError("画像を取得できませんでした")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("画像受理: HTTPステータス異常", "url", rawURL, "status", resp.StatusCode)
		return "", model.NewInvalidImageURLError(fmt.Sprintf("画像の取得がステータス%dで失敗しました", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		slog.Warn("画像受理: レスポンス読み取り失敗", "url", rawURL, "error", err)
		return "", model.NewInvalidImageURLError("画像を読み取れませんでした")
	}
	if int64(len(body)) > f.maxSize {
		return "", model.NewInvalidImageURLError("画像サイズが上限を超えています")
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	if !isImageMime(mimeType) {
		slog.Warn("画像受理: 画像以外のContent-Type", "url", rawURL, "contentType", mimeType)
		return "", model.NewInvalidImageURLError("URLの参照先が画像ではありません")
	}

	encoded := base64.StdEncoding.EncodeToString(body)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
}

// httpClient は取得用HTTPクライアントを返す。
func (f *Fetcher) httpClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.timeout, f.maxSize)
	}
	return &http.Client{Timeout: f.timeout}
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
// SVGはスクリプトを含み得るためdata URL埋め込みでは受理しない。
func isImageMime(mimeType string) bool {
	if mimeType == "" || mimeType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mimeType, "image/")
}
