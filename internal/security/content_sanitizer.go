// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はタスク説明文のHTMLをサニタイズし、
// 保存されたコンテンツが他のメンバーのブラウザでスクリプトとして
// 実行されることを防ぐ。bluemondayの許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLサニタイズ機能のインターフェースを定義する。
// タスク説明文の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 書式タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを
	// 通過させ、script等の実行可能要素とon*イベント属性を除去する。
	// imgタグのsrc属性はhttpsスキームのみ許可される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// タスク説明文に必要な書式のみを許可するポリシーを構築する:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - script, iframe, style および全てのon*イベント属性は許可リスト外として除去
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// リンク: 相対URLは不許可。別タブで開き、リファラを渡さない。
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// 埋め込み画像: httpsのみ。altはアクセシビリティのため保持する。
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
