// Package security は画像URL受理とユーザー入力の無害化を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService はユーザー指定の画像URLをサーバー側から取得する際の
// SSRF防止機能を定義する。ワークスペースとプロジェクトのカバー画像、
// タスク添付画像の受理で使用される。
type SSRFGuardService interface {
	// NewSafeClient は内部ネットワークへ到達できないHTTPクライアントを生成する。
	// safeurlがDialer層でDNS解決後のIPも検証するため、
	// DNS再バインディングで内部IPに振り向けられても接続は拒否される。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client

	// ValidateURL は画像URLとして受理可能かを接続前に静的検証する。
	// 受理できない場合は拒否理由を含むエラーを返す。
	ValidateURL(rawURL string) error
}

// 画像URLとして受理するスキーム。data:やfile:は受理しない。
var allowedSchemes = []string{"http", "https"}

// deniedCIDRs は画像取得先として拒否するアドレス範囲。
// 社内ネットワークとクラウドメタデータ(169.254.169.254)への
// 画像URL偽装アクセスを遮断する。
var deniedCIDRs = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918
	"172.16.0.0/12",  // RFC 1918
	"192.168.0.0/16", // RFC 1918
	"127.0.0.0/8",    // ループバック
	"169.254.0.0/16", // リンクローカル（メタデータIPを含む）
	"0.0.0.0/8",      // カレントネットワーク
	"::1/128",        // IPv6ループバック
	"fe80::/10",      // IPv6リンクローカル
	"fc00::/7",       // IPv6ユニークローカル
)

func mustParseCIDRs(cidrs ...string) []net.IPNet {
	networks := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid denied CIDR %s: %v", cidr, err))
		}
		networks = append(networks, *network)
	}
	return networks
}

type ssrfGuard struct{}

// NewSSRFGuard は画像URL受理用のSSRFガードを生成する。
func NewSSRFGuard() *ssrfGuard {
	return &ssrfGuard{}
}

// NewSafeClient は画像取得用のHTTPクライアントを生成する。
// safeurlの既定設定でプライベートIP、ループバック、リンクローカル、
// メタデータIPへの接続がDialer層で拒否される。
// ポートは画像配信で使われる80と443のみ許可する。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL は画像URLの静的検証を行う。
// DNS解決は行わないため、ホスト名が内部IPに解決されるケースは
// NewSafeClientのDialer検証に委ねる。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("image URL is empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("image URL is not parseable: %w", err)
	}

	if !schemeAllowed(parsed.Scheme) {
		return fmt.Errorf("image URL scheme %q is not accepted (accepted: %v)", parsed.Scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("image URL has no host: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if ipDenied(ip) {
			return fmt.Errorf("image URL resolves into a denied network: %s", ip)
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("image URL host %q is not accepted", host)
	}
	return nil
}

func schemeAllowed(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func ipDenied(ip net.IP) bool {
	for _, network := range deniedCIDRs {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
