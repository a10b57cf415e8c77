package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/teamdeck/internal/model"
)

// Double Submit Cookie方式でCSRFを防止する。
// SPAはGET /api/csrf-tokenで取得したトークンを
// X-CSRF-Tokenヘッダーに載せて状態変更リクエストを送る。
const (
	// csrfCookieName はトークンを保持するCookie名。
	// SPAがJavaScriptから読めるようHttpOnlyにしない。
	csrfCookieName = "csrf_token"

	// csrfHeaderName は状態変更リクエストでトークンを運ぶヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// csrfCookieMaxAge はトークンCookieの有効期間（秒）。
	csrfCookieMaxAge = 24 * 60 * 60
)

// CSRFConfig はCSRFトークンCookieの属性を決める設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewCSRFMiddleware はCSRFトークン検証ミドルウェアを返す。
// GET/HEAD/OPTIONSは検証せず、未発行ならトークンCookieを発行する。
// それ以外のメソッドはCookieとヘッダーのトークン一致を必須とする。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if _, err := r.Cookie(csrfCookieName); err != nil {
					issueCSRFCookie(w, config)
				}
				next.ServeHTTP(w, r)
				return
			}

			if reason := verifyCSRFToken(r); reason != "" {
				slog.Warn("csrf verification failed",
					slog.String("reason", reason),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFTokenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// verifyCSRFToken はCookieとヘッダーのトークン一致を検証する。
// 不一致の場合は失敗理由を、成功時は空文字列を返す。
func verifyCSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "cookie token missing"
	}

	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return "header token missing"
	}

	// タイミング攻撃を避けるため定数時間で比較する
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return "token mismatch"
	}
	return ""
}

// NewCSRFTokenHandler はGET /api/csrf-tokenのハンドラーを返す。
// セッション認証の前段に置かれ、ログイン画面からも呼び出せる。
// 既存トークンがあればそれを返し、なければ発行してCookieに設定する。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(csrfCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			var err error
			if token, err = issueCSRFCookie(w, config); err != nil {
				WriteInternalServerError(w)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
}

// issueCSRFCookie は新規トークンを生成してCookieに設定し、トークンを返す。
func issueCSRFCookie(w http.ResponseWriter, config CSRFConfig) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("failed to generate csrf token", slog.String("error", err.Error()))
		return "", err
	}
	token := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   csrfCookieMaxAge,
		HttpOnly: false,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}
