package middleware

import "net/http"

// NewCORSMiddleware はSPAのオリジンからのクロスオリジンアクセスを許可する
// ミドルウェアを返す。セッションCookieを送るためcredentialsを許可し、
// その制約上ワイルドカードオリジンは使わない。
// CSRFトークンはX-CSRF-Tokenヘッダーで届くため許可ヘッダーに含める。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeaderName)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				// プリフライトはここで完結させる
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
