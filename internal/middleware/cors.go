package middleware

import "net/http"

// corsAllowedMethods と corsAllowedHeaders はAPIゲートウェイ時代からの
// 互換性のため固定値とする。DELETEはサーバー内部のみで使用し公開しない。
const (
	corsAllowedMethods = "POST, PUT, GET, OPTIONS"
	corsAllowedHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
)

// NewCORSMiddleware は指定されたオリジンに対するCORSミドルウェアを返す。
// すべてのレスポンス（エラー応答を含む）にCORSヘッダーを付与する。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", "86400")

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
