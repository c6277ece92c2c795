package errors

import "net/http"

// RecoveryMiddleware answers a panicking handler with a 500 problem.
// http.ErrAbortHandler is re-raised so net/http can abort the response.
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				switch rec {
				case nil:
				case http.ErrAbortHandler:
					panic(rec)
				default:
					handler.HandlePanic(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
