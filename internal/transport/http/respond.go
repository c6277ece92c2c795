package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/middleware"
	api "excelcleaner/pkg/contracts/api/v1"
)

type ctxKey int

const (
	fileIDKey ctxKey = iota
	sheetNameKey
)

// respondOK renders a successful envelope with the time spent since start.
func respondOK[T any](w http.ResponseWriter, r *http.Request, start time.Time, message string, data T) {
	resp := api.OK(message, data)
	resp.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
	render.JSON(w, r, resp)
}

// fileCtx validates the {fileID} and sheet_name parameters shared by every
// route that reads a cached file, and stores them in the request context.
func fileCtx(v *middleware.Validator, errorHandler *apierrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fileID := chi.URLParam(r, "fileID")
			if err := v.Var("file_id", fileID, "required,uuid"); err != nil {
				errorHandler.HandleError(w, r, err)
				return
			}

			sheet := r.URL.Query().Get("sheet_name")
			if err := v.Var("sheet_name", sheet, "omitempty,sheetname"); err != nil {
				errorHandler.HandleError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), fileIDKey, fileID)
			ctx = context.WithValue(ctx, sheetNameKey, sheet)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// jsonBody rejects non-JSON request bodies with 415. Bodiless requests pass.
func jsonBody(errorHandler *apierrors.ErrorHandler) func(http.Handler) http.Handler {
	return middleware.ContentTypeValidator(errorHandler, "application/json")
}

func fileIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(fileIDKey).(string)
	return id
}

func sheetNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(sheetNameKey).(string)
	return name
}
