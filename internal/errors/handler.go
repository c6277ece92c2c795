package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem type URIs used in the "type" member of every error response.
const (
	TypeValidation      = "/errors/validation"
	TypeComputation     = "/errors/computation"
	TypeParsing         = "/errors/parsing"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeUnsupportedType = "/errors/unsupported-media-type"
	TypeMethod          = "/errors/method-not-allowed"
)

// problemKind is the status, type and title a class of error renders as
type problemKind struct {
	status int
	typ    string
	title  string
}

var (
	internalKind = problemKind{http.StatusInternalServerError, TypeInternal, "Internal Server Error"}
	timeoutKind  = problemKind{http.StatusGatewayTimeout, TypeTimeout, "Request Timeout"}

	// AppError types not listed here are reported as internal errors
	// without their detail.
	appKinds = map[ErrorType]problemKind{
		ErrTypeValidation:  {http.StatusBadRequest, TypeValidation, "Validation Failed"},
		ErrTypeComputation: {http.StatusUnprocessableEntity, TypeComputation, "Computation Failed"},
		ErrTypeParsing:     {http.StatusBadRequest, TypeParsing, "Unreadable Input"},
		ErrTypeNotFound:    {http.StatusNotFound, TypeNotFound, "Resource Not Found"},
	}

	apiCodeTypes = map[string]string{
		"VALIDATION_FAILED":      TypeValidation,
		"INVALID_REQUEST":        TypeValidation,
		"NOT_FOUND":              TypeNotFound,
		"RATE_LIMIT_EXCEEDED":    TypeRateLimit,
		"PAYLOAD_TOO_LARGE":      TypePayloadTooLarge,
		"UNSUPPORTED_MEDIA_TYPE": TypeUnsupportedType,
	}
)

func (k problemKind) problem(detail string, r *http.Request) *ProblemDetails {
	return NewProblemDetails(k.status, k.typ, k.title, detail, r.URL.Path)
}

// ErrorHandler renders every error as RFC 7807 problem details and logs it
// once, at warn for client errors and at error for server errors.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack adds goroutine
// stacks to 5xx responses and belongs in development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError writes err as a problem response. A nil error writes nothing.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r).WithExtension("trace_id", reqID)
	serverSide := problem.Status >= http.StatusInternalServerError

	level := slog.LevelWarn
	if serverSide {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	if serverSide && h.includeStack {
		problem.WithExtension("stack", stackTrace())
	}
	render.Render(w, r, problem)
}

// ErrorToProblem maps err onto problem details. Cancellation maps to 504,
// APIError keeps its own status, and AppError maps by type.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var (
		apiErr   *APIError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return timeoutKind.problem("The request took too long to process and was cancelled", r)
	case errors.As(err, &apiErr):
		return apiProblem(apiErr, r)
	case errors.As(err, &tooLarge):
		return apiProblem(ErrPayloadTooLarge, r)
	}

	if appErr, ok := AsAppError(err); ok {
		return appProblem(appErr, r)
	}
	return internalKind.problem("An unexpected error occurred while processing your request", r)
}

func appProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	kind, ok := appKinds[appErr.Type]
	if !ok {
		return internalKind.problem("An unexpected error occurred while processing your request", r)
	}

	detail := appErr.Detail()
	if appErr.Type == ErrTypeNotFound {
		detail = appErr.Message
	}
	problem := kind.problem(detail, r)
	if len(appErr.Violations) > 0 {
		problem.WithExtension("errors", appErr.Violations)
	}
	for k, v := range appErr.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

func apiProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	typ, ok := apiCodeTypes[apiErr.ErrorCode]
	if !ok {
		typ = TypeInternal
	}

	problem := NewProblemDetails(apiErr.StatusCode, typ, http.StatusText(apiErr.StatusCode), apiErr.Message, r.URL.Path).
		WithExtension("error_code", apiErr.ErrorCode)

	switch details := apiErr.Details.(type) {
	case nil:
	case ValidationErrors:
		problem.WithExtension("errors", details.Errors)
	default:
		problem.WithExtension("details", details)
	}
	return problem
}

// HandlePanic writes a 500 for a recovered panic and logs the stack
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())
	stack := stackTrace()

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack))

	problem := internalKind.problem("An unexpected error occurred", r).WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stack)
	}
	render.Render(w, r, problem)
}

// NotFound is the router's 404 handler
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := problemKind{http.StatusNotFound, TypeNotFound, "Not Found"}.
		problem("The requested resource was not found", r).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
	render.Render(w, r, problem)
}

// MethodNotAllowed is the router's 405 handler
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := problemKind{http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed"}.
		problem(fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
	render.Render(w, r, problem)
}

func stackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
