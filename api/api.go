// Defines a standard way to define routes
package api

import (
	"context"
	"net/http"

	"guildpass/constants"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// A API Router, not to be confused with Router which routes the actual routes
type APIRouter interface {
	Routes(r *chi.Mux)
	Tag() (string, string)
}

type Method int

const (
	GET Method = iota
	POST
	PUT
	DELETE
)

// Returns the method as a string
func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	}

	panic("Invalid method")
}

// Represents a route on the API
type Route struct {
	Method  Method
	Pattern string
	OpId    string
	Handler func(d RouteData, r *http.Request) HttpResponse
	Setup   func()
}

type RouteData struct {
	Context context.Context
}

type Router interface {
	Get(pattern string, h http.HandlerFunc)
	Post(pattern string, h http.HandlerFunc)
	Put(pattern string, h http.HandlerFunc)
	Delete(pattern string, h http.HandlerFunc)
}

func (r Route) String() string {
	return r.Method.String() + " " + r.Pattern + " (" + r.OpId + ")"
}

func (r Route) Route(ro Router) {
	if r.OpId == "" {
		panic("OpId is empty: " + r.String())
	}

	if r.Handler == nil {
		panic("Handler is nil: " + r.String())
	}

	if r.Pattern == "" {
		panic("Pattern is empty: " + r.String())
	}

	if r.Setup != nil {
		r.Setup()
	}

	handle := func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		resp := make(chan HttpResponse, 1)

		go func() {
			defer func() {
				rec := recover()

				if rec != nil {
					zap.L().Error("Panic in route handler", zap.String("route", r.String()), zap.Any("panic", rec))
					sentry.CurrentHub().Recover(rec)
					resp <- DefaultResponse(http.StatusInternalServerError)
				}
			}()

			resp <- r.Handler(RouteData{
				Context: ctx,
			}, req)
		}()

		respond(ctx, w, resp)
	}

	switch r.Method {
	case GET:
		ro.Get(r.Pattern, handle)
	case POST:
		ro.Post(r.Pattern, handle)
	case PUT:
		ro.Put(r.Pattern, handle)
	case DELETE:
		ro.Delete(r.Pattern, handle)
	default:
		panic("Unknown method for route: " + r.String())
	}
}

func respond(ctx context.Context, w http.ResponseWriter, data chan HttpResponse) {
	select {
	case <-ctx.Done():
		return
	case msg := <-data:
		if msg.Redirect != "" {
			msg.Headers = map[string]string{
				"Location":     msg.Redirect,
				"Content-Type": "text/html; charset=utf-8",
			}
			msg.Data = "<a href=\"" + msg.Redirect + "\">Found</a>.\n"
			msg.Status = http.StatusFound
		}

		for k, v := range msg.Headers {
			w.Header().Set(k, v)
		}

		if msg.Status == 0 {
			msg.Status = http.StatusOK
		}

		if msg.Json != nil {
			bytes, err := json.Marshal(msg.Json)

			if err != nil {
				zap.L().Error("Failed to marshal response", zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(constants.InternalError))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(msg.Status)
			w.Write(bytes)
			return
		}

		w.WriteHeader(msg.Status)

		if len(msg.Bytes) > 0 {
			w.Write(msg.Bytes)
		}

		w.Write([]byte(msg.Data))
	}
}

type HttpResponse struct {
	// Data is the data to be sent to the client
	Data string
	// Optional, can be used in place of Data
	Bytes []byte
	// Json body to be sent to the client
	Json any
	// Headers to set
	Headers map[string]string
	// Status is the HTTP status code to send
	Status int
	// Redirect to a URL
	Redirect string
}

// Text is a plain text 200 response
func Text(s string) HttpResponse {
	return HttpResponse{
		Data:    s,
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}

// Creates a default HTTP response based on the status code
func DefaultResponse(statusCode int) HttpResponse {
	switch statusCode {
	case http.StatusMethodNotAllowed:
		return HttpResponse{
			Status:  statusCode,
			Data:    constants.MethodNotAllowed,
			Headers: map[string]string{"Content-Type": "application/json"},
		}
	case http.StatusNotFound:
		return HttpResponse{
			Status:  statusCode,
			Data:    constants.NotFoundPage,
			Headers: map[string]string{"Content-Type": "application/json"},
		}
	}

	return HttpResponse{
		Status:  statusCode,
		Data:    constants.InternalError,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}
