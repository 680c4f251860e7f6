package server

import (
	"encoding/json"
	"net/http"

	"github.com/dpup/currenturl"
	"github.com/dpup/currenturl/errors"
	"github.com/dpup/currenturl/logging"
	"google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

// JSONHandler are regular HTTP handlers that return a response that should be
// encoded in a similar fashion to a gRPC Gateway response.
//
// If the return value is a proto.Message, it will be marshaled using the same
// JSON marshaler as the gRPC Gateway.
type JSONHandler func(req *http.Request) (any, error)

// ErrorResponse is the body written when a JSON handler fails. It matches the
// shape of gateway errors.
type ErrorResponse struct {
	Code     int32  `json:"code"`
	CodeName string `json:"codeName"`
	Message  string `json:"message"`
}

func wrapJSONHandler(fn JSONHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := execJSONHandler(fn, w, r)
		if err != nil {
			status := errors.HTTPStatusCode(err)
			if status >= http.StatusInternalServerError {
				logging.Errorw(r.Context(), "JSON handler error", "error", err,
					"req.method", r.Method, "req.url", r.URL.String())
			} else {
				logging.Warnw(r.Context(), "JSON handler error", "error", err,
					"req.method", r.Method, "req.url", r.URL.String())
			}

			c := int32(errors.Code(err))
			b, ferr := json.Marshal(&ErrorResponse{
				Code:     c,
				CodeName: code.Code_name[c],
				Message:  errors.PublicMessage(err),
			})
			if ferr != nil {
				http.Error(w, "error encoding response", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write(b)
		}
	})
}

func execJSONHandler(fn JSONHandler, w http.ResponseWriter, r *http.Request) error {
	// Execute the handler.
	resp, err := fn(r)
	if err != nil {
		return err
	}

	// If the response is a proto.Message, marshal it using the JSON marshaler.
	var b []byte
	if pb, ok := resp.(proto.Message); ok {
		b, err = JSONMarshalOptions.Marshal(pb)
	} else {
		b, err = json.Marshal(resp)
	}
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)

	return nil
}

// CurrentURLResponse is returned by CurrentURLHandler.
type CurrentURLResponse struct {
	URL    string `json:"url"`
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Path   string `json:"path"`
}

// CurrentURLHandler reports the URL the request was made to, as seen by the
// resolver. Requests that can't be resolved return NotFound.
func CurrentURLHandler(r *http.Request) (any, error) {
	u, err := currenturl.FromContext(r.Context())
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.NewC("current url could not be determined", codes.NotFound)
	}
	return &CurrentURLResponse{
		URL:    u.String(),
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
	}, nil
}

func healthHandler(h *health.Server) JSONHandler {
	return func(r *http.Request) (any, error) {
		resp, err := h.Check(r.Context(), &healthpb.HealthCheckRequest{})
		if err != nil {
			return nil, err
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return nil, errors.WithHTTPStatusCode(
				errors.NewC("server is "+resp.GetStatus().String(), codes.Unavailable),
				http.StatusServiceUnavailable)
		}
		return resp, nil
	}
}
