package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/cockpitsource/pkg/metrics"
	"github.com/foomo/cockpitsource/pkg/source"
	"github.com/foomo/cockpitsource/requests"
	"github.com/foomo/cockpitsource/responses"
	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTP struct {
		l      *zap.Logger
		path   string
		source *source.Source
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns a handler serving the nodes of source
func NewHTTP(l *zap.Logger, source *source.Source, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:      l.Named("http"),
		path:   "/cockpitsource",
		source: source,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return
	}

	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
		return
	}

	route := Route(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	if route == RouteGetSnapshot {
		start := time.Now()
		w.Header().Set("Content-Type", "application/json")
		status := "success"
		if err := h.source.WriteSnapshotBytes(r.Context(), w); err != nil {
			status = "error"
			httputils.ServerError(h.l, w, r, http.StatusServiceUnavailable, err)
		}
		h.observe(route, status, start)
		return
	}

	start := time.Now()
	reply, status := h.executeRequest(route, bytes)
	h.observe(route, status, start)

	data, err := json.Marshal(map[string]interface{}{
		"reply": reply,
	})
	if err != nil {
		httputils.ServerError(h.l, w, r, http.StatusInternalServerError, errors.Wrap(err, "could not encode reply"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) observe(route Route, status string, start time.Time) {
	metrics.ServiceRequestCounter.WithLabelValues(string(route), status).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), status).Observe(time.Since(start).Seconds())
}

func (h *HTTP) executeRequest(route Route, jsonBytes []byte) (interface{}, string) {
	switch route {
	case RouteGetNodes:
		req := &requests.Nodes{}
		if len(jsonBytes) > 0 {
			if err := json.Unmarshal(jsonBytes, req); err != nil {
				h.l.Error("could not read incoming json", zap.Error(err))
				return responses.NewErrorf(http.StatusBadRequest, 2, "could not read incoming json %s", err.Error()), "error"
			}
		}
		return h.source.GetNodes(req), "success"
	case RouteUpdate:
		resp := h.source.Update()
		if !resp.Success {
			return resp, "error"
		}
		return resp, "success"
	default:
		return responses.NewErrorf(http.StatusNotFound, 1, "unknown handler: %s", route), "error"
	}
}
