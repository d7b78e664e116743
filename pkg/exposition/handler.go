package exposition

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/metrics"
	"github.com/health-monitor/pkg/registry"
)

// Gatherer is the part of the registry the handler needs.
type Gatherer interface {
	Gather() ([]metrics.Family, []error)
}

// HandlerOpts configures Handler. Every field is optional.
type HandlerOpts struct {
	// EnableCompression gzips the body when the client accepts it.
	EnableCompression bool
	Logger            *zap.Logger

	// CollectorFailures is incremented per dropped collector, labelled by collector name.
	CollectorFailures *metrics.CounterVec
	// SerializationErrors is incremented per skipped series.
	SerializationErrors *metrics.Counter
}

// Handler serves the current snapshot of g in the text format. A scrape always
// answers 200: failing collectors and unserializable series are logged and left out.
// The snapshot is rendered into memory before anything is written, so a slow client
// never holds collection work.
func Handler(g Gatherer, opts HandlerOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		fams, failures := g.Gather()
		for _, err := range failures {
			var cf *registry.CollectorFailureError
			if opts.CollectorFailures != nil && errors.As(err, &cf) {
				opts.CollectorFailures.WithLabelValues(cf.Collector).Inc()
			}
		}

		var body bytes.Buffer
		skipped, _ := Encode(&body, fams)
		for _, err := range skipped {
			logger.Warn("series skipped during exposition", zap.Error(err))
		}
		if opts.SerializationErrors != nil && len(skipped) > 0 {
			opts.SerializationErrors.Add(float64(len(skipped)))
		}

		header := w.Header()
		header.Set("Content-Type", ContentType)
		payload := body.Bytes()
		if opts.EnableCompression {
			header.Add("Vary", "Accept-Encoding")
		}
		if opts.EnableCompression && gzipAccepted(r.Header) {
			var zipped bytes.Buffer
			gz := gzip.NewWriter(&zipped)
			if _, err := gz.Write(payload); err == nil && gz.Close() == nil {
				header.Set("Content-Encoding", "gzip")
				payload = zipped.Bytes()
			} else {
				logger.Warn("gzip failed, sending plain body")
			}
		}
		header.Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(payload); err != nil {
			logger.Debug("write metrics response", zap.Error(err))
		}
	})
}

// gzipAccepted reports whether the Accept-Encoding header lists gzip with a non-zero q.
func gzipAccepted(header http.Header) bool {
	for _, part := range strings.Split(header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(coding) != "gzip" {
			continue
		}
		q, ok := strings.CutPrefix(strings.ReplaceAll(params, " ", ""), "q=")
		if !ok {
			return true
		}
		if v, err := strconv.ParseFloat(q, 64); err == nil && v > 0 {
			return true
		}
	}
	return false
}
