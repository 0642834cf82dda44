package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// CompressResponseMiddleware gzips responses for clients that accept
// it and transparently decompresses gzip request bodies.
func CompressResponseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// By default set the original http.ResponseWriter
		ow := w

		// Check if the client can accept compressed data
		acceptEncoding := r.Header.Get("Accept-Encoding")
		if strings.Contains(acceptEncoding, "gzip") {
			cw := newGzipWriter(w)
			ow = cw
			defer cw.Close()
		}

		// Check if the client sent compressed data
		contentEncoding := r.Header.Get("Content-Encoding")
		if contentEncoding == "gzip" {
			cr, err := gzip.NewReader(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			r.Body = readCloser{Reader: cr, closer: r.Body}
			defer cr.Close()
		}

		// Transfer control to the handler
		next.ServeHTTP(ow, r)
	})
}

type gzipWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

func newGzipWriter(w http.ResponseWriter) *gzipWriter {
	return &gzipWriter{ResponseWriter: w, zw: gzip.NewWriter(w)}
}

func (g *gzipWriter) WriteHeader(status int) {
	if !g.wroteHeader {
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
		g.wroteHeader = true
	}
	g.ResponseWriter.WriteHeader(status)
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	return g.zw.Write(b)
}

func (g *gzipWriter) Close() error {
	if !g.wroteHeader {
		return nil
	}
	return g.zw.Close()
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (rc readCloser) Close() error {
	return rc.closer.Close()
}
