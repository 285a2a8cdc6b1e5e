package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/arunika0/menu/internal/config"
)

// ResponseCache stores successful GET responses of the public listing
// routes in Redis.  Entries are keyed by a generation number that
// Invalidate bumps, so one write drops every cached listing at once.  A nil
// Redis client turns both Middleware and Invalidate into no-ops.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if !cfg.Enabled {
		rdb = nil
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) generationKey() string { return rc.cfg.Prefix + ":gen" }

// Invalidate makes every cached listing stale.
func (rc *ResponseCache) Invalidate(ctx context.Context) error {
	if rc == nil || rc.rdb == nil {
		return nil
	}
	return rc.rdb.Incr(ctx, rc.generationKey()).Err()
}

// captureWriter copies the response body while forwarding it to the client.
// Once more than limit bytes were written the copy is abandoned.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKey covers the route, the raw query and the caller's scope, since a
// restaurant admin sees a different listing than an anonymous client.
func (rc *ResponseCache) cacheKey(c echo.Context, generation int64) string {
	scope := "anon"
	if id := IdentityFrom(c); id != nil {
		scope = string(id.Role)
		if id.RestaurantID != nil {
			scope += ":" + strconv.FormatUint(*id.RestaurantID, 10)
		}
	}
	tail := strings.Join([]string{"route", c.Path(), "q", c.Request().URL.RawQuery, "scope", scope}, ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%d:%x", rc.cfg.Prefix, generation, sum[:])
}

// entityHeaders are the response headers stored with a cached body.
// Per-request headers such as X-Request-Id, Vary and the CORS headers are
// set by the outer middleware on every response and must not be replayed.
var entityHeaders = []string{
	echo.HeaderContentType,
	echo.HeaderContentEncoding,
	"Content-Language",
	"ETag",
	echo.HeaderLastModified,
}

// storedHeaders keeps only the entity headers of h.
func storedHeaders(h http.Header) http.Header {
	out := make(http.Header)
	for _, k := range entityHeaders {
		if v := h.Values(k); len(v) > 0 {
			out[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
	return out
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// Middleware serves cached GET responses and stores 200 responses on a
// miss.  Redis errors fall through to the handler.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if rc == nil || rc.rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()

			gen, err := rc.rdb.Get(ctx, rc.generationKey()).Int64()
			if err != nil && err != redis.Nil {
				return next(c)
			}
			key := rc.cacheKey(c, gen)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range storedHeaders(hdr) {
						c.Response().Header()[k] = vals
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			hdr := storedHeaders(c.Response().Header())
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				_ = rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err()
			}
			return nil
		}
	}
}
