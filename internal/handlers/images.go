package handlers

import (
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/nfnt/resize"
)

// ThumbnailHandler downscales remote product images for cart and list
// views so the client never pulls full-size assets.
type ThumbnailHandler struct {
	Client *http.Client
	// AllowedHost is the only host images may be fetched from, normally
	// the backend's. Everything else is rejected to avoid an open proxy.
	AllowedHost string
}

const (
	defaultThumbWidth = 300
	maxThumbWidth     = 800
)

func (h *ThumbnailHandler) Thumb(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		http.Error(w, "Missing src parameter", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host != h.AllowedHost {
		http.Error(w, "Invalid image source", http.StatusBadRequest)
		return
	}

	width := defaultThumbWidth
	if s := r.URL.Query().Get("w"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			width = n
		}
	}
	if width > maxThumbWidth {
		width = maxThumbWidth
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		http.Error(w, "Invalid image source", http.StatusBadRequest)
		return
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Warn("Image fetch failed", "src", src, "error", err)
		http.Error(w, "Image unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		http.Error(w, "Image unavailable", http.StatusBadGateway)
		return
	}

	var img image.Image
	switch path.Ext(u.Path) {
	case ".png":
		img, err = png.Decode(resp.Body)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(resp.Body)
	default:
		http.Error(w, "Unsupported image format", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		slog.Warn("Image decode failed", "src", src, "error", err)
		http.Error(w, "Image unavailable", http.StatusBadGateway)
		return
	}

	thumb := resize.Resize(uint(width), 0, img, resize.Lanczos3)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := jpeg.Encode(w, thumb, &jpeg.Options{Quality: 80}); err != nil {
		slog.Warn("Thumbnail encode failed", "src", src, "error", err)
	}
}
