package siteforge

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	assetPrefix   = "assets/images/"
	maxAssetWidth = 1600
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
)

var assetContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// handleListAssets lists every image in the bucket for the editor's media
// picker, newest first.
func (a *App) handleListAssets(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	domain := SessionDomain(c)

	infos, err := t.objects.List(c.Request().Context(), "")
	if err != nil {
		return err
	}

	images := []AssetInfo{}
	for _, info := range infos {
		if strings.HasPrefix(info.Key, "_builder/") {
			continue
		}
		if _, ok := assetContentTypes[strings.ToLower(path.Ext(info.Key))]; !ok {
			continue
		}
		images = append(images, AssetInfo{
			Key:      info.Key,
			URL:      "/" + info.Key,
			FullURL:  "https://" + domain + "/" + info.Key,
			Name:     path.Base(info.Key),
			Size:     info.Size,
			Modified: info.LastModified.UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Modified > images[j].Modified })

	return c.JSON(http.StatusOK, map[string]any{"images": images})
}

// handleUploadAsset stores an uploaded image under assets/images/ with a
// generated name. Oversized JPEG and PNG uploads are downscaled and
// re-encoded; vector and animated formats pass through untouched.
func (a *App) handleUploadAsset(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	domain := SessionDomain(c)

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no file provided")
	}
	if file.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no filename")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	contentType, ok := assetContentTypes[ext]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "file type not allowed")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	body, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
		resized, err := resizeImage(body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
		}
		if resized != nil {
			body = resized
			ext = ".jpg"
			contentType = "image/jpeg"
		}
	}

	key := fmt.Sprintf("%s%s%s", assetPrefix, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	if err := t.objects.Put(c.Request().Context(), key, body, contentType); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"key":     key,
		"url":     "https://" + domain + "/" + key,
	})
}

// resizeImage downscales a raster image wider than maxAssetWidth and
// re-encodes it as JPEG. Returns nil bytes when the image is already
// small enough.
func resizeImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxAssetWidth {
		return nil, nil
	}

	newH := h * maxAssetWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxAssetWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
