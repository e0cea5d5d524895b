package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
	"github.com/hanxin1997/img-router/providers"
	"golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// 单张图片下载上限，防止异常响应撑爆内存
const maxImageFetchBytes = 32 << 20

// RenderContent 把生成结果渲染为 Markdown 图片内容。
// 结果为空时返回固定占位文案，绝不返回空消息。
// 开启 convertToBase64 时并发拉取图片 URL 并内联为 data URI，
// 拉取失败降级为原始 URL，不影响整个请求。
func RenderContent(ctx context.Context, result *providers.Result, settings models.Settings) string {
	if result == nil || len(result.Images) == 0 {
		return consts.FailedPlaceholder
	}

	parts := make([]string, len(result.Images))
	if settings.ConvertToBase64 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, img := range result.Images {
			g.Go(func() error {
				parts[i] = renderImage(gctx, img, settings)
				return nil
			})
		}
		g.Wait()
	} else {
		for i, img := range result.Images {
			parts[i] = renderImage(ctx, img, settings)
		}
	}

	content := strings.Join(parts, "\n\n")
	if content == "" {
		return consts.FailedPlaceholder
	}
	return content
}

func renderImage(ctx context.Context, img providers.ImageRef, settings models.Settings) string {
	if img.B64 != "" {
		return fmt.Sprintf("![Generated Image](data:image/png;base64,%s)", img.B64)
	}
	if !settings.ConvertToBase64 {
		return fmt.Sprintf("![Generated Image](%s)", img.URL)
	}
	dataURI, err := fetchAsDataURI(ctx, img.URL, settings.ConvertWebpToPng)
	if err != nil {
		slog.Warn("fetch image for base64 conversion failed, fallback to url", "error", err)
		return fmt.Sprintf("![Generated Image](%s)", img.URL)
	}
	return fmt.Sprintf("![Generated Image](%s)", dataURI)
}

// fetchAsDataURI 下载图片并编码为 data URI；convertWebp 时将 WebP 重编码为 PNG
func fetchAsDataURI(ctx context.Context, url string, convertWebp bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	res, err := providers.GetClient(60 * time.Second).Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: status %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageFetchBytes))
	if err != nil {
		return "", err
	}

	mime := res.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}

	if convertWebp && isWebP(data) {
		if converted, err := webpToPNG(data); err == nil {
			data = converted
			mime = "image/png"
		} else {
			slog.Warn("webp to png conversion failed, keep original payload", "error", err)
		}
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

// isWebP RIFF....WEBP 魔数
func isWebP(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}

func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
