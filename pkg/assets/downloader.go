package assets

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

type (
	// HTTPDownloader fetches assets over http and keeps their bytes in a
	// storage under the name they are later served with
	HTTPDownloader struct {
		l          *zap.Logger
		httpClient *http.Client
		storage    storage.Storage
	}
	DownloaderOption func(*HTTPDownloader)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHTTPDownloader(l *zap.Logger, opts ...DownloaderOption) *HTTPDownloader {
	inst := &HTTPDownloader{
		l:          l.Named("downloader"),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func DownloaderWithHTTPClient(v *http.Client) DownloaderOption {
	return func(o *HTTPDownloader) {
		o.httpClient = v
	}
}

func DownloaderWithStorage(v storage.Storage) DownloaderOption {
	return func(o *HTTPDownloader) {
		o.storage = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (d *HTTPDownloader) FetchAndStore(ctx context.Context, assetURL string) (*content.AssetHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset request")
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get asset")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad response code %q for asset", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read asset body")
	}

	sum := md5.Sum(data) //nolint:gosec
	name, ext := nameAndExt(assetURL, resp.Header.Get("Content-Type"))
	handle := &content.AssetHandle{
		URL:           assetURL,
		ID:            AssetID(assetURL),
		Ext:           ext,
		Name:          name,
		ContentDigest: hex.EncodeToString(sum[:]),
	}

	if d.storage != nil {
		key := StorageKey(handle)
		exists, err := d.storage.Exists(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to check stored asset")
		}
		if !exists {
			if err := d.storage.Write(ctx, key, data); err != nil {
				return nil, errors.Wrap(err, "failed to store asset")
			}
			d.l.Debug("stored asset", zap.String("key", key), zap.Int("size", len(data)))
		}
	}
	return handle, nil
}

// AssetID is stable per url so repeated runs link to the same file node
func AssetID(assetURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(assetURL)).String()
}

// StorageKey is the static path of h without its leading /static/
func StorageKey(h *content.AssetHandle) string {
	return strings.TrimPrefix(h.StaticPath(), "/static/")
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func nameAndExt(assetURL, contentType string) (name, ext string) {
	base := "asset"
	if u, err := url.Parse(assetURL); err == nil {
		if b := path.Base(u.Path); b != "." && b != "/" && b != "" {
			base = b
		}
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	base = strings.ReplaceAll(norm.NFC.String(base), "/", "-")
	ext = path.Ext(base)
	name = strings.TrimSuffix(base, ext)
	if ext == "" && contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				ext = exts[0]
			}
		}
	}
	if name == "" {
		name = "asset"
	}
	return name, strings.ToLower(ext)
}
