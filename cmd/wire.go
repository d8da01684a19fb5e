package cmd

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/foomo/cockpitsource/pkg/assets"
	"github.com/foomo/cockpitsource/pkg/clean"
	"github.com/foomo/cockpitsource/pkg/cockpit"
	"github.com/foomo/cockpitsource/pkg/config"
	"github.com/foomo/cockpitsource/pkg/source"
	"github.com/foomo/cockpitsource/pkg/storage"
	keelhttp "github.com/foomo/keel/net/http"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// supportedBlobSchemes lists the URL schemes supported by blob storage
var supportedBlobSchemes = []string{"gs://"}

type sourceDeps struct {
	source  *source.Source
	history *source.History
	assets  storage.Storage
}

func (d *sourceDeps) Close() error {
	return multierr.Combine(d.history.Close(), d.assets.Close())
}

// loadConfig merges the optional config file, flags and env into the defaults
func loadConfig(v *viper.Viper, l *zap.Logger) (config.Config, error) {
	cfg := config.Default()
	if filename := configFileFlag(v); filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "failed to read config file %q", filename)
		}
		l.Info("using config file", zap.String("file", filename))
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to decode config")
	}
	return cfg, cfg.Validate()
}

// newSource wires cockpit, the asset storage and the snapshot history into a
// source. A non-empty dump replaces the cockpit api as the entry source while
// assets are still downloaded from the cockpit host.
func newSource(ctx context.Context, v *viper.Viper, l *zap.Logger, dump string, opts ...source.Option) (*sourceDeps, error) {
	cfg, err := loadConfig(v, l)
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	httpClient := keelhttp.NewHTTPClient(
		keelhttp.HTTPClientWithTimeout(requestTimeoutFlag(v)),
		keelhttp.HTTPClientWithTelemetry(),
	)

	var client cockpit.Client
	if dump != "" {
		client, err = cockpit.NewFile(l.Named("inst.cockpit"), dump)
		if err != nil {
			return nil, err
		}
	} else {
		client = cockpit.NewHTTPClient(l.Named("inst.cockpit"), cfg.Host(),
			cockpit.HTTPClientWithAccessToken(cfg.AccessToken),
			cockpit.HTTPClientWithHTTPClient(httpClient),
			cockpit.HTTPClientWithConcurrency(cfg.FetchConcurrency),
		)
	}

	assetStorage, err := createStorage(ctx, v, l, assetDirFlag(v), "assets")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset storage")
	}

	historyStorage, err := createStorage(ctx, v, l, historyDirFlag(v), "history")
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "failed to create history storage"), assetStorage.Close())
	}

	history, err := source.NewHistory(l.Named("inst.history"),
		source.HistoryWithStorage(historyStorage),
		source.HistoryWithHistoryLimit(historyLimitFlag(v)),
	)
	if err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "failed to create history"), assetStorage.Close(), historyStorage.Close())
	}

	downloader := assets.NewHTTPDownloader(l.Named("inst.downloader"),
		assets.DownloaderWithHTTPClient(httpClient),
		assets.DownloaderWithStorage(assetStorage),
	)

	pipeline := source.NewPipeline(l.Named("inst.pipeline"), cfg, client, downloader)

	opts = append([]source.Option{
		source.WithCleaner(clean.New(
			clean.WithPlaceholderValue(cfg.PlaceholderValue),
			clean.WithPlaceholderValueEmptyArray(cfg.PlaceholderValueEmptyArray),
		)),
	}, opts...)

	return &sourceDeps{
		source:  source.New(l.Named("inst.source"), pipeline, history, opts...),
		history: history,
		assets:  assetStorage,
	}, nil
}

// createStorage creates a storage backend based on the configuration, blob
// backends keep sub below the configured prefix
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger, dir, sub string) (storage.Storage, error) {
	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)
	blobPrefix := storageBlobPrefixFlag(v)

	if storageType != "blob" && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	switch storageType {
	case "blob":
		if blobBucket == "" {
			return nil, fmt.Errorf("blob bucket URL is required when storage-type is 'blob' (supported schemes: %s)", strings.Join(supportedBlobSchemes, ", "))
		}
		if !isValidBlobScheme(blobBucket) {
			return nil, fmt.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s", blobBucket, strings.Join(supportedBlobSchemes, ", "))
		}
		prefix := path.Join(blobPrefix, sub)
		l.Info("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", prefix),
		)
		return storage.NewBlob(ctx, blobBucket, prefix)
	case "filesystem", "":
		l.Info("using filesystem storage", zap.String("dir", dir))
		return storage.NewFilesystem(dir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: filesystem, blob)", storageType)
	}
}

func isValidBlobScheme(bucketURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}
