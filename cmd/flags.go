package cmd

import (
	"time"

	"github.com/foomo/cockpitsource/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func configFileFlag(v *viper.Viper) string {
	return v.GetString("config")
}

func addConfigFileFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("config", "", "Optional yaml or json file holding the cockpit settings")
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindEnv("config", "COCKPIT_CONFIG")
}

// ------------------------------------------------------------------------------------------------
// ~ Cockpit
// ------------------------------------------------------------------------------------------------

func addBaseURLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-url", "", "Base url of the cockpit installation")
	_ = v.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = v.BindEnv("base_url", "COCKPIT_BASE_URL")
}

func addFolderFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("folder", "", "Folder cockpit is installed in below the base url")
	_ = v.BindPFlag("folder", flags.Lookup("folder"))
	_ = v.BindEnv("folder", "COCKPIT_FOLDER")
}

func addAccessTokenFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("access-token", "", "Cockpit api access token")
	_ = v.BindPFlag("access_token", flags.Lookup("access-token"))
	_ = v.BindEnv("access_token", "COCKPIT_ACCESS_TOKEN")
}

func addCustomComponentsFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringSlice("custom-components", nil, "Layout components whose settings reference images")
	_ = v.BindPFlag("custom_components", flags.Lookup("custom-components"))
	_ = v.BindEnv("custom_components", "COCKPIT_CUSTOM_COMPONENTS")
}

func addPlaceholderImageFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("placeholder-image", config.Default().PlaceholderImage, "Image used for absent image fields")
	_ = v.BindPFlag("placeholder_image", flags.Lookup("placeholder-image"))
	_ = v.BindEnv("placeholder_image", "COCKPIT_PLACEHOLDER_IMAGE")
}

func addPlaceholderValueFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("placeholder-value", config.Default().PlaceholderValue, "Sentinel for absent scalar values")
	_ = v.BindPFlag("placeholder_value", flags.Lookup("placeholder-value"))
	_ = v.BindEnv("placeholder_value", "COCKPIT_PLACEHOLDER_VALUE")
}

func addPlaceholderValueEmptyArrayFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("placeholder-value-empty-array", config.Default().PlaceholderValueEmptyArray, "Sentinel for absent list values")
	_ = v.BindPFlag("placeholder_value_empty_array", flags.Lookup("placeholder-value-empty-array"))
	_ = v.BindEnv("placeholder_value_empty_array", "COCKPIT_PLACEHOLDER_VALUE_EMPTY_ARRAY")
}

func addFetchTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("fetch-timeout", config.Default().FetchTimeout, "Timeout of a single asset download")
	_ = v.BindPFlag("fetch_timeout", flags.Lookup("fetch-timeout"))
	_ = v.BindEnv("fetch_timeout", "COCKPIT_FETCH_TIMEOUT")
}

func addFetchConcurrencyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("fetch-concurrency", config.Default().FetchConcurrency, "Number of parallel cockpit requests and asset downloads")
	_ = v.BindPFlag("fetch_concurrency", flags.Lookup("fetch-concurrency"))
	_ = v.BindEnv("fetch_concurrency", "COCKPIT_FETCH_CONCURRENCY")
}

func addTransformConcurrencyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("transform-concurrency", config.Default().TransformConcurrency, "Number of entries transformed in parallel")
	_ = v.BindPFlag("transform_concurrency", flags.Lookup("transform-concurrency"))
	_ = v.BindEnv("transform_concurrency", "COCKPIT_TRANSFORM_CONCURRENCY")
}

func addConfigFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addConfigFileFlag(flags, v)
	addBaseURLFlag(flags, v)
	addFolderFlag(flags, v)
	addAccessTokenFlag(flags, v)
	addCustomComponentsFlag(flags, v)
	addPlaceholderImageFlag(flags, v)
	addPlaceholderValueFlag(flags, v)
	addPlaceholderValueEmptyArrayFlag(flags, v)
	addFetchTimeoutFlag(flags, v)
	addFetchConcurrencyFlag(flags, v)
	addTransformConcurrencyFlag(flags, v)
}

// ------------------------------------------------------------------------------------------------
// ~ Storage
// ------------------------------------------------------------------------------------------------

func assetDirFlag(v *viper.Viper) string {
	return v.GetString("assets.dir")
}

func addAssetDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("asset-dir", "/var/lib/cockpitsource/assets", "Where downloaded assets are stored")
	_ = v.BindPFlag("assets.dir", flags.Lookup("asset-dir"))
	_ = v.BindEnv("assets.dir", "COCKPIT_ASSET_DIR")
}

func historyDirFlag(v *viper.Viper) string {
	return v.GetString("history.dir")
}

func addHistoryDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("history-dir", "/var/lib/cockpitsource", "Where to put node snapshots")
	_ = v.BindPFlag("history.dir", flags.Lookup("history-dir"))
	_ = v.BindEnv("history.dir", "COCKPIT_HISTORY_DIR")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of snapshot backups to keep")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "COCKPIT_HISTORY_LIMIT")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "Storage backend for snapshots and assets (filesystem, blob)")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "COCKPIT_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Bucket url when storage-type is blob (e.g. gs://bucket)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "COCKPIT_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Key prefix inside the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "COCKPIT_STORAGE_BLOB_PREFIX")
}

func addStorageFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addAssetDirFlag(flags, v)
	addHistoryDirFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
}

// ------------------------------------------------------------------------------------------------
// ~ Server
// ------------------------------------------------------------------------------------------------

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "COCKPIT_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/cockpitsource", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "COCKPIT_BASE_PATH")
}

func pollFlag(v *viper.Viper) bool {
	return v.GetBool("poll.enabled")
}

func addPollFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("poll", false, "If true, cockpit is synced periodically")
	_ = v.BindPFlag("poll.enabled", flags.Lookup("poll"))
	_ = v.BindEnv("poll.enabled", "COCKPIT_POLL")
}

func pollIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("poll.interval")
}

func addPollIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("poll-interval", time.Minute, "Specifies the poll interval")
	_ = v.BindPFlag("poll.interval", flags.Lookup("poll-interval"))
	_ = v.BindEnv("poll.interval", "COCKPIT_POLL_INTERVAL")
}

func requestTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("request_timeout")
}

func addRequestTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("request-timeout", time.Minute, "Timeout of cockpit api requests")
	_ = v.BindPFlag("request_timeout", flags.Lookup("request-timeout"))
	_ = v.BindEnv("request_timeout", "COCKPIT_REQUEST_TIMEOUT")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Graceful period before shutting down")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "COCKPIT_GRACEFUL_PERIOD")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip_level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", 6, "Compression level of http responses")
	_ = v.BindPFlag("gzip_level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip_level", "COCKPIT_GZIP_LEVEL")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}

// ------------------------------------------------------------------------------------------------
// ~ Source
// ------------------------------------------------------------------------------------------------

func outFlag(v *viper.Viper) string {
	return v.GetString("out")
}

func addOutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("out", "", "Write the node snapshot to this file, - for stdout")
	_ = v.BindPFlag("out", flags.Lookup("out"))
}

func dumpFlag(v *viper.Viper) string {
	return v.GetString("dump")
}

func addDumpFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("dump", "", "Read collections and regions from a yaml or json dump instead of the cockpit api")
	_ = v.BindPFlag("dump", flags.Lookup("dump"))
	_ = v.BindEnv("dump", "COCKPIT_DUMP")
}
