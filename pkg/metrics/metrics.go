package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "cockpitsource"

	metricLabelHandler = "handler"
	metricLabelStatus  = "status"
	metricLabelReason  = "reason"
	metricLabelKind    = "kind"
	metricLabelType    = "type"
)

var (
	// AssetsFetchedCounter counts assets that were downloaded and stored
	AssetsFetchedCounter = newCounterVec(
		"assets_fetched_count",
		"Number of assets that were fetched and stored",
	)
	// AssetsFailedCounter counts assets that could not be fetched
	AssetsFailedCounter = newCounterVec(
		"assets_failed_count",
		"Number of assets that failed to be fetched",
		metricLabelReason,
	)
	// AssetFetchDuration observe the duration of each asset download
	AssetFetchDuration = newSummaryVec(
		"asset_fetch_duration_seconds",
		"Duration in seconds to fetch and store a single asset",
	)
	// NodesCreatedCounter counts registered nodes per node type
	NodesCreatedCounter = newCounterVec(
		"nodes_created_count",
		"Number of nodes handed to the registry",
		metricLabelType,
	)
	// IssuesCounter counts recoverable issues per kind
	IssuesCounter = newCounterVec(
		"issues_count",
		"Number of recoverable issues that were absorbed",
		metricLabelKind,
	)
	// UpdatesCompletedCounter count the number of successful source runs
	UpdatesCompletedCounter = newCounterVec(
		"updates_completed_count",
		"Number of source runs that were successfully completed",
	)
	// UpdatesFailedCounter count the number of source runs that had an error
	UpdatesFailedCounter = newCounterVec(
		"updates_failed_count",
		"Number of source runs that failed due to an error",
	)
	// UpdateDuration observe the duration of each source run
	UpdateDuration = newSummaryVec(
		"update_duration_seconds",
		"Duration in seconds for each source run",
	)
	// ServiceRequestCounter count the number of requests for each handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute a handler and marshal its reponses",
		metricLabelHandler, metricLabelStatus,
	)
	// HistoryPersistFailedCounter count the number of failed attempts to persist a snapshot
	HistoryPersistFailedCounter = newCounterVec(
		"history_persist_failed_count",
		"Number of failures to store the node snapshot",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
