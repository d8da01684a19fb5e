package handler

// Route type
type Route string

const (
	// RouteGetNodes get nodes filtered by type and id
	RouteGetNodes Route = "getNodes"
	// RouteUpdate run the source pipeline
	RouteUpdate Route = "update"
	// RouteGetSnapshot get the whole node snapshot
	RouteGetSnapshot Route = "getSnapshot"
)
