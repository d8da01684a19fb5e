package responses

type Stats struct {
	NumberOfNodes  int `json:"numberOfNodes"`
	NumberOfAssets int `json:"numberOfAssets"`
	NumberOfIssues int `json:"numberOfIssues"`
	// seconds spent talking to cockpit
	SourceRuntime float64 `json:"sourceRuntime"`
	// seconds
	OwnRuntime float64 `json:"ownRuntime"`
}
