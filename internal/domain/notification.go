package domain

type NotificationMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type RunCompletedMailData struct {
	RunID        string  `json:"runID"`
	Kind         string  `json:"kind"`
	Dates        string  `json:"dates"`
	Feasible     bool    `json:"feasible"`
	Objective    float64 `json:"objective"`
	TheaterCount int32   `json:"theaterCount"`
	SiteCount    int32   `json:"siteCount"`
	AdminCount   int32   `json:"adminCount"`
}
