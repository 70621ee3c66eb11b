package apisports

// envelope is the common API-Football response wrapper. Errors is either an empty
// array or an object keyed by error kind, e.g. {"token": "Error/Missing application key"}.
type envelope[T any] struct {
	Get      string `json:"get"`
	Errors   any    `json:"errors"`
	Results  int    `json:"results"`
	Paging   paging `json:"paging"`
	Response []T    `json:"response"`
}

type paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

type fixtureItem struct {
	Fixture fixtureInfo `json:"fixture"`
	League  leagueInfo  `json:"league"`
	Teams   fixtureSide `json:"teams"`
}

type fixtureInfo struct {
	ID        int64         `json:"id"`
	Date      string        `json:"date"`
	Timestamp int64         `json:"timestamp"`
	Status    fixtureStatus `json:"status"`
}

type fixtureStatus struct {
	Long    string `json:"long"`
	Short   string `json:"short"`
	Elapsed *int   `json:"elapsed"`
}

type leagueInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Season int    `json:"season"`
}

type fixtureSide struct {
	Home teamRef `json:"home"`
	Away teamRef `json:"away"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type statisticsItem struct {
	Team       teamRef          `json:"team"`
	Statistics []statisticEntry `json:"statistics"`
}

// statisticEntry.Value is a JSON number, a string such as "55%", or null.
type statisticEntry struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}
