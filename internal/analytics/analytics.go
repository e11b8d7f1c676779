package analytics

// Payload is the analytics document returned by the remote API for one link.
// Every section is optional; absent sections decode to nil slices.
type Payload struct {
	TotalClicks     int              `json:"totalClicks"`
	UniqueClicks    int              `json:"uniqueClicks"`
	ClicksToday     int              `json:"clicksToday"`
	ClicksThisWeek  int              `json:"clicksThisWeek"`
	TopCountries    []CountryClicks  `json:"topCountries"`
	TopBrowsers     []BrowserClicks  `json:"topBrowsers"`
	DeviceBreakdown []DeviceShare    `json:"deviceBreakdown"`
	OSBreakdown     []OSClicks       `json:"osBreakdown"`
	TopReferrers    []ReferrerClicks `json:"topReferrers"`
	RecentClicks    []RecentClick    `json:"recentClicks"`
	IPAddresses     []IPClicks       `json:"ipAddresses"`
}

type CountryClicks struct {
	Country string `json:"country"`
	Clicks  int    `json:"clicks"`
}

type BrowserClicks struct {
	Browser string `json:"browser"`
	Clicks  int    `json:"clicks"`
}

type DeviceShare struct {
	Device     string `json:"device"`
	Percentage int    `json:"percentage"`
}

type OSClicks struct {
	OS     string `json:"os"`
	Clicks int    `json:"clicks"`
}

type ReferrerClicks struct {
	Referrer string `json:"referrer"`
	Clicks   int    `json:"clicks"`
}

type IPClicks struct {
	IP     string `json:"ip"`
	Clicks int    `json:"clicks"`
}

type RecentClick struct {
	Timestamp string `json:"timestamp"`
	Country   string `json:"country"`
	Browser   string `json:"browser"`
	IP        string `json:"ip"`
}
