package analytics

import (
	"strings"

	"github.com/chaitanya-699/url-shortener/internal/domain"
)

// NoData labels the placeholder entry rendered when a server section is
// empty or absent.
const NoData = "No data available"

// View is the normalized view-model the detail screen renders. Every section
// is guaranteed non-empty and every IP is masked.
type View struct {
	ShortURL    string
	OriginalURL string
	ShortCode   string

	TotalClicks    int
	UniqueClicks   int
	ClicksToday    int
	ClicksThisWeek int

	TopCountries    []CountryClicks
	TopBrowsers     []BrowserClicks
	DeviceBreakdown []DeviceShare
	OSBreakdown     []OSClicks
	TopReferrers    []ReferrerClicks
	RecentClicks    []RecentClick
	IPAddresses     []IPClicks
}

// Project transforms a link and its server analytics payload into a View.
// It never fails: missing sections become single placeholder entries.
func Project(link domain.LinkRecord, p Payload) View {
	view := View{
		ShortURL:       link.ShortURL,
		OriginalURL:    link.OriginalURL,
		ShortCode:      link.ShortCode,
		TotalClicks:    p.TotalClicks,
		UniqueClicks:   p.UniqueClicks,
		ClicksToday:    p.ClicksToday,
		ClicksThisWeek: p.ClicksThisWeek,
	}

	view.TopCountries = p.TopCountries
	if len(view.TopCountries) == 0 {
		view.TopCountries = []CountryClicks{{Country: NoData}}
	}

	view.TopBrowsers = p.TopBrowsers
	if len(view.TopBrowsers) == 0 {
		view.TopBrowsers = []BrowserClicks{{Browser: NoData}}
	}

	view.DeviceBreakdown = p.DeviceBreakdown
	if len(view.DeviceBreakdown) == 0 {
		view.DeviceBreakdown = []DeviceShare{{Device: NoData}}
	}

	view.OSBreakdown = p.OSBreakdown
	if len(view.OSBreakdown) == 0 {
		view.OSBreakdown = []OSClicks{{OS: NoData}}
	}

	view.TopReferrers = p.TopReferrers
	if len(view.TopReferrers) == 0 {
		view.TopReferrers = []ReferrerClicks{{Referrer: NoData}}
	}

	view.RecentClicks = maskRecentClicks(p.RecentClicks)
	if len(view.RecentClicks) == 0 {
		view.RecentClicks = []RecentClick{{Timestamp: NoData, Country: NoData, Browser: NoData, IP: NoData}}
	}

	view.IPAddresses = maskIPClicks(p.IPAddresses)
	if len(view.IPAddresses) == 0 {
		view.IPAddresses = []IPClicks{{IP: NoData}}
	}

	return view
}

func maskRecentClicks(clicks []RecentClick) []RecentClick {
	masked := make([]RecentClick, len(clicks))

	for i, click := range clicks {
		click.IP = MaskIP(click.IP)
		masked[i] = click
	}

	return masked
}

func maskIPClicks(clicks []IPClicks) []IPClicks {
	masked := make([]IPClicks, len(clicks))

	for i, click := range clicks {
		click.IP = MaskIP(click.IP)
		masked[i] = click
	}

	return masked
}

// MaskIP partially redacts an IP address for display. The transform is
// one-way: the low-order parts of the address are replaced, never encoded.
func MaskIP(ip string) string {
	if octets := strings.Split(ip, "."); len(octets) == 4 {
		return octets[0] + "." + octets[1] + ".x.x"
	}

	if groups := strings.Split(ip, ":"); len(groups) > 2 {
		return groups[0] + ":" + groups[1] + "::xxxx"
	}

	return "unknown"
}
