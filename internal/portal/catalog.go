// Package portal holds the static portal catalog and selects the subset
// worth crawling for a given search.
package portal

import (
	"strings"

	"github.com/grantscout/grantscout/internal/grant"
)

// Catalog returns the full portal list in priority order. The first entries
// double as the generic fallback when no portal matches the criteria.
func Catalog() []grant.Portal {
	return []grant.Portal{
		{
			Name:       "grants.gov",
			BaseURL:    "https://www.grants.gov",
			RegionTags: []string{"US", "North America"},
			TypeTags:   []string{"government", "federal", "research"},
		},
		{
			Name:       "SBIR",
			BaseURL:    "https://www.sbir.gov",
			RegionTags: []string{"US"},
			TypeTags:   []string{"small business", "innovation", "research"},
		},
		{
			Name:       "Innovation Norway",
			BaseURL:    "https://www.innovasjonnorge.no",
			RegionTags: []string{"Norway", "Europe"},
			TypeTags:   []string{"innovation", "startup"},
		},
		{
			Name:       "Startup India",
			BaseURL:    "https://www.startupindia.gov.in",
			RegionTags: []string{"India", "Asia Pacific"},
			TypeTags:   []string{"startup", "innovation"},
		},
		{
			Name:       "Horizon Europe",
			BaseURL:    "https://ec.europa.eu/info/funding-tenders",
			RegionTags: []string{"Europe", "EU"},
			TypeTags:   []string{"research", "innovation", "sme"},
		},
		{
			Name:       "The Grant Portal (International)",
			BaseURL:    "https://international.thegrantportal.com/",
			RegionTags: []string{"Worldwide"},
			TypeTags:   []string{"nonprofit", "small business", "individual"},
		},
		{
			Name:       "Global Innovation Fund",
			BaseURL:    "https://www.globalinnovation.fund/apply-for-funding",
			RegionTags: []string{"Global", "Developing Countries"},
			TypeTags:   []string{"social impact", "innovation"},
		},
		{
			Name:       "CRDF Global",
			BaseURL:    "https://www.crdfglobal.org/funding-opportunities/",
			RegionTags: []string{"Global"},
			TypeTags:   []string{"research", "innovation", "fellowship"},
		},
		{
			Name:       "OpenGrants",
			BaseURL:    "https://opengrants.io/",
			RegionTags: []string{"Global"},
			TypeTags:   []string{"grant discovery", "intelligent search"},
		},
		{
			Name:       "Funds for NGOs",
			BaseURL:    "https://www.fundsforngos.org/",
			RegionTags: []string{"Global", "Emerging Markets"},
			TypeTags:   []string{"ngo", "sustainability", "development"},
		},
		{
			Name:       "GrantWatch",
			BaseURL:    "https://www.grantwatch.com/",
			RegionTags: []string{"Global", "US"},
			TypeTags:   []string{"nonprofit", "business", "individual"},
		},
		{
			Name:       "Start-Up Chile",
			BaseURL:    "https://startupchile.org/en/apply/",
			RegionTags: []string{"Global", "Latin America", "Chile"},
			TypeTags:   []string{"accelerator", "equity-free"},
		},
		{
			Name:       "K-Startup Grand Challenge",
			BaseURL:    "https://www.k-startupgc.org/",
			RegionTags: []string{"Global", "Asia", "South Korea"},
			TypeTags:   []string{"accelerator", "grant"},
		},
		{
			Name:       "EU Funding & Tenders Portal",
			BaseURL:    "https://ec.europa.eu/info/funding-tenders/opportunities/portal/",
			RegionTags: []string{"Europe", "EU", "Global"},
			TypeTags:   []string{"research", "innovation", "sme"},
		},
		{
			Name:       "Cascade Funding Hub",
			BaseURL:    "https://cascadefunding.eu/",
			RegionTags: []string{"Europe"},
			TypeTags:   []string{"innovation", "sme", "startup"},
		},
		{
			Name:       "UnLtd (UK Social Entrepreneurs)",
			BaseURL:    "https://www.unltd.org.uk/",
			RegionTags: []string{"UK"},
			TypeTags:   []string{"social entrepreneurship", "grants", "investment"},
		},
	}
}

// VerifiedGrants is the known-good fallback set used when live discovery
// comes up short.
func VerifiedGrants() []grant.EnrichedGrant {
	return []grant.EnrichedGrant{
		{
			RawGrantRecord: grant.RawGrantRecord{
				Title:        "SBIR Phase I - Small Business Innovation Research",
				Amount:       "$50,000 - $275,000",
				Deadline:     "Rolling submissions",
				Country:      "United States",
				Sector:       "Technology & Innovation",
				Eligibility:  "Small businesses with innovative technology solutions",
				Description:  "Federal funding for early-stage innovation research and development.",
				ApplyLink:    "https://www.sbir.gov/apply",
				SourceDomain: "U.S. Small Business Administration",
			},
			ID:              1,
			PortalHomepage:  "https://www.sbir.gov",
			FundingCategory: grant.CategoryGovernment,
			Verified:        true,
		},
		{
			RawGrantRecord: grant.RawGrantRecord{
				Title:        "EIC Accelerator",
				Amount:       "€500,000 - €15,000,000",
				Deadline:     "Continuous submissions",
				Country:      "European Union",
				Sector:       "Deep Technology",
				Eligibility:  "SMEs in EU member states and associated countries",
				Description:  "EU funding for breakthrough innovations with commercial potential.",
				ApplyLink:    "https://eic.ec.europa.eu/eic-funding-opportunities/eic-accelerator_en",
				SourceDomain: "European Innovation Council",
			},
			ID:              2,
			PortalHomepage:  "https://eic.ec.europa.eu",
			FundingCategory: grant.CategoryGovernment,
			Verified:        true,
		},
		{
			RawGrantRecord: grant.RawGrantRecord{
				Title:        "Innovate UK Smart Grants",
				Amount:       "£25,000 - £2,000,000",
				Deadline:     "Multiple rounds per year",
				Country:      "United Kingdom",
				Sector:       "Innovation",
				Eligibility:  "UK-based businesses",
				Description:  "UK government funding for innovative business projects.",
				ApplyLink:    "https://www.gov.uk/government/collections/innovate-uk-smart-grants",
				SourceDomain: "Innovate UK",
			},
			ID:              3,
			PortalHomepage:  "https://www.gov.uk/government/organisations/innovate-uk",
			FundingCategory: grant.CategoryGovernment,
			Verified:        true,
		},
		{
			RawGrantRecord: grant.RawGrantRecord{
				Title:        "Start-Up Chile",
				Amount:       "$50,000 - $100,000",
				Deadline:     "Annual applications",
				Country:      "Global (based in Chile)",
				Sector:       "Technology Startups",
				Eligibility:  "International startups willing to incorporate in Chile",
				Description:  "Equity-free acceleration program for global startups.",
				ApplyLink:    "https://startupchile.org/apply/",
				SourceDomain: "CORFO Chile",
			},
			ID:              4,
			PortalHomepage:  "https://startupchile.org",
			FundingCategory: grant.CategoryGovernment,
			Verified:        true,
		},
		{
			RawGrantRecord: grant.RawGrantRecord{
				Title:        "IRAP - Industrial Research Assistance Program",
				Amount:       "$50,000 - $500,000",
				Deadline:     "Ongoing",
				Country:      "Canada",
				Sector:       "Technology & Innovation",
				Eligibility:  "Canadian small and medium-sized enterprises",
				Description:  "Financial and advisory services for technology innovation.",
				ApplyLink:    "https://nrc.canada.ca/en/support-technology-innovation",
				SourceDomain: "National Research Council Canada",
			},
			ID:              5,
			PortalHomepage:  "https://nrc.canada.ca",
			FundingCategory: grant.CategoryGovernment,
			Verified:        true,
		},
	}
}

// sourceHomepages maps lowercased source-name fragments to the funder's
// homepage. Checked in declaration order, first fragment contained in the
// source wins.
var sourceHomepages = []struct {
	fragment string
	homepage string
}{
	{"small business administration", "https://www.sba.gov"},
	{"sba", "https://www.sba.gov"},
	{"sbir", "https://www.sbir.gov"},
	{"national science foundation", "https://www.nsf.gov"},
	{"nsf", "https://www.nsf.gov"},
	{"european commission", "https://ec.europa.eu/info/funding-tenders"},
	{"horizon europe", "https://ec.europa.eu/info/funding-tenders"},
	{"innovation norway", "https://www.innovasjonnorge.no"},
	{"startup india", "https://www.startupindia.gov.in"},
	{"grants.gov", "https://www.grants.gov"},
	{"gates foundation", "https://www.gatesfoundation.org"},
	{"kauffman foundation", "https://www.kauffman.org"},
	{"google for startups", "https://startup.google.com"},
	{"microsoft", "https://www.microsoft.com/startups"},
	{"y combinator", "https://www.ycombinator.com"},
	{"techstars", "https://www.techstars.com"},
	{"startup chile", "https://startupchile.org"},
	{"k-startup", "https://www.k-startupgc.org"},
	{"the grant portal", "https://international.thegrantportal.com"},
	{"global innovation fund", "https://www.globalinnovation.fund"},
	{"crdf global", "https://www.crdfglobal.org"},
	{"opengrants", "https://opengrants.io"},
	{"funds for ngos", "https://www.fundsforngos.org"},
	{"grantwatch", "https://www.grantwatch.com"},
	{"cascade funding", "https://cascadefunding.eu"},
	{"unltd", "https://www.unltd.org.uk"},
}

// Homepage resolves a funder's homepage from its source name. Returns the
// empty string when the source is unknown.
func Homepage(source string) string {
	lower := strings.ToLower(source)
	if lower == "" {
		return ""
	}
	for _, entry := range sourceHomepages {
		if strings.Contains(lower, entry.fragment) {
			return entry.homepage
		}
	}
	return ""
}
