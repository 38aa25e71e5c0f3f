// Package grant defines core types shared across the discovery pipeline.
package grant

import "time"

// Portal is a static catalog entry describing an external funding site.
// Entries are selected per run, never mutated.
type Portal struct {
	Name       string   `json:"name"`
	BaseURL    string   `json:"base_url"`
	RegionTags []string `json:"region_tags"`
	TypeTags   []string `json:"type_tags"`
}

// SearchCriteria captures what the requester is looking for. The zero value
// means "general startup grants". Derived fields are only ever set by
// clarification handling, which returns a new value rather than mutating.
type SearchCriteria struct {
	Industry        string `json:"industry,omitempty"`
	Region          string `json:"region,omitempty"`
	Stage           string `json:"stage,omitempty"`
	FounderType     string `json:"founder_type,omitempty"`
	NonDilutiveOnly bool   `json:"non_dilutive_only,omitempty"`
	FreeTextQuery   string `json:"free_text_query,omitempty"`
	Description     string `json:"description,omitempty"`

	// Derived by clarification answers.
	ExpandGeographic bool   `json:"expand_geographic,omitempty"`
	GeographicFocus  string `json:"geographic_focus,omitempty"`
	SectorExpanded   string `json:"sector_expanded,omitempty"`
	StageExpanded    string `json:"stage_expanded,omitempty"`
	BoostRelevance   bool   `json:"boost_relevance,omitempty"`
	LimitResults     int    `json:"limit_results,omitempty"`
	DeadlineFilter   string `json:"deadline_filter,omitempty"`
	FallbackMode     bool   `json:"fallback_mode,omitempty"`
	Confirmed        bool   `json:"confirmed,omitempty"`
}

// Link is one outbound anchor found on a page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// FormInput describes one input inside a form descriptor.
type FormInput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Form is a best-effort descriptor of an HTML form.
type Form struct {
	Method string      `json:"method"`
	Action string      `json:"action"`
	Inputs []FormInput `json:"inputs"`
}

// PageSnapshot is the normalized view of one fetched page. It is built once
// per URL and is immutable after creation; the crawl that produced it owns it
// for the duration of the run.
type PageSnapshot struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	StatusCode int    `json:"status_code"`
	Text       string `json:"text"`
	RawHTML    string `json:"-"`
	Links      []Link `json:"links"`
	Forms      []Form `json:"forms"`
}

// RawGrantRecord is an unvalidated grant freshly mined from a page. All
// fields are best-effort and may be empty except Title; extraction never
// materializes a record without one.
type RawGrantRecord struct {
	Title        string `json:"title"`
	Amount       string `json:"amount"`
	Deadline     string `json:"deadline"`
	Country      string `json:"country"`
	Sector       string `json:"sector"`
	Eligibility  string `json:"eligibility"`
	Description  string `json:"description"`
	ApplyLink    string `json:"apply_link"`
	SourceDomain string `json:"source"`
}

// DeadlineUrgency buckets how soon a grant closes.
type DeadlineUrgency string

// Urgency buckets derived from the deadline string.
const (
	UrgencyOngoing  DeadlineUrgency = "ongoing"
	UrgencyUrgent   DeadlineUrgency = "urgent"
	UrgencyModerate DeadlineUrgency = "moderate"
	UrgencyFlexible DeadlineUrgency = "flexible"
)

// FundingCategory buckets the kind of organization behind a grant.
type FundingCategory string

// Funding source categories derived from the source string.
const (
	CategoryGovernment FundingCategory = "government"
	CategoryAcademic   FundingCategory = "academic"
	CategoryCorporate  FundingCategory = "corporate"
	CategoryFoundation FundingCategory = "foundation"
	CategoryOther      FundingCategory = "other"
)

// EnrichedGrant is a validated, scored grant ready for presentation. ID is
// 1-based and stable only within one result set.
type EnrichedGrant struct {
	RawGrantRecord

	ID              int             `json:"id"`
	RelevanceScore  int             `json:"relevance_score"`
	MatchReasons    []string        `json:"match_reasons"`
	DeadlineUrgency DeadlineUrgency `json:"deadline_urgency"`
	FundingCategory FundingCategory `json:"funding_category"`
	PortalHomepage  string          `json:"portal_homepage,omitempty"`
	Verified        bool            `json:"verified,omitempty"`
}

// ClarificationState is the transient outcome of the clarification policy.
// It is consumed immediately by the caller and never stored.
type ClarificationState struct {
	Needed   bool     `json:"needed"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// DiscoveryResult is what one discovery run hands back to the outer layers.
type DiscoveryResult struct {
	RunID         string             `json:"run_id"`
	Grants        []EnrichedGrant    `json:"grants"`
	Clarification ClarificationState `json:"clarification"`
	Steps         []string           `json:"agent_steps"`
	TotalFound    int                `json:"total_found"`
	Mode          string             `json:"mode"`
	Elapsed       time.Duration      `json:"-"`
	Err           string             `json:"error,omitempty"`
}

// Mode selects how caller input is interpreted.
const (
	ModeForm = "form"
	ModeChat = "chat"
)
