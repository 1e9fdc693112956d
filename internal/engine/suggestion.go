package engine

import "fmt"

// Priority levels for suggestions. Lower is more severe.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Suggestion categories group related issues in the final report.
const (
	CategoryMetadata   = "metadata"
	CategoryKeywords   = "keywords"
	CategoryContent    = "content"
	CategoryEngagement = "engagement"
)

// Code identifies a logical SEO issue. The same code emitted by different
// Operations collapses to one suggestion during aggregation.
type Code string

// Suggestion codes emitted by the built-in rules.
const (
	CodeMetaDescriptionMissing       Code = "META_DESCRIPTION_MISSING"
	CodeMetaDescriptionTooShort      Code = "META_DESCRIPTION_TOO_SHORT"
	CodeMetaDescriptionSlightlyShort Code = "META_DESCRIPTION_SLIGHTLY_SHORT"
	CodeMetaDescriptionTooLong       Code = "META_DESCRIPTION_TOO_LONG"
	CodeMetaDescriptionSlightlyLong  Code = "META_DESCRIPTION_SLIGHTLY_LONG"
	CodeMetaDescriptionNoCTA         Code = "META_DESCRIPTION_NO_CTA"
	CodeMetaDescriptionWeakCTA       Code = "META_DESCRIPTION_WEAK_CTA"
	CodePrimaryKeywordMissing        Code = "PRIMARY_KEYWORD_MISSING"
	CodePrimaryKeywordUnderused      Code = "PRIMARY_KEYWORD_UNDERUSED"
	CodePrimaryKeywordSuboptimal     Code = "PRIMARY_KEYWORD_DENSITY_SUBOPTIMAL"
	CodeKeywordStuffing              Code = "KEYWORD_STUFFING_DETECTED"
	CodePoorKeywordDistribution      Code = "POOR_KEYWORD_DISTRIBUTION"
	CodeInsufficientSecondary        Code = "INSUFFICIENT_SECONDARY_KEYWORDS"
	CodeSecondaryKeywordImbalance    Code = "SECONDARY_KEYWORD_IMBALANCE"
	CodeContentTooShort              Code = "CONTENT_TOO_SHORT"
	CodeContentShort                 Code = "CONTENT_SHORT"
)

// definition is the static catalog entry behind a Code.
type definition struct {
	priority    int
	category    string
	title       string
	description string
}

var catalog = map[Code]definition{
	CodeMetaDescriptionMissing: {PriorityCritical, CategoryMetadata,
		"Add a meta description",
		"The page has no meta description. Search engines will pick an arbitrary text snippet instead."},
	CodeMetaDescriptionTooShort: {PriorityHigh, CategoryMetadata,
		"Meta description is too short",
		"The meta description is well below the acceptable length and wastes result-page real estate."},
	CodeMetaDescriptionSlightlyShort: {PriorityMedium, CategoryMetadata,
		"Meta description is slightly short",
		"The meta description is acceptable but shorter than the optimal range."},
	CodeMetaDescriptionTooLong: {PriorityHigh, CategoryMetadata,
		"Meta description is too long",
		"The meta description exceeds the acceptable length and will be truncated in search results."},
	CodeMetaDescriptionSlightlyLong: {PriorityMedium, CategoryMetadata,
		"Meta description is slightly long",
		"The meta description is acceptable but longer than the optimal range and may be truncated."},
	CodeMetaDescriptionNoCTA: {PriorityMedium, CategoryEngagement,
		"Add a call to action to the meta description",
		"The meta description contains no recognizable call-to-action signal. Descriptions with a CTA earn measurably higher click-through rates."},
	CodeMetaDescriptionWeakCTA: {PriorityLow, CategoryEngagement,
		"Strengthen the meta description call to action",
		"The meta description has a weak call-to-action signal. Consider a stronger action verb or urgency cue."},
	CodePrimaryKeywordMissing: {PriorityCritical, CategoryKeywords,
		"Set a primary keyword",
		"No primary keyword is configured for this page, so keyword optimization cannot be evaluated."},
	CodePrimaryKeywordUnderused: {PriorityHigh, CategoryKeywords,
		"Use the primary keyword more often",
		"The primary keyword barely appears in the content. Work it naturally into headings and body text."},
	CodePrimaryKeywordSuboptimal: {PriorityMedium, CategoryKeywords,
		"Adjust primary keyword density",
		"The primary keyword density is outside the optimal range."},
	CodeKeywordStuffing: {PriorityCritical, CategoryKeywords,
		"Reduce keyword stuffing",
		"The primary keyword is severely overused. Search engines penalize keyword stuffing."},
	CodePoorKeywordDistribution: {PriorityMedium, CategoryKeywords,
		"Distribute the primary keyword more evenly",
		"Keyword occurrences are clustered in one part of the content instead of spread across it."},
	CodeInsufficientSecondary: {PriorityMedium, CategoryKeywords,
		"Add or strengthen secondary keywords",
		"Fewer than two secondary keywords are used effectively (adequate density, or placement in the title or a heading)."},
	CodeSecondaryKeywordImbalance: {PriorityMedium, CategoryKeywords,
		"Balance primary and secondary keyword usage",
		"The primary keyword dominates secondary keywords by more than a 5:1 density ratio."},
	CodeContentTooShort: {PriorityHigh, CategoryContent,
		"Expand the page content",
		"The page has too little content to rank for competitive queries."},
	CodeContentShort: {PriorityMedium, CategoryContent,
		"Consider expanding the page content",
		"The page content is below the recommended word count."},
}

// Suggestion is an actionable recommendation produced by the rule tree.
// OperationName/FactorName/ContextName are back-references to the node that
// raised it, filled in during aggregation for display.
type Suggestion struct {
	Code        Code   `json:"code"`
	Priority    int    `json:"priority"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Keyword is optional payload for keyword-specific issues; it takes
	// part in the dedupe identity so the same code can be reported once
	// per distinct keyword.
	Keyword string `json:"keyword,omitempty"`

	OperationName string `json:"operation,omitempty"`
	FactorName    string `json:"factor,omitempty"`
	ContextName   string `json:"context,omitempty"`
}

// NewSuggestion materializes a catalog entry. Unknown codes still produce a
// usable suggestion so a rule emitting a new code never breaks the report.
func NewSuggestion(code Code) Suggestion {
	def, ok := catalog[code]
	if !ok {
		return Suggestion{Code: code, Priority: PriorityLow, Category: CategoryContent, Title: string(code)}
	}
	return Suggestion{
		Code:        code,
		Priority:    def.priority,
		Category:    def.category,
		Title:       def.title,
		Description: def.description,
	}
}

// NewKeywordSuggestion materializes a catalog entry carrying keyword payload.
func NewKeywordSuggestion(code Code, keyword string) Suggestion {
	s := NewSuggestion(code)
	s.Keyword = keyword
	return s
}

// Key returns the dedupe identity of the suggestion.
func (s Suggestion) Key() string {
	if s.Keyword == "" {
		return string(s.Code)
	}
	return fmt.Sprintf("%s:%s", s.Code, s.Keyword)
}
