package model

import "time"

// Profile carries the per-user inputs the horoscope pipeline reads.
// It is owned by the account system; this service never invents one.
type Profile struct {
	UserID     string   `json:"userId"`
	Name       string   `json:"name"`
	Birthday   string   `json:"birthday"` // "MM/DD"
	Discipline string   `json:"discipline,omitempty"`
	Role       string   `json:"role,omitempty"`
	Hobbies    []string `json:"hobbies,omitempty"`

	LikesFantasy bool `json:"likesFantasy"`
	LikesScifi   bool `json:"likesScifi"`
	LikesCute    bool `json:"likesCute"`
	LikesMinimal bool `json:"likesMinimal"`
	HatesClowns  bool `json:"hatesClowns"`
}

// SegmentType enumerates the categorical axes a profile resolves into.
type SegmentType string

const (
	SegmentSign       SegmentType = "sign"
	SegmentElement    SegmentType = "element"
	SegmentModality   SegmentType = "modality"
	SegmentWeekday    SegmentType = "weekday"
	SegmentSeason     SegmentType = "season"
	SegmentDiscipline SegmentType = "discipline"
	SegmentRoleLevel  SegmentType = "role_level"
)

// Segment is one canonical categorical tag, unique on (Type, Value).
type Segment struct {
	Type  SegmentType `json:"type"`
	Value string      `json:"value"`
}

// Style is a renderable visual style. Family groups related styles
// (e.g. "AnalogColor", "CharacterCartoon", "DigitalArt", "Whimsical").
type Style struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Family string `json:"family"`
}

// Ruleset is a named, versioned bundle of rules; exactly one is active.
type Ruleset struct {
	RulesetID    string    `json:"rulesetId"`
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	Active       bool      `json:"active"`
	CreationTime time.Time `json:"creationTime"`
}

// Rule maps one segment to weight contributions for the two categorical
// choices plus free-form prompt tags. Rules never mix across rulesets.
type Rule struct {
	RuleID           string             `json:"ruleId"`
	RulesetID        string             `json:"rulesetId"`
	Segment          Segment            `json:"segment"`
	StyleWeights     map[string]float64 `json:"styleWeights"`
	CharacterWeights map[string]float64 `json:"characterWeights"`
	PromptTags       []string           `json:"promptTags,omitempty"`
	Priority         int                `json:"priority"`
}

// PromptSlots records the sampled selections for one generation. Stored
// with the artifact so staleness checks and debugging never re-derive.
type PromptSlots struct {
	Style     string   `json:"style"`
	Character string   `json:"character"`
	Tags      []string `json:"tags,omitempty"`
}

// Artifact is the persisted horoscope for one user on one date.
// Invariant: at most one row per (UserID, Date). Text and image may be
// populated by independent generations sharing the same key.
type Artifact struct {
	UserID        string       `json:"userId"`
	Date          string       `json:"date"` // "2006-01-02", service-local
	StarSign      string       `json:"starSign,omitempty"`
	HoroscopeText string       `json:"horoscopeText,omitempty"`
	Dos           []string     `json:"dos,omitempty"`
	Donts         []string     `json:"donts,omitempty"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	ImagePrompt   string       `json:"imagePrompt,omitempty"`
	PromptSlots   *PromptSlots `json:"promptSlots,omitempty"`
	GeneratedAt   time.Time    `json:"generatedAt"`
}

// Member is one roster entry for curator rotation.
type Member struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	IsCurator bool   `json:"isCurator"`
}

// Assignment is one committed curator rotation.
// Invariant: no two assignments' half-open [StartDate, EndDate)
// periods overlap. A period may start exactly where the previous one
// ends.
type Assignment struct {
	AssignmentID     string    `json:"assignmentId"`
	CuratorUserID    string    `json:"curatorUserId"`
	CuratorName      string    `json:"curatorName"`
	AssignmentDate   time.Time `json:"assignmentDate"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	IsManualOverride bool      `json:"isManualOverride"`
	AssignedBy       string    `json:"assignedBy,omitempty"`
}
