// Package crystal defines the canonical crystal record produced by the
// normalization pipeline and the error types shared across the service.
package crystal

import (
	"fmt"
	"time"
)

// Unknown is the placeholder for required string fields the model left out.
const Unknown = "Unknown"

// Record is the canonical, fully normalized description of one crystal.
type Record struct {
	Core       Core        `json:"core"`
	Enrichment *Enrichment `json:"enrichment"`
	UserLink   *UserLink   `json:"userLink"`
}

// Core holds the identity-bearing part of a record. ID and CreatedAt are
// assigned once, server-side, and never change afterwards.
type Core struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	ConfidenceScore float64    `json:"confidenceScore"`
	Visual          Visual     `json:"visual"`
	Identity        Identity   `json:"identity"`
	Energy          Energy     `json:"energy"`
	Astrology       Astrology  `json:"astrology"`
	Numerology      Numerology `json:"numerology"`
}

type Visual struct {
	PrimaryColor    string   `json:"primaryColor"`
	SecondaryColors []string `json:"secondaryColors"`
	Transparency    string   `json:"transparency"`
	Formation       string   `json:"formation"`
	SizeEstimate    *string  `json:"sizeEstimate"`
}

type Identity struct {
	Name       string  `json:"name"`
	Family     string  `json:"family"`
	Variety    *string `json:"variety"`
	Confidence float64 `json:"confidence"`
}

type Energy struct {
	PrimaryChakra    string   `json:"primaryChakra"`
	SecondaryChakras []string `json:"secondaryChakras"`
	ChakraNumber     int      `json:"chakraNumber"`
	VibrationLevel   *string  `json:"vibrationLevel"`
}

type Astrology struct {
	PrimarySigns    []string `json:"primarySigns"`
	CompatibleSigns []string `json:"compatibleSigns"`
	PlanetaryRuler  *string  `json:"planetaryRuler"`
	Element         *string  `json:"element"`
}

// Numerology numbers are single digits. MasterNumber is 0 when it could
// not be derived.
type Numerology struct {
	NameNumber     int `json:"nameNumber"`
	ColorVibration int `json:"colorVibration"`
	ChakraNumber   int `json:"chakraNumber"`
	MasterNumber   int `json:"masterNumber"`
}

type Enrichment struct {
	BibleReference    *string  `json:"bibleReference"`
	HealingProperties []string `json:"healingProperties"`
	UsageSuggestions  []string `json:"usageSuggestions"`
	CareInstructions  []string `json:"careInstructions"`
	SynergyNames      []string `json:"synergyNames"`
	MineralClass      *string  `json:"mineralClass"`
}

// UserLink ties a record to a collection owner.
type UserLink struct {
	OwnerID        *string    `json:"ownerId"`
	AddedAt        *time.Time `json:"addedAt"`
	Rating         *int       `json:"rating"`
	UsageFrequency *string    `json:"usageFrequency"`
	Experiences    []string   `json:"experiences"`
	Intentions     []string   `json:"intentions"`
}

// Owner returns the owner id, or "" when the record has none.
func (r *Record) Owner() string {
	if r.UserLink == nil || r.UserLink.OwnerID == nil {
		return ""
	}
	return *r.UserLink.OwnerID
}

// FillDefaults replaces nil lists with empty ones and nil optional groups
// with empty groups, so that a record never carries JSON nulls in list
// positions. It is used on client-supplied documents before they are stored.
func (r *Record) FillDefaults() {
	c := &r.Core
	c.Visual.SecondaryColors = nonNil(c.Visual.SecondaryColors)
	c.Energy.SecondaryChakras = nonNil(c.Energy.SecondaryChakras)
	c.Astrology.PrimarySigns = nonNil(c.Astrology.PrimarySigns)
	c.Astrology.CompatibleSigns = nonNil(c.Astrology.CompatibleSigns)

	if r.Enrichment == nil {
		r.Enrichment = &Enrichment{}
	}
	e := r.Enrichment
	e.HealingProperties = nonNil(e.HealingProperties)
	e.UsageSuggestions = nonNil(e.UsageSuggestions)
	e.CareInstructions = nonNil(e.CareInstructions)
	e.SynergyNames = nonNil(e.SynergyNames)

	if r.UserLink == nil {
		r.UserLink = &UserLink{}
	}
	r.UserLink.Experiences = nonNil(r.UserLink.Experiences)
	r.UserLink.Intentions = nonNil(r.UserLink.Intentions)
}

// Validate checks the numeric ranges of a client-supplied record.
func (r *Record) Validate() error {
	c := r.Core
	switch {
	case c.ConfidenceScore < 0 || c.ConfidenceScore > 1:
		return &ValidationError{Field: "core.confidenceScore", Message: "must be between 0 and 1"}
	case c.Identity.Confidence < 0 || c.Identity.Confidence > 1:
		return &ValidationError{Field: "core.identity.confidence", Message: "must be between 0 and 1"}
	case !digit(c.Numerology.NameNumber):
		return &ValidationError{Field: "core.numerology.nameNumber", Message: "must be between 0 and 9"}
	case !digit(c.Numerology.ChakraNumber):
		return &ValidationError{Field: "core.numerology.chakraNumber", Message: "must be between 0 and 9"}
	case !digit(c.Numerology.MasterNumber):
		return &ValidationError{Field: "core.numerology.masterNumber", Message: "must be between 0 and 9"}
	case c.Energy.ChakraNumber < 0 || c.Energy.ChakraNumber > 9:
		return &ValidationError{Field: "core.energy.chakraNumber", Message: "must be between 0 and 9"}
	}
	if r.UserLink != nil && r.UserLink.Rating != nil {
		if v := *r.UserLink.Rating; v < 1 || v > 10 {
			return &ValidationError{Field: "userLink.rating", Message: fmt.Sprintf("must be between 1 and 10, got %d", v)}
		}
	}
	return nil
}

func digit(n int) bool { return n >= 0 && n <= 9 }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
