package extract

import "github.com/kalambet/grimoire/internal/crystal"

// Fields is the model's answer reduced to typed values. Required strings
// default to crystal.Unknown, optional strings to nil, numbers to 0 and
// lists to empty (never nil).
type Fields struct {
	Name       string
	Family     string
	Variety    *string
	Confidence float64

	PrimaryColor    string
	SecondaryColors []string
	Transparency    string
	Formation       string
	SizeEstimate    *string

	PrimaryChakra    string
	SecondaryChakras []string
	ChakraNumber     int
	VibrationLevel   *string

	PrimarySigns    []string
	CompatibleSigns []string
	PlanetaryRuler  *string
	Element         *string

	CrystalNumber          int
	ColorVibration         int
	NumerologyChakraNumber int
	MasterNumber           int

	BibleReference    *string
	HealingProperties []string
	UsageSuggestions  []string
	CareInstructions  []string
	SynergyNames      []string
	MineralClass      *string

	// OverallConfidence is nil when the model gave no overall score.
	OverallConfidence *float64
}

// Extract reads every canonical field out of doc. It never fails: fields
// the model left out take their defaults.
func Extract(doc map[string]any) Fields {
	l := lookup{doc: doc}
	f := Fields{
		Name:       l.required(fieldName),
		Family:     l.required(fieldFamily),
		Variety:    l.optional(fieldVariety),
		Confidence: l.confidence(fieldConfidence),

		PrimaryColor:    l.required(fieldPrimaryColor),
		SecondaryColors: l.list(fieldSecondaryColors),
		Transparency:    l.required(fieldTransparency),
		Formation:       l.required(fieldFormation),
		SizeEstimate:    l.optional(fieldSizeEstimate),

		PrimaryChakra:    l.required(fieldPrimaryChakra),
		SecondaryChakras: l.list(fieldSecondaryChakras),
		ChakraNumber:     l.integer(fieldChakraNumber),
		VibrationLevel:   l.optional(fieldVibrationLevel),

		PrimarySigns:    l.list(fieldPrimarySigns),
		CompatibleSigns: l.list(fieldCompatibleSigns),
		PlanetaryRuler:  l.optional(fieldPlanetaryRuler),
		Element:         l.optional(fieldElement),

		CrystalNumber:          l.integer(fieldCrystalNumber),
		ColorVibration:         l.integer(fieldColorVibration),
		NumerologyChakraNumber: l.integer(fieldNumerologyChakra),
		MasterNumber:           l.integer(fieldMasterNumber),

		BibleReference:    l.optional(fieldBibleReference),
		HealingProperties: l.list(fieldHealingProperties),
		UsageSuggestions:  l.list(fieldUsageSuggestions),
		CareInstructions:  l.list(fieldCareInstructions),
		SynergyNames:      l.list(fieldSynergyNames),
		MineralClass:      l.optional(fieldMineralClass),
	}
	if v, ok := l.number(fieldOverallConfidence); ok {
		c := scaleConfidence(v)
		f.OverallConfidence = &c
	}
	return f
}

func orUnknown(s string) string {
	if s == "" {
		return crystal.Unknown
	}
	return s
}
