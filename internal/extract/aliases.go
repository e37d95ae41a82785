package extract

type field int

const (
	fieldName field = iota
	fieldFamily
	fieldVariety
	fieldConfidence
	fieldPrimaryColor
	fieldSecondaryColors
	fieldTransparency
	fieldFormation
	fieldSizeEstimate
	fieldPrimaryChakra
	fieldSecondaryChakras
	fieldChakraNumber
	fieldVibrationLevel
	fieldPrimarySigns
	fieldCompatibleSigns
	fieldPlanetaryRuler
	fieldElement
	fieldCrystalNumber
	fieldColorVibration
	fieldNumerologyChakra
	fieldMasterNumber
	fieldBibleReference
	fieldHealingProperties
	fieldUsageSuggestions
	fieldCareInstructions
	fieldSynergyNames
	fieldMineralClass
	fieldOverallConfidence
)

// Response groups. The first five are the current prompt's shape, the next
// four an older generation of it. flat addresses top-level keys.
const (
	identificationDetails  = "identification_details"
	visualCharacteristics  = "visual_characteristics"
	metaphysicalAspects    = "metaphysical_aspects"
	numerologyInsights     = "numerology_insights"
	enrichmentDetails      = "enrichment_details"
	legacyIdentification   = "identification"
	legacyMetaphysical     = "metaphysical_properties"
	legacyPhysical         = "physical_properties"
	legacyCareInstructions = "care_instructions"
	flat                   = ""
)

type alias struct {
	group string
	key   string
}

// aliases lists, per field, where the value may live, highest priority
// first.
var aliases = map[field][]alias{
	fieldName: {
		{identificationDetails, "stone_name"},
		{identificationDetails, "name"},
		{legacyIdentification, "name"},
		{legacyIdentification, "stone_name"},
		{flat, "stone_name"},
		{flat, "name"},
	},
	fieldFamily: {
		{identificationDetails, "crystal_family"},
		{legacyIdentification, "crystal_family"},
		{legacyIdentification, "family"},
		{flat, "crystal_family"},
	},
	fieldVariety: {
		{identificationDetails, "variety_group"},
		{identificationDetails, "variety"},
		{legacyIdentification, "variety"},
		{flat, "variety"},
	},
	fieldConfidence: {
		{identificationDetails, "stone_type_confidence"},
		{identificationDetails, "identification_confidence"},
		{legacyIdentification, "confidence"},
		{flat, "confidence"},
	},
	fieldPrimaryColor: {
		{visualCharacteristics, "primary_color"},
		{legacyPhysical, "primary_color"},
		{flat, "primary_color"},
		{legacyPhysical, "color_range"},
	},
	fieldSecondaryColors: {
		{visualCharacteristics, "secondary_colors"},
		{flat, "secondary_colors"},
	},
	fieldTransparency: {
		{visualCharacteristics, "transparency_level"},
		{visualCharacteristics, "transparency"},
		{legacyPhysical, "transparency"},
		{flat, "transparency"},
	},
	fieldFormation: {
		{visualCharacteristics, "crystal_system_formation"},
		{visualCharacteristics, "formation"},
		{legacyPhysical, "crystal_system"},
		{legacyPhysical, "formation"},
		{flat, "formation"},
	},
	fieldSizeEstimate: {
		{visualCharacteristics, "estimated_size_group"},
		{visualCharacteristics, "size_estimate"},
		{flat, "size_estimate"},
	},
	fieldPrimaryChakra: {
		{metaphysicalAspects, "primary_chakra_association"},
		{metaphysicalAspects, "primary_chakra"},
		{legacyMetaphysical, "primary_chakras"},
		{flat, "primary_chakra"},
	},
	fieldSecondaryChakras: {
		{metaphysicalAspects, "secondary_chakra_associations"},
		{metaphysicalAspects, "secondary_chakras"},
		{flat, "secondary_chakras"},
	},
	fieldChakraNumber: {
		{metaphysicalAspects, "chakra_number"},
		{flat, "chakra_number"},
	},
	fieldVibrationLevel: {
		{metaphysicalAspects, "vibrational_frequency_level"},
		{metaphysicalAspects, "vibration_level"},
		{flat, "vibration_level"},
	},
	fieldPrimarySigns: {
		{metaphysicalAspects, "zodiac_sign_affinity"},
		{metaphysicalAspects, "primary_zodiac_signs"},
		{metaphysicalAspects, "zodiac_signs"},
		{legacyMetaphysical, "zodiac_signs"},
		{flat, "zodiac_signs"},
	},
	fieldCompatibleSigns: {
		{metaphysicalAspects, "compatible_signs"},
		{flat, "compatible_signs"},
	},
	fieldPlanetaryRuler: {
		{metaphysicalAspects, "planetary_rulership"},
		{metaphysicalAspects, "planetary_rulers"},
		{metaphysicalAspects, "planetary_ruler"},
		{legacyMetaphysical, "planetary_rulers"},
		{flat, "planetary_ruler"},
	},
	fieldElement: {
		{metaphysicalAspects, "elemental_correspondence"},
		{metaphysicalAspects, "elements"},
		{metaphysicalAspects, "element"},
		{legacyMetaphysical, "elements"},
		{flat, "element"},
	},
	fieldCrystalNumber: {
		{numerologyInsights, "primary_number_vibration"},
		{numerologyInsights, "crystal_number_association"},
	},
	fieldColorVibration: {
		{numerologyInsights, "color_numerology_link"},
		{numerologyInsights, "color_vibration_number"},
	},
	fieldNumerologyChakra: {
		{numerologyInsights, "chakra_numerology_link"},
		{numerologyInsights, "chakra_number_for_numerology"},
	},
	fieldMasterNumber: {
		{numerologyInsights, "associated_master_numbers"},
		{numerologyInsights, "master_numerology_number_suggestion"},
	},
	fieldBibleReference: {
		{enrichmentDetails, "crystal_bible_reference"},
	},
	fieldHealingProperties: {
		{enrichmentDetails, "common_healing_properties"},
		{enrichmentDetails, "healing_properties"},
		{legacyMetaphysical, "healing_properties"},
		{flat, "healing_properties"},
	},
	fieldUsageSuggestions: {
		{enrichmentDetails, "suggested_uses_practices"},
		{enrichmentDetails, "usage_suggestions"},
	},
	fieldCareInstructions: {
		{enrichmentDetails, "care_and_cleansing_tips"},
		{enrichmentDetails, "care_instructions"},
		{legacyCareInstructions, "cleansing_methods"},
		{flat, "care_instructions"},
	},
	fieldSynergyNames: {
		{enrichmentDetails, "synergistic_crystals_pairing"},
		{enrichmentDetails, "synergy_crystals"},
	},
	fieldMineralClass: {
		{enrichmentDetails, "mineral_class"},
		{flat, "mineral_class"},
	},
	fieldOverallConfidence: {
		{flat, "overall_confidence_score"},
	},
}
