package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

const promptTemplate = `You are a crystal identification engine. Analyze the crystal in the image. Your output must be ONLY a single valid JSON object. Do not include any other text, prose, or markdown.

The object must have exactly these top-level keys: "identification_details", "visual_characteristics", "metaphysical_aspects", "numerology_insights", "enrichment_details", and optionally "overall_confidence_score" (0.0 to 1.0).

Structure:
{
  "identification_details": {
    "stone_name": "Amethyst",
    "crystal_family": "Quartz",
    "variety_group": "Macrocrystalline Quartz",
    "stone_type_confidence": 0.95
  },
  "visual_characteristics": {
    "primary_color": "Purple",
    "secondary_colors": ["Lilac"],
    "transparency_level": "Translucent",
    "crystal_system_formation": "Trigonal",
    "estimated_size_group": "Medium"
  },
  "metaphysical_aspects": {
    "primary_chakra_association": "Third Eye",
    "secondary_chakra_associations": ["Crown"],
    "chakra_number": 6,
    "elemental_correspondence": "Air",
    "planetary_rulership": ["Jupiter"],
    "zodiac_sign_affinity": ["Pisces"],
    "compatible_signs": ["Cancer"],
    "vibrational_frequency_level": "High"
  },
  "numerology_insights": {
    "primary_number_vibration": 3,
    "associated_master_numbers": [],
    "color_numerology_link": 5,
    "chakra_numerology_link": 6
  },
  "enrichment_details": {
    "crystal_bible_reference": null,
    "common_healing_properties": ["Inner peace"],
    "suggested_uses_practices": ["Meditation"],
    "care_and_cleansing_tips": ["Recharge in moonlight"],
    "synergistic_crystals_pairing": ["Selenite"],
    "mineral_class": "Silicate"
  }
}

Rules:
- Fill every field from what is visible in the image and established crystal lore.
- Confidence values are decimals between 0.0 and 1.0.
- Chakra numbers run from 1 (root) to 7 (crown). Numerology numbers are single digits.
- If a value cannot be determined, use null for text and [] for lists. Never invent a stone name; use "Unknown".`

// BuildPrompt returns the instruction text sent alongside the image. A
// non-empty userContext is appended as JSON.
func BuildPrompt(userContext map[string]any) string {
	var sb strings.Builder
	sb.WriteString(promptTemplate)

	if len(userContext) > 0 {
		data, err := json.Marshal(userContext)
		if err == nil {
			fmt.Fprintf(&sb, "\n\n[User Context]\n%s", data)
		}
	}
	return sb.String()
}
