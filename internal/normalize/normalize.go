// Package normalize assembles a crystal.Record from extracted fields. Values
// the model supplied win; gaps are filled from the correlation tables and
// the numerology calculator.
package normalize

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/grimoire/internal/correlation"
	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/extract"
	"github.com/kalambet/grimoire/internal/numerology"
)

// Normalizer builds canonical records. NewID and Now are swappable for
// tests; the zero value uses random UUIDs and the wall clock.
type Normalizer struct {
	NewID func() string
	Now   func() time.Time
}

// New returns a Normalizer using UUIDv4 ids and the current time.
func New() *Normalizer {
	return &Normalizer{NewID: uuid.NewString, Now: time.Now}
}

// Normalize builds an ownerless record from f.
func (n *Normalizer) Normalize(f extract.Fields) crystal.Record {
	return n.NormalizeFor(f, "")
}

// NormalizeFor builds a record from f and, when owner is non-empty, links
// it to that owner's collection.
func (n *Normalizer) NormalizeFor(f extract.Fields, owner string) crystal.Record {
	now := n.now()

	energy := buildEnergy(f)
	astrology := crystal.Astrology{
		PrimarySigns:    list(f.PrimarySigns),
		CompatibleSigns: list(f.CompatibleSigns),
		PlanetaryRuler:  f.PlanetaryRuler,
		Element:         f.Element,
	}
	backfillFromColor(f.PrimaryColor, &energy, &astrology)

	core := crystal.Core{
		ID:              n.newID(),
		CreatedAt:       now,
		ConfidenceScore: f.Confidence,
		Visual: crystal.Visual{
			PrimaryColor:    f.PrimaryColor,
			SecondaryColors: list(f.SecondaryColors),
			Transparency:    f.Transparency,
			Formation:       f.Formation,
			SizeEstimate:    f.SizeEstimate,
		},
		Identity: crystal.Identity{
			Name:       f.Name,
			Family:     f.Family,
			Variety:    f.Variety,
			Confidence: f.Confidence,
		},
		Energy:     energy,
		Astrology:  astrology,
		Numerology: buildNumerology(f, energy.ChakraNumber),
	}
	if f.Confidence == 0 && f.OverallConfidence != nil {
		core.ConfidenceScore = *f.OverallConfidence
	}

	rec := crystal.Record{
		Core: core,
		Enrichment: &crystal.Enrichment{
			BibleReference:    f.BibleReference,
			HealingProperties: list(f.HealingProperties),
			UsageSuggestions:  list(f.UsageSuggestions),
			CareInstructions:  list(f.CareInstructions),
			SynergyNames:      list(f.SynergyNames),
			MineralClass:      mineralClass(f),
		},
		UserLink: &crystal.UserLink{
			Experiences: []string{},
			Intentions:  []string{},
		},
	}
	if owner != "" {
		rec.UserLink.OwnerID = &owner
		rec.UserLink.AddedAt = &now
	}
	return rec
}

// buildEnergy copies the model's chakra data. The chakra number comes from
// the metaphysical group, else from the numerology group.
func buildEnergy(f extract.Fields) crystal.Energy {
	num := f.ChakraNumber
	if num == 0 {
		num = f.NumerologyChakraNumber
	}
	return crystal.Energy{
		PrimaryChakra:    f.PrimaryChakra,
		SecondaryChakras: list(f.SecondaryChakras),
		ChakraNumber:     numerology.Reduce(num),
		VibrationLevel:   f.VibrationLevel,
	}
}

// backfillFromColor fills chakra and zodiac gaps from the color table.
// Applying it to an already complete record changes nothing.
func backfillFromColor(color string, e *crystal.Energy, a *crystal.Astrology) {
	ref, ok := correlation.ColorEnergy(color)
	if !ok {
		return
	}
	if missing(e.PrimaryChakra) {
		e.PrimaryChakra = ref.Chakra
	}
	if e.ChakraNumber == 0 && ref.Number != 0 {
		e.ChakraNumber = ref.Number
	}
	if len(a.PrimarySigns) == 0 && !ref.AppliesToAllSigns() {
		a.PrimarySigns = union(a.PrimarySigns, ref.Signs)
	}
}

func buildNumerology(f extract.Fields, energyChakra int) crystal.Numerology {
	nameNumber := numerology.Reduce(f.CrystalNumber)
	if nameNumber == 0 {
		nameNumber = numerology.NameToNumber(f.Name)
	}

	chakra := numerology.Reduce(f.NumerologyChakraNumber)
	if chakra == 0 {
		chakra = energyChakra
	}

	color := numerology.Reduce(f.ColorVibration)

	master := numerology.Reduce(f.MasterNumber)
	if master == 0 {
		master = numerology.MasterNumber(nameNumber, color, chakra)
	}

	return crystal.Numerology{
		NameNumber:     nameNumber,
		ColorVibration: color,
		ChakraNumber:   chakra,
		MasterNumber:   master,
	}
}

func mineralClass(f extract.Fields) *string {
	if f.MineralClass != nil {
		return f.MineralClass
	}
	if missing(f.Family) {
		return nil
	}
	if c, ok := correlation.MineralClass(f.Family); ok {
		return &c
	}
	return nil
}

func (n *Normalizer) newID() string {
	if n.NewID == nil {
		return uuid.NewString()
	}
	return n.NewID()
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now().UTC()
	}
	return n.Now().UTC()
}

func missing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, crystal.Unknown)
}

// union appends the members of add not already in base, keeping order.
func union(base, add []string) []string {
	out := slices.Clone(base)
	for _, s := range add {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

func list(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
