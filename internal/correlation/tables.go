// Package correlation holds the static lookup tables used to backfill fields
// the vision model left out: color to chakra/number/zodiac signs, and crystal
// family to mineral class.
//
// The tables are decoded from an embedded YAML document once, at package
// initialization, and are read-only afterwards.
package correlation

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllSigns is the sign-list sentinel meaning "every zodiac sign".
const AllSigns = "all"

// Energy is the chakra correspondence of a color.
type Energy struct {
	Chakra string   `yaml:"chakra"`
	Number int      `yaml:"number"` // 0 applies to all chakras
	Signs  []string `yaml:"signs"`
}

// AppliesToAllSigns reports whether Signs is the "all" sentinel.
func (e Energy) AppliesToAllSigns() bool {
	return len(e.Signs) == 1 && e.Signs[0] == AllSigns
}

//go:embed tables.yaml
var tablesYAML []byte

type document struct {
	Colors         map[string]Energy   `yaml:"colors"`
	MineralClasses map[string][]string `yaml:"mineral_classes"`
}

var (
	colorEnergy   map[string]Energy
	familyToClass map[string]string
)

func init() {
	colors, families, err := parse(tablesYAML)
	if err != nil {
		panic(fmt.Sprintf("correlation: %v", err))
	}
	colorEnergy, familyToClass = colors, families
}

func parse(data []byte) (map[string]Energy, map[string]string, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding tables: %w", err)
	}

	colors := make(map[string]Energy, len(doc.Colors))
	for name, e := range doc.Colors {
		if e.Number < 0 || e.Number > 7 {
			return nil, nil, fmt.Errorf("color %q: chakra number %d out of range", name, e.Number)
		}
		colors[key(name)] = e
	}

	families := make(map[string]string)
	for class, members := range doc.MineralClasses {
		for _, f := range members {
			k := key(f)
			if prev, ok := families[k]; ok {
				return nil, nil, fmt.Errorf("family %q listed under both %s and %s", f, prev, class)
			}
			families[k] = class
		}
	}
	return colors, families, nil
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ColorEnergy returns the chakra correspondence for a primary color name.
// The boolean is false when the color is not in the table.
func ColorEnergy(color string) (Energy, bool) {
	e, ok := colorEnergy[key(color)]
	if !ok {
		return Energy{}, false
	}
	e.Signs = slices.Clone(e.Signs)
	return e, true
}

// MineralClass returns the mineral class of a crystal family, e.g. "Silicate"
// for "Quartz". The boolean is false when the family is not in the table.
func MineralClass(family string) (string, bool) {
	c, ok := familyToClass[key(family)]
	return c, ok
}

// Colors returns the known color names in sorted order.
func Colors() []string {
	names := make([]string, 0, len(colorEnergy))
	for name := range colorEnergy {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
