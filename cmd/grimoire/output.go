package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/grimoire/internal/crystal"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(w, "  %s %s\n", l, val)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecordSummary writes the human-readable essentials of rec.
func printRecordSummary(w io.Writer, rec crystal.Record) {
	c := rec.Core
	fmt.Fprintln(w, colorize(colorBold, c.Identity.Name))
	printStatus(w, "ID", "%s", c.ID)
	printStatus(w, "Family", "%s", c.Identity.Family)
	printStatus(w, "Confidence", "%.0f%%", c.ConfidenceScore*100)
	printStatus(w, "Color", "%s", c.Visual.PrimaryColor)
	printStatus(w, "Chakra", "%s (%d)", c.Energy.PrimaryChakra, c.Energy.ChakraNumber)
	if len(c.Astrology.PrimarySigns) > 0 {
		printStatus(w, "Signs", "%s", strings.Join(c.Astrology.PrimarySigns, ", "))
	}
	n := c.Numerology
	printStatus(w, "Numerology", "name %d, color %d, chakra %d, master %d",
		n.NameNumber, n.ColorVibration, n.ChakraNumber, n.MasterNumber)
	if rec.Enrichment != nil && rec.Enrichment.MineralClass != nil {
		printStatus(w, "Mineral class", "%s", *rec.Enrichment.MineralClass)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
