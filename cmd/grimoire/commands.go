package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/grimoire/internal/config"
	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/extract"
	"github.com/kalambet/grimoire/internal/normalize"
	"github.com/kalambet/grimoire/internal/numerology"
)

// --- identify ---

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Identify the crystal in a photo",
	Long: `Send a photo to the running server and print the identified crystal.

Examples:
  grimoire identify ./amethyst.jpg
  grimoire identify ./stone.png --owner user-1 --save
  grimoire identify ./stone.png --context '{"found_at":"beach"}' --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		save, _ := cmd.Flags().GetBool("save")
		userCtx, _ := cmd.Flags().GetString("context")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		rec, err := identifyImage(cmd.Context(), client, args[0], owner, userCtx, save)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		printRecordSummary(cmd.OutOrStdout(), rec)
		if save {
			printSuccess("Saved as %s", rec.Core.ID)
		}
		return nil
	},
}

func init() {
	identifyCmd.Flags().String("owner", "", "owner id to link the record to")
	identifyCmd.Flags().Bool("save", false, "store the identified crystal")
	identifyCmd.Flags().String("context", "", "extra context for the model as a JSON object")
	identifyCmd.Flags().Bool("json", false, "print the full record as JSON")
}

func identifyImage(ctx context.Context, client *apiClient, path, owner, userCtx string, save bool) (crystal.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return crystal.Record{}, fmt.Errorf("reading image: %w", err)
	}

	req := map[string]any{
		"image_data": base64.StdEncoding.EncodeToString(data),
		"save":       save,
	}
	if owner != "" {
		req["owner_id"] = owner
	}
	if userCtx != "" {
		var uc map[string]any
		if err := json.Unmarshal([]byte(userCtx), &uc); err != nil {
			return crystal.Record{}, fmt.Errorf("--context must be a JSON object: %w", err)
		}
		req["user_context"] = uc
	}

	resp, err := client.post(ctx, "/api/crystal/identify", req)
	if err != nil {
		return crystal.Record{}, err
	}

	var rec crystal.Record
	if err := decodeJSON(resp, &rec); err != nil {
		return crystal.Record{}, err
	}
	return rec, nil
}

// --- crystals ---

var crystalsCmd = &cobra.Command{
	Use:   "crystals",
	Short: "List, show or delete stored crystals",
}

var crystalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored crystals, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		recs, err := listCrystals(cmd.Context(), client, owner, limit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(w, "No crystals stored.")
			return nil
		}
		for _, rec := range recs {
			fmt.Fprintf(w, "%s  %s  %-20s %-10s %3.0f%%\n",
				colorize(colorCyan, shortID(rec.Core.ID)),
				rec.Core.CreatedAt.Local().Format("2006-01-02 15:04"),
				rec.Core.Identity.Name,
				rec.Core.Visual.PrimaryColor,
				rec.Core.ConfidenceScore*100,
			)
		}
		return nil
	},
}

func listCrystals(ctx context.Context, client *apiClient, owner string, limit int) ([]crystal.Record, error) {
	q := url.Values{}
	if owner != "" {
		q.Set("owner_id", owner)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/crystals"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := client.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var recs []crystal.Record
	if err := decodeJSON(resp, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

var crystalsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored crystal as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/crystals/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var rec crystal.Record
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var crystalsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored crystal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/crystals/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted %s", result["id"])
		return nil
	},
}

func init() {
	crystalsListCmd.Flags().String("owner", "", "only list crystals of this owner")
	crystalsListCmd.Flags().Int("limit", 20, "maximum number of crystals to list")
	crystalsCmd.AddCommand(crystalsListCmd)
	crystalsCmd.AddCommand(crystalsShowCmd)
	crystalsCmd.AddCommand(crystalsDeleteCmd)
}

// --- numerology ---

var numerologyCmd = &cobra.Command{
	Use:   "numerology <name>",
	Short: "Compute the numerology number of a crystal name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", name, numerology.NameToNumber(name))
		return nil
	},
}

// --- normalize ---

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file|-]",
	Short: "Normalize a raw vision model answer into a crystal record",
	Long: `Normalize a raw vision model answer (JSON, optionally in a markdown fence)
into a canonical crystal record and print it. Reads stdin when no file or "-" is given.
Runs locally; no server is needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")

		var (
			raw []byte
			err error
		)
		if len(args) == 0 || args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		rec, err := normalizeText(string(raw), owner)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

func init() {
	normalizeCmd.Flags().String("owner", "", "owner id to link the record to")
}

func normalizeText(raw, owner string) (crystal.Record, error) {
	doc, err := extract.Parse(raw)
	if err != nil {
		return crystal.Record{}, err
	}
	return normalize.New().NormalizeFor(extract.Extract(doc), owner), nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", config.Path())
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value in the config file.\n\nValid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
