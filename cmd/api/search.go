package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"food-analyzer/internal/core/nutrition"
	"food-analyzer/internal/pkg/common"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <food name...>",
	Short: "查詢每 100 克的營養估計",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer common.Sync()

	svc, closeCache := newNutritionService(cmd.Context(), cfg)
	defer closeCache()

	name := strings.Join(args, " ")
	estimate, err := svc.Lookup(cmd.Context(), name)
	switch {
	case errors.Is(err, nutrition.ErrNotFound):
		return fmt.Errorf("%s: %s", nutrition.MsgProductNotFound, name)
	case err != nil:
		return fmt.Errorf("%s: %w", nutrition.MsgSearchError, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"food_name": name,
		"nutrition": estimate,
	})
}
