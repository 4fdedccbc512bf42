package main

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/internal/validation"
	"github.com/spf13/cobra"
)

var (
	suggestTitle       string
	suggestDescription string
	suggestEmail       string
	suggestJSONOutput  bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Submit a feature suggestion",
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestTitle, "title", "", "Suggestion title (required)")
	suggestCmd.Flags().StringVar(&suggestDescription, "description", "", "Suggestion description (required)")
	suggestCmd.Flags().StringVar(&suggestEmail, "email", "", "Contact email")
	suggestCmd.Flags().BoolVar(&suggestJSONOutput, "json", false, "Output as JSON")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	req := roadmap.SubmitRequest{
		Title:       suggestTitle,
		Description: suggestDescription,
	}
	if cmd.Flags().Changed("email") {
		req.Email = &suggestEmail
	}
	if errs := validation.ValidateSubmitRequest(req); len(errs) > 0 {
		return joinValidationErrors(errs)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	res := newService(cfg).Submit(cmd.Context(), req)
	if suggestJSONOutput {
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	if !res.Success {
		return errors.New(res.Error)
	}
	if suggestJSONOutput {
		return nil
	}

	if res.FeatureID != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Suggestion submitted (id %d)\n", *res.FeatureID)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Suggestion submitted")
	}
	return nil
}
