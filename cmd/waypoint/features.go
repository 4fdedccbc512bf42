package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperengineering/waypoint/internal/api"
	"github.com/hyperengineering/waypoint/internal/board"
	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/internal/validation"
	"github.com/spf13/cobra"
)

var (
	featuresJSONOutput bool
	listStatus         string
	listCategory       string
	listQuery          string
	listPage           int
	listPerPage        int
	voteDown           bool
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Browse and vote on roadmap features",
}

var featuresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roadmap features",
	Args:  cobra.NoArgs,
	RunE:  runFeaturesList,
}

var featuresVoteCmd = &cobra.Command{
	Use:   "vote <id>",
	Short: "Upvote a feature, or take an upvote back with --down",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeaturesVote,
}

func init() {
	featuresCmd.PersistentFlags().BoolVar(&featuresJSONOutput, "json", false, "Output as JSON")

	featuresListCmd.Flags().StringVar(&listStatus, "status", "", "Only show features with this status")
	featuresListCmd.Flags().StringVar(&listCategory, "category", "", "Only show features in this category")
	featuresListCmd.Flags().StringVar(&listQuery, "query", "", "Only show features whose title or description contains this text")
	featuresListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	featuresListCmd.Flags().IntVar(&listPerPage, "per-page", board.DefaultPerPage, "Features per page")

	featuresVoteCmd.Flags().BoolVar(&voteDown, "down", false, "Remove an upvote instead of adding one")

	featuresCmd.AddCommand(featuresListCmd)
	featuresCmd.AddCommand(featuresVoteCmd)
	rootCmd.AddCommand(featuresCmd)
}

func runFeaturesList(cmd *cobra.Command, args []string) error {
	if verr := validation.ValidateStatusFilter("status", listStatus); verr != nil {
		return fmt.Errorf("--status %s", verr.Message)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	features, err := newService(cfg).List(cmd.Context())
	if err != nil {
		var listErr *roadmap.Error
		if errors.As(err, &listErr) {
			return fmt.Errorf("list features: %s", listErr.Message)
		}
		return fmt.Errorf("list features: %w", err)
	}

	b := board.New(features)
	items, info := b.Page(board.Filter{
		Status:   roadmap.Status(listStatus),
		Category: listCategory,
		Query:    listQuery,
	}, listPage, listPerPage)

	if featuresJSONOutput {
		return printJSON(cmd.OutOrStdout(), api.FeaturePage{Features: items, PageInfo: info})
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No features found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tSTATUS\tUPVOTES\tCATEGORY\tTITLE")
	for _, f := range items {
		category := f.Category
		if category == "" {
			category = "-"
		}
		title := f.Title
		if f.IsPriority {
			title += " *"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", f.ID, f.Status, f.Upvotes, category, title)
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d features)\n", info.Page, info.TotalPages, info.Total)
	return nil
}

func runFeaturesVote(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid feature id %q", args[0])
	}

	req := roadmap.VoteRequest{FeatureID: id, Action: roadmap.ActionUpvote}
	if voteDown {
		req.Action = roadmap.ActionDownvote
	}
	if errs := validation.ValidateVoteRequest(req); len(errs) > 0 {
		return joinValidationErrors(errs)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	res := newService(cfg).Vote(cmd.Context(), req)
	if featuresJSONOutput {
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	if !res.Success {
		return errors.New(res.Error)
	}
	if featuresJSONOutput {
		return nil
	}

	verb := "Upvoted"
	if voteDown {
		verb = "Removed upvote from"
	}
	if res.Upvotes != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s feature %d (%d upvotes)\n", verb, id, *res.Upvotes)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s feature %d (upvote count unavailable)\n", verb, id)
	}
	return nil
}

func joinValidationErrors(errs []validation.ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Field + " " + e.Message
	}
	return errors.New(strings.Join(msgs, "; "))
}
