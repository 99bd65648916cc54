// ABOUTME: Posters command resolves missing item images
// ABOUTME: Tries local poster folders first, then TMDB when an API key is set
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	postersTimeout time.Duration
	postersList    bool
)

// NewPostersCmd creates the posters command group
func NewPostersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posters",
		Short: "Find images for items",
	}

	resolve := &cobra.Command{
		Use:   "resolve <template>",
		Short: "Resolve posters for items without an image",
		Long: `Resolve posters for items that have no image.

Each item is looked up in the configured poster folders
(TIERWORKS_POSTER_ROOT/<folder>/<id>.jpg or .png) and then, when
TMDB_API_KEY is set, by title on TMDB. Items nobody can find keep no image.`,
		Args: cobra.ExactArgs(1),
		RunE: runPostersResolve,
	}
	resolve.Flags().DurationVar(&postersTimeout, "timeout", 2*time.Minute, "Give up after this long")

	candidates := &cobra.Command{
		Use:   "candidates <template>",
		Short: "List the locations tried for each item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			sess, err := a.OpenSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, it := range sess.Items() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", it.Title, it.ID)
				for _, c := range a.Resolver.Candidates(it) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", c)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(resolve)
	cmd.AddCommand(candidates)
	resolve.Flags().BoolVar(&postersList, "list", false, "Print each item's image after resolving")

	return cmd
}

func runPostersResolve(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	sess, err := a.OpenSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), postersTimeout)
	defer cancel()

	n, err := a.Backfill(ctx, sess)
	if err != nil {
		// partial updates were applied; report and keep them
		fmt.Fprintf(cmd.ErrOrStderr(), "poster lookup stopped early: %v\n", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d poster(s)\n", n)
	}
	if postersList {
		for _, it := range sess.Items() {
			ref := it.ImageRef
			if ref == "" {
				ref = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", truncate(it.Title, 40), ref)
		}
	}
	return nil
}
