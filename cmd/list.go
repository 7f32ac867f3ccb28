package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jjenkins/gamecache/internal/store"
	"github.com/spf13/cobra"
)

var listSort string
var listOrder string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the cached library",
	Long: `List prints every cached game with its playtime and ProtonDB tier.

Examples:
  gamecache list
  gamecache list --sort playtime --order desc`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listSort, "sort", "s", "app_id", "Sort by app_id, name, playtime, recent, last_played, tier or last_fetch")
	listCmd.Flags().StringVarP(&listOrder, "order", "o", "asc", "Sort order (asc or desc)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := store.NewDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	gameStore := store.NewGameStore(db)
	if err := gameStore.EnsureSchema(ctx); err != nil {
		return err
	}

	games, err := gameStore.GetAllSorted(ctx, listSort, listOrder)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "APP ID\tNAME\tPLAYTIME (H)\tLAST PLAYED\tTIER\tLAST FETCH")
	for _, g := range games {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\t%s\t%s\n",
			g.AppID,
			g.Name,
			float64(g.PlaytimeForever)/60,
			formatUnix(g.LastPlayed),
			g.Tier,
			formatUnix(g.LastFetch),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d games cached\n", len(games))
	return nil
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return "never"
	}
	return time.Unix(sec, 0).Format("2006-01-02")
}
