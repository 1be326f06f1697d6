package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stonebell/issuegraph/pkg/cacheserver"
	"github.com/stonebell/issuegraph/pkg/config"
	"github.com/stonebell/issuegraph/pkg/github"
	"github.com/stonebell/issuegraph/pkg/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <project-id> <query>",
	Short: "Fuzzy-search cached project items",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, query := args[0], args[1]
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		store, err := cacheserver.OpenStore(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open position store: %w", err)
		}
		defer store.Close()

		raw, err := store.Items(projectID)
		if err != nil {
			return fmt.Errorf("read item cache: %w", err)
		}
		if len(raw) == 0 {
			return fmt.Errorf("project %s not cached; run the console first", projectID)
		}
		var items []github.Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("decode item cache: %w", err)
		}

		idx := search.NewIndex(github.ParseItems(items))
		results := idx.FindN(query, searchLimit)
		if len(results) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%-20s [%s] %s\n", r.Issue.ID, r.Issue.State, r.Issue.Title)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results")
}
