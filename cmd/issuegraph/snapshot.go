package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stonebell/issuegraph/pkg/cacheserver"
	"github.com/stonebell/issuegraph/pkg/config"
	"github.com/stonebell/issuegraph/pkg/export"
	"github.com/stonebell/issuegraph/pkg/github"
	"github.com/stonebell/issuegraph/pkg/layout"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <project-id>",
	Short: "Render a project's dependency graph to SVG or PNG",
	Long: `Render a project's dependency graph to an image file.

Items come from the local cache populated by a console session, falling
back to a live fetch when a GitHub token is available. Node positions
saved from the console are reused; anything unsaved is laid out fresh.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID := args[0]
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		store, err := cacheserver.OpenStore(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open position store: %w", err)
		}
		defer store.Close()

		items, err := loadItems(cmd.Context(), cfg, store, projectID)
		if err != nil {
			return err
		}

		issues := github.ParseItems(items)
		deps := github.ParseDependencies(items)
		if len(issues) == 0 {
			return fmt.Errorf("project %s has no issue items", projectID)
		}

		engine := layout.NewEngine()
		engine.NodeSpacing = cfg.Layout.NodeSpacing
		engine.LayerSpacing = cfg.Layout.LayerSpacing

		nodes := make([]layout.Node, len(issues))
		for i, iss := range issues {
			nodes[i] = layout.Node{ID: iss.ID}
		}
		laid, err := engine.Layout(cmd.Context(), nodes, layout.EdgesOf(deps), cfg.Direction())
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}

		saved, err := store.Positions(projectID)
		if err != nil {
			return fmt.Errorf("read saved positions: %w", err)
		}
		for i := range laid {
			if pos, ok := saved[laid[i].ID]; ok {
				laid[i].Position = pos
			}
		}

		if err := export.SaveGraphSnapshot(export.GraphSnapshotOptions{
			Path:   snapshotOut,
			Nodes:  laid,
			Edges:  deps,
			Issues: issues,
		}); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d nodes, %d edges)\n", snapshotOut, len(laid), len(deps))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "graph.svg", "output file (.svg or .png)")
}

// loadItems prefers the local item cache and falls back to the API.
func loadItems(ctx context.Context, cfg config.Config, store *cacheserver.Store, projectID string) ([]github.Item, error) {
	raw, err := store.Items(projectID)
	if err != nil {
		return nil, fmt.Errorf("read item cache: %w", err)
	}
	if len(raw) > 0 {
		var items []github.Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode item cache: %w", err)
		}
		return items, nil
	}

	token := githubToken()
	if token == "" {
		return nil, fmt.Errorf("project %s not cached and no GitHub token set", projectID)
	}
	client := github.NewClient(&github.HTTPGraphQL{
		Endpoint: cfg.GitHubAPI + "/graphql",
		Token:    token,
	}, logger)
	return client.FetchAllItems(ctx, projectID)
}
