package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stonebell/issuegraph/pkg/config"
	"github.com/stonebell/issuegraph/pkg/github"
)

var projectsCmd = &cobra.Command{
	Use:   "projects <org>",
	Short: "List an organization's project boards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := githubToken()
		if token == "" {
			return fmt.Errorf("no GitHub token: set GITHUB_TOKEN or GH_TOKEN")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		client := github.NewClient(&github.HTTPGraphQL{
			Endpoint: cfg.GitHubAPI + "/graphql",
			Token:    token,
		}, logger)
		projects, err := client.ListOrgProjects(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("no projects found")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%-16s #%-4d %s\n", p.ID, p.Number, p.Title)
		}
		return nil
	},
}
