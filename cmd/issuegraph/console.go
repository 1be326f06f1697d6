package main

import (
	"fmt"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stonebell/issuegraph/pkg/cacheserver"
	"github.com/stonebell/issuegraph/pkg/config"
)

var (
	consolePort   int
	consoleNoOpen bool
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the local console server (position cache + GitHub proxy)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if consolePort != 0 {
			cfg.Port = consolePort
		}

		store, err := cacheserver.OpenStore(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open position store: %w", err)
		}
		defer store.Close()

		srv := cacheserver.New(store, cacheserver.Options{
			Port:        cfg.Port,
			GitHubToken: githubToken(),
			GitHubAPI:   cfg.GitHubAPI,
			Logger:      logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		logger.Info("console listening", "url", url, "database", cfg.DatabasePath)
		if !consoleNoOpen {
			openBrowser(url)
		}

		return srv.Run(ctx)
	},
}

func init() {
	consoleCmd.Flags().IntVarP(&consolePort, "port", "p", 0, "listen port (overrides config)")
	consoleCmd.Flags().BoolVar(&consoleNoOpen, "no-open", false, "do not open the browser")
}

// openBrowser is best-effort; the URL is already printed.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Debug("open browser failed", "error", err)
	}
}
