package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tweetstash",
		Short: "Capture tweets and read them later as AI-summarized digests",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(captureCmd())
	root.AddCommand(digestCmd())
	root.AddCommand(enrichCmd())
	root.AddCommand(serveCmd())

	return root
}

func captureCmd() *cobra.Command {
	var (
		user string
		url  string
		wait bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a tweet URL for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(user, url, wait)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id owning the capture")
	cmd.Flags().StringVar(&url, "url", "", "tweet URL or shared text")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for enrichment to finish")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("url")
	return cmd
}

func digestCmd() *cobra.Command {
	var (
		user       string
		category   string
		starred    bool
		unread     bool
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Show a user's captured tweets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(user, category, starred, unread, limit, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&category, "category", "", "filter by category slug")
	cmd.Flags().BoolVar(&starred, "starred", false, "starred only")
	cmd.Flags().BoolVar(&unread, "unread", false, "unread only")
	cmd.Flags().IntVar(&limit, "limit", 50, "max tweets to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.MarkFlagRequired("user")
	return cmd
}

func enrichCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Re-run the enrichment pipeline for a captured tweet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(id)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "tweet record id")
	cmd.MarkFlagRequired("id")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and re-enrichment sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
