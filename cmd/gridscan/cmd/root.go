package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridstore/client-go/pkg/gridstore"
	"github.com/gridstore/client-go/pkg/logger"
)

var (
	version string

	// Global flags
	flagClusterURL string
	flagContext    string
	flagOutput     string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gridscan",
	Short: "GridStore background scan-apply CLI",
	Long: `gridscan submits background scan-apply jobs to a GridStore cluster
and polls their progress.

A scan-apply job runs a server-resident UDF against every record in a
namespace/set; the cluster executes it asynchronously and gridscan tracks
it by job id.

Use "gridscan config set-context" to configure your cluster connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagClusterURL, "cluster-url", "", "Override cluster URL (env: GRIDSCAN_CLUSTER_URL)")
	rootCmd.PersistentFlags().StringVarP(&flagContext, "context", "c", "", "Use specific context (env: GRIDSCAN_CONTEXT)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(watchCmd)
}

func initConfig() {
	if flagClusterURL == "" {
		flagClusterURL = os.Getenv("GRIDSCAN_CLUSTER_URL")
	}
	if flagClusterURL == "" {
		flagClusterURL = resolveFromConfigFile()
	}
}

func resolveFromConfigFile() string {
	ctxName := flagContext
	if ctxName == "" {
		ctxName = os.Getenv("GRIDSCAN_CONTEXT")
	}

	cfg, err := loadConfig()
	if err != nil {
		return ""
	}

	if ctxName == "" {
		ctxName = cfg.CurrentContext
	}

	ctx := cfg.GetContext(ctxName)
	if ctx == nil {
		return ""
	}
	return ctx.Context.ClusterURL
}

func mustClient() *gridstore.Client {
	if flagClusterURL == "" {
		fmt.Fprintln(os.Stderr, "Error: cluster URL not configured. Use --cluster-url, GRIDSCAN_CLUSTER_URL, or 'gridscan config set-context'")
		os.Exit(1)
	}

	log := logger.NewNop()
	if flagVerbose {
		log = logger.NewDevelopment()
	}

	client, err := gridstore.Connect(gridstore.ClientConfig{
		BaseURL: flagClusterURL,
		Logger:  log,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return client
}
