package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridstore/client-go/pkg/domain/scanjob"
)

var flagInfoTimeout time.Duration

var infoCmd = &cobra.Command{
	Use:   "info JOB_ID",
	Short: "Show the status of a background scan job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := scanjob.ParseHandle(args[0])
		if err != nil {
			return err
		}

		var policy *scanjob.InfoPolicyConfig
		if flagInfoTimeout > 0 {
			policy = &scanjob.InfoPolicyConfig{Timeout: &flagInfoTimeout}
		}

		client := mustClient()
		defer client.Close()

		rec, err := client.ScanInfo(context.Background(), handle, policy)
		if err != nil {
			return err
		}
		return printStatus(handle, rec)
	},
}

func init() {
	infoCmd.Flags().DurationVar(&flagInfoTimeout, "timeout", 0, "Status query timeout (0 uses the cluster default)")
}
