package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gridstore/client-go/pkg/domain/scanjob"
)

var flagWatchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch JOB_ID...",
	Short: "Poll background scan jobs until they finish",
	Long: `Poll one or more background scan jobs until each reaches a terminal
status (SUCCEEDED or FAILED), then print the final status of each.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handles := make([]scanjob.Handle, 0, len(args))
		for _, arg := range args {
			h, err := scanjob.ParseHandle(arg)
			if err != nil {
				return err
			}
			handles = append(handles, h)
		}

		client := mustClient()
		defer client.Close()

		g, ctx := errgroup.WithContext(cmd.Context())
		for _, handle := range handles {
			handle := handle
			g.Go(func() error {
				rec, err := client.Wait(ctx, handle, flagWatchInterval, nil)
				if err != nil {
					return fmt.Errorf("job %s: %w", handle, err)
				}
				return printStatus(handle, rec)
			})
		}
		return g.Wait()
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 2*time.Second, "Polling interval")
}
