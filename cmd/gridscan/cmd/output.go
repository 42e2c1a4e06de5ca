package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gridstore/client-go/pkg/domain/scanjob"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStatus(handle scanjob.Handle, rec scanjob.StatusRecord) error {
	if flagOutput == "json" {
		return printJSON(map[string]any{
			"job_id":          handle,
			"progress_pct":    rec.ProgressPct,
			"records_scanned": rec.RecordsScanned,
			"status":          rec.Status.String(),
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tSTATUS\tPROGRESS\tRECORDS")
	fmt.Fprintf(w, "%s\t%s\t%d%%\t%d\n", handle, rec.Status, rec.ProgressPct, rec.RecordsScanned)
	return w.Flush()
}
