package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridstore/client-go/pkg/domain/scanjob"
)

var (
	flagArgs    string
	flagPolicy  []string
	flagOptions []string
)

var applyCmd = &cobra.Command{
	Use:   "apply NAMESPACE SET MODULE FUNCTION",
	Short: "Submit a background scan-apply job",
	Long: `Submit a background job that applies MODULE.FUNCTION to every record
in NAMESPACE/SET and print the cluster-assigned job id.

Examples:
  gridscan apply test demo mymodule myfunc --args '[1,"a",3.5]'
  gridscan apply test demo mymodule myfunc --args '[]' --policy max_retries=2 --option percent=10`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, set, module, function := args[0], args[1], args[2], args[3]

		var udfArgs []any
		if err := json.Unmarshal([]byte(flagArgs), &udfArgs); err != nil {
			return fmt.Errorf("--args must be a JSON array: %w", err)
		}

		policyCfg, err := scanPolicyFromFlags(flagPolicy)
		if err != nil {
			return err
		}
		optionsCfg, err := scanOptionsFromFlags(flagOptions)
		if err != nil {
			return err
		}

		client := mustClient()
		defer client.Close()

		handle, err := client.ScanApply(context.Background(), namespace, set, module, function, udfArgs, policyCfg, optionsCfg)
		if err != nil {
			return err
		}

		if flagOutput == "json" {
			return printJSON(map[string]any{"job_id": handle})
		}
		fmt.Printf("Job %s submitted.\n", handle)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&flagArgs, "args", "[]", "UDF arguments as a JSON array")
	applyCmd.Flags().StringArrayVar(&flagPolicy, "policy", nil, "Scan policy field as key=value (repeatable)")
	applyCmd.Flags().StringArrayVar(&flagOptions, "option", nil, "Scan option as key=value (repeatable)")
}

func scanPolicyFromFlags(pairs []string) (*scanjob.ScanPolicyConfig, error) {
	m, err := keyValueMap(pairs)
	if err != nil {
		return nil, err
	}
	return scanjob.ScanPolicyConfigFromMap(m)
}

func scanOptionsFromFlags(pairs []string) (*scanjob.ScanOptionsConfig, error) {
	m, err := keyValueMap(pairs)
	if err != nil {
		return nil, err
	}
	return scanjob.ScanOptionsConfigFromMap(m)
}

// keyValueMap parses repeated key=value flags. Values that parse as JSON
// scalars keep their type; everything else stays a string.
func keyValueMap(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		m[key] = parsed
	}
	return m, nil
}
