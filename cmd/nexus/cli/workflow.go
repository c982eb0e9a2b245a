package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexus/internal/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow [file]",
	Short: "Run a multi-agent workflow from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		def, err := workflow.Load(args[0])
		if err != nil {
			fmt.Printf("Failed to load workflow: %v\n", err)
			os.Exit(1)
		}

		if v := workflow.Validate(*def); !v.Valid {
			fmt.Println("Workflow is invalid:")
			for _, e := range v.Errors {
				fmt.Printf("  error: %s\n", e)
			}
			os.Exit(1)
		} else {
			for _, warn := range v.Warnings {
				fmt.Printf("warning: %s\n", warn)
			}
		}

		p, err := buildPlatform()
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()

		res, err := p.runner.Run(context.Background(), *def)
		if err != nil {
			fmt.Printf("Workflow failed: %v\n", err)
			os.Exit(1)
		}

		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
		if !res.Success {
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(workflowCmd)
}
