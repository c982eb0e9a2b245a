package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	queryAgent  string
	queryAsJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a single query through the agent platform",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := buildPlatform()
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()

		res := p.dispatcher.Process(context.Background(), args[0], queryAgent, nil)

		if queryAsJSON {
			out, _ := json.MarshalIndent(res, "", "  ")
			fmt.Println(string(out))
		} else if res.Success {
			fmt.Printf("[%s] %s\n\n%s\n", res.AgentName, res.TaskID, res.Result)
		} else {
			fmt.Printf("Query failed: %s\n", res.Error)
		}

		if !res.Success {
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryAgent, "agent", "A", "auto", "Agent type (auto routes by keywords)")
	queryCmd.Flags().BoolVar(&queryAsJSON, "json-output", false, "Print the full result as JSON")
}
