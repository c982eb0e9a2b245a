package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [glob]",
	Short: "Index files matching a glob pattern",
	Long: `Index files into the knowledge base. Patterns support doublestar
globs, e.g. "docs/**/*.md".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := buildPlatform()
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()

		matches, err := doublestar.FilepathGlob(args[0])
		if err != nil {
			fmt.Printf("Invalid pattern: %v\n", err)
			os.Exit(1)
		}
		if len(matches) == 0 {
			fmt.Println("No files matched.")
			return
		}

		added := 0
		for _, path := range matches {
			if v := p.guard.CheckFile(path); v != nil {
				fmt.Printf("skip %s: %s\n", path, v.Message)
				continue
			}
			content, err := os.ReadFile(path) // #nosec G304
			if err != nil {
				fmt.Printf("skip %s: %v\n", path, err)
				continue
			}
			if _, err := p.kb.AddDocument(context.Background(), string(content), filepath.ToSlash(path), nil); err != nil {
				fmt.Printf("skip %s: %v\n", path, err)
				continue
			}
			added++
		}

		fmt.Printf("Indexed %d of %d files.\n", added, len(matches))
	},
}

var kbSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := buildPlatform()
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()

		results, err := p.kb.Search(context.Background(), args[0], 5)
		if err != nil {
			fmt.Printf("Search failed: %v\n", err)
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return
		}
		for i, r := range results {
			snippet := r.Content
			if len(snippet) > 200 {
				snippet = snippet[:200] + "..."
			}
			fmt.Printf("%d. %s (score %.3f)\n   %s\n", i+1, r.Source, r.Score, snippet)
		}
	},
}

var kbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base status",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := buildPlatform()
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()

		st := p.kb.Status()
		fmt.Printf("Collection: %s\nDocuments:  %d\n", st.CollectionName, st.DocumentCount)
	},
}

func init() {
	RootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(ingestCmd)
	kbCmd.AddCommand(kbSearchCmd)
	kbCmd.AddCommand(kbStatusCmd)
}
