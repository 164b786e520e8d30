package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-tracker/internal/claim"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>...",
	Short: "Classify one or more claim documents and print the results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

type classifyOutput struct {
	File          string        `json:"file"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	ExtractedData *claim.Result `json:"extractedData,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	failed := 0
	for _, path := range args {
		out := classifyOutput{File: path, Status: "success"}
		res, err := a.Processor.ProcessFile(ctx, path, filepath.Base(path))
		if err != nil {
			failed++
			out.Status = "error"
			out.Error = err.Error()
		} else {
			out.ExtractedData = &res.Claim.Result
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}
