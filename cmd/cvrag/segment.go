package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cvrag/internal/docio"
)

var segmentDocID string

var segmentCmd = &cobra.Command{
	Use:   "segment <cleaned.json> <blocks.json>",
	Short: "Merge cleaned pages into retrieval blocks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if segmentDocID == "" {
			return fmt.Errorf("--doc-id is required")
		}

		pages, err := docio.ReadCleanedPages(args[0])
		if err != nil {
			return err
		}

		blocks := offlineService().Segment(pages, segmentDocID)
		if err := docio.WriteBlocks(args[1], blocks); err != nil {
			return err
		}

		fmt.Printf("segmented %d pages into %d blocks\n", len(pages), len(blocks))
		return nil
	},
}

func init() {
	segmentCmd.Flags().StringVar(&segmentDocID, "doc-id", "", "document id for the CV (e.g. cv_jean)")
}
