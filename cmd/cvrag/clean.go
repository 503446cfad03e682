package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cvrag/internal/docio"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <ocr.json> <cleaned.json>",
	Short: "Normalize raw OCR output into cleaned, ordered pages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := docio.ReadRawPages(args[0])
		if err != nil {
			return err
		}

		pages := offlineService().CleanPages(raw)
		if err := docio.WriteCleanedPages(args[1], pages); err != nil {
			return err
		}

		kept := 0
		for _, p := range pages {
			kept += len(p.Lines)
		}
		fmt.Printf("cleaned %d pages, %d lines kept\n", len(pages), kept)
		return nil
	},
}
