package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cvrag/internal/docio"
	"cvrag/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <ocr.json>...",
	Short: "Run OCR documents through clean, segment and index",
	Long: `Ingest runs each OCR document through the full pipeline and upserts its
blocks into the vector index. The document id is the file name without
extension. Re-ingesting an unchanged document adds nothing; only new or
changed blocks are embedded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		docs := make([]pipeline.Document, 0, len(args))
		for _, path := range args {
			pages, err := docio.ReadRawPages(path)
			if err != nil {
				return err
			}
			docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			docs = append(docs, pipeline.Document{DocID: docID, Pages: pages})
		}

		results := svc.IngestBatch(ctx, docs, cfg.Pipeline.IngestWorkers)

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Printf("%s: FAILED: %v\n", r.DocID, r.Err)
				continue
			}
			fmt.Printf("%s: %d added, %d skipped, %d failed\n",
				r.DocID, r.Report.Added, r.Report.Skipped, r.Report.Failed)
			failed += r.Report.Failed
		}
		if failed > 0 {
			return fmt.Errorf("%d blocks or documents failed", failed)
		}
		return nil
	},
}
