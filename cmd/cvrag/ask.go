package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>...",
	Short: "Answer a question against the indexed CVs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		question := strings.Join(args, " ")
		answers, err := svc.Ask(ctx, question)
		if err != nil {
			return err
		}

		for _, a := range answers {
			if a.Err != nil {
				fmt.Printf("%s: ERROR: %v\n", a.DocID, a.Err)
				continue
			}
			if a.DocID == "" {
				fmt.Println(a.Answer)
				continue
			}
			fmt.Printf("%s: %s\n", a.DocID, a.Answer)
		}
		return nil
	},
}
