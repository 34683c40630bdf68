package main

import (
	"fmt"
	"os"

	"hazard-report/internal/services/export"
	"hazard-report/internal/services/reconcile"

	"github.com/spf13/cobra"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reconcile the ledger with the store, or check an archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := reconcile.Run(cmd.Context(), rt.cfg.LedgerPath, rt.store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "reconcile completed")
			fmt.Fprintf(out, "ledger=%d store=%d failed=%d\n", res.LedgerTotal, res.StoreTotal, res.Failed)
			if res.OK {
				return nil
			}
			fmt.Fprintf(out, "missing_in_store=%d missing_in_ledger=%d field_mismatch=%d attachment_mismatch=%d\n",
				res.MissingInStore, res.MissingInLedger, res.FieldMismatch, res.AttachmentMismatch)
			for _, f := range res.Failures {
				fmt.Fprintf(out, "FAIL %s submission_id=%s report_id=%d ledger_index=%d message=%s\n",
					f.Kind, f.SubmissionID, f.ReportID, f.LedgerIndex, f.Message)
			}
			return fmt.Errorf("reconcile failed: %d problems", res.Failed)
		},
	}

	archiveCmd := &cobra.Command{
		Use:   "archive PATH",
		Short: "Check every file of an archive against its hashes.sha256",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer f.Close()
			fi, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat archive: %w", err)
			}

			check, err := export.VerifyArchive(f, fi.Size())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "archive verify completed")
			fmt.Fprintf(out, "zip=%s\n", args[0])
			fmt.Fprintf(out, "files_total=%d ok=%d failed=%d\n", check.Total, check.OK, check.Failed)
			if check.Failed == 0 {
				return nil
			}
			for _, it := range check.Items {
				if it.Status == "ok" {
					continue
				}
				fmt.Fprintf(out, "FAIL %s status=%s expected=%s actual=%s %s\n", it.Path, it.Status, it.Expected, it.Actual, it.Error)
			}
			return fmt.Errorf("archive verify failed: %d files mismatch/missing", check.Failed)
		},
	}
	cmd.AddCommand(archiveCmd)
	return cmd
}
