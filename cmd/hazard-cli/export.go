package main

import (
	"bytes"
	"fmt"
	"os"

	"hazard-report/internal/services/export"

	"github.com/spf13/cobra"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the report register",
	}

	var out string
	var masked bool

	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write all reports as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.ctrl.ExportAll(cmd.Context())
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := export.WriteCSV(w, snap); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}

	pdfCmd := &cobra.Command{
		Use:   "pdf",
		Short: "Write the report register as PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			reports, err := rt.ctrl.ListReports(cmd.Context())
			if err != nil {
				return err
			}
			loc, err := rt.cfg.Location()
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			utf8OK, err := export.WritePDF(w, reports, export.PDFOptions{MaskPersonal: masked, Location: loc})
			if err != nil {
				_ = closeFn()
				return err
			}
			if !utf8OK {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: no utf-8 font found (set %s); non-ascii text replaced\n", export.FontEnv)
			}
			return closeFn()
		},
	}

	zipCmd := &cobra.Command{
		Use:   "zip",
		Short: "Write an archive with register, ledger, attachments and hash list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" || out == "-" {
				return fmt.Errorf("--out is required for zip export")
			}
			rt, err := openRuntime(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			loc, err := rt.cfg.Location()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			manifest, err := export.WriteArchive(cmd.Context(), &buf, rt.store, export.ArchiveOptions{
				LedgerPath: rt.cfg.LedgerPath,
				PDF:        export.PDFOptions{MaskPersonal: masked, Location: loc},
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "archive export completed")
			fmt.Fprintf(cmd.OutOrStdout(), "zip=%s\n", out)
			fmt.Fprintf(cmd.OutOrStdout(), "reports=%d files=%d\n", len(manifest.Reports), len(manifest.Files))
			for _, w := range manifest.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			return nil
		},
	}

	for _, c := range []*cobra.Command{csvCmd, pdfCmd, zipCmd} {
		c.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout; required for zip)")
	}
	for _, c := range []*cobra.Command{pdfCmd, zipCmd} {
		c.Flags().BoolVar(&masked, "masked", false, "mask names and contact details")
	}
	cmd.AddCommand(csvCmd, pdfCmd, zipCmd)
	return cmd
}
