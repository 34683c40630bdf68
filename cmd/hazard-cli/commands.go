package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"hazard-report/internal/adapters/store/sqlite"
	"hazard-report/internal/services/webapp"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded SQLite migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := sqlite.Open(ctx, opts.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			versions, err := sqlite.NewMigrator(db).Versions(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrate completed")
			fmt.Fprintf(cmd.OutOrStdout(), "db=%s\n", opts.cfg.DBPath)
			fmt.Fprintf(cmd.OutOrStdout(), "versions=%v\n", versions)
			return nil
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the submission form and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, opts, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if cmd.Flags().Changed("listen") {
				rt.cfg.ListenAddr = listen
			}
			loc, err := rt.cfg.Location()
			if err != nil {
				return err
			}
			p := rt.attachments.Policy()
			srv, err := webapp.New(rt.ctrl, rt.attachments, webapp.Options{
				ListenAddr:        rt.cfg.ListenAddr,
				MaxUploadBytes:    p.MaxBytes,
				AllowedExtensions: p.AllowedExtensions,
				Location:          loc,
			}, rt.log)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8080", "listen address")
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports",
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
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(reports)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tINCIDENT\tTYPE\tLOCATION\tATTACHMENT")
			for _, r := range reports {
				att := "-"
				if r.Attachment != nil {
					att = r.Attachment.Filename
				}
				fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%s\t%s\n",
					r.ID, r.Status, r.Fields.Date, r.Fields.Time, r.Fields.ReportType, r.Fields.Location, att)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}
