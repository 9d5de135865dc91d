package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/stereocal/internal/calibdb"
	"github.com/banshee-data/stereocal/internal/fsutil"
)

func (a *app) openDB() (*calibdb.DB, error) {
	db, err := calibdb.Open(a.settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.settings.DatabasePath, err)
	}
	return db, nil
}

func newRecordCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store the current calibration in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadValidModel()
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rec, err := db.RecordCalibration(cmd.Context(), m, method)
			if err != nil {
				return err
			}
			cmd.Printf("Recorded calibration %s for %s (baseline %.4f m)\n",
				rec.CalibrationID, rec.CameraName, rec.BaselineMeters)
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "how the calibration was produced")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		all     bool
		restore string
		outDir  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded calibrations, newest first",
		Long: `List recorded calibrations, newest first. With --restore <id> the
recorded calibration is written back as calibration files to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			name := a.settings.CameraName
			if all {
				name = ""
			}
			records, err := db.ListCalibrations(cmd.Context(), name)
			if err != nil {
				return err
			}

			if restore != "" {
				for _, rec := range records {
					if rec.CalibrationID != restore {
						continue
					}
					m, err := rec.Model()
					if err != nil {
						return err
					}
					if err := (fsutil.OSFileSystem{}).MkdirAll(outDir, 0755); err != nil {
						return fmt.Errorf("create output directory: %w", err)
					}
					if err := m.Save(outDir, !rec.HasExtrinsics()); err != nil {
						return fmt.Errorf("restore %s: %w", restore, err)
					}
					cmd.Printf("Restored %s to %s\n", restore, outDir)
					return nil
				}
				return fmt.Errorf("calibration %s not found", restore)
			}

			if len(records) == 0 {
				cmd.Println("No calibrations recorded.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCAMERA\tRECORDED\tMETHOD\tBASELINE_M\tFX_PX\tEXTRINSICS")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%.2f\t%t\n",
					rec.CalibrationID, rec.CameraName, rec.RecordedAt.Format("2006-01-02T15:04:05Z"),
					rec.Method, rec.BaselineMeters, rec.FxPixels, rec.HasExtrinsics())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every camera, not just --name")
	cmd.Flags().StringVar(&restore, "restore", "", "calibration ID to write back as files")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for --restore")
	return cmd
}
