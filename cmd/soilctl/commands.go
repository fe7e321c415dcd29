package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

func newSweepCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one connectivity check over every node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			report, err := svc.Iot.Connectivity.CheckConnectivity(time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "checked %d nodes\n", report.Checked)
			fmt.Fprintf(out, "went offline: %s\n", joinOrNone(report.WentOffline))
			fmt.Fprintf(out, "came online: %s\n", joinOrNone(report.CameOnline))
			return nil
		},
	}
}

func newAlertsCmd(c *cli) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "alerts [node-id]",
		Short: "Show alerts of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			alerts, err := svc.Iot.Alert.GetNodeAlerts(args[0], models.AlertStatus(status))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tSTATUS\tCREATED\tMESSAGE")
			fmt.Fprintln(w, "--\t----\t--------\t------\t-------\t-------")
			for _, a := range alerts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.AlertType, a.Severity, a.Status, a.CreatedAt.Format(time.RFC3339), a.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only alerts with this status (active or resolved)")
	return cmd
}

func newAssignCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "assign [node-id] [crop]",
		Short: "Assign a crop to a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			assignment, err := svc.Iot.Profile.AssignCrop(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "node %s now grows %s (%d profile thresholds)\n",
				assignment.NodeID, assignment.CropID, len(assignment.Thresholds.Keys()))
			return nil
		},
	}
}

func newUploadCmd(c *cli) *cobra.Command {
	var crop, name, description string
	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Index a document and extract crop thresholds from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			filename := filepath.Base(args[0])
			if name == "" {
				name = strings.TrimSuffix(filename, filepath.Ext(filename))
			}

			result, err := svc.Uploader.Upload(cmd.Context(), knowledge.UploadRequest{
				DocumentName: name,
				CropType:     crop,
				Description:  description,
				Filename:     filename,
				ContentType:  mime.TypeByExtension(filepath.Ext(filename)),
				Data:         data,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "uploaded %s for %s: %d chunks\n", result.DocumentName, result.CropID, result.Chunks)
			if result.Extraction.Failure != "" {
				fmt.Fprintf(out, "threshold extraction failed (%s): %s\n", result.Extraction.Failure, result.Extraction.Message)
			}
			fmt.Fprintf(out, "thresholds: %s\n", joinOrNone(result.Thresholds.Keys()))
			return nil
		},
	}
	cmd.Flags().StringVar(&crop, "crop", "", "Crop the document is about")
	cmd.Flags().StringVar(&name, "name", "", "Document name, defaults to the file name")
	cmd.Flags().StringVar(&description, "description", "", "Crop description")
	_ = cmd.MarkFlagRequired("crop")
	return cmd
}

func newDocumentsCmd(c *cli) *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage indexed documents",
	}

	documentsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			docs, err := svc.Index.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCROP\tCHUNKS")
			fmt.Fprintln(w, "----\t----\t------")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%d\n", d.Name, d.CropType, d.Chunks)
			}
			return w.Flush()
		},
	})

	documentsCmd.AddCommand(&cobra.Command{
		Use:   "delete [name]",
		Short: "Remove a document from the index and the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			result, err := svc.Uploader.DeleteDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s: %d chunks removed\n", result.DocumentName, result.ChunksRemoved)
			return nil
		},
	})

	return documentsCmd
}

func newSearchCmd(c *cli) *cobra.Command {
	var crop string
	var n int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			results, err := svc.Index.Search(cmd.Context(), strings.Join(args, " "), n, crop)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, r := range results {
				fmt.Fprintf(out, "%d. %s [%s] distance=%.3f\n", i+1, r.Metadata.DocumentName, r.Metadata.CropType, r.Distance)
				fmt.Fprintf(out, "   %s\n", snippet(r.Text, 30))
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&crop, "crop", "", "Limit results to a crop and general knowledge")
	cmd.Flags().IntVarP(&n, "limit", "n", knowledge.DefaultSearchResults, "Number of results")
	return cmd
}

func newCropsCmd(c *cli) *cobra.Command {
	cropsCmd := &cobra.Command{
		Use:   "crops",
		Short: "Manage crop profiles",
	}

	cropsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List crop profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			profiles, err := svc.Iot.Profile.ListCropProfiles()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CROP\tNAME\tDOCUMENTS\tTHRESHOLDS")
			fmt.Fprintln(w, "----\t----\t---------\t----------")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.CropID, p.CropName, p.DocumentCount, joinOrNone(p.Thresholds.Keys()))
			}
			return w.Flush()
		},
	})

	cropsCmd.AddCommand(&cobra.Command{
		Use:   "show [crop]",
		Short: "Show the resolved thresholds of a crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			set, provenance := svc.Iot.Threshold.Resolve(args[0])

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "crop\t%s\n", models.NormalizeCropID(args[0]))
			fmt.Fprintf(w, "source\t%s\n", provenance)
			fmt.Fprintf(w, "moisture\t%g - %g %%\n", set.MoistureMin, set.MoistureMax)
			fmt.Fprintf(w, "ph\t%g - %g\n", set.PhMin, set.PhMax)
			fmt.Fprintf(w, "temperature\t%g - %g C\n", set.TempMin, set.TempMax)
			fmt.Fprintf(w, "battery\t>= %g %%\n", set.BatteryMin)
			return w.Flush()
		},
	})

	cropsCmd.AddCommand(&cobra.Command{
		Use:   "delete [crop]",
		Short: "Delete a crop profile and its cached thresholds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.Iot.Profile.DeleteCropProfile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted crop %s\n", models.NormalizeCropID(args[0]))
			return nil
		},
	})

	return cropsCmd
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func snippet(text string, words int) string {
	s, _ := knowledge.TruncateWords(text, words)
	return s
}
