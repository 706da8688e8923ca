package main

import (
	"fmt"
	"strings"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/spf13/cobra"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/hook"
)

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage DLP jobs",
	}
	cmd.AddCommand(
		newJobsCreateCmd(a),
		newJobsGetCmd(a),
		newJobsListCmd(a),
		newJobsCancelCmd(a),
		newJobsDeleteCmd(a),
	)
	return cmd
}

func newJobsCreateCmd(a *app) *cobra.Command {
	var (
		jobID           string
		storageURL      string
		inspectTemplate string
		infoTypes       []string
		wait            bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start an inspect job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &dlppb.InspectJobConfig{InspectTemplateName: inspectTemplate}
			if storageURL != "" {
				cfg.StorageConfig = &dlppb.StorageConfig{
					Type: &dlppb.StorageConfig_CloudStorageOptions{
						CloudStorageOptions: &dlppb.CloudStorageOptions{
							FileSet: &dlppb.CloudStorageOptions_FileSet{Url: storageURL},
						},
					},
				}
			}
			if len(infoTypes) > 0 {
				cfg.InspectConfig = &dlppb.InspectConfig{InfoTypes: toInfoTypes(infoTypes)}
			}

			job, err := a.client().CreateDlpJob(cmd.Context(), a.project(), hook.JobSpec{
				InspectJob: cfg,
				JobID:      jobID,
			}, wait, a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().StringVar(&jobID, "job-id", "", "job id (generated when empty)")
	cmd.Flags().StringVar(&storageURL, "storage-url", "", "Cloud Storage URL to inspect, e.g. gs://bucket/*")
	cmd.Flags().StringVar(&inspectTemplate, "inspect-template", "", "full name of an inspect template")
	cmd.Flags().StringSliceVar(&infoTypes, "info-type", nil, "info type to look for (repeatable)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the job leaves PENDING")
	return cmd
}

func newJobsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB_ID",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.client().GetDlpJob(cmd.Context(), args[0], a.project(), a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
}

func newJobsListCmd(a *app) *cobra.Command {
	var (
		lo      hook.ListOptions
		jobType string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(jobType) {
			case "", "inspect":
				lo.JobType = dlppb.DlpJobType_INSPECT_JOB
			case "risk":
				lo.JobType = dlppb.DlpJobType_RISK_ANALYSIS_JOB
			default:
				return fmt.Errorf("unknown job type %q (want inspect or risk)", jobType)
			}
			jobs, err := a.client().ListDlpJobs(cmd.Context(), a.project(), lo, a.callOptions()...)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), jobs)
		},
	}
	addListFlags(cmd, &lo)
	cmd.Flags().StringVar(&lo.Filter, "filter", "", `filter such as "state=DONE"`)
	cmd.Flags().StringVar(&jobType, "type", "inspect", "job type: inspect or risk")
	return cmd
}

func newJobsCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel JOB_ID",
		Short: "Cancel a pending or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().CancelDlpJob(cmd.Context(), args[0], a.project(), a.callOptions()...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
			return nil
		},
	}
}

func newJobsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete JOB_ID",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteDlpJob(cmd.Context(), args[0], a.project(), a.callOptions()...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func addListFlags(cmd *cobra.Command, lo *hook.ListOptions) {
	cmd.Flags().Int32Var(&lo.PageSize, "page-size", 0, "page size used while listing")
	cmd.Flags().StringVar(&lo.OrderBy, "order-by", "", `order such as "create_time desc"`)
}

func toInfoTypes(names []string) []*dlppb.InfoType {
	out := make([]*dlppb.InfoType, 0, len(names))
	for _, n := range names {
		out = append(out, &dlppb.InfoType{Name: n})
	}
	return out
}
