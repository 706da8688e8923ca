package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/hook"
)

func newTemplatesCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage inspect and deidentify templates",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if kind != "inspect" && kind != "deidentify" {
				return fmt.Errorf("unknown template kind %q (want inspect or deidentify)", kind)
			}
			return cmd.Root().PersistentPreRunE(cmd, args)
		},
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", "inspect", "template kind: inspect or deidentify")

	var lo hook.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, h := cmd.Context(), a.client()
			if kind == "deidentify" {
				items, err := h.ListDeidentifyTemplates(ctx, a.parent(), lo, a.callOptions()...)
				if err != nil {
					return err
				}
				return printList(cmd.OutOrStdout(), items)
			}
			items, err := h.ListInspectTemplates(ctx, a.parent(), lo, a.callOptions()...)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), items)
		},
	}
	addListFlags(list, &lo)

	get := &cobra.Command{
		Use:   "get TEMPLATE_ID",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, h := cmd.Context(), a.client()
			if kind == "deidentify" {
				tmpl, err := h.GetDeidentifyTemplate(ctx, args[0], a.parent(), a.callOptions()...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tmpl)
			}
			tmpl, err := h.GetInspectTemplate(ctx, args[0], a.parent(), a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tmpl)
		},
	}

	del := &cobra.Command{
		Use:   "delete TEMPLATE_ID",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, h := cmd.Context(), a.client()
			var err error
			if kind == "deidentify" {
				err = h.DeleteDeidentifyTemplate(ctx, args[0], a.parent(), a.callOptions()...)
			} else {
				err = h.DeleteInspectTemplate(ctx, args[0], a.parent(), a.callOptions()...)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s template %s\n", kind, args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}

func newTriggersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Manage job triggers",
	}

	var lo hook.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List job triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client().ListJobTriggers(cmd.Context(), a.project(), lo, a.callOptions()...)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), items)
		},
	}
	addListFlags(list, &lo)
	list.Flags().StringVar(&lo.Filter, "filter", "", `filter such as "status=PAUSED"`)

	get := &cobra.Command{
		Use:   "get TRIGGER_ID",
		Short: "Show a job trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trigger, err := a.client().GetJobTrigger(cmd.Context(), args[0], a.project(), a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), trigger)
		},
	}

	del := &cobra.Command{
		Use:   "delete TRIGGER_ID",
		Short: "Delete a job trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteJobTrigger(cmd.Context(), args[0], a.project(), a.callOptions()...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted trigger %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}

func newStoredInfoTypesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stored-info-types",
		Short: "Manage stored info types",
	}

	var lo hook.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored info types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client().ListStoredInfoTypes(cmd.Context(), a.parent(), lo, a.callOptions()...)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), items)
		},
	}
	addListFlags(list, &lo)

	get := &cobra.Command{
		Use:   "get STORED_INFO_TYPE_ID",
		Short: "Show a stored info type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sit, err := a.client().GetStoredInfoType(cmd.Context(), args[0], a.parent(), a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sit)
		},
	}

	del := &cobra.Command{
		Use:   "delete STORED_INFO_TYPE_ID",
		Short: "Delete a stored info type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteStoredInfoType(cmd.Context(), args[0], a.parent(), a.callOptions()...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted stored info type %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}
