package main

import (
	"strings"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/spf13/cobra"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/hook"
)

func textItem(args []string) *dlppb.ContentItem {
	return &dlppb.ContentItem{DataItem: &dlppb.ContentItem_Value{Value: strings.Join(args, " ")}}
}

func inspectConfig(infoTypes []string, includeQuote bool) *dlppb.InspectConfig {
	return &dlppb.InspectConfig{
		InfoTypes:    toInfoTypes(infoTypes),
		IncludeQuote: includeQuote,
	}
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		infoTypes    []string
		template     string
		includeQuote bool
	)
	cmd := &cobra.Command{
		Use:   "inspect TEXT...",
		Short: "Find sensitive data in text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client().InspectContent(cmd.Context(), a.project(), hook.InspectParams{
				InspectConfig:       inspectConfig(infoTypes, includeQuote),
				Item:                textItem(args),
				InspectTemplateName: template,
			}, a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringSliceVar(&infoTypes, "info-type", nil, "info type to look for (repeatable; all when empty)")
	cmd.Flags().StringVar(&template, "inspect-template", "", "full name of an inspect template")
	cmd.Flags().BoolVar(&includeQuote, "include-quote", true, "include the matched text in findings")
	return cmd
}

func newDeidentifyCmd(a *app) *cobra.Command {
	var (
		infoTypes          []string
		mask               string
		inspectTemplate    string
		deidentifyTemplate string
	)
	cmd := &cobra.Command{
		Use:   "deidentify TEXT...",
		Short: "Replace sensitive data in text",
		Long:  "Replace sensitive data in text. Findings are replaced with their info type unless --mask or a deidentify template says otherwise.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := hook.DeidentifyParams{
				InspectConfig:          inspectConfig(infoTypes, false),
				Item:                   textItem(args),
				InspectTemplateName:    inspectTemplate,
				DeidentifyTemplateName: deidentifyTemplate,
			}
			if mask != "" {
				params.DeidentifyConfig = &dlppb.DeidentifyConfig{
					Transformation: &dlppb.DeidentifyConfig_InfoTypeTransformations{
						InfoTypeTransformations: &dlppb.InfoTypeTransformations{
							Transformations: []*dlppb.InfoTypeTransformations_InfoTypeTransformation{{
								PrimitiveTransformation: &dlppb.PrimitiveTransformation{
									Transformation: &dlppb.PrimitiveTransformation_CharacterMaskConfig{
										CharacterMaskConfig: &dlppb.CharacterMaskConfig{MaskingCharacter: mask},
									},
								},
							}},
						},
					},
				}
			}
			resp, err := a.client().DeidentifyContent(cmd.Context(), a.project(), params, a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringSliceVar(&infoTypes, "info-type", nil, "info type to transform (repeatable; all when empty)")
	cmd.Flags().StringVar(&mask, "mask", "", "mask findings with this character instead of replacing them")
	cmd.Flags().StringVar(&inspectTemplate, "inspect-template", "", "full name of an inspect template")
	cmd.Flags().StringVar(&deidentifyTemplate, "deidentify-template", "", "full name of a deidentify template")
	return cmd
}

func newInfoTypesCmd(a *app) *cobra.Command {
	var language, filter string
	cmd := &cobra.Command{
		Use:   "info-types",
		Short: "List the built-in info types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.client().ListInfoTypes(cmd.Context(), language, filter, a.callOptions()...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "BCP-47 language code for display names")
	cmd.Flags().StringVar(&filter, "filter", "", `filter such as "supported_by=INSPECT"`)
	return cmd
}
