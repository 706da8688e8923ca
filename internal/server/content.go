package server

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/detect"
)

// segment is one scannable piece of text inside a content item.
type segment struct {
	text     string
	location *dlppb.ContentLocation
	set      func(string)
}

// segments splits item into text segments. Writing through a segment
// updates item in place.
func segments(item *dlppb.ContentItem) ([]segment, error) {
	switch d := item.GetDataItem().(type) {
	case *dlppb.ContentItem_Value:
		return []segment{{
			text: d.Value,
			set:  func(s string) { d.Value = s },
		}}, nil
	case *dlppb.ContentItem_ByteItem:
		if t := d.ByteItem.GetType(); t != dlppb.ByteContentItem_TEXT_UTF8 && t != dlppb.ByteContentItem_BYTES_TYPE_UNSPECIFIED {
			return nil, status.Errorf(codes.Unimplemented, "byte items of type %s are not supported", t)
		}
		return []segment{{
			text: string(d.ByteItem.GetData()),
			set:  func(s string) { d.ByteItem.Data = []byte(s) },
		}}, nil
	case *dlppb.ContentItem_Table:
		var out []segment
		headers := d.Table.GetHeaders()
		for r, row := range d.Table.GetRows() {
			for c, v := range row.GetValues() {
				loc := &dlppb.RecordLocation{TableLocation: &dlppb.TableLocation{RowIndex: int64(r)}}
				if c < len(headers) {
					loc.FieldId = headers[c]
				}
				values := row.Values
				out = append(out, segment{
					text:     valueString(v),
					location: &dlppb.ContentLocation{Location: &dlppb.ContentLocation_RecordLocation{RecordLocation: loc}},
					set: func(s string) {
						values[c] = &dlppb.Value{Type: &dlppb.Value_StringValue{StringValue: s}}
					},
				})
			}
		}
		return out, nil
	default:
		return nil, status.Error(codes.InvalidArgument, "item is required")
	}
}

func valueString(v *dlppb.Value) string {
	switch t := v.GetType().(type) {
	case *dlppb.Value_StringValue:
		return t.StringValue
	case *dlppb.Value_IntegerValue:
		return strconv.FormatInt(t.IntegerValue, 10)
	case *dlppb.Value_FloatValue:
		return strconv.FormatFloat(t.FloatValue, 'g', -1, 64)
	case *dlppb.Value_BooleanValue:
		return strconv.FormatBool(t.BooleanValue)
	default:
		return ""
	}
}

// inspectConfig merges the request config over the named template.
func (s *DlpServer) inspectConfig(cfg *dlppb.InspectConfig, templateName string) (*dlppb.InspectConfig, error) {
	merged := &dlppb.InspectConfig{}
	if templateName != "" {
		tmpl, err := s.store.InspectTemplates.Get(templateName)
		if err != nil {
			return nil, storeError(err)
		}
		if tmpl.GetInspectConfig() != nil {
			merged = tmpl.GetInspectConfig()
		}
	}
	if cfg != nil {
		overlay(merged, cfg)
	}
	return merged, nil
}

func scan(text string, cfg *dlppb.InspectConfig) []detect.Finding {
	names := make([]string, 0, len(cfg.GetInfoTypes()))
	for _, it := range cfg.GetInfoTypes() {
		names = append(names, it.GetName())
	}
	return detect.Scan(text, names, cfg.GetMinLikelihood())
}

func findingLimit(cfg *dlppb.InspectConfig) int {
	limit := 0
	for _, n := range []int32{cfg.GetLimits().GetMaxFindingsPerItem(), cfg.GetLimits().GetMaxFindingsPerRequest()} {
		if n > 0 && (limit == 0 || int(n) < limit) {
			limit = int(n)
		}
	}
	return limit
}

func (s *DlpServer) InspectContent(ctx context.Context, req *dlppb.InspectContentRequest) (*dlppb.InspectContentResponse, error) {
	if err := checkParent(req.GetParent(), true); err != nil {
		return nil, err
	}
	cfg, err := s.inspectConfig(req.GetInspectConfig(), req.GetInspectTemplateName())
	if err != nil {
		return nil, err
	}
	segs, err := segments(req.GetItem())
	if err != nil {
		return nil, err
	}

	result := &dlppb.InspectResult{}
	limit := findingLimit(cfg)
	now := timestamppb.Now()
	for _, seg := range segs {
		for _, f := range scan(seg.text, cfg) {
			if limit > 0 && len(result.Findings) == limit {
				result.FindingsTruncated = true
				return &dlppb.InspectContentResponse{Result: result}, nil
			}
			start, end := f.CodepointRange(seg.text)
			finding := &dlppb.Finding{
				InfoType:   &dlppb.InfoType{Name: f.InfoType},
				Likelihood: f.Likelihood,
				Location: &dlppb.Location{
					ByteRange:      &dlppb.Range{Start: int64(f.Start), End: int64(f.End)},
					CodepointRange: &dlppb.Range{Start: int64(start), End: int64(end)},
				},
				CreateTime: now,
			}
			if seg.location != nil {
				finding.Location.ContentLocations = []*dlppb.ContentLocation{seg.location}
			}
			if cfg.GetIncludeQuote() {
				finding.Quote = f.Quote
			}
			result.Findings = append(result.Findings, finding)
		}
	}
	return &dlppb.InspectContentResponse{Result: result}, nil
}

// deidentifyConfig returns the request config, the named template's, or
// a config replacing every finding with its info type.
func (s *DlpServer) deidentifyConfig(cfg *dlppb.DeidentifyConfig, templateName string) (*dlppb.DeidentifyConfig, error) {
	if cfg == nil && templateName != "" {
		tmpl, err := s.store.DeidentifyTemplates.Get(templateName)
		if err != nil {
			return nil, storeError(err)
		}
		cfg = tmpl.GetDeidentifyConfig()
	}
	if cfg == nil {
		return &dlppb.DeidentifyConfig{
			Transformation: &dlppb.DeidentifyConfig_InfoTypeTransformations{
				InfoTypeTransformations: &dlppb.InfoTypeTransformations{
					Transformations: []*dlppb.InfoTypeTransformations_InfoTypeTransformation{{
						PrimitiveTransformation: &dlppb.PrimitiveTransformation{
							Transformation: &dlppb.PrimitiveTransformation_ReplaceWithInfoTypeConfig{
								ReplaceWithInfoTypeConfig: &dlppb.ReplaceWithInfoTypeConfig{},
							},
						},
					}},
				},
			},
		}, nil
	}
	if cfg.GetInfoTypeTransformations() == nil {
		return nil, status.Error(codes.Unimplemented, "only info type transformations are supported")
	}
	return cfg, nil
}

// transformationFor picks the first transformation that applies to infoType.
// Transformations without info types apply to all of them.
func transformationFor(cfg *dlppb.DeidentifyConfig, infoType string) *dlppb.PrimitiveTransformation {
	for _, t := range cfg.GetInfoTypeTransformations().GetTransformations() {
		if len(t.GetInfoTypes()) == 0 {
			return t.GetPrimitiveTransformation()
		}
		for _, it := range t.GetInfoTypes() {
			if it.GetName() == infoType {
				return t.GetPrimitiveTransformation()
			}
		}
	}
	return nil
}

func transform(pt *dlppb.PrimitiveTransformation, f detect.Finding) (string, error) {
	switch t := pt.GetTransformation().(type) {
	case *dlppb.PrimitiveTransformation_ReplaceWithInfoTypeConfig:
		return "[" + f.InfoType + "]", nil
	case *dlppb.PrimitiveTransformation_ReplaceConfig:
		return valueString(t.ReplaceConfig.GetNewValue()), nil
	case *dlppb.PrimitiveTransformation_RedactConfig:
		return "", nil
	case *dlppb.PrimitiveTransformation_CharacterMaskConfig:
		cfg := t.CharacterMaskConfig
		mask := '*'
		if m := []rune(cfg.GetMaskingCharacter()); len(m) > 0 {
			mask = m[0]
		}
		return detect.Mask(f.Quote, mask, int(cfg.GetNumberToMask()), cfg.GetReverseOrder(), ignored(cfg.GetCharactersToIgnore())), nil
	default:
		return "", status.Errorf(codes.Unimplemented, "transformation %T is not supported", t)
	}
}

func ignored(chars []*dlppb.CharsToIgnore) func(rune) bool {
	if len(chars) == 0 {
		return nil
	}
	return func(r rune) bool {
		for _, c := range chars {
			if skip := c.GetCharactersToSkip(); skip != "" && strings.ContainsRune(skip, r) {
				return true
			}
			switch c.GetCommonCharactersToIgnore() {
			case dlppb.CharsToIgnore_NUMERIC:
				if unicode.IsDigit(r) {
					return true
				}
			case dlppb.CharsToIgnore_ALPHA_UPPER_CASE:
				if unicode.IsUpper(r) {
					return true
				}
			case dlppb.CharsToIgnore_ALPHA_LOWER_CASE:
				if unicode.IsLower(r) {
					return true
				}
			case dlppb.CharsToIgnore_PUNCTUATION:
				if unicode.IsPunct(r) {
					return true
				}
			case dlppb.CharsToIgnore_WHITESPACE:
				if unicode.IsSpace(r) {
					return true
				}
			}
		}
		return false
	}
}

func (s *DlpServer) DeidentifyContent(ctx context.Context, req *dlppb.DeidentifyContentRequest) (*dlppb.DeidentifyContentResponse, error) {
	if err := checkParent(req.GetParent(), true); err != nil {
		return nil, err
	}
	inspectCfg, err := s.inspectConfig(req.GetInspectConfig(), req.GetInspectTemplateName())
	if err != nil {
		return nil, err
	}
	deidCfg, err := s.deidentifyConfig(req.GetDeidentifyConfig(), req.GetDeidentifyTemplateName())
	if err != nil {
		return nil, err
	}

	item := proto.Clone(req.GetItem()).(*dlppb.ContentItem)
	segs, err := segments(item)
	if err != nil {
		return nil, err
	}

	overview := &dlppb.TransformationOverview{}
	summaries := map[string]*dlppb.TransformationSummary{}
	for _, seg := range segs {
		var applyErr error
		var findings []detect.Finding
		for _, f := range scan(seg.text, inspectCfg) {
			if transformationFor(deidCfg, f.InfoType) != nil {
				findings = append(findings, f)
			}
		}
		if len(findings) == 0 {
			continue
		}
		out := detect.Replace(seg.text, findings, func(f detect.Finding) string {
			pt := transformationFor(deidCfg, f.InfoType)
			v, err := transform(pt, f)
			if err != nil {
				applyErr = err
				return f.Quote
			}

			sum, ok := summaries[f.InfoType]
			if !ok {
				sum = &dlppb.TransformationSummary{
					InfoType:       &dlppb.InfoType{Name: f.InfoType},
					Transformation: pt,
					Results: []*dlppb.TransformationSummary_SummaryResult{{
						Code: dlppb.TransformationSummary_SUCCESS,
					}},
				}
				summaries[f.InfoType] = sum
				overview.TransformationSummaries = append(overview.TransformationSummaries, sum)
			}
			sum.Results[0].Count++
			sum.TransformedBytes += int64(len(f.Quote))
			overview.TransformedBytes += int64(len(f.Quote))
			return v
		})
		if applyErr != nil {
			return nil, applyErr
		}
		seg.set(out)
	}

	return &dlppb.DeidentifyContentResponse{
		Item:     item,
		Overview: overview,
	}, nil
}

func (s *DlpServer) ReidentifyContent(ctx context.Context, req *dlppb.ReidentifyContentRequest) (*dlppb.ReidentifyContentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "reidentification is not supported by the emulator")
}

func (s *DlpServer) RedactImage(ctx context.Context, req *dlppb.RedactImageRequest) (*dlppb.RedactImageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "image redaction is not supported by the emulator")
}

// ListInfoTypes describes the built-in detectors. The only supported
// filter is supported_by=INSPECT.
func (s *DlpServer) ListInfoTypes(ctx context.Context, req *dlppb.ListInfoTypesRequest) (*dlppb.ListInfoTypesResponse, error) {
	terms, err := parseFilter(req.GetFilter(), "supported_by")
	if err != nil {
		return nil, err
	}
	if by, ok := terms["supported_by"]; ok && by != "INSPECT" {
		return &dlppb.ListInfoTypesResponse{}, nil
	}

	resp := &dlppb.ListInfoTypesResponse{}
	for _, d := range detect.Detectors() {
		resp.InfoTypes = append(resp.InfoTypes, &dlppb.InfoTypeDescription{
			Name:        d.InfoType,
			DisplayName: d.DisplayName,
			Description: d.Description,
			SupportedBy: []dlppb.InfoTypeSupportedBy{dlppb.InfoTypeSupportedBy_INSPECT},
		})
	}
	return resp, nil
}
