package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 例如 recall_source=content、tier=tier_1、filtered=completeness。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / filter ...
}

// L 是 Label 的简写构造。
func L(value, source string) Label {
	return Label{Value: value, Source: source}
}

// MergeLabel 用于合并同名 Label，保留历史：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
