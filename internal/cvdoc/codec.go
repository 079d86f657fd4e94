package cvdoc

import (
	"encoding/json"
	"fmt"
)

// Normalize 返回补齐缺失分区的副本，并为没有 ID 的条目分配 ID。
// 对已规范化的 Payload 再次调用不会产生变化。
func Normalize(p Payload) Payload {
	personal := make(map[string]string, len(p.Personal))
	for k, v := range p.Personal {
		personal[k] = v
	}
	p.Personal = personal
	// 复制切片，分配 ID 时不改动调用方持有的底层数组。
	p.Experience = append([]ExperienceEntry{}, p.Experience...)
	p.Education = append([]EducationEntry{}, p.Education...)
	p.Skills = append([]SkillItem{}, p.Skills...)
	p.Languages = append([]LanguageEntry{}, p.Languages...)

	// seq 至少不小于已有的最大 ID，避免旧数据导致 ID 复用。
	for _, e := range p.Experience {
		p.Seq = max(p.Seq, e.ID)
	}
	for _, e := range p.Education {
		p.Seq = max(p.Seq, e.ID)
	}
	for _, e := range p.Languages {
		p.Seq = max(p.Seq, e.ID)
	}
	for i := range p.Experience {
		if p.Experience[i].ID == 0 {
			p.Seq++
			p.Experience[i].ID = p.Seq
		}
	}
	for i := range p.Education {
		if p.Education[i].ID == 0 {
			p.Seq++
			p.Education[i].ID = p.Seq
		}
	}
	for i := range p.Languages {
		if p.Languages[i].ID == 0 {
			p.Seq++
			p.Languages[i].ID = p.Seq
		}
	}
	return p
}

// Encode 规范化后序列化为 JSON。
func Encode(p Payload) ([]byte, error) {
	data, err := json.Marshal(Normalize(p))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// DecodeStrict 要求整体 JSON 合法，缺失分区仍会补齐。
func DecodeStrict(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return New(), fmt.Errorf("decode payload: %w", err)
	}
	return Normalize(p), nil
}

// Decode 从不失败：整体解析失败时逐个分区解析，无法解析的分区置空。
func Decode(data []byte) Payload {
	if p, err := DecodeStrict(data); err == nil {
		return p
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return New()
	}

	var p Payload
	p.Personal = decodePersonal(sections["personal"])
	_ = decodeSection(sections["experience"], &p.Experience)
	_ = decodeSection(sections["education"], &p.Education)
	_ = decodeSection(sections["skills"], &p.Skills)
	_ = decodeSection(sections["languages"], &p.Languages)
	_ = decodeSection(sections["seq"], &p.Seq)
	return Normalize(p)
}

func decodeSection[T any](raw json.RawMessage, dst *T) error {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// decodePersonal 容忍非字符串取值，统一转成字符串。
func decodePersonal(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}
	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return out
	}
	for k, v := range loose {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
