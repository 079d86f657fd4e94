package cvdoc

import (
	"fmt"
	"slices"
	"strings"

	"cv-platform/internal/apperr"
)

// entry 约束三类列表条目的共同行为。
type entry[T any] interface {
	Validate() error
	entryID() EntryID
	withID(id EntryID) T
}

// Validate 校验必填字段：职位、公司、开始日期。
func (e ExperienceEntry) Validate() error {
	return requireFields("experience", map[string]string{
		"position":   e.Position,
		"company":    e.Company,
		"start_date": e.StartDate,
	})
}

func (e ExperienceEntry) entryID() EntryID { return e.ID }

func (e ExperienceEntry) withID(id EntryID) ExperienceEntry {
	e.ID = id
	// 在职时不保留结束日期。
	if e.Current {
		e.EndDate = ""
	}
	return e
}

// Validate 校验必填字段：学位、学校、开始年份。
func (e EducationEntry) Validate() error {
	return requireFields("education", map[string]string{
		"degree":     e.Degree,
		"school":     e.School,
		"start_year": e.StartYear,
	})
}

func (e EducationEntry) entryID() EntryID { return e.ID }

func (e EducationEntry) withID(id EntryID) EducationEntry {
	e.ID = id
	return e
}

// Validate 校验语言名称非空，水平必须是预设取值之一（空值视为 Intermédiaire）。
func (e LanguageEntry) Validate() error {
	if err := requireFields("language", map[string]string{"name": e.Name}); err != nil {
		return err
	}
	if e.Level == "" {
		return nil
	}
	for _, lvl := range LanguageLevels {
		if e.Level == lvl {
			return nil
		}
	}
	return apperr.Validation("language level %q unknown", e.Level)
}

func (e LanguageEntry) entryID() EntryID { return e.ID }

func (e LanguageEntry) withID(id EntryID) LanguageEntry {
	e.ID = id
	if e.Level == "" {
		e.Level = LanguageIntermediate
	}
	return e
}

func requireFields(section string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return apperr.Validation("%s fields required: %s", section, strings.Join(missing, ", "))
}

// --- 通用列表操作，校验失败时列表保持不变 ---

func insertFront[T entry[T]](list []T, seq *EntryID, v T) ([]T, EntryID, error) {
	if err := v.Validate(); err != nil {
		return list, 0, err
	}
	*seq++
	id := *seq
	out := make([]T, 0, len(list)+1)
	out = append(out, v.withID(id))
	out = append(out, list...)
	return out, id, nil
}

func replaceAt[T entry[T]](list []T, index int, v T) ([]T, error) {
	if index < 0 || index >= len(list) {
		return list, fmt.Errorf("%w: index %d, length %d", apperr.ErrIndexOutOfRange, index, len(list))
	}
	if err := v.Validate(); err != nil {
		return list, err
	}
	out := append([]T(nil), list...)
	out[index] = v.withID(list[index].entryID())
	return out, nil
}

func removeAt[T any](list []T, index int) ([]T, error) {
	if index < 0 || index >= len(list) {
		return list, fmt.Errorf("%w: index %d, length %d", apperr.ErrIndexOutOfRange, index, len(list))
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	return out, nil
}

func indexOf[T entry[T]](list []T, id EntryID) (int, error) {
	for i, v := range list {
		if v.entryID() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: id %d", apperr.ErrEntryNotFound, id)
}

func replaceByID[T entry[T]](list []T, id EntryID, v T) ([]T, error) {
	idx, err := indexOf(list, id)
	if err != nil {
		return list, err
	}
	return replaceAt(list, idx, v)
}

func removeByID[T entry[T]](list []T, id EntryID) ([]T, error) {
	idx, err := indexOf(list, id)
	if err != nil {
		return list, err
	}
	return removeAt(list, idx)
}

// --- 工作经历 ---

// AddExperience 校验后插入到列表首位，返回新条目 ID。
func (p *Payload) AddExperience(e ExperienceEntry) (EntryID, error) {
	var (
		id  EntryID
		err error
	)
	p.Experience, id, err = insertFront(p.Experience, &p.Seq, e)
	return id, err
}

// UpdateExperienceAt 按位置替换，保留原条目 ID。
func (p *Payload) UpdateExperienceAt(index int, e ExperienceEntry) (err error) {
	p.Experience, err = replaceAt(p.Experience, index, e)
	return err
}

// RemoveExperienceAt 按位置删除。
func (p *Payload) RemoveExperienceAt(index int) (err error) {
	p.Experience, err = removeAt(p.Experience, index)
	return err
}

// UpdateExperience 按 ID 替换。
func (p *Payload) UpdateExperience(id EntryID, e ExperienceEntry) (err error) {
	p.Experience, err = replaceByID(p.Experience, id, e)
	return err
}

// RemoveExperience 按 ID 删除。
func (p *Payload) RemoveExperience(id EntryID) (err error) {
	p.Experience, err = removeByID(p.Experience, id)
	return err
}

// --- 教育经历 ---

func (p *Payload) AddEducation(e EducationEntry) (EntryID, error) {
	var (
		id  EntryID
		err error
	)
	p.Education, id, err = insertFront(p.Education, &p.Seq, e)
	return id, err
}

func (p *Payload) UpdateEducationAt(index int, e EducationEntry) (err error) {
	p.Education, err = replaceAt(p.Education, index, e)
	return err
}

func (p *Payload) RemoveEducationAt(index int) (err error) {
	p.Education, err = removeAt(p.Education, index)
	return err
}

func (p *Payload) UpdateEducation(id EntryID, e EducationEntry) (err error) {
	p.Education, err = replaceByID(p.Education, id, e)
	return err
}

func (p *Payload) RemoveEducation(id EntryID) (err error) {
	p.Education, err = removeByID(p.Education, id)
	return err
}

// --- 语言 ---

func (p *Payload) AddLanguage(e LanguageEntry) (EntryID, error) {
	var (
		id  EntryID
		err error
	)
	p.Languages, id, err = insertFront(p.Languages, &p.Seq, e)
	return id, err
}

func (p *Payload) UpdateLanguageAt(index int, e LanguageEntry) (err error) {
	p.Languages, err = replaceAt(p.Languages, index, e)
	return err
}

func (p *Payload) RemoveLanguageAt(index int) (err error) {
	p.Languages, err = removeAt(p.Languages, index)
	return err
}

func (p *Payload) UpdateLanguage(id EntryID, e LanguageEntry) (err error) {
	p.Languages, err = replaceByID(p.Languages, id, e)
	return err
}

func (p *Payload) RemoveLanguage(id EntryID) (err error) {
	p.Languages, err = removeByID(p.Languages, id)
	return err
}

// --- 技能（简历内的展示列表，按名称去重） ---

// SetSkills 替换技能列表，忽略空名称并按名称去重，保留首次出现的顺序。
func (p *Payload) SetSkills(items []SkillItem) {
	seen := make(map[string]struct{}, len(items))
	out := make([]SkillItem, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		key := strings.ToLower(it.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	p.Skills = out
}
