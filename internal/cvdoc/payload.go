package cvdoc

import (
	"encoding/json"
	"strings"

	"cv-platform/internal/apperr"
)

// 个人信息字段名，与存储的 JSON 键一致。
const (
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldTitle       = "title"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldAddress     = "address"
	FieldLinkedIn    = "linkedin"
	FieldWebsite     = "website"
	FieldDescription = "description"
)

// PersonalFields 按表单顺序列出个人信息字段。
var PersonalFields = []string{
	FieldFirstName, FieldLastName, FieldTitle, FieldEmail,
	FieldPhone, FieldAddress, FieldLinkedIn, FieldWebsite, FieldDescription,
}

// EntryID 是条目的持久标识，同一份简历内单调递增且不复用。
type EntryID uint64

// Payload 是简历文档的结构化正文。
type Payload struct {
	Personal   map[string]string `json:"personal"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Skills     []SkillItem       `json:"skills"`
	Languages  []LanguageEntry   `json:"languages"`
	// Seq 记录最近一次分配的 EntryID。
	Seq EntryID `json:"seq,omitempty"`
}

// ExperienceEntry 表示一段工作经历。
type ExperienceEntry struct {
	ID          EntryID `json:"id"`
	Position    string  `json:"position"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Current     bool    `json:"current"`
	Description string  `json:"description"`
}

// EducationEntry 表示一段教育经历。
type EducationEntry struct {
	ID          EntryID `json:"id"`
	Degree      string  `json:"degree"`
	School      string  `json:"school"`
	Location    string  `json:"location"`
	StartYear   string  `json:"start_year"`
	EndYear     string  `json:"end_year"`
	Description string  `json:"description"`
}

// 语言水平取值。
const (
	LanguageBeginner     = "Débutant"
	LanguageIntermediate = "Intermédiaire"
	LanguageAdvanced     = "Avancé"
	LanguageFluent       = "Courant"
)

// LanguageLevels 为可选语言水平。
var LanguageLevels = []string{LanguageBeginner, LanguageIntermediate, LanguageAdvanced, LanguageFluent}

// LanguageEntry 表示一门语言。
type LanguageEntry struct {
	ID    EntryID `json:"id"`
	Name  string  `json:"name"`
	Level string  `json:"level"`
}

// SkillItem 既兼容纯字符串，也兼容 {name, level, years} 记录。
type SkillItem struct {
	Name  string `json:"name"`
	Level int    `json:"level,omitempty"`
	Years int    `json:"years,omitempty"`
}

// MarshalJSON 对只有名称的技能输出纯字符串，保持旧数据格式。
func (s SkillItem) MarshalJSON() ([]byte, error) {
	if s.Level == 0 && s.Years == 0 {
		return json.Marshal(s.Name)
	}
	type plain SkillItem
	return json.Marshal(plain(s))
}

// UnmarshalJSON 接受字符串或对象两种写法。
func (s *SkillItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SkillItem{Name: name}
		return nil
	}
	type plain SkillItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SkillItem(p)
	return nil
}

// New 返回各分区均已初始化的空 Payload。
func New() Payload {
	return Payload{
		Personal:   map[string]string{},
		Experience: []ExperienceEntry{},
		Education:  []EducationEntry{},
		Skills:     []SkillItem{},
		Languages:  []LanguageEntry{},
	}
}

// Seeded 返回以用户姓名与邮箱预填的 Payload。
func Seeded(firstName, lastName, email string) Payload {
	p := New()
	p.Personal[FieldFirstName] = firstName
	p.Personal[FieldLastName] = lastName
	p.Personal[FieldEmail] = email
	return p
}

// Get 读取个人信息字段，缺失时返回空串。
func (p Payload) Get(field string) string {
	return p.Personal[field]
}

// Set 写入个人信息字段。
func (p *Payload) Set(field, value string) {
	if p.Personal == nil {
		p.Personal = map[string]string{}
	}
	p.Personal[field] = value
}

// FullName 返回 "名 姓"。
func (p Payload) FullName() string {
	return strings.TrimSpace(p.Get(FieldFirstName) + " " + p.Get(FieldLastName))
}

// SkillNames 返回技能名称列表。
func (p Payload) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}

// ValidatePersonal 校验保存所需的个人信息：名、姓、邮箱不能为空。
func (p Payload) ValidatePersonal() error {
	var missing []string
	for _, field := range []string{FieldFirstName, FieldLastName, FieldEmail} {
		if strings.TrimSpace(p.Get(field)) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("personal fields required: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Clone 深拷贝 Payload，草稿与持久化快照之间不共享切片。
func (p Payload) Clone() Payload {
	return Normalize(p)
}
