package cvdoc

import (
	"testing"

	"cv-platform/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) Payload {
	t.Helper()

	p := Seeded("Ada", "Lovelace", "ada@example.com")
	p.Set(FieldTitle, "Analyst")
	p.Set(FieldDescription, "First programmer.")
	_, err := p.AddExperience(ExperienceEntry{Position: "Engineer", Company: "Babbage & Co", StartDate: "1842", Current: true, EndDate: "ignored"})
	require.NoError(t, err)
	_, err = p.AddEducation(EducationEntry{Degree: "Mathematics", School: "Home", StartYear: "1830"})
	require.NoError(t, err)
	_, err = p.AddLanguage(LanguageEntry{Name: "Français"})
	require.NoError(t, err)
	p.SetSkills([]SkillItem{{Name: "Go"}, {Name: "SQL", Level: 3, Years: 2}})
	return p
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	p := samplePayload(t)
	data, err := Encode(p)
	require.NoError(t, err)

	got := Decode(data)
	assert.Equal(t, Normalize(p), got)

	strict, err := DecodeStrict(data)
	require.NoError(t, err)
	assert.Equal(t, got, strict)
}

func TestRoundTripTable(t *testing.T) {
	t.Parallel()

	cases := map[string]Payload{
		"zero value": {},
		"nil personal only sections": {
			Experience: []ExperienceEntry{{Position: "Dev", Company: "X", StartDate: "2020"}},
		},
		"string skills": {
			Personal: map[string]string{FieldFirstName: "Ada"},
			Skills:   []SkillItem{{Name: "Go"}, {Name: "SQL"}, {Name: ""}},
		},
		"record skills": {
			Skills: []SkillItem{{Name: "Go", Level: 4, Years: 6}, {Name: "Rust", Years: 1}, {Name: "C", Level: 2}},
		},
		"entries without ids": {
			Experience: []ExperienceEntry{{Position: "A", Company: "B", StartDate: "2001"}, {Position: "C", Company: "D", StartDate: "2002"}},
			Education:  []EducationEntry{{Degree: "MSc", School: "ETH", StartYear: "1999"}},
			Languages:  []LanguageEntry{{Name: "English", Level: LanguageFluent}},
		},
		"ids above seq": {
			Experience: []ExperienceEntry{{ID: 9, Position: "A", Company: "B", StartDate: "2001"}, {Position: "C", Company: "D", StartDate: "2002"}},
			Languages:  []LanguageEntry{{ID: 3, Name: "Deutsch"}},
			Seq:        2,
		},
		"markup and accents": {
			Personal:  map[string]string{FieldDescription: "<b>Chef</b> & \"lead\" é\n", "custom": ""},
			Languages: []LanguageEntry{{Name: "Français", Level: LanguageIntermediate}},
		},
		"legacy document": Decode([]byte(`{"personal":{"age":36},"experience":[{"position":"Dev","company":"X","start_date":"2020"}],"skills":["Go",{"name":"SQL","level":2}]}`)),
		"sample":          samplePayload(t),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(p)
			require.NoError(t, err)

			got := Decode(data)
			assert.Equal(t, Normalize(p), got)

			strict, err := DecodeStrict(data)
			require.NoError(t, err)
			assert.Equal(t, got, strict)

			again, err := Encode(got)
			require.NoError(t, err)
			assert.Equal(t, string(data), string(again))
		})
	}
}

func FuzzDecodeEncodeIsStable(f *testing.F) {
	for _, seed := range []string{
		`{}`,
		`not json`,
		`{"personal":{"first_name":"Ada","age":36},"experience":"oops"}`,
		`{"experience":[{"position":"Dev","company":"X","start_date":"2020"}],"skills":["Go",{"name":"SQL","level":3}],"seq":1}`,
		`{"languages":[{"id":18446744073709551615,"name":"x"},{"name":"y"}]}`,
	} {
		f.Add([]byte(seed))
	}
	f.Fuzz(func(t *testing.T, raw []byte) {
		// the first pass may repair arbitrary input, after that encoding is a fixed point
		first, err := Encode(Decode(raw))
		require.NoError(t, err)
		p := Decode(first)

		data, err := Encode(p)
		require.NoError(t, err)
		got := Decode(data)
		assert.Equal(t, p, got)

		again, err := Encode(got)
		require.NoError(t, err)
		assert.Equal(t, string(data), string(again))
	})
}

func TestRoundTripEmptyPayloadHasNoNilSections(t *testing.T) {
	t.Parallel()

	data, err := Encode(Payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"personal":{},"experience":[],"education":[],"skills":[],"languages":[]}`, string(data))

	got := Decode(data)
	assert.NotNil(t, got.Personal)
	assert.NotNil(t, got.Experience)
	assert.NotNil(t, got.Education)
	assert.NotNil(t, got.Skills)
	assert.NotNil(t, got.Languages)
}

func TestDecodeDegradesGracefully(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"garbage":         `not json`,
		"null":            `null`,
		"missing":         `{}`,
		"nulls":           `{"personal":null,"experience":null}`,
		"bad experience":  `{"personal":{"first_name":"Ada","age":36},"experience":"oops","languages":[{"name":"English","level":"Courant"}]}`,
		"legacy no ids":   `{"experience":[{"position":"Dev","company":"X","start_date":"2020"}],"skills":["Go"]}`,
		"array top level": `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			p := Decode([]byte(raw))
			assert.NotNil(t, p.Personal)
			assert.NotNil(t, p.Experience)
			assert.NotNil(t, p.Education)
			assert.NotNil(t, p.Skills)
			assert.NotNil(t, p.Languages)
		})
	}

	p := Decode([]byte(cases["bad experience"]))
	assert.Equal(t, "Ada", p.Get(FieldFirstName))
	assert.Equal(t, "36", p.Get("age"))
	assert.Empty(t, p.Experience)
	require.Len(t, p.Languages, 1)
	assert.Equal(t, EntryID(1), p.Languages[0].ID)

	legacy := Decode([]byte(cases["legacy no ids"]))
	require.Len(t, legacy.Experience, 1)
	assert.Equal(t, EntryID(1), legacy.Experience[0].ID)
	assert.Equal(t, []string{"Go"}, legacy.SkillNames())
}

func TestSkillItemAcceptsStringsAndRecords(t *testing.T) {
	t.Parallel()

	p := Decode([]byte(`{"skills":["Go",{"name":"SQL","level":4,"years":6}]}`))
	require.Len(t, p.Skills, 2)
	assert.Equal(t, SkillItem{Name: "Go"}, p.Skills[0])
	assert.Equal(t, SkillItem{Name: "SQL", Level: 4, Years: 6}, p.Skills[1])

	data, err := Encode(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"skills":["Go",{"name":"SQL","level":4,"years":6}]`)
}

func TestValidatePersonal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Seeded("A", "B", "a@x.com").ValidatePersonal())

	err := Seeded("A", "B", "  ").ValidatePersonal()
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "email")
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	t.Parallel()

	p := samplePayload(t)
	c := p.Clone()
	c.Experience[0].Company = "Changed"
	c.Set(FieldFirstName, "Changed")

	assert.Equal(t, "Babbage & Co", p.Experience[0].Company)
	assert.Equal(t, "Ada", p.Get(FieldFirstName))
}
