package api

import (
	"net/http"
	"strconv"
	"strings"

	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/editor"
	"cv-platform/internal/export"
)

const (
	sectionExperience = "experience"
	sectionEducation  = "education"
	sectionLanguages  = "languages"
)

type openRequest struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// openDraft 打开已有简历，id 为 0 时按 title 新建。
func (s *server) openDraft(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var err error
	if req.ID == 0 {
		_, err = s.Workspace.New(r.Context(), req.Title)
	} else {
		_, err = s.Workspace.Open(r.Context(), req.ID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getDraft(w, r)
}

type draftResponse struct {
	DocumentID uint          `json:"document_id"`
	Title      string        `json:"title"`
	Template   string        `json:"template"`
	PhotoRef   string        `json:"photo_ref,omitempty"`
	Payload    cvdoc.Payload `json:"payload"`
}

func (s *server) getDraft(w http.ResponseWriter, r *http.Request) {
	session, draft, ok := s.Workspace.Current()
	if !ok {
		s.writeError(w, r, apperr.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{
		DocumentID: session.DocumentID,
		Title:      draft.Title,
		Template:   draft.Template,
		PhotoRef:   draft.PhotoRef,
		Payload:    draft.Payload,
	})
}

// draftPatch 只覆盖请求中出现的部分。
type draftPatch struct {
	Personal map[string]string `json:"personal"`
	Template *string           `json:"template"`
	Skills   []cvdoc.SkillItem `json:"skills"`
}

func (s *server) patchDraft(w http.ResponseWriter, r *http.Request) {
	var patch draftPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	err := s.Workspace.Update(func(d *editor.Draft) error {
		for field, value := range patch.Personal {
			d.Payload.Set(field, value)
		}
		if patch.Template != nil {
			d.Template = *patch.Template
		}
		if patch.Skills != nil {
			d.Payload.SetSkills(patch.Skills)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getDraft(w, r)
}

func (s *server) saveDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.Workspace.Save(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) preview(w http.ResponseWriter, r *http.Request) {
	_, draft, ok := s.Workspace.Current()
	if !ok {
		s.writeError(w, r, apperr.ErrNoSession)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.Preview(draft.Payload)))
}

// uploadPhoto 读取 multipart 字段 photo，规范化后挂到草稿上，保存后才持久化。
func (s *server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	session, _, ok := s.Workspace.Current()
	if !ok {
		s.writeError(w, r, apperr.ErrNoSession)
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		s.writeError(w, r, apperr.Validation("photo field required: %v", err))
		return
	}
	defer file.Close()

	ref, err := s.Photos.Upload(r.Context(), session.User.ID, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Workspace.Update(func(d *editor.Draft) error {
		d.PhotoRef = ref
		return nil
	}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"photo_ref": ref})
}

// --- 列表条目 ---

func (s *server) addEntry(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")
	var id cvdoc.EntryID
	var err error
	switch section {
	case sectionExperience:
		var e cvdoc.ExperienceEntry
		if err = decodeJSON(w, r, &e); err == nil {
			err = s.Workspace.Update(func(d *editor.Draft) (err error) {
				id, err = d.Payload.AddExperience(e)
				return err
			})
		}
	case sectionEducation:
		var e cvdoc.EducationEntry
		if err = decodeJSON(w, r, &e); err == nil {
			err = s.Workspace.Update(func(d *editor.Draft) (err error) {
				id, err = d.Payload.AddEducation(e)
				return err
			})
		}
	case sectionLanguages:
		var e cvdoc.LanguageEntry
		if err = decodeJSON(w, r, &e); err == nil {
			err = s.Workspace.Update(func(d *editor.Draft) (err error) {
				id, err = d.Payload.AddLanguage(e)
				return err
			})
		}
	default:
		err = unknownSection(section)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]cvdoc.EntryID{"id": id})
}

func (s *server) updateEntry(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch section {
	case sectionExperience:
		var e cvdoc.ExperienceEntry
		if err = decodeJSON(w, r, &e); err == nil {
			err = s.Workspace.Update(func(d *editor.Draft) error { return d.Payload.UpdateExperience(id, e) })
		}
	case sectionEducation:
		var e cvdoc.EducationEntry
		if err = decodeJSON(w, r, &e); err == nil {
			err = s.Workspace.Update(func(d *editor.Draft) error { return d.Payload.UpdateEducation(id, e) })
		}
	case sectionLanguages:
		var e cvdoc.LanguageEntry
		if err = decodeJSON(w, r, &e); err == nil {
			err = s.Workspace.Update(func(d *editor.Draft) error { return d.Payload.UpdateLanguage(id, e) })
		}
	default:
		err = unknownSection(section)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) removeEntry(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch section {
	case sectionExperience:
		err = s.Workspace.Update(func(d *editor.Draft) error { return d.Payload.RemoveExperience(id) })
	case sectionEducation:
		err = s.Workspace.Update(func(d *editor.Draft) error { return d.Payload.RemoveEducation(id) })
	case sectionLanguages:
		err = s.Workspace.Update(func(d *editor.Draft) error { return d.Payload.RemoveLanguage(id) })
	default:
		err = unknownSection(section)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func entryID(r *http.Request) (cvdoc.EntryID, error) {
	raw := r.PathValue("entryID")
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Validation("invalid entry id %q", raw)
	}
	return cvdoc.EntryID(v), nil
}

func unknownSection(section string) error {
	return apperr.NotFound("section", strings.TrimSpace(section))
}
