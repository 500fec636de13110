package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/service"
	"pet-adoption-portal/internal/session"
	"pet-adoption-portal/pkg/apierror"
)

type AdminHandler struct {
	guard     pageGuard
	workflows *service.WorkflowRegistry
}

func NewAdminHandler(gate *service.AuthGate, client *apiclient.Client, workflows *service.WorkflowRegistry, views *Renderer) *AdminHandler {
	return &AdminHandler{
		guard:     pageGuard{gate: gate, client: client, workflows: workflows, views: views},
		workflows: workflows,
	}
}

type adminContent struct {
	User *model.User
	View service.AdminView
}

type formContent struct {
	User   *model.User
	Mode   service.Mode
	Form   service.AnimalForm
	Animal *model.Animal
	Action string
}

// List is the admin panel entry: any open form or prompt is abandoned and the
// animal list is loaded once.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	if err := wf.Reset(); err != nil {
		h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
		return
	}
	_ = wf.Load(r.Context())

	h.renderList(w, r, http.StatusOK, decision.User, wf, "", "")
}

func (h *AdminHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	if err := wf.BeginCreate(); err != nil {
		h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
		return
	}

	h.renderForm(w, r, http.StatusOK, decision.User, wf, service.NewAnimalForm(), "")
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, decision.User, wf, service.NewAnimalForm(), "invalid form")
		return
	}
	form := service.AnimalFormFromValues(r.PostForm)

	if wf.Mode() != service.ModeCreate {
		if err := wf.BeginCreate(); err != nil {
			h.renderForm(w, r, http.StatusConflict, decision.User, wf, form, errorText(err))
			return
		}
	}

	if err := wf.Submit(r.Context(), form); err != nil {
		h.renderForm(w, r, pageStatus(err), decision.User, wf, form, formErrorText(wf, err))
		return
	}

	h.renderList(w, r, http.StatusOK, decision.User, wf, "", "animal created")
}

func (h *AdminHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	animal, found := h.lookup(r, wf)
	if !found {
		h.notFound(w, r)
		return
	}
	if err := wf.BeginEdit(animal); err != nil {
		h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
		return
	}

	h.renderForm(w, r, http.StatusOK, decision.User, wf, service.AnimalFormFromAnimal(animal), "")
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	id := chi.URLParam(r, "id")
	view := wf.View()
	if wf.Mode() != service.ModeEdit || view.Selected == nil || view.Selected.ID != id {
		animal, found := h.lookup(r, wf)
		if !found {
			h.notFound(w, r)
			return
		}
		if err := wf.BeginEdit(animal); err != nil {
			h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, http.StatusBadRequest, decision.User, wf, "invalid form", "")
		return
	}
	form := service.AnimalFormFromValues(r.PostForm)

	if err := wf.Submit(r.Context(), form); err != nil {
		h.renderForm(w, r, pageStatus(err), decision.User, wf, form, formErrorText(wf, err))
		return
	}

	h.renderList(w, r, http.StatusOK, decision.User, wf, "", "animal updated")
}

// DeleteConfirm opens the confirmation prompt over the list.
func (h *AdminHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	animal, found := h.lookup(r, wf)
	if !found {
		h.notFound(w, r)
		return
	}
	if err := wf.RequestDelete(animal); err != nil {
		h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
		return
	}

	h.renderList(w, r, http.StatusOK, decision.User, wf, "", "")
}

// Delete answers the prompt: action=cancel closes it without any call,
// anything else confirms.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	decision, client, ok := h.guard.require(w, r, service.RequireAdmin)
	if !ok {
		return
	}
	wf := h.workflow(client, decision.User)

	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, http.StatusBadRequest, decision.User, wf, "invalid form", "")
		return
	}

	if r.PostFormValue("action") == "cancel" {
		if err := wf.DeclineDelete(); err != nil {
			h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
			return
		}
		h.renderList(w, r, http.StatusOK, decision.User, wf, "", "")
		return
	}

	id := chi.URLParam(r, "id")
	if pending := wf.View().PendingDelete; pending == nil || pending.ID != id {
		animal, found := h.lookup(r, wf)
		if !found {
			h.notFound(w, r)
			return
		}
		if err := wf.RequestDelete(animal); err != nil {
			h.renderList(w, r, http.StatusConflict, decision.User, wf, errorText(err), "")
			return
		}
	}

	if err := wf.ConfirmDelete(r.Context()); err != nil {
		status := pageStatus(err)
		if errors.Is(err, service.ErrBusy) {
			h.renderList(w, r, status, decision.User, wf, errorText(err), "")
			return
		}
		h.renderList(w, r, status, decision.User, wf, "", "")
		return
	}

	h.renderList(w, r, http.StatusOK, decision.User, wf, "", "animal deleted")
}

func (h *AdminHandler) workflow(client *apiclient.Client, user *model.User) *service.AdminWorkflow {
	sessionID := ""
	if scoped, ok := client.Tokens().(*session.Scoped); ok {
		sessionID = scoped.SessionID()
	}
	wf := h.workflows.Get(sessionID, client)
	if user != nil {
		wf.SetActor(user.ID)
	}
	return wf
}

// lookup finds the {id} animal in the loaded list, loading it first when the
// animal is not there yet.
func (h *AdminHandler) lookup(r *http.Request, wf *service.AdminWorkflow) (model.Animal, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if animal, ok := wf.Find(id); ok {
		return animal, true
	}
	if err := wf.Load(r.Context()); err != nil {
		return model.Animal{}, false
	}
	return wf.Find(id)
}

func (h *AdminHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.guard.views.Render(w, r, http.StatusNotFound, "error.html", Page{
		Title: "Not found",
		Error: model.ErrAnimalNotFound.Error(),
	})
}

func (h *AdminHandler) renderList(w http.ResponseWriter, r *http.Request, status int, user *model.User, wf *service.AdminWorkflow, errText string, flash string) {
	h.guard.views.Render(w, r, status, "admin.html", Page{
		Title: "Admin panel",
		Flash: flash,
		Error: errText,
		Content: adminContent{
			User: user,
			View: wf.View(),
		},
	})
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, user *model.User, wf *service.AdminWorkflow, form service.AnimalForm, errText string) {
	view := wf.View()
	content := formContent{
		User:   user,
		Mode:   view.Mode,
		Form:   form,
		Animal: view.Selected,
		Action: "/admin/animais",
	}
	if view.Mode == service.ModeEdit && view.Selected != nil {
		content.Action = "/admin/animais/" + view.Selected.ID
		// Immutable fields always show the stored values.
		content.Form.Name = view.Selected.Name
		content.Form.Breed = view.Selected.Breed
		content.Form.Sex = string(view.Selected.Sex)
		content.Form.Color = view.Selected.Color
	}

	title := "New animal"
	if view.Mode == service.ModeEdit {
		title = "Edit animal"
	}

	h.guard.views.Render(w, r, status, "animal_form.html", Page{
		Title:   title,
		Error:   errText,
		Content: content,
	})
}

func errorText(err error) string {
	return apierror.MessageOf(err, err.Error())
}

func formErrorText(wf *service.AdminWorkflow, err error) string {
	if msg := wf.View().FormError; msg != "" {
		return msg
	}
	return errorText(err)
}
