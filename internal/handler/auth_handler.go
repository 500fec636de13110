package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"pet-adoption-portal/internal/middleware"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/service"
	"pet-adoption-portal/internal/session"
	"pet-adoption-portal/pkg/apierror"
)

const registeredMessage = "registration completed, you can log in now"

type AuthHandler struct {
	service   *service.AuthService
	workflows *service.WorkflowRegistry
	views     *Renderer
}

func NewAuthHandler(service *service.AuthService, workflows *service.WorkflowRegistry, views *Renderer) *AuthHandler {
	return &AuthHandler{service: service, workflows: workflows, views: views}
}

type loginContent struct {
	Email string
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "login.html", Page{
		Title:   "Log in",
		Flash:   strings.TrimSpace(r.URL.Query().Get("message")),
		Content: loginContent{},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.Render(w, r, http.StatusBadRequest, "login.html", Page{Title: "Log in", Error: "invalid form", Content: loginContent{}})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	tokens := tokensOf(r)
	if _, ok := middleware.TokensFromContext(r.Context()); ok {
		fresh, retired, err := middleware.RotateSession(r.Context(), w)
		if err != nil {
			writePageError(w, r, h.views, err)
			return
		}
		tokens = fresh
		h.workflows.Forget(retired)
	}

	err := h.service.Login(r.Context(), tokens, email, r.PostFormValue("senha"))
	if err != nil {
		h.views.Render(w, r, pageStatus(err), "login.html", Page{
			Title:   "Log in",
			Error:   apierror.MessageOf(err, "error logging in"),
			Content: loginContent{Email: email},
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "register.html", Page{
		Title:   "Create account",
		Content: model.RegisterRequest{},
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.Render(w, r, http.StatusBadRequest, "register.html", Page{Title: "Create account", Error: "invalid form", Content: model.RegisterRequest{}})
		return
	}

	req := registerRequestFromForm(r.PostForm)
	if _, err := h.service.Register(r.Context(), req); err != nil {
		req.Password = ""
		h.views.Render(w, r, pageStatus(err), "register.html", Page{
			Title:   "Create account",
			Error:   apierror.MessageOf(err, "error registering user"),
			Content: req,
		})
		return
	}

	http.Redirect(w, r, "/login?message="+url.QueryEscape(registeredMessage), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokens := tokensOf(r)
	if err := h.service.Logout(r.Context(), tokens); err != nil {
		writePageError(w, r, h.views, err)
		return
	}
	if scoped, ok := tokens.(*session.Scoped); ok {
		h.workflows.Forget(scoped.SessionID())
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func registerRequestFromForm(form url.Values) model.RegisterRequest {
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }

	return model.RegisterRequest{
		Name:             get("nome"),
		Email:            get("email"),
		Phone:            get("telefone"),
		Number:           get("numero"),
		Street:           get("rua"),
		Neighborhood:     get("bairro"),
		City:             get("cidade"),
		PostalCode:       get("cep"),
		Age:              get("idade"),
		Profession:       get("profissao"),
		AnimalExperience: get("experiencia_animais"),
		PreferredSpecies: get("preferencia_animal"),
		PreferredSize:    get("tamanho_animal"),
		PreferredBreed:   get("raca_animal"),
		Password:         form.Get("senha"),
	}
}

func tokensOf(r *http.Request) session.TokenStore {
	if scoped, ok := middleware.TokensFromContext(r.Context()); ok {
		return scoped
	}
	return session.NewMemoryStore()
}

// pageStatus picks the status of a page re-rendered after a failed call.
func pageStatus(err error) int {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return statusForUpstream(apiErr)
	}
	if errors.Is(err, service.ErrBusy) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writePageError(w http.ResponseWriter, r *http.Request, views *Renderer, err error) {
	views.Render(w, r, pageStatus(err), "error.html", Page{
		Title: "Something went wrong",
		Error: apierror.MessageOf(err, "unexpected error"),
	})
}
