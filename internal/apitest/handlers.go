package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pet-adoption-portal/internal/model"
)

type ctxKey struct{}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	s.mu.Lock()
	_, taken := s.byEmail[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if taken {
		writeMessage(w, http.StatusConflict, "email already registered")
		return
	}

	user := s.SeedUser(req.Name, req.Email, req.Password, model.RoleRegular)

	s.mu.Lock()
	stored := s.users[user.ID]
	stored.user.Phone = req.Phone
	stored.user.Number = req.Number
	stored.user.Street = req.Street
	stored.user.Neighborhood = req.Neighborhood
	stored.user.City = req.City
	stored.user.PostalCode = req.PostalCode
	stored.user.Age = req.Age
	stored.user.Profession = req.Profession
	stored.user.AnimalExperience = req.AnimalExperience
	stored.user.PreferredSpecies = req.PreferredSpecies
	stored.user.PreferredSize = req.PreferredSize
	stored.user.PreferredBreed = req.PreferredBreed
	s.users[user.ID] = stored
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, stored.user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	stored, ok := s.users[s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(stored.passwordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}

	access, err := s.sign(stored.user.ID, "access", accessTTL)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := s.sign(stored.user.ID, "refresh", 24*time.Hour)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTTL.Seconds()),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(ctxKey{}).(model.User)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListAnimals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Animals())
}

func (s *Server) handleCreateAnimal(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAnimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	animal := s.SeedAnimal(model.Animal{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Breed:        req.Breed,
		Age:          req.Age,
		Sex:          req.Sex,
		Size:         req.Size,
		Weight:       req.Weight,
		Color:        req.Color,
		Temperament:  req.Temperament,
		Phone:        req.Phone,
		Email:        req.Email,
		Street:       req.Street,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		PostalCode:   req.PostalCode,
	})
	writeJSON(w, http.StatusCreated, animal)
}

func (s *Server) handleUpdateAnimal(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateAnimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}

	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.animals {
		if s.animals[i].ID != id {
			continue
		}
		applyUpdate(&s.animals[i], req)
		s.animals[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, s.animals[i])
		return
	}
	writeMessage(w, http.StatusNotFound, "animal not found")
}

func (s *Server) handleDeleteAnimal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.animals {
		if s.animals[i].ID == id {
			s.animals = append(s.animals[:i], s.animals[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "animal not found")
}

func applyUpdate(a *model.Animal, req model.UpdateAnimalRequest) {
	if req.Age != nil {
		a.Age = *req.Age
	}
	if req.Size != nil {
		a.Size = *req.Size
	}
	if req.Weight != nil {
		a.Weight = *req.Weight
	}
	if req.Temperament != nil {
		a.Temperament = *req.Temperament
	}
	if req.Phone != nil {
		a.Phone = *req.Phone
	}
	if req.Email != nil {
		a.Email = *req.Email
	}
	if req.Street != nil {
		a.Street = *req.Street
	}
	if req.Neighborhood != nil {
		a.Neighborhood = *req.Neighborhood
	}
	if req.City != nil {
		a.City = *req.City
	}
	if req.PostalCode != nil {
		a.PostalCode = *req.PostalCode
	}
	if req.Adopted != nil {
		a.Adopted = *req.Adopted
	}
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := s.validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		stored, ok := s.users[userID]
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, stored.user)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(ctxKey{}).(model.User)
		if !user.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validate(raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		return "", jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sub, nil
}
