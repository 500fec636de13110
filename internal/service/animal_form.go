package service

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"pet-adoption-portal/internal/model"
)

// AnimalForm is the raw admin form. Numeric fields stay text until a request
// is built so a redisplayed form shows exactly what was typed.
type AnimalForm struct {
	Name         string
	Breed        string
	Age          string
	Sex          string
	Size         string
	Weight       string
	Color        string
	Temperament  string
	Phone        string
	Email        string
	Street       string
	Neighborhood string
	City         string
	PostalCode   string
	Adopted      bool
}

func AnimalFormFromValues(values url.Values) AnimalForm {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }

	adopted := get("adotado")
	return AnimalForm{
		Name:         get("nome"),
		Breed:        get("raca"),
		Age:          get("idade"),
		Sex:          get("sexo"),
		Size:         get("tamanho"),
		Weight:       get("peso"),
		Color:        get("cor"),
		Temperament:  get("temperamento"),
		Phone:        get("telefone"),
		Email:        get("email"),
		Street:       get("rua"),
		Neighborhood: get("bairro"),
		City:         get("cidade"),
		PostalCode:   get("cep"),
		Adopted:      adopted == "on" || adopted == "true" || adopted == "1",
	}
}

// AnimalFormFromAnimal pre-fills the edit form. A zero age or weight shows as 1.
func AnimalFormFromAnimal(a model.Animal) AnimalForm {
	age := a.Age
	if age == 0 {
		age = 1
	}
	weight := a.Weight
	if weight == 0 {
		weight = 1
	}

	return AnimalForm{
		Name:         a.Name,
		Breed:        a.Breed,
		Age:          strconv.Itoa(age),
		Sex:          string(a.Sex),
		Size:         string(a.Size),
		Weight:       strconv.FormatFloat(weight, 'f', -1, 64),
		Color:        a.Color,
		Temperament:  a.Temperament,
		Phone:        a.Phone,
		Email:        a.Email,
		Street:       a.Street,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		PostalCode:   a.PostalCode,
		Adopted:      a.Adopted,
	}
}

// NewAnimalForm is the blank create form.
func NewAnimalForm() AnimalForm {
	return AnimalForm{Age: "1", Weight: "1"}
}

func (f AnimalForm) CreateRequest() model.CreateAnimalRequest {
	return model.CreateAnimalRequest{
		Name:         f.Name,
		Breed:        f.Breed,
		Age:          ParseLenientInt(f.Age),
		Sex:          model.Sex(f.Sex),
		Size:         model.Size(f.Size),
		Weight:       ParseLenientFloat(f.Weight),
		Color:        f.Color,
		Temperament:  f.Temperament,
		Phone:        f.Phone,
		Email:        f.Email,
		Street:       f.Street,
		Neighborhood: f.Neighborhood,
		City:         f.City,
		PostalCode:   f.PostalCode,
	}
}

// UpdateRequest carries every mutable field. Name, breed, sex and color are
// dropped whatever the form holds.
func (f AnimalForm) UpdateRequest() model.UpdateAnimalRequest {
	age := ParseLenientInt(f.Age)
	size := model.Size(f.Size)
	weight := ParseLenientFloat(f.Weight)
	temperament := f.Temperament
	phone := f.Phone
	email := f.Email
	street := f.Street
	neighborhood := f.Neighborhood
	city := f.City
	postalCode := f.PostalCode
	adopted := f.Adopted

	return model.UpdateAnimalRequest{
		Age:          &age,
		Size:         &size,
		Weight:       &weight,
		Temperament:  &temperament,
		Phone:        &phone,
		Email:        &email,
		Street:       &street,
		Neighborhood: &neighborhood,
		City:         &city,
		PostalCode:   &postalCode,
		Adopted:      &adopted,
	}
}

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseLenientInt reads the leading integer of s. Text without one, and zero,
// become 1.
func ParseLenientInt(s string) int {
	match := leadingInt.FindString(strings.TrimSpace(s))
	n, err := strconv.Atoi(match)
	if err != nil || n == 0 {
		return 1
	}
	return n
}

// ParseLenientFloat reads the leading decimal number of s. Text without one,
// and zero, become 1.
func ParseLenientFloat(s string) float64 {
	match := leadingFloat.FindString(strings.TrimSpace(s))
	n, err := strconv.ParseFloat(match, 64)
	if err != nil || n == 0 {
		return 1
	}
	return n
}
