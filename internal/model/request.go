package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// RegisterRequest carries the registration form. Password is write-only and
// never appears in any read model.
type RegisterRequest struct {
	Name             string `json:"nome"`
	Email            string `json:"email"`
	Phone            string `json:"telefone"`
	Number           string `json:"numero"`
	Street           string `json:"rua"`
	Neighborhood     string `json:"bairro"`
	City             string `json:"cidade"`
	PostalCode       string `json:"cep"`
	Age              string `json:"idade"`
	Profession       string `json:"profissao"`
	AnimalExperience string `json:"experiencia_animais"`
	PreferredSpecies string `json:"preferencia_animal"`
	PreferredSize    string `json:"tamanho_animal"`
	PreferredBreed   string `json:"raca_animal"`
	Password         string `json:"senha"`
}

type CreateAnimalRequest struct {
	Name         string  `json:"nome"`
	Breed        string  `json:"raca"`
	Age          int     `json:"idade"`
	Sex          Sex     `json:"sexo"`
	Size         Size    `json:"tamanho"`
	Weight       float64 `json:"peso"`
	Color        string  `json:"cor"`
	Temperament  string  `json:"temperamento"`
	Phone        string  `json:"telefone"`
	Email        string  `json:"email"`
	Street       string  `json:"rua"`
	Neighborhood string  `json:"bairro"`
	City         string  `json:"cidade"`
	PostalCode   string  `json:"cep"`
}

// UpdateAnimalRequest is a partial update. Name, breed, sex and color are
// immutable after creation and have no field here.
type UpdateAnimalRequest struct {
	Age          *int     `json:"idade,omitempty"`
	Size         *Size    `json:"tamanho,omitempty"`
	Weight       *float64 `json:"peso,omitempty"`
	Temperament  *string  `json:"temperamento,omitempty"`
	Phone        *string  `json:"telefone,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Street       *string  `json:"rua,omitempty"`
	Neighborhood *string  `json:"bairro,omitempty"`
	City         *string  `json:"cidade,omitempty"`
	PostalCode   *string  `json:"cep,omitempty"`
	Adopted      *bool    `json:"adotado,omitempty"`
}
