package model

type Role string

const (
	RoleRegular Role = "Usuario"
	RoleAdmin   Role = "Admin"
)

// User is the profile returned by the current-session lookup. The role is
// assigned by the remote API and never sent back by this client.
type User struct {
	ID               string `json:"id"`
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
	Role             Role   `json:"role"`
	CreatedAt        string `json:"criado_em"`
	UpdatedAt        string `json:"atualizado_em"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TokenPair is the login response of the remote API.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
