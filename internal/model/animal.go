package model

type Size string

const (
	SizeSmall  Size = "Pequeno"
	SizeMedium Size = "Médio"
	SizeLarge  Size = "Grande"
)

type Sex string

const (
	SexMale   Sex = "Macho"
	SexFemale Sex = "Fêmea"
)

// Animal is an adoptable pet as returned by the remote API. Name, Breed, Sex
// and Color are fixed at creation.
type Animal struct {
	ID           string  `json:"id"`
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
	Adopted      bool    `json:"adotado"`
	AdopterID    string  `json:"adotante_id"`
	CreatedAt    string  `json:"criadoem"`
	UpdatedAt    string  `json:"atualizadoem"`
}

// PartitionByAdoption splits animals by the adopted flag, keeping the
// server order inside each half. Both results are non-nil.
func PartitionByAdoption(animals []Animal) (available []Animal, adopted []Animal) {
	available = make([]Animal, 0, len(animals))
	adopted = make([]Animal, 0)
	for _, a := range animals {
		if a.Adopted {
			adopted = append(adopted, a)
			continue
		}
		available = append(available, a)
	}
	return available, adopted
}

func FindAnimal(animals []Animal, id string) (Animal, bool) {
	for _, a := range animals {
		if a.ID == id {
			return a, true
		}
	}
	return Animal{}, false
}
