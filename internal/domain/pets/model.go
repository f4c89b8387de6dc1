package pets

import (
	"time"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/validation"
)

// Species define las especies soportadas.
// @Enum dog, cat, bird, rabbit, reptile, other
type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesRabbit  Species = "rabbit"
	SpeciesReptile Species = "reptile"
	SpeciesOther   Species = "other"
)

var AllSpecies = []Species{SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesReptile, SpeciesOther}

// Gender define el sexo de la mascota.
// @Enum male, female, unknown
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

func init() {
	species := make([]string, 0, len(AllSpecies))
	for _, s := range AllSpecies {
		species = append(species, string(s))
	}
	validation.RegisterEnum("species", species...)
	validation.RegisterEnum("gender", string(GenderMale), string(GenderFemale), string(GenderUnknown))
}

func ParseSpecies(s string) (Species, bool) {
	for _, sp := range AllSpecies {
		if string(sp) == s {
			return sp, true
		}
	}
	return "", false
}

// Pet representa el perfil básico de una mascota de la clínica.
type Pet struct {
	ID       string
	ClinicID string
	OwnerID  string

	Name    string
	Species Species
	Breed   string
	Gender  Gender

	BirthDate *time.Time

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	Page     pagination.Query
	Search   string // nombre o raza
	ClinicID string
	OwnerID  string
	Species  Species
}
