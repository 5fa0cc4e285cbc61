package pets

import (
	"encoding/json"
	"slices"
	"time"
)

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// UnclaimedOwner es el owner reservado de los placeholders: mascotas sin cuenta
// propia que existen solo para anclar un padre/hijo en el pedigree.
const UnclaimedOwner = "__unclaimed__"

// MaxParents es el máximo de padres biológicos por mascota.
const MaxParents = 2

// Pet representa el perfil de una mascota y sus aristas de pedigree.
// Parents/Children se guardan redundantes en ambos lados de cada arista.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species string // dog, cat
	Breed   string
	Sex     string // male, female, unknown

	BirthDate *time.Time
	Microchip string

	Notes string

	Parents  []string // ordenado, máx 2
	Children []string

	// Attributes lleva el resto del perfil (vacunas, premios, imágenes, NFT...)
	// sin interpretarlo. Las operaciones de pedigree lo preservan tal cual.
	Attributes json.RawMessage

	// Version se usa para escrituras optimistas; la incrementa el store.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Pet) IsPlaceholder() bool {
	return p.OwnerUserID == UnclaimedOwner
}

func (p Pet) HasParent(id string) bool {
	return slices.Contains(p.Parents, id)
}

func (p Pet) HasChild(id string) bool {
	return slices.Contains(p.Children, id)
}

// Clone devuelve una copia sin aliasing de slices ni attributes.
func (p Pet) Clone() Pet {
	out := p
	out.Parents = slices.Clone(p.Parents)
	out.Children = slices.Clone(p.Children)
	if p.Attributes != nil {
		out.Attributes = slices.Clone(p.Attributes)
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		out.BirthDate = &bd
	}
	return out
}

// appendUnique / removeID operan sobre copias para no mutar el slice del caller.
func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return slices.Clone(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// WithParent / WithoutParent / WithChild / WithoutChild devuelven una copia
// con la arista agregada o quitada de este lado.
func (p Pet) WithParent(id string) Pet {
	out := p.Clone()
	out.Parents = appendUnique(p.Parents, id)
	return out
}

func (p Pet) WithoutParent(id string) Pet {
	out := p.Clone()
	out.Parents = removeID(p.Parents, id)
	return out
}

func (p Pet) WithChild(id string) Pet {
	out := p.Clone()
	out.Children = appendUnique(p.Children, id)
	return out
}

func (p Pet) WithoutChild(id string) Pet {
	out := p.Clone()
	out.Children = removeID(p.Children, id)
	return out
}
