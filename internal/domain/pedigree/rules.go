package pedigree

import "pet-pedigree/internal/domain/pets"

// Reglas de aristas. Son funciones puras sobre los dos registros tal cual se
// leyeron: no tocan el store, así se pueden evaluar bajo lock y también en
// tests sin repositorio.
//
// Orden de chequeo: self-reference, duplicado, ciclo inmediato, grado.
// El primero que falla define el Reason.

// CanAddParent valida agregar parent como padre de child.
func CanAddParent(child, parent pets.Pet) error {
	return checkEdge(child, parent)
}

// CanAddChild valida agregar child como hijo de parent. Es la misma arista vista
// desde el otro lado: rechaza igual si child ya es padre de parent.
func CanAddChild(parent, child pets.Pet) error {
	return checkEdge(child, parent)
}

// CanAcceptParent valida solo el grado de child; se usa antes de crear un
// placeholder padre, cuando todavía no hay otro registro contra el cual chequear.
func CanAcceptParent(child pets.Pet) error {
	if len(child.Parents) >= pets.MaxParents {
		return reject(ReasonTwoParentsExceeded, child.ID, "")
	}
	return nil
}

func checkEdge(child, parent pets.Pet) error {
	if child.ID == parent.ID {
		return reject(ReasonSelfReference, child.ID, parent.ID)
	}
	// cualquiera de los dos lados alcanza: una arista a medio escribir también es duplicado
	if child.HasParent(parent.ID) || parent.HasChild(child.ID) {
		return reject(ReasonDuplicateEdge, child.ID, parent.ID)
	}
	if parent.HasParent(child.ID) || child.HasChild(parent.ID) {
		return reject(ReasonImmediateCycle, child.ID, parent.ID)
	}
	if len(child.Parents) >= pets.MaxParents {
		return reject(ReasonTwoParentsExceeded, child.ID, parent.ID)
	}
	return nil
}
