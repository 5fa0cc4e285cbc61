package pets

import "context"

// OwnerOf expone el ownerUserID de una mascota.
// Lo usan los handlers de pedigree y events para autorizar sin importar el handler de pets.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// IsOwnedBy es true solo para mascotas reales del usuario; un placeholder no
// pertenece a nadie.
func (s *Service) IsOwnedBy(ctx context.Context, petID, userID string) (bool, error) {
	owner, err := s.OwnerOf(ctx, petID)
	if err != nil {
		return false, err
	}
	return owner != UnclaimedOwner && owner == userID, nil
}
