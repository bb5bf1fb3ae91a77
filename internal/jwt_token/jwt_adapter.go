package jwttoken

// Adapter exposes the assertion service through the middleware's
// IdentityValidator interface.
type Adapter struct {
	svc *Service
}

func NewAdapter(svc *Service) *Adapter {
	return &Adapter{svc: svc}
}

func (a *Adapter) Validate(tokenString string) (string, error) {
	identity, err := a.svc.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return identity.UserID, nil
}
