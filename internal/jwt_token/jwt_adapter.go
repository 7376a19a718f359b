package jwttoken

import (
	"claimtriage/pkg/domain"
)

// ActorValidator adapts JWTService to the auth middleware's validator port.
type ActorValidator struct {
	service *JWTService
}

func NewActorValidator(service *JWTService) *ActorValidator {
	return &ActorValidator{service: service}
}

func (a *ActorValidator) ValidateToken(tokenString string) (domain.Actor, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	return ActorFromClaims(claims)
}
