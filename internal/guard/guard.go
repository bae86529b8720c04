package guard

import (
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/model"
)

var (
	ErrUnauthorizedAccount = apperr.New(apperr.KindAuthorization, "unauthorized account")
	ErrEnforcedPause       = apperr.New(apperr.KindPaused, "enforced pause")
	ErrAlreadyPaused       = apperr.New(apperr.KindState, "enforced pause")
	ErrExpectedPause       = apperr.New(apperr.KindState, "expected pause")
)

// Ownable holds a single privileged account. It is not safe for concurrent
// use; the embedding component serializes access.
type Ownable struct {
	owner model.Address
}

func NewOwnable(owner model.Address) Ownable {
	return Ownable{owner: owner}
}

func (o Ownable) Owner() model.Address {
	return o.owner
}

func (o Ownable) CheckOwner(caller model.Address) error {
	if caller.IsZero() || caller != o.owner {
		return ErrUnauthorizedAccount
	}
	return nil
}

// Pausable lets the owner halt every mutating entry point of a component.
type Pausable struct {
	Ownable
	paused bool
}

func NewPausable(owner model.Address) Pausable {
	return Pausable{Ownable: NewOwnable(owner)}
}

func (p *Pausable) Paused() bool {
	return p.paused
}

func (p *Pausable) WhenNotPaused() error {
	if p.paused {
		return ErrEnforcedPause
	}
	return nil
}

func (p *Pausable) Pause(caller model.Address) error {
	if err := p.CheckOwner(caller); err != nil {
		return err
	}
	if p.paused {
		return ErrAlreadyPaused
	}
	p.paused = true
	return nil
}

func (p *Pausable) Unpause(caller model.Address) error {
	if err := p.CheckOwner(caller); err != nil {
		return err
	}
	if !p.paused {
		return ErrExpectedPause
	}
	p.paused = false
	return nil
}
