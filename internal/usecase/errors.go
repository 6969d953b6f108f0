package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrRepository = errors.New("repository error")
	ErrPlayer     = errors.New("player error")
)

func wrapRepo(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRepository, err)
}

func wrapPlayer(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrPlayer, err)
}
