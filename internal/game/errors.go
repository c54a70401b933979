package game

import (
	"errors"
	"fmt"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
)

// ErrSessionNotActive is returned by Guess and GiveUp on a finished session.
var ErrSessionNotActive = errors.New("game: session is not active")

// UnknownEntityError reports a guess that matched no catalog entity.
// The attempt still counts. It unwraps to catalog.ErrNoMatch.
type UnknownEntityError struct {
	Name     string
	Attempts int
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("game: no entity matches %q", e.Name)
}

func (e *UnknownEntityError) Unwrap() error { return catalog.ErrNoMatch }
