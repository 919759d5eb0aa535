package loader

import (
	"fmt"

	"newsletter_dashboard/internal/models"
)

// FetchError records a backend read that failed during the load cycle.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DeleteError is returned when the backend rejects or never answers a
// delete. The local list is left as it was.
type DeleteError struct {
	ID  models.ID
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete newsletter %s: %v", e.ID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// AddError is returned when the backend fails to store a new newsletter.
type AddError struct {
	Name string
	Err  error
}

func (e *AddError) Error() string {
	return fmt.Sprintf("add newsletter %q: %v", e.Name, e.Err)
}

func (e *AddError) Unwrap() error { return e.Err }
