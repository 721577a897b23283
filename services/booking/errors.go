package booking

import "fmt"

// ReservationError reports a rejected reservation call for a bike that had
// already been matched. The match itself is kept for operator visibility.
type ReservationError struct {
	BikeID int
	Err    error
}

func (e *ReservationError) Error() string {
	return fmt.Sprintf("failed to reserve bike %d: %v", e.BikeID, e.Err)
}

func (e *ReservationError) Unwrap() error {
	return e.Err
}
