package helloworld

import "fmt"

// ConstructionError: the wallet could not build the requested transaction.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("wallet failed to construct transaction: %s", e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// MissingProofError: a spend was attempted on a token that carries no proof
// bundle. Raised before any network activity.
type MissingProofError struct {
	Op string
}

func (e *MissingProofError) Error() string {
	return fmt.Sprintf("cannot %s token: no proof bundle attached", e.Op)
}

// SigningError: no finalized transaction was obtained after the sign phase.
type SigningError struct {
	Op string
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("%s produced no signed transaction", e.Op)
}
