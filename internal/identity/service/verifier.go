package service

// Hasher verifies stored password hashes and generates throwaway secrets.
type Hasher interface {
	// Compare reports whether password matches hash in constant time. A mismatch is (false, nil).
	Compare(password, hash string) (bool, error)
	GenerateRandomSecret() (string, error)
}

// verify checks password against the stored hash. Neither value is logged.
func verify(h Hasher, password, hash string) error {
	ok, err := h.Compare(password, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
