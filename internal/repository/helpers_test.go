package repository_test

// plainHasher keeps passwords readable so seeded accounts are easy to assert on.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}
