package users

// WithHashCost baja el costo de bcrypt en tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}
