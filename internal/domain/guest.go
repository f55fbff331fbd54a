package domain

// Guest represents a hotel guest and their loyalty ledger.
type Guest struct {
	ID      string
	Name    string
	Contact string
	// Blocked guests are rejected by the booking engine; set by the
	// administrative collaborator, enforced here.
	Blocked         bool
	LoyaltyEnrolled bool
	LoyaltyPoints   int
	// Reservations holds booking ids in creation order.
	Reservations []string
}

// EnrollmentBonus is the fixed point grant for joining the loyalty program.
const EnrollmentBonus = 50
