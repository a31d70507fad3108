package order

import "github.com/lunchup/lunchup-be/internal/domain/user"

// CanView reports whether u may read o's full detail. The four access rules:
// the buyer who placed it, the assigned jastiper, any admin, and any jastiper
// while the order is still pending (so the candidate pool can be inspected
// before accepting).
func CanView(u user.User, o *Order) bool {
	switch {
	case o.BuyerID == u.ID:
		return true
	case u.Role == user.RoleAdmin:
		return true
	case o.JastiperID != nil && *o.JastiperID == u.ID:
		return true
	case u.Role == user.RoleJastiper && o.Status == StatusPending:
		return true
	}
	return false
}
