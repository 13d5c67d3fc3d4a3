package memory

import (
	"context"
	"fmt"

	"doodoologserver/internal/gamification"
)

var demoUsers = []struct {
	username string
	level    int
}{
	{"Gary_The_Log", 12},
	{"LisaLogs", 5},
	{"BobBuilder", 32},
	{"SarahStomach", 8},
	{"MikeDrop", 45},
}

// SeedDemoUsers populates the directory with a handful of demo accounts
// for local runs. Existing usernames are skipped.
func (s *Store) SeedDemoUsers(ctx context.Context) error {
	for _, d := range demoUsers {
		email := fmt.Sprintf("%s@example.com", foldUsername(d.username))
		u, err := s.CreateUser(ctx, email, d.username, "")
		if err != nil {
			continue
		}
		avatar := fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", d.username)
		if err := s.SetAvatar(ctx, u.ID, avatar); err != nil {
			return err
		}
		if _, err := s.AddXP(ctx, u.ID, (d.level-1)*gamification.XPPerLevel); err != nil {
			return err
		}
	}
	return nil
}
