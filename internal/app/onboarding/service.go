package onboarding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"tnttag/internal/ports"
)

// maxNameAttempts bounds how many generated names are tried before giving up.
const maxNameAttempts = 3

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// DisplayName is the generated name bound to the account.
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	stats    ports.StatsPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/stats must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, stats ports.StatsPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		stats:    stats,
		rng:      rng,
	}
}

// OnboardNewUser creates the player's statistics record under a generated
// display name and applies that name to the account profile.
// Returns an error if no statistics record could be created.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.stats == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{}
	var err error
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := s.generateFriendlyName()
		err = s.stats.EnsurePlayer(ctx, userID, name)
		if err == nil {
			result.DisplayName = name
			break
		}
		if !errors.Is(err, ports.ErrNameTaken) {
			return result, fmt.Errorf("failed to create player record: %w", err)
		}
	}
	if err != nil {
		return result, fmt.Errorf("failed to create player record after %d names: %w", maxNameAttempts, err)
	}

	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		// The stats record already exists; the profile name can be fixed later.
		result.ProfileUpdateErr = err
	}

	return result, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Blazing", "Sneaky", "Brave", "Clever", "Swift", "Fuzzy", "Mighty", "Witty", "Sly", "Wild"}
	nouns := []string{"Fuse", "Spark", "Creeper", "Rabbit", "Wolf", "Otter", "Falcon", "Bear", "Fox", "Comet"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
