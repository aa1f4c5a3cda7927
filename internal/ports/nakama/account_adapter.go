package nakama

import (
	"context"
	"fmt"

	"tnttag/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// accountAdapter implements ports.AccountPort on Nakama's account API.
type accountAdapter struct {
	nk      runtime.NakamaModule
	langTag string
}

func newAccountAdapter(nk runtime.NakamaModule, langTag string) *accountAdapter {
	return &accountAdapter{nk: nk, langTag: langTag}
}

// UpdateProfile sets username and display name, and tags the account with
// the module's locale. Empty fields are left unchanged by Nakama.
func (a *accountAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	metadata := map[string]interface{}{LabelKeyGame: labelGameName}
	if err := a.nk.AccountUpdateId(ctx, userID, username, metadata, displayName, "", "", a.langTag, ""); err != nil {
		return fmt.Errorf("update account %s: %w", userID, err)
	}
	return nil
}

var _ ports.AccountPort = (*accountAdapter)(nil)
