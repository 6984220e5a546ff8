package cli

import (
	"fmt"

	"github.com/nbutton23/zxcvbn-go"
)

// MinPasswordScore is the minimum zxcvbn score (0..4) accepted for the
// unlock password set via the setup command.
const MinPasswordScore = 2

// CheckPasswordStrength estimates the strength of the candidate password and
// rejects anything below MinPasswordScore. The estimate is advisory only;
// the vault accepts whatever passes here.
func CheckPasswordStrength(password string) error {
	if len(password) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	score := zxcvbn.PasswordStrength(password, nil).Score
	if score < MinPasswordScore {
		return fmt.Errorf("password too weak (score %d of %d required); use a longer or less predictable password",
			score, MinPasswordScore)
	}
	return nil
}
