package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Team represents a registered hunt team. The join code is stored as a
// bcrypt hash for verification plus a SHA-256 lookup hash for indexing,
// never in plaintext.
type Team struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"orgId"`
	HuntID         string    `json:"huntId"`
	Name           string    `json:"name"`
	CodeHash       string    `json:"-"`
	CodeLookupHash string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewTeam creates a team with a hashed join code
func NewTeam(orgID, huntID, name, code string) (*Team, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)

	if name == "" {
		return nil, ErrEmptyTeamName
	}
	if len(code) < 4 {
		return nil, ErrTeamCodeTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Team{
		ID:             uuid.New().String(),
		OrgID:          orgID,
		HuntID:         huntID,
		Name:           name,
		CodeHash:       string(hash),
		CodeLookupHash: CodeLookupHash(code),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// VerifyCode checks a join code against the stored bcrypt hash
func (t *Team) VerifyCode(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(t.CodeHash), []byte(strings.TrimSpace(code))) == nil
}

// CodeLookupHash returns the SHA-256 index hash for a join code.
// Used to find the candidate team row before the bcrypt comparison.
func CodeLookupHash(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// Team errors
var (
	ErrEmptyTeamName    = TeamError{"team name cannot be empty"}
	ErrTeamCodeTooShort = TeamError{"team code must be at least 4 characters"}
	ErrTeamNotFound     = TeamError{"team not found"}
)

type TeamError struct {
	Message string
}

func (e TeamError) Error() string {
	return e.Message
}
