package authflowrepo

import "time"

// AuthFlowState tracks one in-flight OAuth login with the external provider.
type AuthFlowState struct {
	Nonce     string
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
}
