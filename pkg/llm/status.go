package llm

import (
	"context"
	"errors"
	"fmt"
)

type Status struct {
	Available bool      `json:"available"`
	Running   bool      `json:"running"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Kind      ErrorKind `json:"kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// CheckStatus pings the completion service with a tiny request.
func CheckStatus(ctx context.Context, c Completer) Status {
	st := Status{Provider: c.Provider(), Model: c.Model()}

	_, err := c.Complete(ctx, CompletionRequest{Prompt: "ping", MaxTokens: 5})
	if err == nil {
		st.Available = true
		st.Running = true
		return st
	}

	st.Kind = KindOf(err)
	if errors.Is(err, ErrUnavailable) {
		st.Message = fmt.Sprintf("No API key set for %s. Add it to your .env file.", st.Provider)
		return st
	}
	st.Available = true
	st.Message = fmt.Sprintf("%s API error: %v", st.Provider, err)
	return st
}
