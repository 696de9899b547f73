package convo

import "fmt"

// ValidateRequest applies the create-request rules in a fixed order and
// reports only the first violation: replica ID, then name, then greeting
// presence, then greeting length, then context length. Callers get one
// actionable message at a time rather than an aggregate.
func ValidateRequest(req Request) error {
	if req.ReplicaID == "" {
		return fmt.Errorf("%w: replica_id is required", ErrInvalidRequest)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: conversation_name is required", ErrInvalidRequest)
	}
	if req.Greeting == "" {
		return fmt.Errorf("%w: custom_greeting is required", ErrInvalidRequest)
	}
	if len(req.Greeting) > maxGreetingLen {
		return fmt.Errorf("%w: custom_greeting exceeds %d characters", ErrInvalidRequest, maxGreetingLen)
	}
	if len(req.Context) > maxContextLen {
		return fmt.Errorf("%w: conversational_context exceeds %d characters", ErrInvalidRequest, maxContextLen)
	}
	return nil
}
