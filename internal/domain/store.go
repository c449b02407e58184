package domain

// DefaultSession is the key of the one session a process serves.
const DefaultSession = "default"

type SessionState struct {
	Transcript []Message `json:"transcript"`
	Synthesis  *string   `json:"synthesis"`
}

// SynthesisText reports the last synthesis and whether one is present.
func (s SessionState) SynthesisText() (string, bool) {
	if s.Synthesis == nil {
		return "", false
	}
	return *s.Synthesis, true
}

type SessionStore interface {
	Load(key string) SessionState
	Save(key string, state SessionState)
	Clear(key string)
}
