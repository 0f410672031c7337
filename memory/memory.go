package memory

// Exchange is one past turn of the conversation.
type Exchange struct {
	Human string `json:"human"`
	AI    string `json:"ai"`
}

//go:generate mockgen -source=memory.go -destination=mocks/memory.go -package=mocks
type Memory interface {
	Append(human, ai string) error
	Context() []Exchange
}
