package memory

// WindowMemory keeps the most recent MaxExchanges exchanges, evicting the
// oldest first. A non-positive MaxExchanges keeps nothing.
type WindowMemory struct {
	MaxExchanges int
	Buffer       []Exchange
}

func (memory *WindowMemory) reduceBuffer() {
	if memory.MaxExchanges < 1 {
		memory.Buffer = nil
		return
	}
	if len(memory.Buffer) > memory.MaxExchanges {
		memory.Buffer = memory.Buffer[len(memory.Buffer)-memory.MaxExchanges:]
	}
}

func (memory *WindowMemory) add(exchange Exchange) {
	memory.Buffer = append(memory.Buffer, exchange)
	memory.reduceBuffer()
}

func (memory *WindowMemory) Append(human, ai string) error {
	memory.add(Exchange{Human: human, AI: ai})
	return nil
}

func (memory *WindowMemory) Context() []Exchange {
	window := make([]Exchange, len(memory.Buffer))
	copy(window, memory.Buffer)
	return window
}

func (memory *WindowMemory) Len() int {
	return len(memory.Buffer)
}

func NewWindowMemory(maxExchanges int) *WindowMemory {
	return &WindowMemory{
		MaxExchanges: maxExchanges,
	}
}
