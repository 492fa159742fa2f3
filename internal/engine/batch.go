package engine

// Batch accumulates tokens with their sequence positions for one Decode
// call. Only entries flagged with logits produce sampling output; the prompt
// evaluation path flags the final position only.
type Batch struct {
	Tokens []Token
	Pos    []int32
	Logits []bool
}

// NewBatch allocates a batch with capacity for n tokens.
func NewBatch(n int) *Batch {
	if n < 1 {
		n = 1
	}
	return &Batch{
		Tokens: make([]Token, 0, n),
		Pos:    make([]int32, 0, n),
		Logits: make([]bool, 0, n),
	}
}

// Add appends one token at the given position.
func (b *Batch) Add(t Token, pos int32, logits bool) {
	b.Tokens = append(b.Tokens, t)
	b.Pos = append(b.Pos, pos)
	b.Logits = append(b.Logits, logits)
}

// Clear resets the batch for reuse without releasing capacity.
func (b *Batch) Clear() {
	b.Tokens = b.Tokens[:0]
	b.Pos = b.Pos[:0]
	b.Logits = b.Logits[:0]
}

// Len reports the number of queued tokens.
func (b *Batch) Len() int { return len(b.Tokens) }

// Free releases the batch buffers.
func (b *Batch) Free() {
	b.Tokens = nil
	b.Pos = nil
	b.Logits = nil
}
